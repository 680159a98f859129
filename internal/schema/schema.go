// Package schema is the single owner of the production trade-record layout.
// Every other component resolves the fixed column list through this package
// instead of redeclaring it.
package schema

import (
	"fmt"

	"tradeflow/internal/table"
)

// DefaultTotalColumns is the production table width: fixed columns plus
// boolean flag padding.
const DefaultTotalColumns = 64

// ProdCols lists the fixed production columns in their canonical order.
var ProdCols = []string{
	"tradeNr",
	"instrument",
	"tradeTime",
	"tradeUnderlyingSpotRef",
	"portfolio",
	"counterparty",
	"underlying",
	"CumDelta",
	"CumDelta_stock",
	"CumDelta_certificates_abandon",
	"CumDelta_our_abandon",
	"CumDelta_external_abandon",
	"CumDelta_our_scheine",
	"CumDelta_external_scheine",
	"PremiaCum",
	"SpreadsCapture",
	"FullSpreadCapture",
	"Total",
	"PnlVonDeltaCum",
	"feesCum",
	"AufgeldCum",
}

// MetricCols are the cumulative PnL buckets the report builder ranks on.
var MetricCols = []string{
	"Total",
	"PremiaCum",
	"SpreadsCapture",
	"FullSpreadCapture",
	"PnlVonDeltaCum",
	"feesCum",
	"AufgeldCum",
}

// ConfigError reports an invalid schema configuration. It is fatal at
// construction time and never recoverable at runtime.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string { return "schema config: " + e.Msg }

// SchemaError reports a table that fails validation against the production
// layout. Callers surface it as a load failure and keep the prior table.
type SchemaError struct {
	Msg string
}

func (e *SchemaError) Error() string { return "schema: " + e.Msg }

func kindOf(name string) table.Kind {
	switch name {
	case "tradeNr":
		return table.KindInt
	case "tradeTime":
		return table.KindTime
	case "instrument", "portfolio", "counterparty", "underlying":
		return table.KindString
	default:
		return table.KindFloat
	}
}

// FlagCols generates the ordered boolean flag column names padding the
// schema to totalColumns. Returns a ConfigError when totalColumns is
// smaller than the fixed column count.
func FlagCols(totalColumns int) ([]string, error) {
	nFlags := totalColumns - len(ProdCols)
	if nFlags < 0 {
		return nil, &ConfigError{Msg: fmt.Sprintf(
			"total_columns=%d is smaller than the %d production columns", totalColumns, len(ProdCols))}
	}
	out := make([]string, nFlags)
	for i := range out {
		out[i] = fmt.Sprintf("flag_%02d", i)
	}
	return out, nil
}

// BuildEmpty produces a default-valued trade table with nRows rows and
// exactly totalColumns columns: the fixed fields followed by the flag
// padding. tradeNr is pre-numbered 1..nRows, tradeTime is missing, strings
// are empty, numerics zero, flags false.
func BuildEmpty(nRows, totalColumns int) (*table.Table, error) {
	flags, err := FlagCols(totalColumns)
	if err != nil {
		return nil, err
	}

	cols := make([]*table.Column, 0, totalColumns)
	for _, name := range ProdCols {
		c := table.NewEmptyColumn(name, kindOf(name), nRows)
		if name == "tradeNr" {
			for i := 0; i < nRows; i++ {
				c.SetInt(i, int64(i+1))
			}
		}
		cols = append(cols, c)
	}
	for _, name := range flags {
		cols = append(cols, table.NewEmptyColumn(name, table.KindBool, nRows))
	}
	return table.New(cols...)
}

// Validate checks a loaded table against the production layout: every fixed
// column present, exactly totalColumns columns, and tradeTime declared as a
// timestamp. The check is pure.
func Validate(t *table.Table, totalColumns int) error {
	if t == nil {
		return &SchemaError{Msg: "no table"}
	}
	var missing []string
	for _, name := range ProdCols {
		if !t.HasColumn(name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return &SchemaError{Msg: fmt.Sprintf("missing required production columns: %v", missing)}
	}
	if t.NumCols() != totalColumns {
		return &SchemaError{Msg: fmt.Sprintf("expected %d columns, got %d", totalColumns, t.NumCols())}
	}
	tt, _ := t.Column("tradeTime")
	if tt.Kind() != table.KindTime {
		return &SchemaError{Msg: fmt.Sprintf("tradeTime must be a timestamp column, got %s", tt.Kind())}
	}
	return nil
}
