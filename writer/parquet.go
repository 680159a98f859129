package writer

import (
	"bytes"
	"fmt"

	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/source"
	pqwriter "github.com/xitongsys/parquet-go/writer"

	"tradeflow/internal/table"
)

// ParquetRecord is the parquet layout of an end-of-day row: the fixed trade
// fields plus the reduction day. Flag padding columns are not exported.
type ParquetRecord struct {
	TradeNr                     int64   `parquet:"name=tradeNr, type=INT64"`
	Instrument                  string  `parquet:"name=instrument, type=BYTE_ARRAY, convertedtype=UTF8"`
	TradeTime                   int64   `parquet:"name=tradeTime, type=INT64"`
	Day                         string  `parquet:"name=day, type=BYTE_ARRAY, convertedtype=UTF8"`
	TradeUnderlyingSpotRef      float64 `parquet:"name=tradeUnderlyingSpotRef, type=DOUBLE"`
	Portfolio                   string  `parquet:"name=portfolio, type=BYTE_ARRAY, convertedtype=UTF8"`
	Counterparty                string  `parquet:"name=counterparty, type=BYTE_ARRAY, convertedtype=UTF8"`
	Underlying                  string  `parquet:"name=underlying, type=BYTE_ARRAY, convertedtype=UTF8"`
	CumDelta                    float64 `parquet:"name=CumDelta, type=DOUBLE"`
	CumDeltaStock               float64 `parquet:"name=CumDelta_stock, type=DOUBLE"`
	CumDeltaCertificatesAbandon float64 `parquet:"name=CumDelta_certificates_abandon, type=DOUBLE"`
	CumDeltaOurAbandon          float64 `parquet:"name=CumDelta_our_abandon, type=DOUBLE"`
	CumDeltaExternalAbandon     float64 `parquet:"name=CumDelta_external_abandon, type=DOUBLE"`
	CumDeltaOurScheine          float64 `parquet:"name=CumDelta_our_scheine, type=DOUBLE"`
	CumDeltaExternalScheine     float64 `parquet:"name=CumDelta_external_scheine, type=DOUBLE"`
	PremiaCum                   float64 `parquet:"name=PremiaCum, type=DOUBLE"`
	SpreadsCapture              float64 `parquet:"name=SpreadsCapture, type=DOUBLE"`
	FullSpreadCapture           float64 `parquet:"name=FullSpreadCapture, type=DOUBLE"`
	Total                       float64 `parquet:"name=Total, type=DOUBLE"`
	PnlVonDeltaCum              float64 `parquet:"name=PnlVonDeltaCum, type=DOUBLE"`
	FeesCum                     float64 `parquet:"name=feesCum, type=DOUBLE"`
	AufgeldCum                  float64 `parquet:"name=AufgeldCum, type=DOUBLE"`
}

// memoryFileWriter implements ParquetFile interface for in-memory writing
type memoryFileWriter struct {
	buffer *bytes.Buffer
}

func newMemoryFileWriter() *memoryFileWriter {
	return &memoryFileWriter{
		buffer: &bytes.Buffer{},
	}
}

func (mfw *memoryFileWriter) Create(name string) (source.ParquetFile, error) {
	return mfw, nil
}

func (mfw *memoryFileWriter) Open(name string) (source.ParquetFile, error) {
	return mfw, nil
}

func (mfw *memoryFileWriter) Seek(offset int64, whence int) (int64, error) {
	return int64(mfw.buffer.Len()), nil
}

func (mfw *memoryFileWriter) Read(b []byte) (int, error) {
	return mfw.buffer.Read(b)
}

func (mfw *memoryFileWriter) Write(b []byte) (int, error) {
	return mfw.buffer.Write(b)
}

func (mfw *memoryFileWriter) Close() error {
	return nil
}

func (mfw *memoryFileWriter) Bytes() []byte {
	return mfw.buffer.Bytes()
}

// buildParquetFile encodes an end-of-day table as an in-memory parquet file.
func buildParquetFile(eod *table.Table, compression string) ([]byte, int64, error) {
	fw := newMemoryFileWriter()

	pw, err := pqwriter.NewParquetWriter(fw, new(ParquetRecord), 4)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create parquet writer: %w", err)
	}

	switch compression {
	case "snappy":
		pw.CompressionType = parquet.CompressionCodec_SNAPPY
	case "gzip":
		pw.CompressionType = parquet.CompressionCodec_GZIP
	case "lzo":
		pw.CompressionType = parquet.CompressionCodec_LZO
	default:
		pw.CompressionType = parquet.CompressionCodec_UNCOMPRESSED
	}

	str := func(name string, i int) string {
		c, ok := eod.Column(name)
		if !ok {
			return ""
		}
		v, _ := c.StringAt(i)
		return v
	}
	num := func(name string, i int) float64 {
		c, ok := eod.Column(name)
		if !ok {
			return 0
		}
		return c.NumberAt(i)
	}

	for i := 0; i < eod.NumRows(); i++ {
		record := ParquetRecord{
			Instrument:                  str("instrument", i),
			Portfolio:                   str("portfolio", i),
			Counterparty:                str("counterparty", i),
			Underlying:                  str("underlying", i),
			TradeUnderlyingSpotRef:      num("tradeUnderlyingSpotRef", i),
			CumDelta:                    num("CumDelta", i),
			CumDeltaStock:               num("CumDelta_stock", i),
			CumDeltaCertificatesAbandon: num("CumDelta_certificates_abandon", i),
			CumDeltaOurAbandon:          num("CumDelta_our_abandon", i),
			CumDeltaExternalAbandon:     num("CumDelta_external_abandon", i),
			CumDeltaOurScheine:          num("CumDelta_our_scheine", i),
			CumDeltaExternalScheine:     num("CumDelta_external_scheine", i),
			PremiaCum:                   num("PremiaCum", i),
			SpreadsCapture:              num("SpreadsCapture", i),
			FullSpreadCapture:           num("FullSpreadCapture", i),
			Total:                       num("Total", i),
			PnlVonDeltaCum:              num("PnlVonDeltaCum", i),
			FeesCum:                     num("feesCum", i),
			AufgeldCum:                  num("AufgeldCum", i),
		}
		if c, ok := eod.Column("tradeNr"); ok {
			if v, ok := c.IntAt(i); ok {
				record.TradeNr = v
			}
		}
		if c, ok := eod.Column("tradeTime"); ok {
			if v, ok := c.TimeAt(i); ok {
				record.TradeTime = v.UnixMilli()
			}
		}
		if c, ok := eod.Column("day"); ok {
			if v, ok := c.TimeAt(i); ok {
				record.Day = v.Format("2006-01-02")
			}
		}

		if err := pw.Write(record); err != nil {
			pw.WriteStop()
			return nil, 0, fmt.Errorf("failed to write parquet record: %w", err)
		}
	}

	if err := pw.WriteStop(); err != nil {
		return nil, 0, fmt.Errorf("failed to finalize parquet writing: %w", err)
	}

	return fw.Bytes(), int64(eod.NumRows()), nil
}
