package logger

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	gnet "github.com/shirou/gopsutil/v3/net" //cloudwatch

	"github.com/aws/aws-sdk-go-v2/aws"                              //cloudwatch
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types" //cloudwatch
)

type flowStat struct {
	events int64
	rows   int64
}

type componentStat struct {
	warns  int64
	errors int64
}

var (
	loadsOK        int64
	loadsFailed    int64
	reportsBuilt   int64
	exportsWritten int64
	presetOps      int64
	components     sync.Map // map[string]*componentStat
	flows          sync.Map // map[string]*flowStat
)

func recordWarn(component string) {
	componentStats(component).addWarn()
}

func recordError(component string) {
	componentStats(component).addError()
}

func componentStats(component string) *componentStat {
	v, _ := components.LoadOrStore(component, &componentStat{})
	return v.(*componentStat)
}

func (c *componentStat) addWarn()  { atomic.AddInt64(&c.warns, 1) }
func (c *componentStat) addError() { atomic.AddInt64(&c.errors, 1) }

// IncrementLoad counts a successful trade load and the rows it produced.
func IncrementLoad(rows int) {
	atomic.AddInt64(&loadsOK, 1)
	recordFlow("trade_load", rows)
}

// IncrementLoadFailure counts a load that errored or failed validation.
func IncrementLoadFailure() {
	atomic.AddInt64(&loadsFailed, 1)
}

// IncrementReportBuilt counts a built ranking report and its rows.
func IncrementReportBuilt(rows int) {
	atomic.AddInt64(&reportsBuilt, 1)
	recordFlow("report_build", rows)
}

// IncrementExport counts a written export artifact of the given kind.
func IncrementExport(kind string, bytes int) {
	atomic.AddInt64(&exportsWritten, 1)
	recordFlow("export_"+kind, bytes)
}

// IncrementPresetOp counts a preset store operation.
func IncrementPresetOp() {
	atomic.AddInt64(&presetOps, 1)
}

// RunCounters is a point-in-time snapshot of the activity counters the
// periodic runtime report publishes.
type RunCounters struct {
	LoadsOK        int64
	LoadsFailed    int64
	ReportsBuilt   int64
	ExportsWritten int64
	PresetOps      int64
}

// SnapshotRunCounters reads the current activity counter values.
func SnapshotRunCounters() RunCounters {
	return RunCounters{
		LoadsOK:        atomic.LoadInt64(&loadsOK),
		LoadsFailed:    atomic.LoadInt64(&loadsFailed),
		ReportsBuilt:   atomic.LoadInt64(&reportsBuilt),
		ExportsWritten: atomic.LoadInt64(&exportsWritten),
		PresetOps:      atomic.LoadInt64(&presetOps),
	}
}

// RecordFlow counts an event on a named data flow along with its row count.
func RecordFlow(name string, rows int) {
	recordFlow(name, rows)
}

func recordFlow(name string, rows int) {
	v, _ := flows.LoadOrStore(name, &flowStat{})
	fs := v.(*flowStat)
	atomic.AddInt64(&fs.events, 1)
	atomic.AddInt64(&fs.rows, int64(rows))
}

func startReport(ctx context.Context, log *Log, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		for {
			select {
			case <-ctx.Done():
				ticker.Stop()
				return
			case <-ticker.C:
				logReport(ctx, log)
			}
		}
	}()
}

// StartReport begins periodic logging of system and flow statistics.
// It exposes the internal startReport function for use by other packages.
func StartReport(ctx context.Context, log *Log, interval time.Duration) {
	startReport(ctx, log, interval)
}

func logReport(ctx context.Context, log *Log) {
	cpuPercent, _ := cpu.Percent(0, false)
	memStats, _ := mem.VirtualMemory()
	diskStats, _ := disk.Usage("/")
	netStats, _ := gnet.IOCounters(false)

	flowData := map[string]map[string]int64{}
	flows.Range(func(k, v any) bool {
		name := k.(string)
		fs := v.(*flowStat)
		flowData[name] = map[string]int64{
			"events": atomic.LoadInt64(&fs.events),
			"rows":   atomic.LoadInt64(&fs.rows),
		}
		return true
	})

	warns := int64(0)
	errors := int64(0)
	components.Range(func(_, v any) bool {
		cs := v.(*componentStat)
		warns += atomic.LoadInt64(&cs.warns)
		errors += atomic.LoadInt64(&cs.errors)
		return true
	})

	cpuPct := 0.0
	if len(cpuPercent) > 0 {
		cpuPct = cpuPercent[0]
	}

	bytesSent := uint64(0)
	bytesRecv := uint64(0)
	if len(netStats) > 0 {
		bytesSent = netStats[0].BytesSent
		bytesRecv = netStats[0].BytesRecv
	}

	fields := Fields{
		"loads_ok":        atomic.LoadInt64(&loadsOK),
		"loads_failed":    atomic.LoadInt64(&loadsFailed),
		"reports_built":   atomic.LoadInt64(&reportsBuilt),
		"exports_written": atomic.LoadInt64(&exportsWritten),
		"preset_ops":      atomic.LoadInt64(&presetOps),
		"warns":           warns,
		"errors":          errors,
		"goroutines":      runtime.NumGoroutine(),
		"cpu_percent":     cpuPct,
		"memory_mb":       int64(memStats.Used) / 1024 / 1024,
		"disk_mb":         int64(diskStats.Used) / 1024 / 1024,
		"flows":           flowData,
		"net_bytes_sent":  int64(bytesSent),
		"net_bytes_recv":  int64(bytesRecv),
	}

	log.WithComponent("report").WithFields(fields).Info("runtime report")

	var data []cwtypes.MetricDatum
	data = append(data,
		cwtypes.MetricDatum{MetricName: aws.String("TF-CPUPercent"), Unit: cwtypes.StandardUnitPercent, Value: aws.Float64(cpuPct)},
		cwtypes.MetricDatum{MetricName: aws.String("TF-MemoryMB"), Unit: cwtypes.StandardUnitMegabytes, Value: aws.Float64(float64(memStats.Used) / 1024 / 1024)},
		cwtypes.MetricDatum{MetricName: aws.String("TF-DiskMB"), Unit: cwtypes.StandardUnitMegabytes, Value: aws.Float64(float64(diskStats.Used) / 1024 / 1024)},
		cwtypes.MetricDatum{MetricName: aws.String("TF-LoadsOK"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["loads_ok"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("TF-LoadsFailed"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["loads_failed"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("TF-ReportsBuilt"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["reports_built"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("TF-ExportsWritten"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["exports_written"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("TF-PresetOps"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["preset_ops"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("TF-Warns"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(warns))},
		cwtypes.MetricDatum{MetricName: aws.String("TF-Errors"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(errors))},
		cwtypes.MetricDatum{MetricName: aws.String("TF-NetBytesSent"), Unit: cwtypes.StandardUnitBytes, Value: aws.Float64(float64(bytesSent))},
		cwtypes.MetricDatum{MetricName: aws.String("TF-NetBytesRecv"), Unit: cwtypes.StandardUnitBytes, Value: aws.Float64(float64(bytesRecv))},
	)

	for name, stats := range flowData {
		data = append(data,
			cwtypes.MetricDatum{
				MetricName: aws.String("TF-FlowEvents"),
				Unit:       cwtypes.StandardUnitCount,
				Dimensions: []cwtypes.Dimension{{Name: aws.String("Flow"), Value: aws.String(name)}},
				Value:      aws.Float64(float64(stats["events"])),
			},
			cwtypes.MetricDatum{
				MetricName: aws.String("TF-FlowRows"),
				Unit:       cwtypes.StandardUnitCount,
				Dimensions: []cwtypes.Dimension{{Name: aws.String("Flow"), Value: aws.String(name)}},
				Value:      aws.Float64(float64(stats["rows"])),
			},
		)
	}

	publishMetrics(ctx, data)
}
