// Package collector samples pool statistics and prints them as InfluxDB
// line-protocol records: pool summary, scan status, top-level queue
// gauges, and per-device latency, size and queue measurements.
package collector

import (
	"io"
	"time"

	"github.com/richardelling/zpool-influxdb/pkg/config"
	"github.com/richardelling/zpool-influxdb/pkg/nvlist"
	"github.com/richardelling/zpool-influxdb/pkg/zpool"
	"k8s.io/klog/v2"
)

// Measurement names. Fixed: downstream schemas key on them.
const (
	poolMeasurement        = "zpool_stats"
	scanMeasurement        = "zpool_scan_stats"
	vdevMeasurement        = "zpool_vdev_stats"
	poolLatencyMeasurement = "zpool_latency"
	poolIOSizeMeasurement  = "zpool_io_size"
	poolQueueMeasurement   = "zpool_vdev_queue"
)

// Pool is the slice of the data source the collector needs. zpool.Pool
// satisfies it; tests substitute fakes.
type Pool interface {
	Name() string
	RefreshStats() error
	Config() *nvlist.List
}

// Collector runs sampling passes over pools and writes metric lines.
type Collector struct {
	config *config.Config
	enc    *Encoder

	// Injectable clocks: nowNanos stamps metric lines, nowUnix feeds the
	// scan-progress arithmetic.
	nowNanos func() uint64
	nowUnix  func() int64

	complainedAboutSync int
}

// New creates a collector writing line-protocol text to w. w must carry
// only metric output; diagnostics go to the log.
func New(cfg *config.Config, w io.Writer) *Collector {
	return &Collector{
		config:   cfg,
		enc:      NewEncoder(w, cfg.Uint64Support),
		nowNanos: func() uint64 { return uint64(time.Now().UnixNano()) },
		nowUnix:  func() int64 { return time.Now().Unix() },
	}
}

// Run performs one sampling pass over the pools that match the configured
// name (all of them when no name is configured) and flushes the output.
// One pool's failure never aborts the pass; the returned status is the
// last failing pool's class.
func (c *Collector) Run(pools []Pool) Status {
	status := StatusOK
	for _, p := range pools {
		if c.config.PoolName != "" && p.Name() != c.config.PoolName {
			continue
		}
		if st := c.samplePool(p); st != StatusOK {
			status = st
		}
	}
	if err := c.enc.Flush(); err != nil {
		klog.Errorf("failed to flush metric output: %v", err)
	}
	return status
}

// samplePool refreshes, reads and encodes one pool. Any failure abandons
// the remainder of this pool's sample; lines already written stay written.
func (c *Collector) samplePool(p Pool) Status {
	if err := p.RefreshStats(); err != nil {
		klog.Errorf("pool %s: %v", p.Name(), err)
		return StatusRefreshFailed
	}

	// One timestamp per pass, shared by every line.
	timestamp := c.nowNanos()

	root, err := p.Config().List(nvlist.KeyVdevTree)
	if err != nil {
		klog.Errorf("pool %s: %v", p.Name(), err)
		return StatusConfigLookupFailed
	}
	if _, err := root.Uint64Array(nvlist.KeyVdevStats); err != nil {
		klog.Errorf("pool %s: %v", p.Name(), err)
		return StatusMissingVdevStats
	}

	name := p.Name()
	err = walkDeviceTree(root, "", true, c.summaryVisitor(name, timestamp))
	if err == nil {
		err = c.emitScanStatus(root, name, timestamp)
	}
	if err == nil {
		err = c.emitTopLevelQueues(root, name, timestamp)
	}
	if err == nil && !c.config.NoHistograms {
		err = walkDeviceTree(root, "", true,
			c.histogramVisitor(poolLatencyMeasurement, latencyClasses, minLatIndex, latencyBound, name, timestamp))
		if err == nil {
			err = walkDeviceTree(root, "", true,
				c.histogramVisitor(poolIOSizeMeasurement, sizeClasses, minSizeIndex, sizeBound, name, timestamp))
		}
		if err == nil {
			// Queue depths are instantaneous gauges; only the pool-wide
			// view is meaningful, so this walk does not descend.
			err = walkDeviceTree(root, "", false, c.queueVisitor(name, timestamp))
		}
	}
	if err != nil {
		klog.Errorf("pool %s: abandoning sample: %v", p.Name(), err)
		return statusOf(err)
	}
	return StatusOK
}

// summaryVisitor emits one zpool_stats line per device: the counters shown
// by zpool status and zpool list -v.
func (c *Collector) summaryVisitor(poolName string, timestamp uint64) visitFunc {
	return func(vdev *nvlist.List, parentName string) error {
		vs, err := zpool.VdevStatsFromList(vdev)
		if err != nil {
			return withStatus(StatusMissingVdevStats, err)
		}

		tags := append([]Tag{
			{"name", poolName},
			{"state", zpool.StateName(vs.State, vs.Aux)},
		}, deviceTags(vdev, parentName)...)

		fields := []Field{
			{"alloc", Uint(vs.Alloc)},
			{"free", Uint(vs.Space - vs.Alloc)},
			{"size", Uint(vs.Space)},
			{"read_bytes", Uint(vs.ReadBytes)},
			{"read_errors", Uint(vs.ReadErrors)},
			{"read_ops", Uint(vs.ReadOps)},
			{"write_bytes", Uint(vs.WriteBytes)},
			{"write_errors", Uint(vs.WriteErrors)},
			{"write_ops", Uint(vs.WriteOps)},
			{"checksum_errors", Uint(vs.ChecksumErrors)},
			{"fragmentation", Uint(vs.Fragmentation)},
		}
		return c.enc.EncodeLine(poolMeasurement, tags, fields, timestamp)
	}
}

// emitScanStatus emits the zpool_scan_stats line. A pool that has never
// been scanned has no record, which is not an error; a record with a state
// or function outside the catalogue is skipped with a rate-limited
// complaint so a newer kernel cannot flood the log.
func (c *Collector) emitScanStatus(root *nvlist.List, poolName string, timestamp uint64) error {
	ss, err := zpool.ScanStatsFromList(root)
	if err != nil {
		return withStatus(StatusConfigLookupFailed, err)
	}
	if ss == nil {
		return nil
	}
	if !scanKnown(ss) {
		if c.complainedAboutSync%1000 == 0 {
			klog.Errorf("cannot decode scan stats: ZFS is out of sync with zpool-influxdb")
		}
		c.complainedAboutSync++
		return nil
	}

	progress := computeScanProgress(ss, c.nowUnix())

	tags := []Tag{
		{"function", scanFuncNames[ss.Func]},
		{"name", poolName},
		{"state", scanStateNames[ss.State]},
	}
	fields := []Field{
		{"end_ts", Uint(ss.EndTime)},
		{"errors", Uint(ss.Errors)},
		{"examined", Uint(progress.examined)},
		{"pass_examined", Uint(progress.passExam)},
		{"pause_ts", Uint(ss.PassScrubPause)},
		{"paused_t", Uint(ss.PassScrubSpentPaused)},
		{"pct_done", Float(progress.pctDone)},
		{"processed", Uint(ss.Processed)},
		{"rate", Uint(progress.rate)},
		{"remaining_t", Uint(progress.remaining)},
		{"start_ts", Uint(ss.StartTime)},
		{"to_examine", Uint(ss.ToExamine)},
		{"to_process", Uint(ss.ToProcess)},
	}
	return c.enc.EncodeLine(scanMeasurement, tags, fields, timestamp)
}

// queueGauge binds one ZIO scheduler gauge to its field name.
type queueGauge struct {
	key   string
	field string
}

var queueGauges = []queueGauge{
	{nvlist.KeySyncReadActiveQueue, "sync_r_active"},
	{nvlist.KeySyncWriteActiveQueue, "sync_w_active"},
	{nvlist.KeyAsyncReadActiveQueue, "async_r_active"},
	{nvlist.KeyAsyncWriteActiveQueue, "async_w_active"},
	{nvlist.KeyScrubActiveQueue, "async_scrub_active"},
	{nvlist.KeySyncReadPendQueue, "sync_r_pend"},
	{nvlist.KeySyncWritePendQueue, "sync_w_pend"},
	{nvlist.KeyAsyncReadPendQueue, "async_r_pend"},
	{nvlist.KeyAsyncWritePendQueue, "async_w_pend"},
	{nvlist.KeyScrubPendQueue, "async_scrub_pend"},
}

// emitTopLevelQueues emits the zpool_vdev_stats line: the root vdev's
// queue gauges with _queue-suffixed field names.
func (c *Collector) emitTopLevelQueues(root *nvlist.List, poolName string, timestamp uint64) error {
	ex, err := root.List(nvlist.KeyVdevStatsEx)
	if err != nil {
		return withStatus(StatusMissingExtendedStats, err)
	}

	tags := []Tag{{"name", poolName}, {"vdev", "root"}}
	fields := make([]Field, 0, len(queueGauges))
	for _, g := range queueGauges {
		value, err := ex.Uint64(g.key)
		if err != nil {
			return withStatus(StatusMissingVdevStats, err)
		}
		fields = append(fields, Field{g.field + "_queue", Uint(value)})
	}
	return c.enc.EncodeLine(vdevMeasurement, tags, fields, timestamp)
}

// histogramVisitor emits one line per emitted bucket with one field per
// metric class, for either the latency or the size catalogue.
func (c *Collector) histogramVisitor(measurement string, classes []histClass, minIndex int,
	bound func(int) string, poolName string, timestamp uint64) visitFunc {
	return func(vdev *nvlist.List, parentName string) error {
		ex, err := vdev.List(nvlist.KeyVdevStatsEx)
		if err != nil {
			return withStatus(StatusMissingExtendedStats, err)
		}
		arrays, err := gatherHistograms(ex, classes)
		if err != nil {
			return withStatus(StatusMissingVdevStats, err)
		}

		devTags := deviceTags(vdev, parentName)
		for _, row := range accumulateBuckets(arrays, minIndex, c.config.SumHistogramBuckets) {
			le := "+Inf"
			if !row.final {
				le = bound(row.index)
			}
			tags := append([]Tag{{"le", le}, {"name", poolName}}, devTags...)
			fields := make([]Field, len(classes))
			for i, cl := range classes {
				fields[i] = Field{cl.field, Uint(row.values[i])}
			}
			if err := c.enc.EncodeLine(measurement, tags, fields, timestamp); err != nil {
				return err
			}
		}
		return nil
	}
}

// queueVisitor emits a zpool_vdev_queue line for the visited device.
func (c *Collector) queueVisitor(poolName string, timestamp uint64) visitFunc {
	return func(vdev *nvlist.List, parentName string) error {
		ex, err := vdev.List(nvlist.KeyVdevStatsEx)
		if err != nil {
			return withStatus(StatusMissingExtendedStats, err)
		}

		tags := append([]Tag{{"name", poolName}}, deviceTags(vdev, parentName)...)
		fields := make([]Field, 0, len(queueGauges))
		for _, g := range queueGauges {
			value, err := ex.Uint64(g.key)
			if err != nil {
				return withStatus(StatusMissingVdevStats, err)
			}
			fields = append(fields, Field{g.field, Uint(value)})
		}
		return c.enc.EncodeLine(poolQueueMeasurement, tags, fields, timestamp)
	}
}
