package collector

import (
	"fmt"
	"strconv"

	"github.com/richardelling/zpool-influxdb/pkg/nvlist"
)

// histClass binds one extended-stats array to its field name. The field
// names become part of the downstream schema and are fixed.
type histClass struct {
	key   string
	field string
}

// Latency histograms. Buckets below minLatIndex (1024ns) carry little
// signal and fold into the first emitted bucket.
const minLatIndex = 10

var latencyClasses = []histClass{
	{nvlist.KeyTotalReadLatHisto, "total_read"},
	{nvlist.KeyTotalWriteLatHisto, "total_write"},
	{nvlist.KeyDiskReadLatHisto, "disk_read"},
	{nvlist.KeyDiskWriteLatHisto, "disk_write"},
	{nvlist.KeySyncReadLatHisto, "sync_read"},
	{nvlist.KeySyncWriteLatHisto, "sync_write"},
	{nvlist.KeyAsyncReadLatHisto, "async_read"},
	{nvlist.KeyAsyncWriteLatHisto, "async_write"},
	{nvlist.KeyScrubLatHisto, "scrub"},
	{nvlist.KeyTrimLatHisto, "trim"},
}

// Request size histograms, individual and aggregated. Buckets below
// minSizeIndex (512 bytes) fold likewise.
const minSizeIndex = 9

var sizeClasses = []histClass{
	{nvlist.KeySyncIndReadHisto, "sync_read_ind"},
	{nvlist.KeySyncIndWriteHisto, "sync_write_ind"},
	{nvlist.KeyAsyncIndReadHisto, "async_read_ind"},
	{nvlist.KeyAsyncIndWriteHisto, "async_write_ind"},
	{nvlist.KeyIndScrubHisto, "scrub_read_ind"},
	{nvlist.KeySyncAggReadHisto, "sync_read_agg"},
	{nvlist.KeySyncAggWriteHisto, "sync_write_agg"},
	{nvlist.KeyAsyncAggReadHisto, "async_read_agg"},
	{nvlist.KeyAsyncAggWriteHisto, "async_write_agg"},
	{nvlist.KeyAggScrubHisto, "scrub_read_agg"},
	{nvlist.KeyIndTrimHisto, "trim_write_ind"},
	{nvlist.KeyAggTrimHisto, "trim_write_agg"},
}

// bucketRow is one emitted histogram row: the bucket index and one value
// per metric class.
type bucketRow struct {
	index  int
	final  bool
	values []uint64
}

// accumulateBuckets converts parallel raw bucket arrays (index =
// log2(bound)) into emitted rows. Buckets below minIndex are never emitted
// on their own; their counts accumulate and seed the first emitted bucket.
// In cumulative mode every row keeps the running sum, so the final row is
// the total count per class. All arrays must have equal length; callers
// validate that before calling.
func accumulateBuckets(arrays [][]uint64, minIndex int, cumulative bool) []bucketRow {
	if len(arrays) == 0 || len(arrays[0]) == 0 {
		return nil
	}

	end := len(arrays[0]) - 1
	sums := make([]uint64, len(arrays))
	var rows []bucketRow

	for bucket := 0; bucket <= end; bucket++ {
		if bucket < minIndex {
			for i := range arrays {
				sums[i] += arrays[i][bucket]
			}
			continue
		}

		values := make([]uint64, len(arrays))
		for i := range arrays {
			if bucket <= minIndex || cumulative {
				sums[i] += arrays[i][bucket]
			} else {
				sums[i] = arrays[i][bucket]
			}
			values[i] = sums[i]
		}
		rows = append(rows, bucketRow{index: bucket, final: bucket == end, values: values})
	}
	return rows
}

// latencyBound renders the le tag for a latency bucket: 2^index
// nanoseconds expressed in seconds with six decimals.
func latencyBound(index int) string {
	return fmt.Sprintf("%0.6f", float64(uint64(1)<<uint(index))*1e-9)
}

// sizeBound renders the le tag for a size bucket: 2^index bytes.
func sizeBound(index int) string {
	return strconv.FormatUint(uint64(1)<<uint(index), 10)
}

// gatherHistograms pulls the named arrays out of a device's extended-stats
// sub-tree. Every class is required; a missing or shorter array is schema
// breakage and aborts the pool. The returned arrays are index-parallel
// with classes.
func gatherHistograms(ex *nvlist.List, classes []histClass) ([][]uint64, error) {
	arrays := make([][]uint64, len(classes))
	length := -1
	for i, cl := range classes {
		a, err := ex.Uint64Array(cl.key)
		if err != nil {
			return nil, err
		}
		if length >= 0 && len(a) != length {
			return nil, fmt.Errorf("%s: bucket count %d differs from %d", cl.key, len(a), length)
		}
		length = len(a)
		arrays[i] = a
	}
	return arrays, nil
}
