package nvlist

// Well-known nvpair names in the pool configuration tree. These match the
// ZPOOL_CONFIG_* names used by the on-disk and kernel nvlists, which is
// what the configured dump command emits.
const (
	KeyVdevTree  = "vdev_tree"
	KeyType      = "type"
	KeyID        = "id"
	KeyPath      = "path"
	KeyChildren  = "children"
	KeyVdevStats = "vdev_stats"
	KeyScanStats = "scan_stats"

	// Extended stats live in a sub-tree of each vdev node.
	KeyVdevStatsEx = "vdev_stats_ex"

	// Latency histograms (nanoseconds, bucket bound = 2^index).
	KeyTotalReadLatHisto  = "vdev_tot_r_lat_histo"
	KeyTotalWriteLatHisto = "vdev_tot_w_lat_histo"
	KeyDiskReadLatHisto   = "vdev_disk_r_lat_histo"
	KeyDiskWriteLatHisto  = "vdev_disk_w_lat_histo"
	KeySyncReadLatHisto   = "vdev_sync_r_lat_histo"
	KeySyncWriteLatHisto  = "vdev_sync_w_lat_histo"
	KeyAsyncReadLatHisto  = "vdev_async_r_lat_histo"
	KeyAsyncWriteLatHisto = "vdev_async_w_lat_histo"
	KeyScrubLatHisto      = "vdev_scrub_histo"
	KeyTrimLatHisto       = "vdev_trim_histo"

	// Request size histograms (bytes, bucket bound = 2^index), individual
	// and aggregated.
	KeySyncIndReadHisto   = "vdev_sync_ind_r_histo"
	KeySyncIndWriteHisto  = "vdev_sync_ind_w_histo"
	KeyAsyncIndReadHisto  = "vdev_async_ind_r_histo"
	KeyAsyncIndWriteHisto = "vdev_async_ind_w_histo"
	KeyIndScrubHisto      = "vdev_ind_scrub_histo"
	KeySyncAggReadHisto   = "vdev_sync_agg_r_histo"
	KeySyncAggWriteHisto  = "vdev_sync_agg_w_histo"
	KeyAsyncAggReadHisto  = "vdev_async_agg_r_histo"
	KeyAsyncAggWriteHisto = "vdev_async_agg_w_histo"
	KeyAggScrubHisto      = "vdev_agg_scrub_histo"
	KeyIndTrimHisto       = "vdev_ind_trim_histo"
	KeyAggTrimHisto       = "vdev_agg_trim_histo"

	// ZIO scheduler queue depth gauges.
	KeySyncReadActiveQueue   = "vdev_sync_r_active_queue"
	KeySyncWriteActiveQueue  = "vdev_sync_w_active_queue"
	KeyAsyncReadActiveQueue  = "vdev_async_r_active_queue"
	KeyAsyncWriteActiveQueue = "vdev_async_w_active_queue"
	KeyScrubActiveQueue      = "vdev_async_scrub_active_queue"
	KeySyncReadPendQueue     = "vdev_sync_r_pend_queue"
	KeySyncWritePendQueue    = "vdev_sync_w_pend_queue"
	KeyAsyncReadPendQueue    = "vdev_async_r_pend_queue"
	KeyAsyncWritePendQueue   = "vdev_async_w_pend_queue"
	KeyScrubPendQueue        = "vdev_async_scrub_pend_queue"
)
