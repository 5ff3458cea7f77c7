package zpool

import (
	"fmt"

	"github.com/richardelling/zpool-influxdb/pkg/nvlist"
)

// The vdev_stats nvpair is a positional uint64 array mirroring the kernel's
// vdev_stat struct. Only the fields the collector emits are decoded; the
// indices follow the struct layout with ops/bytes counted per ZIO type
// (null, read, write, free, claim, ioctl).
const (
	vsState          = 1
	vsAux            = 2
	vsAlloc          = 3
	vsSpace          = 4
	vsOpsRead        = 9
	vsOpsWrite       = 10
	vsBytesRead      = 15
	vsBytesWrite     = 16
	vsReadErrors     = 20
	vsWriteErrors    = 21
	vsChecksumErrors = 22
	vsFragmentation  = 26

	vdevStatsLen = 27
)

// VdevStats is the decoded per-device counters snapshot.
type VdevStats struct {
	State          uint64
	Aux            uint64
	Alloc          uint64
	Space          uint64
	ReadOps        uint64
	WriteOps       uint64
	ReadBytes      uint64
	WriteBytes     uint64
	ReadErrors     uint64
	WriteErrors    uint64
	ChecksumErrors uint64
	Fragmentation  uint64
}

// VdevStatsFromList decodes the vdev_stats array of a device node.
func VdevStatsFromList(vdev *nvlist.List) (*VdevStats, error) {
	a, err := vdev.Uint64Array(nvlist.KeyVdevStats)
	if err != nil {
		return nil, err
	}
	if len(a) < vdevStatsLen {
		return nil, fmt.Errorf("vdev_stats array too short: %d entries", len(a))
	}
	return &VdevStats{
		State:          a[vsState],
		Aux:            a[vsAux],
		Alloc:          a[vsAlloc],
		Space:          a[vsSpace],
		ReadOps:        a[vsOpsRead],
		WriteOps:       a[vsOpsWrite],
		ReadBytes:      a[vsBytesRead],
		WriteBytes:     a[vsBytesWrite],
		ReadErrors:     a[vsReadErrors],
		WriteErrors:    a[vsWriteErrors],
		ChecksumErrors: a[vsChecksumErrors],
		Fragmentation:  a[vsFragmentation],
	}, nil
}

// The scan_stats nvpair is a positional uint64 array mirroring the kernel's
// pool_scan_stat struct. The scrub-pause fields were added later and may be
// absent on older sources.
const (
	ssFunc                 = 0
	ssState                = 1
	ssStartTime            = 2
	ssEndTime              = 3
	ssToExamine            = 4
	ssExamined             = 5
	ssToProcess            = 6
	ssProcessed            = 7
	ssErrors               = 8
	ssPassExam             = 9
	ssPassStart            = 10
	ssPassScrubPause       = 11
	ssPassScrubSpentPaused = 12

	scanStatsMinLen = 11
)

// ScanStats is the decoded scan record.
type ScanStats struct {
	Func                 uint64
	State                uint64
	StartTime            uint64
	EndTime              uint64
	ToExamine            uint64
	Examined             uint64
	ToProcess            uint64
	Processed            uint64
	Errors               uint64
	PassExam             uint64
	PassStart            uint64
	PassScrubPause       uint64
	PassScrubSpentPaused uint64
}

// ScanStatsFromList decodes the optional scan_stats array of the root vdev.
// A pool that has never been scanned has no scan_stats key; callers see
// (nil, nil) and skip the scan measurement.
func ScanStatsFromList(root *nvlist.List) (*ScanStats, error) {
	a, err := root.Uint64Array(nvlist.KeyScanStats)
	if err != nil {
		if nvlist.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	if len(a) < scanStatsMinLen {
		return nil, fmt.Errorf("scan_stats array too short: %d entries", len(a))
	}
	ss := &ScanStats{
		Func:      a[ssFunc],
		State:     a[ssState],
		StartTime: a[ssStartTime],
		EndTime:   a[ssEndTime],
		ToExamine: a[ssToExamine],
		Examined:  a[ssExamined],
		ToProcess: a[ssToProcess],
		Processed: a[ssProcessed],
		Errors:    a[ssErrors],
		PassExam:  a[ssPassExam],
		PassStart: a[ssPassStart],
	}
	if len(a) > ssPassScrubSpentPaused {
		ss.PassScrubPause = a[ssPassScrubPause]
		ss.PassScrubSpentPaused = a[ssPassScrubSpentPaused]
	}
	return ss, nil
}

// vdev_state values.
const (
	VdevStateUnknown = iota
	VdevStateClosed
	VdevStateOffline
	VdevStateRemoved
	VdevStateCantOpen
	VdevStateFaulted
	VdevStateDegraded
	VdevStateHealthy
)

// vdev_aux values relevant to state naming.
const (
	VdevAuxCorruptData = 2
	VdevAuxBadLog      = 13
	VdevAuxSplitPool   = 15
)

// StateName maps a vdev state/aux pair to the name shown by zpool status.
func StateName(state, aux uint64) string {
	switch state {
	case VdevStateClosed, VdevStateOffline:
		return "OFFLINE"
	case VdevStateRemoved:
		return "REMOVED"
	case VdevStateCantOpen:
		switch aux {
		case VdevAuxCorruptData, VdevAuxBadLog:
			return "FAULTED"
		case VdevAuxSplitPool:
			return "SPLIT"
		default:
			return "UNAVAIL"
		}
	case VdevStateFaulted:
		return "FAULTED"
	case VdevStateDegraded:
		return "DEGRADED"
	case VdevStateHealthy:
		return "ONLINE"
	default:
		return "UNKNOWN"
	}
}
