package collector

import (
	"github.com/richardelling/zpool-influxdb/pkg/zpool"
)

// Scan state and function names, indexed by the kernel's enum values.
// Values beyond these tables come from a newer kernel than this catalogue
// knows about and make the scan measurement unintelligible; the sampler
// skips it rather than guessing.
var scanStateNames = []string{"none", "scanning", "finished", "canceled"}

var scanFuncNames = []string{"none_requested", "scrub", "resilver", "rebuild"}

const (
	scanStateScanning = 1
)

// scanProgress holds the derived rate/ETA/percent-done numbers.
//
// The floors are asymmetric on purpose: the original arithmetic floors
// elapsed and pass_exam before the division in both branches but floors the
// rate inside the scanning branch only, then floors it once more before
// emission. The asymmetry is observable in the output, so it is reproduced
// rather than tidied.
type scanProgress struct {
	examined  uint64
	passExam  uint64
	rate      uint64
	remaining uint64
	pctDone   float64
}

// computeScanProgress derives progress numbers from a raw scan record.
// now is the current time in seconds since the epoch.
func computeScanProgress(ss *zpool.ScanStats, now int64) scanProgress {
	var p scanProgress

	p.examined = ss.Examined
	if p.examined == 0 {
		p.examined = 1
	}
	if ss.ToExamine > 0 {
		p.pctDone = 100.0 * float64(p.examined) / float64(ss.ToExamine)
	}

	p.passExam = ss.PassExam
	if p.passExam == 0 {
		p.passExam = 1
	}

	if ss.State == scanStateScanning {
		elapsed := now - int64(ss.PassStart) - int64(ss.PassScrubSpentPaused)
		if elapsed <= 0 {
			elapsed = 1
		}
		p.rate = p.passExam / uint64(elapsed)
		if p.rate == 0 {
			p.rate = 1
		}
		p.remaining = ss.ToExamine - p.examined/p.rate
	} else {
		elapsed := int64(ss.EndTime) - int64(ss.PassStart) - int64(ss.PassScrubSpentPaused)
		if elapsed <= 0 {
			elapsed = 1
		}
		p.rate = p.passExam / uint64(elapsed)
		p.remaining = 0
	}
	if p.rate == 0 {
		p.rate = 1
	}
	return p
}

// scanKnown reports whether the record's state and function are within the
// catalogue.
func scanKnown(ss *zpool.ScanStats) bool {
	return ss.State < uint64(len(scanStateNames)) && ss.Func < uint64(len(scanFuncNames))
}
