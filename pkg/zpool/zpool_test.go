package zpool

import (
	"testing"

	"github.com/richardelling/zpool-influxdb/pkg/config"
	"github.com/richardelling/zpool-influxdb/pkg/nvlist"
)

func testConfig() *config.Config {
	cfg := config.NewConfig()
	cfg.ZpoolConfigCmd = []string{"cat", "testdata/pools.json"}
	return cfg
}

func TestInit(t *testing.T) {
	if _, err := Init(testConfig()); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	cfg := config.NewConfig()
	cfg.ZpoolConfigCmd = []string{"zpool-influxdb-no-such-command"}
	if _, err := Init(cfg); err == nil {
		t.Error("Init() expected error for missing command, got nil")
	}

	cfg.ZpoolConfigCmd = nil
	if _, err := Init(cfg); err == nil {
		t.Error("Init() expected error for empty command, got nil")
	}
}

func TestPools(t *testing.T) {
	h, err := Init(testConfig())
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	pools, err := h.Pools()
	if err != nil {
		t.Fatalf("Pools() error = %v", err)
	}
	if len(pools) != 1 {
		t.Fatalf("Pools() returned %d pools, want 1", len(pools))
	}

	p := pools[0]
	if p.Name() != "tank" {
		t.Errorf("Name() = %q, want tank", p.Name())
	}

	tree, err := p.Config().List(nvlist.KeyVdevTree)
	if err != nil {
		t.Fatalf("Config() missing vdev_tree: %v", err)
	}
	if typ, _ := tree.String(nvlist.KeyType); typ != "root" {
		t.Errorf("root vdev type = %q, want root", typ)
	}

	if err := p.RefreshStats(); err != nil {
		t.Errorf("RefreshStats() error = %v", err)
	}
}

func TestRefreshStatsFailure(t *testing.T) {
	cfg := testConfig()
	h, err := Init(cfg)
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	pools, err := h.Pools()
	if err != nil {
		t.Fatalf("Pools() error = %v", err)
	}

	// Command starts failing between passes.
	cfg.ZpoolConfigCmd = []string{"cat", "testdata/no-such-file.json"}
	if err := pools[0].RefreshStats(); err == nil {
		t.Error("RefreshStats() expected error for failing command, got nil")
	}
}

func TestVdevStatsFromList(t *testing.T) {
	h, _ := Init(testConfig())
	pools, err := h.Pools()
	if err != nil {
		t.Fatalf("Pools() error = %v", err)
	}
	tree, err := pools[0].Config().List(nvlist.KeyVdevTree)
	if err != nil {
		t.Fatal(err)
	}

	vs, err := VdevStatsFromList(tree)
	if err != nil {
		t.Fatalf("VdevStatsFromList() error = %v", err)
	}

	if vs.State != VdevStateHealthy {
		t.Errorf("State = %d, want %d", vs.State, VdevStateHealthy)
	}
	if vs.Alloc != 100 || vs.Space != 1000 {
		t.Errorf("Alloc/Space = %d/%d, want 100/1000", vs.Alloc, vs.Space)
	}
	if vs.ReadOps != 11 || vs.WriteOps != 12 {
		t.Errorf("ReadOps/WriteOps = %d/%d, want 11/12", vs.ReadOps, vs.WriteOps)
	}
	if vs.ReadBytes != 1100 || vs.WriteBytes != 1200 {
		t.Errorf("ReadBytes/WriteBytes = %d/%d, want 1100/1200", vs.ReadBytes, vs.WriteBytes)
	}
	if vs.ReadErrors != 1 || vs.WriteErrors != 2 || vs.ChecksumErrors != 3 {
		t.Errorf("errors = %d/%d/%d, want 1/2/3", vs.ReadErrors, vs.WriteErrors, vs.ChecksumErrors)
	}
	if vs.Fragmentation != 4 {
		t.Errorf("Fragmentation = %d, want 4", vs.Fragmentation)
	}
}

func TestVdevStatsTooShort(t *testing.T) {
	vdev := nvlist.New(map[string]any{
		nvlist.KeyVdevStats: []uint64{0, 7, 0},
	})
	if _, err := VdevStatsFromList(vdev); err == nil {
		t.Error("VdevStatsFromList() expected error for short array, got nil")
	}
}

func TestScanStatsFromList(t *testing.T) {
	h, _ := Init(testConfig())
	pools, err := h.Pools()
	if err != nil {
		t.Fatalf("Pools() error = %v", err)
	}
	tree, err := pools[0].Config().List(nvlist.KeyVdevTree)
	if err != nil {
		t.Fatal(err)
	}

	ss, err := ScanStatsFromList(tree)
	if err != nil {
		t.Fatalf("ScanStatsFromList() error = %v", err)
	}
	if ss == nil {
		t.Fatal("ScanStatsFromList() = nil for a pool with scan stats")
	}
	if ss.Func != 1 || ss.State != 2 {
		t.Errorf("Func/State = %d/%d, want 1/2", ss.Func, ss.State)
	}
	if ss.Examined != 1000000 || ss.PassExam != 500000 {
		t.Errorf("Examined/PassExam = %d/%d", ss.Examined, ss.PassExam)
	}
}

func TestScanStatsAbsent(t *testing.T) {
	root := nvlist.New(map[string]any{})
	ss, err := ScanStatsFromList(root)
	if err != nil {
		t.Fatalf("ScanStatsFromList() error = %v for absent key", err)
	}
	if ss != nil {
		t.Error("ScanStatsFromList() should return nil for a never-scanned pool")
	}
}

func TestScanStatsWithoutPauseFields(t *testing.T) {
	root := nvlist.New(map[string]any{
		nvlist.KeyScanStats: []uint64{1, 1, 10, 0, 100, 50, 0, 40, 0, 50, 10},
	})
	ss, err := ScanStatsFromList(root)
	if err != nil {
		t.Fatalf("ScanStatsFromList() error = %v", err)
	}
	if ss.PassScrubPause != 0 || ss.PassScrubSpentPaused != 0 {
		t.Error("pause fields should be zero when the source omits them")
	}
}

func TestStateName(t *testing.T) {
	tests := []struct {
		state uint64
		aux   uint64
		want  string
	}{
		{VdevStateHealthy, 0, "ONLINE"},
		{VdevStateDegraded, 0, "DEGRADED"},
		{VdevStateFaulted, 0, "FAULTED"},
		{VdevStateOffline, 0, "OFFLINE"},
		{VdevStateClosed, 0, "OFFLINE"},
		{VdevStateRemoved, 0, "REMOVED"},
		{VdevStateCantOpen, VdevAuxCorruptData, "FAULTED"},
		{VdevStateCantOpen, VdevAuxBadLog, "FAULTED"},
		{VdevStateCantOpen, VdevAuxSplitPool, "SPLIT"},
		{VdevStateCantOpen, 0, "UNAVAIL"},
		{99, 0, "UNKNOWN"},
	}

	for _, tt := range tests {
		if got := StateName(tt.state, tt.aux); got != tt.want {
			t.Errorf("StateName(%d, %d) = %q, want %q", tt.state, tt.aux, got, tt.want)
		}
	}
}
