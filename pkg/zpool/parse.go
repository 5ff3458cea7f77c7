package zpool

import (
	"fmt"

	"github.com/richardelling/zpool-influxdb/pkg/nvlist"
)

// decodePools parses the dump command output. The document has the shape
//
//	{"pools": {"<name>": { ...configuration tree... }, ...}}
//
// where each tree is keyed by the well-known nvpair names (vdev_tree,
// scan_stats, ...).
func decodePools(data []byte) (map[string]*nvlist.List, error) {
	root, err := nvlist.FromJSON(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse pool config JSON: %w", err)
	}

	pools, err := root.List("pools")
	if err != nil {
		return nil, fmt.Errorf("malformed pool config document: %w", err)
	}

	configs := make(map[string]*nvlist.List)
	for _, name := range pools.Keys() {
		cfg, err := pools.List(name)
		if err != nil {
			return nil, fmt.Errorf("pool %s: malformed config: %w", name, err)
		}
		configs[name] = cfg
	}
	return configs, nil
}
