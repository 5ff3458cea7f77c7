package collector

import (
	"strconv"

	"github.com/richardelling/zpool-influxdb/pkg/nvlist"
)

// visitFunc is applied to each device node. parentName is the hierarchical
// name of the parent device, empty at the root.
type visitFunc func(vdev *nvlist.List, parentName string) error

// walkDeviceTree applies visit to vdev and, when descend is set, to every
// descendant in child-array order. A visitor failure aborts the subtree and
// propagates; lines already written stay written.
func walkDeviceTree(vdev *nvlist.List, parentName string, descend bool, visit visitFunc) error {
	if err := visit(vdev, parentName); err != nil {
		return err
	}
	if !descend {
		return nil
	}

	children, err := vdev.ListArray(nvlist.KeyChildren)
	if err != nil {
		// Leaf device.
		return nil
	}

	name := deviceName(vdev, parentName)
	for _, child := range children {
		if err := walkDeviceTree(child, name, descend, visit); err != nil {
			return err
		}
	}
	return nil
}

// deviceName builds the hierarchical vdev name. The root is its bare type;
// descendants are parent/type-id, matching the top-level names shown by
// zpool status.
func deviceName(vdev *nvlist.List, parentName string) string {
	vdevType, err := vdev.String(nvlist.KeyType)
	if err != nil {
		vdevType = "unknown"
	}
	if parentName == "" {
		return vdevType
	}

	id, err := vdev.Uint64(nvlist.KeyID)
	if err != nil {
		id = ^uint64(0)
	}
	return parentName + "/" + vdevType + "-" + strconv.FormatUint(id, 10)
}

// deviceTags describes a device for tagging: the optional path (leaf
// devices usually have one) followed by the hierarchical vdev name. Raw
// values; the encoder escapes them.
func deviceTags(vdev *nvlist.List, parentName string) []Tag {
	var tags []Tag
	if path, err := vdev.String(nvlist.KeyPath); err == nil {
		tags = append(tags, Tag{"path", path})
	}
	return append(tags, Tag{"vdev", deviceName(vdev, parentName)})
}
