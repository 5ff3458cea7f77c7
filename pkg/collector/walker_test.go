package collector

import (
	"errors"
	"testing"

	"github.com/richardelling/zpool-influxdb/pkg/nvlist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTree() *nvlist.List {
	disk := func(id uint64, path string) *nvlist.List {
		return nvlist.New(map[string]any{
			nvlist.KeyType: "disk",
			nvlist.KeyID:   id,
			nvlist.KeyPath: path,
		})
	}
	mirror := nvlist.New(map[string]any{
		nvlist.KeyType:     "mirror",
		nvlist.KeyID:       uint64(0),
		nvlist.KeyChildren: []*nvlist.List{disk(0, "/dev/sda1"), disk(1, "/dev/sdb1")},
	})
	return nvlist.New(map[string]any{
		nvlist.KeyType:     "root",
		nvlist.KeyID:       uint64(0),
		nvlist.KeyChildren: []*nvlist.List{mirror},
	})
}

func TestWalkDeviceTreeDescends(t *testing.T) {
	var visited []string
	err := walkDeviceTree(testTree(), "", true, func(vdev *nvlist.List, parentName string) error {
		visited = append(visited, deviceName(vdev, parentName))
		return nil
	})
	require.NoError(t, err)

	// Every node exactly once, in depth-first child-array order, with
	// hierarchical parent/type-id names and a bare root.
	assert.Equal(t, []string{
		"root",
		"root/mirror-0",
		"root/mirror-0/disk-0",
		"root/mirror-0/disk-1",
	}, visited)
}

func TestWalkDeviceTreeNoDescend(t *testing.T) {
	var visits int
	err := walkDeviceTree(testTree(), "", false, func(*nvlist.List, string) error {
		visits++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, visits)
}

func TestWalkDeviceTreePropagatesVisitorError(t *testing.T) {
	sentinel := errors.New("visitor failed")
	var visits int
	err := walkDeviceTree(testTree(), "", true, func(vdev *nvlist.List, parentName string) error {
		visits++
		if name := deviceName(vdev, parentName); name == "root/mirror-0/disk-0" {
			return sentinel
		}
		return nil
	})
	assert.ErrorIs(t, err, sentinel)
	// disk-1 is never visited once its sibling fails.
	assert.Equal(t, 3, visits)
}

func TestDeviceNameDefaults(t *testing.T) {
	// A node with no type or id still produces a usable name.
	anon := nvlist.New(map[string]any{})
	assert.Equal(t, "unknown", deviceName(anon, ""))
	assert.Equal(t, "root/unknown-18446744073709551615", deviceName(anon, "root"))
}

func TestDeviceTags(t *testing.T) {
	leaf := nvlist.New(map[string]any{
		nvlist.KeyType: "disk",
		nvlist.KeyID:   uint64(1),
		nvlist.KeyPath: "/dev/sdb1",
	})
	assert.Equal(t, []Tag{
		{"path", "/dev/sdb1"},
		{"vdev", "root/disk-1"},
	}, deviceTags(leaf, "root"))

	// Pathless internal device omits the path tag.
	inner := nvlist.New(map[string]any{
		nvlist.KeyType: "mirror",
		nvlist.KeyID:   uint64(0),
	})
	assert.Equal(t, []Tag{{"vdev", "root/mirror-0"}}, deviceTags(inner, "root"))
}
