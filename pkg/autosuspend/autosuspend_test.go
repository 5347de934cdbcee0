package autosuspend

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harvester/usbsuspend/pkg/util/fakesysfs"
)

func multimeter(vendor, product string) map[string]string {
	return map[string]string{
		"manufacturer":      "WCH.CN",
		"idVendor":          vendor,
		"idProduct":         product,
		"power/level":       "on",
		"power/autosuspend": "2",
	}
}

func Test_ApplyEmptyRoot(t *testing.T) {
	tree := fakesysfs.NewTree()

	result := NewScanner(tree, DefaultTarget).Apply()
	assert.Empty(t, tree.Writes)
	assert.Equal(t, Result{}, result)
}

func Test_ApplyUnreadableRoot(t *testing.T) {
	tree := fakesysfs.NewTree()
	tree.EntriesErr = errors.New("permission denied")

	result := NewScanner(tree, DefaultTarget).Apply()
	assert.Empty(t, tree.Writes)
	assert.False(t, result.Matched)
}

func Test_ApplyMatchingDevice(t *testing.T) {
	assert := require.New(t)
	tree := fakesysfs.NewTree().
		AddDevice("usb1", nil).
		AddDevice("1-1", multimeter("1a86", "e008"))

	result := NewScanner(tree, DefaultTarget).Apply()
	assert.True(result.Matched)
	assert.True(result.Written())
	assert.Equal("1-1", result.Examined)
	assert.Equal(2, result.Visited)
	assert.Equal([]fakesysfs.Write{
		{Entry: "1-1", Name: "power/level", Value: "auto"},
		{Entry: "1-1", Name: "power/autosuspend", Value: "0"},
	}, tree.Writes)

	level, _ := tree.Attr("1-1", "power/level")
	assert.Equal("auto", level)
	delay, _ := tree.Attr("1-1", "power/autosuspend")
	assert.Equal("0", delay)
}

func Test_ApplyStopsAtFirstManufacturer(t *testing.T) {
	testcases := []struct {
		name    string
		vendor  string
		product string
	}{
		{"vendor mismatch", "0951", "e008"},
		{"product mismatch", "1a86", "7523"},
		{"both mismatch", "046d", "c52b"},
	}

	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			tree := fakesysfs.NewTree().
				AddDevice("1-1", multimeter(tc.vendor, tc.product)).
				AddDevice("1-2", multimeter("1a86", "e008"))

			result := NewScanner(tree, DefaultTarget).Apply()
			assert.False(t, result.Matched)
			assert.Equal(t, "1-1", result.Examined)
			assert.Equal(t, 1, result.Visited)
			assert.Empty(t, tree.Writes)
			assert.False(t, tree.Touched("1-2"), "entries after the first manufacturer must not be examined")
		})
	}
}

func Test_ApplySkipsEntriesWithoutManufacturer(t *testing.T) {
	tree := fakesysfs.NewTree().
		AddDevice("1-0:1.0", map[string]string{"idVendor": "1a86", "idProduct": "e008"}).
		AddDevice("usb2", nil).
		AddDevice("2-1", multimeter("1a86", "e008"))

	result := NewScanner(tree, DefaultTarget).Apply()
	assert.True(t, result.Written())
	assert.Equal(t, "2-1", result.Examined)
	assert.Equal(t, 3, result.Visited)
	for _, w := range tree.Writes {
		assert.Equal(t, "2-1", w.Entry)
	}
}

func Test_ApplyNoManufacturerAnywhere(t *testing.T) {
	tree := fakesysfs.NewTree().
		AddDevice("usb1", nil).
		AddDevice("1-1:1.0", map[string]string{"idVendor": "1a86", "idProduct": "e008"})

	result := NewScanner(tree, DefaultTarget).Apply()
	assert.Empty(t, tree.Writes)
	assert.Empty(t, result.Examined)
	assert.Equal(t, 2, result.Visited)
}

func Test_ApplyMatchesBySubstring(t *testing.T) {
	tree := fakesysfs.NewTree().
		AddDevice("1-1", multimeter("0x1a86FF", "e008\n"))

	result := NewScanner(tree, DefaultTarget).Apply()
	assert.True(t, result.Written())
	assert.Len(t, tree.Writes, 2)
}

func Test_ApplyMissingIdentifiers(t *testing.T) {
	testcases := []struct {
		name  string
		attrs map[string]string
	}{
		{"no idVendor", map[string]string{"manufacturer": "WCH.CN", "idProduct": "e008"}},
		{"no idProduct", map[string]string{"manufacturer": "WCH.CN", "idVendor": "1a86"}},
		{"no identifiers", map[string]string{"manufacturer": "WCH.CN"}},
	}

	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			tree := fakesysfs.NewTree().
				AddDevice("1-1", tc.attrs).
				AddDevice("1-2", multimeter("1a86", "e008"))

			result := NewScanner(tree, DefaultTarget).Apply()
			assert.False(t, result.Matched)
			assert.Equal(t, "1-1", result.Examined)
			assert.Empty(t, tree.Writes)
			assert.False(t, tree.Touched("1-2"))
		})
	}
}

func Test_ApplyWriteFailuresAreNotFatal(t *testing.T) {
	tree := fakesysfs.NewTree().
		AddDevice("1-1", multimeter("1a86", "e008"))
	tree.WriteErr = errors.New("read-only file system")

	result := NewScanner(tree, DefaultTarget).Apply()
	assert.True(t, result.Matched)
	assert.False(t, result.Written())
	assert.Error(t, result.LevelErr)
	assert.Error(t, result.DelayErr)
	assert.Len(t, tree.Writes, 2, "the autosuspend write is attempted even if the level write failed")
}

func Test_ApplyCustomTarget(t *testing.T) {
	target := DefaultTarget
	target.Vendor = "0403"
	target.Product = "6001"

	tree := fakesysfs.NewTree().
		AddDevice("3-1", multimeter("0403", "6001"))

	result := NewScanner(tree, target).Apply()
	assert.True(t, result.Written())
}

func Test_describe(t *testing.T) {
	assert.Equal(t, "HID-based serial adapater (QinHeng Electronics)", describe("1a86", "e008\n"))
	assert.Equal(t, "0x1a86FF:e008", describe("0x1a86FF", "e008"))
}
