package sysfs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
}

func Test_DeviceTreeEntries(t *testing.T) {
	assert := require.New(t)
	root := t.TempDir()

	target := t.TempDir()
	writeFile(t, filepath.Join(target, "idVendor"), "1a86\n")
	assert.NoError(os.Mkdir(filepath.Join(root, "usb1"), 0o755))
	assert.NoError(os.Symlink(target, filepath.Join(root, "1-1")))

	entries, err := NewDeviceTree(root).Entries()
	assert.NoError(err)
	assert.ElementsMatch([]string{"usb1", "1-1"}, entries)
}

func Test_DeviceTreeEntriesMissingRoot(t *testing.T) {
	entries, err := NewDeviceTree(filepath.Join(t.TempDir(), "missing")).Entries()
	assert.Error(t, err)
	assert.Empty(t, entries)
}

func Test_DeviceTreeAttributes(t *testing.T) {
	assert := require.New(t)
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "1-2", "manufacturer"), "WCH.CN\n")
	writeFile(t, filepath.Join(root, "1-2", "idProduct"), "e008\n")
	writeFile(t, filepath.Join(root, "1-2", "power", "level"), "on\n")

	tree := NewDeviceTree(root)
	assert.True(tree.Exists("1-2", "manufacturer"))
	assert.False(tree.Exists("1-2", "idVendor"))
	assert.True(tree.Exists("1-2", "power/level"))

	product, err := tree.ReadAttr("1-2", "idProduct")
	assert.NoError(err)
	assert.Equal("e008", product)

	_, err = tree.ReadAttr("1-2", "idVendor")
	assert.Error(err)

	assert.NoError(tree.WriteAttr("1-2", "power/level", "auto"))
	contents, err := os.ReadFile(filepath.Join(root, "1-2", "power", "level"))
	assert.NoError(err)
	assert.Equal("auto", string(contents))
}

func Test_DeviceTreeWriteDoesNotCreate(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "1-3"), 0o755))

	err := NewDeviceTree(root).WriteAttr("1-3", "power/autosuspend", "0")
	assert.Error(t, err)
	assert.NoFileExists(t, filepath.Join(root, "1-3", "power", "autosuspend"))
}

func Test_DeviceTreeExistsRequiresRegularFile(t *testing.T) {
	assert := require.New(t)
	root := t.TempDir()
	assert.NoError(os.MkdirAll(filepath.Join(root, "1-4", "manufacturer"), 0o755))
	writeFile(t, filepath.Join(root, "1-5", "manufacturer"), "WCH.CN\n")
	assert.NoError(os.Symlink(filepath.Join(root, "1-5", "manufacturer"), filepath.Join(root, "1-5", "vendor_link")))

	tree := NewDeviceTree(root)
	assert.False(tree.Exists("1-4", "manufacturer"))
	assert.True(tree.Exists("1-5", "manufacturer"))
	assert.True(tree.Exists("1-5", "vendor_link"))
	assert.False(tree.Exists("1-5", "power"))
}
