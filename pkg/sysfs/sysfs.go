package sysfs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PathToUSBDevices is the kernel's USB device enumeration root.
const PathToUSBDevices = "/sys/bus/usb/devices"

// DeviceProvider exposes the device entries under an enumeration root and
// the attribute files inside each entry. Attribute names may contain a
// slash, e.g. "power/level".
type DeviceProvider interface {
	Entries() ([]string, error)
	Exists(entry, name string) bool
	ReadAttr(entry, name string) (string, error)
	WriteAttr(entry, name, value string) error
}

// DeviceTree is a DeviceProvider backed by a directory on the host.
type DeviceTree struct {
	root string
}

func NewDeviceTree(root string) *DeviceTree {
	return &DeviceTree{
		root: root,
	}
}

// Entries lists the names directly under the root in directory order.
// Device entries under /sys/bus/usb/devices are symlinks, so no file type
// filtering is done here.
func (d *DeviceTree) Entries() ([]string, error) {
	dirEntries, err := os.ReadDir(d.root)
	if err != nil {
		return nil, fmt.Errorf("error reading device root %s: %w", d.root, err)
	}

	entries := make([]string, 0, len(dirEntries))
	for _, e := range dirEntries {
		entries = append(entries, e.Name())
	}
	return entries, nil
}

// Exists reports whether name is a regular file, following symlinks.
func (d *DeviceTree) Exists(entry, name string) bool {
	fi, err := os.Stat(d.path(entry, name))
	return err == nil && fi.Mode().IsRegular()
}

func (d *DeviceTree) ReadAttr(entry, name string) (string, error) {
	contents, err := os.ReadFile(d.path(entry, name))
	if err != nil {
		return "", fmt.Errorf("error reading %s for device %s: %w", name, entry, err)
	}
	return strings.TrimSuffix(string(contents), "\n"), nil
}

// WriteAttr writes value to an existing attribute file. sysfs attributes
// cannot be created, so a missing file is an error rather than a new file.
func (d *DeviceTree) WriteAttr(entry, name, value string) error {
	path := d.path(entry, name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return fmt.Errorf("error opening %s for device %s: %w", name, entry, err)
	}

	_, err = f.WriteString(value)
	if cerr := f.Close(); cerr != nil {
		err = errors.Join(err, cerr)
	}
	if err != nil {
		return fmt.Errorf("error writing %q to %s for device %s: %w", value, name, entry, err)
	}
	return nil
}

func (d *DeviceTree) path(entry, name string) string {
	return filepath.Join(d.root, entry, filepath.FromSlash(name))
}
