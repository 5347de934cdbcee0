package autosuspend

import (
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/harvester/usbsuspend/pkg/sysfs"
	"github.com/harvester/usbsuspend/pkg/util/gousb"
	"github.com/harvester/usbsuspend/pkg/util/gousb/usbid"
)

const (
	manufacturerFile = "manufacturer"
	vendorFile       = "idVendor"
	productFile      = "idProduct"
	levelFile        = "power/level"
	autosuspendFile  = "power/autosuspend"
)

// Target describes the device to look for and the power settings written to
// it. Vendor and Product are matched by substring against the text of the
// idVendor and idProduct attributes.
type Target struct {
	Vendor      string
	Product     string
	Level       string
	Autosuspend string
}

// DefaultTarget is the UNI-T UT61E HID serial adapter (QinHeng 1a86:e008),
// put into auto suspend with no idle delay.
var DefaultTarget = Target{
	Vendor:      "1a86",
	Product:     "e008",
	Level:       "auto",
	Autosuspend: "0",
}

// Result describes a single scan.
type Result struct {
	// Visited is the number of entries looked at, including Examined.
	Visited int
	// Examined is the first entry carrying a manufacturer file, or empty
	// if the scan ran out of entries.
	Examined string
	Matched  bool
	LevelErr error
	DelayErr error
}

// Written reports whether both power attributes were written.
func (r Result) Written() bool {
	return r.Matched && r.LevelErr == nil && r.DelayErr == nil
}

type Scanner struct {
	provider sysfs.DeviceProvider
	target   Target
}

func NewScanner(provider sysfs.DeviceProvider, target Target) *Scanner {
	return &Scanner{
		provider: provider,
		target:   target,
	}
}

// Apply walks the provider's entries until it reaches one with a
// manufacturer file and stops there, whether or not that entry is the
// target. Only a matching entry is written to. Failures never surface as
// errors; they are logged and reported in the Result.
func (s *Scanner) Apply() Result {
	var result Result

	entries, err := s.provider.Entries()
	if err != nil {
		logrus.Debugf("no device entries: %v", err)
		return result
	}

	for _, entry := range entries {
		result.Visited++
		if !s.provider.Exists(entry, manufacturerFile) {
			continue
		}

		result.Examined = entry
		vendor := s.readAttr(entry, vendorFile)
		product := s.readAttr(entry, productFile)
		if strings.Contains(vendor, s.target.Vendor) && strings.Contains(product, s.target.Product) {
			result.Matched = true
			logrus.Infof("enabling autosuspend for %s: %s", entry, describe(vendor, product))
			result.LevelErr = s.write(entry, levelFile, s.target.Level)
			result.DelayErr = s.write(entry, autosuspendFile, s.target.Autosuspend)
		} else {
			logrus.Debugf("device %s (%s:%s) is not %s:%s", entry, vendor, product, s.target.Vendor, s.target.Product)
		}
		return result
	}

	logrus.Debugf("no device with a %s file among %d entries", manufacturerFile, result.Visited)
	return result
}

// readAttr treats unreadable attributes as empty so they fail the match.
func (s *Scanner) readAttr(entry, name string) string {
	value, err := s.provider.ReadAttr(entry, name)
	if err != nil {
		logrus.Debugf("treating %s as no match: %v", name, err)
		return ""
	}
	return value
}

func (s *Scanner) write(entry, name, value string) error {
	if err := s.provider.WriteAttr(entry, name, value); err != nil {
		logrus.Warnf("failed to set %s on %s: %v", name, entry, err)
		return err
	}
	logrus.Debugf("wrote %q to %s/%s", value, entry, name)
	return nil
}

func describe(vendor, product string) string {
	v, verr := strconv.ParseUint(strings.TrimSpace(vendor), 16, 16)
	p, perr := strconv.ParseUint(strings.TrimSpace(product), 16, 16)
	if verr != nil || perr != nil {
		return vendor + ":" + product
	}
	return usbid.DescribeWithVendorAndProduct(gousb.ID(v), gousb.ID(p))
}
