// Package es51922 decodes measurement packets from multimeters built on the
// Cyrustek ES51922 chipset, such as the UNI-T UT61E. The packet has no
// checksum, so every field is validated against the values the chipset can
// produce.
package es51922

import (
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// PacketLength is the size of one packet, excluding the line terminator.
const PacketLength = 9

// rangeEntry maps the range nibble to the scale of the displayed value.
type rangeEntry struct {
	// Multiplier converts the displayed value to base units.
	Multiplier float64
	// Point is the number of digits after the decimal point on the display.
	Point int
	Unit  string
}

var (
	rangeDiode = []rangeEntry{
		{1e0, 3, "V"},
	}
	rangeFrequency = []rangeEntry{
		{1e0, 0, "Hz"},
		{1e3, 2, "kHz"},
		{1e3, 1, "kHz"},
		{1e6, 3, "MHz"},
		{1e6, 2, "MHz"},
	}
	rangeResistance = []rangeEntry{
		{1e0, 1, "Ω"},
		{1e3, 3, "kΩ"},
		{1e3, 2, "kΩ"},
		{1e3, 1, "kΩ"},
		{1e6, 3, "MΩ"},
		{1e6, 2, "MΩ"},
	}
	rangeContinuity = []rangeEntry{
		{1e0, 1, "Ω"},
	}
	rangeCapacitance = []rangeEntry{
		{1e-9, 3, "nF"},
		{1e-9, 2, "nF"},
		{1e-9, 1, "nF"},
		{1e-6, 3, "µF"},
		{1e-6, 2, "µF"},
		{1e-6, 1, "µF"},
		{1e-3, 3, "mF"},
	}
	rangeCurrent10A = []rangeEntry{
		{1e0, 2, "A"},
	}
	rangeVoltage = []rangeEntry{
		{1e0, 3, "V"},
		{1e0, 2, "V"},
		{1e0, 1, "V"},
		{1e0, 0, "V"},
		{1e-1, 1, "mV"},
	}
	rangeCurrentMicro = []rangeEntry{
		{1e-6, 1, "µA"},
		{1e-6, 0, "µA"},
	}
	rangeGain = []rangeEntry{
		{1e0, 0, "hFe"},
	}
	rangeCurrentMilli = []rangeEntry{
		{1e-3, 2, "mA"},
		{1e-3, 1, "mA"},
	}

	dutyCycle = rangeEntry{1e0, 1, "%"}
)

type function struct {
	mode   string
	ranges []rangeEntry
	unit   string
}

var functions = map[byte]function{
	0x01: {"diode", rangeDiode, "V"},
	0x02: {"frequency", rangeFrequency, "Hz"},
	0x03: {"resistance", rangeResistance, "Ω"},
	0x04: {"temperature", nil, "deg"},
	0x05: {"continuity", rangeContinuity, "Ω"},
	0x06: {"capacitance", rangeCapacitance, "F"},
	0x09: {"current", rangeCurrent10A, "A"},
	0x0b: {"voltage", rangeVoltage, "V"},
	0x0d: {"current", rangeCurrentMicro, "A"},
	0x0e: {"current gain", rangeGain, ""},
	0x0f: {"current", rangeCurrentMilli, "A"},
}

// Flag templates list the low nibble from bit 3 down to bit 0. An empty name
// marks a bit that must be clear.
var (
	statusBits  = [4]string{"JUDGE", "SIGN", "BATT", "OL"}
	option1Bits = [4]string{"HOLD", "MAX", "MIN", ""}
	option2Bits = [4]string{"DC", "AC", "AUTO", ""}
)

// Reading is one decoded measurement.
type Reading struct {
	// Value is the measurement in base units. Undefined when Overload.
	Value float64
	Unit  string
	// Display is the value as shown on the meter, in DisplayUnit.
	Display     string
	DisplayUnit string
	Mode        string
	// Current is "AC", "DC" or empty.
	Current string
	// Peak is "max", "min" or empty.
	Peak       string
	Hold       bool
	AutoRange  bool
	Overload   bool
	BatteryLow bool
}

// Operation is "overload" when the input exceeds the range, otherwise "normal".
func (r *Reading) Operation() string {
	if r.Overload {
		return "overload"
	}
	return "normal"
}

// Range is "auto" or "manual".
func (r *Reading) Range() string {
	if r.AutoRange {
		return "auto"
	}
	return "manual"
}

func flags(b byte, template [4]string, into map[string]bool) error {
	for i := 0; i < 4; i++ {
		set := b&(1<<i) != 0
		name := template[3-i]
		if name == "" {
			if set {
				return errors.Errorf("reserved bit %d set in %#02x", i, b)
			}
			continue
		}
		into[name] = set
	}
	return nil
}

// Parse decodes a single packet.
func Parse(packet []byte) (*Reading, error) {
	if len(packet) != PacketLength {
		return nil, errors.Errorf("packet length %d, expected %d", len(packet), PacketLength)
	}

	options := make(map[string]bool, 12)
	for i, template := range [][4]string{statusBits, option1Bits, option2Bits} {
		if err := flags(packet[6+i], template, options); err != nil {
			return nil, errors.Wrapf(err, "option byte %d", 6+i)
		}
	}

	fn, ok := functions[packet[5]&0x0f]
	if !ok {
		return nil, errors.Errorf("unknown function %#02x", packet[5])
	}
	idx := int(packet[0] & 0x0f)
	if idx >= len(fn.ranges) {
		return nil, errors.Errorf("range %d not defined for %s", idx, fn.mode)
	}

	r := &Reading{
		Mode:       fn.mode,
		Unit:       fn.unit,
		Hold:       options["HOLD"],
		AutoRange:  options["AUTO"],
		Overload:   options["OL"],
		BatteryLow: options["BATT"],
	}
	scale := fn.ranges[idx]
	if r.Mode == "frequency" && options["JUDGE"] {
		r.Mode = "duty_cycle"
		r.Unit = "%"
		scale = dutyCycle
	}

	switch {
	case options["AC"] && options["DC"]:
		return nil, errors.New("both AC and DC set")
	case options["DC"]:
		r.Current = "DC"
	case options["AC"]:
		r.Current = "AC"
	}

	switch {
	case options["MAX"]:
		r.Peak = "max"
	case options["MIN"]:
		r.Peak = "min"
	}

	r.DisplayUnit = scale.Unit
	if r.Overload {
		return r, nil
	}

	digits := 0
	for _, d := range packet[1:5] {
		digits = digits*10 + int(d&0x0f)
	}
	if options["SIGN"] {
		digits = -digits
	}
	r.Display = formatDisplay(digits, scale.Point)
	r.Value = float64(digits) / math.Pow10(scale.Point) * scale.Multiplier

	return r, nil
}

// formatDisplay places the decimal point point digits from the right.
func formatDisplay(digits, point int) string {
	neg := digits < 0
	if neg {
		digits = -digits
	}
	s := strconv.Itoa(digits)
	if point > 0 {
		if len(s) <= point {
			s = strings.Repeat("0", point-len(s)+1) + s
		}
		s = s[:len(s)-point] + "." + s[len(s)-point:]
	}
	if neg {
		s = "-" + s
	}
	return s
}
