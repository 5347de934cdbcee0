package es51922

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type Mode string

const (
	ModeCSV      Mode = "csv"
	ModeReadable Mode = "readable"
	ModePlot     Mode = "plot"
)

// CSVFields are the columns written after the timestamp in CSV mode.
var CSVFields = []string{"value", "unit", "mode", "current", "operation", "peak", "battery_low", "hold"}

const csvSeparator = ";"

// CSVHeader returns the header line for CSV output, without newline.
func CSVHeader() string {
	return "timestamp" + csvSeparator + strings.Join(CSVFields, csvSeparator)
}

func boolField(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func (r *Reading) field(name string) string {
	switch name {
	case "value":
		if r.Overload {
			return ""
		}
		return formatValue(r.Value)
	case "unit":
		return r.Unit
	case "mode":
		return r.Mode
	case "current":
		return r.Current
	case "operation":
		return r.Operation()
	case "peak":
		return r.Peak
	case "battery_low":
		return boolField(r.BatteryLow)
	case "hold":
		return boolField(r.Hold)
	}
	return ""
}

// CSV formats the reading as a row of CSVFields.
func (r *Reading) CSV() string {
	fields := make([]string, 0, len(CSVFields))
	for _, name := range CSVFields {
		fields = append(fields, r.field(name))
	}
	return strings.Join(fields, csvSeparator)
}

// Readable formats the reading the way the meter displays it.
func (r *Reading) Readable() string {
	var line string
	if r.Overload {
		line = fmt.Sprintf("-, the measurement is %sed!", r.Operation())
	} else {
		line = fmt.Sprintf("%s %s", r.Display, r.DisplayUnit)
	}
	if r.BatteryLow {
		line += " Battery low!"
	}
	return line
}

// Plot formats the reading as "<mode>: <value><unit>".
func (r *Reading) Plot() string {
	if r.Overload {
		return r.Mode + ": overload"
	}
	return r.Mode + ": " + formatValue(r.Value) + r.Unit
}

// Decoder reads packets line by line and writes each reading in Mode.
// CSV rows and plot lines go to Out; readable and plot lines go to Echo.
type Decoder struct {
	Mode Mode
	Out  io.Writer
	Echo io.Writer
	// Now stamps each reading.
	Now func() time.Time
}

// Run decodes lines from r until EOF. Lines that are not packets are
// logged and skipped.
func (d *Decoder) Run(r io.Reader) error {
	now := d.Now
	if now == nil {
		now = time.Now
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !isASCII(line) {
			logrus.Warnf("Not an ASCII input line, ignoring: %q", line)
			continue
		}
		if line == "" {
			logrus.Warn("Not a response from the multimeter: empty line")
			continue
		}
		if len(line) != PacketLength {
			logrus.Warnf("Unknown packet from multimeter: %q, length: %d", line, len(line))
			continue
		}

		reading, err := Parse([]byte(line))
		if err != nil {
			logrus.Warnf("Error %q packet from multimeter: %q", err, line)
			continue
		}
		if err := d.write(now(), reading); err != nil {
			return err
		}
	}
	return errors.Wrap(scanner.Err(), "reading multimeter input")
}

func (d *Decoder) write(ts time.Time, reading *Reading) error {
	var err error
	switch d.Mode {
	case ModeCSV:
		_, err = fmt.Fprintf(d.Out, "%s%s%s\n", ts.Format("2006-01-02 15:04:05.000000"), csvSeparator, reading.CSV())
	case ModeReadable:
		_, err = fmt.Fprintln(d.Echo, ts.Format("15:04:05.000000"), reading.Readable())
	case ModePlot:
		line := reading.Plot()
		if _, err = fmt.Fprintln(d.Out, line); err == nil {
			_, err = fmt.Fprintln(d.Echo, line)
		}
	default:
		return errors.Errorf("unsupported output mode %q", d.Mode)
	}
	return errors.Wrap(err, "writing reading")
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// formatValue never uses exponent notation, so MHz and MΩ readings stay
// plain numbers for plotting tools.
func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
