package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	cli "github.com/urfave/cli/v2"

	"github.com/harvester/usbsuspend/pkg/autosuspend"
	"github.com/harvester/usbsuspend/pkg/es51922"
	"github.com/harvester/usbsuspend/pkg/sysfs"
)

const (
	VERSION = "v0.1.0"
	appName = "usbsuspend"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		logrus.Fatal(err)
	}
}

func newApp() *cli.App {
	var (
		sysfsRoot string
		debug     bool
	)
	target := autosuspend.DefaultTarget

	app := cli.NewApp()
	app.Name = appName
	app.Version = VERSION
	app.Usage = "Enable USB autosuspend on the UNI-T UT61E multimeter adapter, and decode its ES51922 readings."
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:        "sysfs-root",
			Value:       sysfs.PathToUSBDevices,
			Destination: &sysfsRoot,
			Usage:       "USB device enumeration root",
		},
		&cli.StringFlag{
			Name:        "vendor",
			Value:       target.Vendor,
			Destination: &target.Vendor,
			Usage:       "text idVendor must contain",
		},
		&cli.StringFlag{
			Name:        "product",
			Value:       target.Product,
			Destination: &target.Product,
			Usage:       "text idProduct must contain",
		},
		&cli.BoolFlag{
			Name:        "debug",
			Destination: &debug,
			Usage:       "enable debug logging, also enabled by DEBUG_LOGGING=true",
		},
	}
	app.Before = func(_ *cli.Context) error {
		if debug || os.Getenv("DEBUG_LOGGING") == "true" {
			logrus.SetLevel(logrus.DebugLevel)
		}
		return nil
	}

	app.Action = func(_ *cli.Context) error {
		autosuspend.NewScanner(sysfs.NewDeviceTree(sysfsRoot), target).Apply()
		return nil
	}

	app.Commands = []*cli.Command{
		es51922Command(),
	}
	return app
}

func es51922Command() *cli.Command {
	var (
		mode    string
		file    string
		verbose bool
	)

	return &cli.Command{
		Name:  "es51922",
		Usage: "Parse ES51922 multimeter packets from stdin",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "mode",
				Aliases:     []string{"m"},
				Value:       string(es51922.ModeCSV),
				Destination: &mode,
				Usage:       "output mode: csv, plot or readable",
			},
			&cli.StringFlag{
				Name:        "file",
				Aliases:     []string{"f"},
				Destination: &file,
				Usage:       "output file",
			},
			&cli.BoolFlag{
				Name:        "verbose",
				Destination: &verbose,
				Usage:       "enable verbose output",
			},
		},
		Action: func(c *cli.Context) error {
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			}
			return decode(c.App.Reader, c.App.Writer, es51922.Mode(mode), file, time.Now)
		},
	}
}

// defaultCSVName keeps the hour:second stamp the meter's logs have always used.
func defaultCSVName(ts time.Time) string {
	return fmt.Sprintf("measurement_%s.csv", ts.Format("2006-01-02_15:05"))
}

func decode(in io.Reader, echo io.Writer, mode es51922.Mode, file string, now func() time.Time) error {
	d := &es51922.Decoder{
		Mode: mode,
		Echo: echo,
		Now:  now,
	}

	switch mode {
	case es51922.ModeCSV:
		if file == "" {
			file = defaultCSVName(now())
		}
		out, err := os.Create(file)
		if err != nil {
			return fmt.Errorf("error creating %s: %w", file, err)
		}
		defer out.Close()
		logrus.Infof("Writing to file %q", file)
		if _, err := fmt.Fprintln(out, es51922.CSVHeader()); err != nil {
			return err
		}
		d.Out = out
	case es51922.ModePlot:
		if file == "" {
			return fmt.Errorf("no file name specified for %s mode", mode)
		}
		out, err := os.OpenFile(file, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("error opening %s: %w", file, err)
		}
		defer out.Close()
		d.Out = out
	case es51922.ModeReadable:
	default:
		return fmt.Errorf("unknown mode %q", mode)
	}

	return d.Run(in)
}
