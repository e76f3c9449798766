// printctl drives a single ESC/POS printer directly over serial, USB or
// TCP, without the service or its database. It is the bench tool for
// checking a new device: print a line, a barcode or an image, read the
// status flags and the maintenance counters.
//
// Examples:
//
//	printctl --addr 192.168.1.50 --text "hello" --cut
//	printctl --device 154f:1536 --dialect snbc --status
//	printctl --port /dev/ttyUSB0 --baud 115200 --dialect p3 --info
package main

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"printer-service/internal/imaging"
	"printer-service/internal/model"
	"printer-service/internal/textenc"
	"printer-service/internal/transport"
	"printer-service/pkg/escpos"
)

type options struct {
	device   string
	port     string
	baud     int
	addr     string
	dialect  string
	encoding string

	texts     []string
	barcode   string
	symbology string
	imagePath string
	feed      int
	cut       bool
	drawer    bool
	status    bool
	info      bool
	verbose   bool
}

func main() {
	opts := parseFlags()

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "printctl: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() *options {
	opts := &options{}

	pflag.StringVar(&opts.device, "device", "", "USB printer as vendor:product hex IDs, e.g. 154f:1536")
	pflag.StringVar(&opts.port, "port", "", "serial port, e.g. /dev/ttyUSB0")
	pflag.IntVar(&opts.baud, "baud", 9600, "serial baud rate")
	pflag.StringVar(&opts.addr, "addr", "", "network printer as host[:port], raw port 9100 by default")
	pflag.StringVar(&opts.dialect, "dialect", "snbc", "command dialect: snbc, p3 or epic")
	pflag.StringVar(&opts.encoding, "encoding", "cp437", "code page for text output")

	pflag.StringArrayVar(&opts.texts, "text", nil, "print a line of text, repeatable")
	pflag.StringVar(&opts.barcode, "barcode", "", "print a barcode")
	pflag.StringVar(&opts.symbology, "symbology", "code128", "barcode symbology")
	pflag.StringVar(&opts.imagePath, "image", "", "print a PNG or JPEG image")
	pflag.IntVar(&opts.feed, "feed", 0, "feed n lines after the content")
	pflag.BoolVar(&opts.cut, "cut", false, "partial cut after the content")
	pflag.BoolVar(&opts.drawer, "drawer", false, "pulse the cash drawer")
	pflag.BoolVar(&opts.status, "status", false, "query and print the status flags")
	pflag.BoolVar(&opts.info, "info", false, "print the maintenance counters")
	pflag.BoolVar(&opts.verbose, "verbose", false, "log transport activity")
	pflag.Parse()

	return opts
}

func run(opts *options) error {
	dialect := escpos.ParseDialect(opts.dialect)
	if dialect == escpos.Unknown {
		return fmt.Errorf("unknown dialect %q, expected snbc, p3 or epic", opts.dialect)
	}

	var printerOpts []escpos.PrinterOption
	if enc, err := textenc.New(opts.encoding); err != nil {
		return err
	} else if enc != nil {
		printerOpts = append(printerOpts, escpos.WithTextEncoder(enc))
	}

	tr, err := openTransport(opts)
	if err != nil {
		return err
	}

	printer := escpos.NewPrinter(tr, dialect, printerOpts...)
	defer printer.Close()

	if _, err := printer.Init(); err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	if _, err := printer.Enable(); err != nil && !errors.Is(err, escpos.ErrUnsupported) {
		return fmt.Errorf("enable: %w", err)
	}

	if opts.status {
		status, err := printer.Status()
		if err != nil {
			return fmt.Errorf("status query: %w", err)
		}
		fmt.Printf("status: %s\n", status)
	}

	if opts.info {
		if err := printInfo(printer); err != nil {
			return err
		}
	}

	return printContent(printer, opts)
}

// openTransport builds and opens the transport named by the connection
// flags. Exactly one of --device, --port and --addr selects the link.
func openTransport(opts *options) (transport.Transport, error) {
	logger := newLogger(opts.verbose)

	var (
		tr  transport.Transport
		err error
	)
	switch {
	case opts.device != "":
		vendor, product, ok := strings.Cut(opts.device, ":")
		if !ok {
			return nil, fmt.Errorf("device must be vendor:product, e.g. 154f:1536")
		}
		tr, err = transport.New(model.ConnectionTypeUSB, model.JSONObject{
			"vendor_id":  vendor,
			"product_id": product,
		}, logger)
	case opts.port != "":
		tr, err = transport.New(model.ConnectionTypeSerial, model.JSONObject{
			"port":      opts.port,
			"baud_rate": opts.baud,
		}, logger)
	case opts.addr != "":
		config := model.JSONObject{}
		host, portStr, hasPort := strings.Cut(opts.addr, ":")
		config["host"] = host
		if hasPort {
			port, convErr := strconv.Atoi(portStr)
			if convErr != nil {
				return nil, fmt.Errorf("invalid port in address %q", opts.addr)
			}
			config["port"] = port
		}
		tr, err = transport.New(model.ConnectionTypeTCP, config, logger)
	default:
		return nil, fmt.Errorf("one of --device, --port or --addr is required")
	}
	if err != nil {
		return nil, err
	}

	if err := tr.Open(); err != nil {
		return nil, fmt.Errorf("open %s transport: %w", tr.Type(), err)
	}
	return tr, nil
}

// printContent sends the requested content in a fixed order: text lines,
// barcode, image, then feed, cut and drawer pulse.
func printContent(printer *escpos.Printer, opts *options) error {
	c := printer.Chain()

	for _, line := range opts.texts {
		c.Println(line)
	}

	if opts.barcode != "" {
		sym, ok := escpos.ParseSymbology(opts.symbology)
		if !ok {
			return fmt.Errorf("unknown symbology %q", opts.symbology)
		}
		c.Align("ct").Barcode(opts.barcode, escpos.BarcodeSpec{
			Width:     2,
			Height:    80,
			Font:      escpos.BarcodeFontStandard,
			HRI:       escpos.HRIBelow,
			Symbology: sym,
		}).Align("lt")
	}

	if opts.imagePath != "" {
		bmp, err := loadBitmap(opts.imagePath)
		if err != nil {
			return err
		}
		c.Align("ct").Raster(bmp, "normal").Align("lt")
	}

	if opts.feed > 0 {
		c.Feed(opts.feed)
	}
	if opts.cut {
		c.PartialCut()
	}
	if opts.drawer {
		c.Cashdraw(2)
	}

	if err := c.Err(); err != nil {
		return fmt.Errorf("print: %w", err)
	}
	return nil
}

// printInfo reads the maintenance counters, skipping queries the dialect
// does not implement.
func printInfo(printer *escpos.Printer) error {
	queries := []struct {
		label string
		read  func() (string, error)
	}{
		{"serial number", printer.SerialNumber},
		{"rom version", printer.RomVersion},
		{"firmware id", printer.FirmwareID},
		{"cut count", printer.CutCount},
		{"power-on count", printer.PowerOnCount},
		{"printed length", printer.PrintedLength},
		{"remaining paper", printer.RemainingPaper},
	}

	for _, q := range queries {
		value, err := q.read()
		if errors.Is(err, escpos.ErrUnsupported) {
			continue
		}
		if err != nil {
			return fmt.Errorf("%s query: %w", q.label, err)
		}
		fmt.Printf("%-16s %s\n", q.label+":", value)
	}
	return nil
}

func loadBitmap(path string) (*imaging.Bitmap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return imaging.FromImage(img, imaging.DefaultThreshold), nil
}

func newLogger(verbose bool) *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
