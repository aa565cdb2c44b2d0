// Command gnssfixctl opens a serial or file transport, decodes NMEA
// and/or UBX traffic through a session.Session, and prints each
// consolidated fix report. Adapted from cmd/top708reader's flag/signal
// handling conventions, retargeted at the new decoder stack.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	gnssfix "github.com/bramburn/gnssfix"
	"github.com/bramburn/gnssfix/pkg/gnssfix/fix"
	"github.com/bramburn/gnssfix/pkg/gnssfix/session"
	"github.com/bramburn/gnssfix/pkg/gnssfix/transport"
)

var (
	portName string
	baudRate int
	filePath string
	mode     string
	readOnly bool
)

func init() {
	flag.StringVar(&portName, "port", "", "serial port (e.g. /dev/ttyUSB0); mutually exclusive with -file")
	flag.IntVar(&baudRate, "baud", 38400, "serial baud rate")
	flag.StringVar(&filePath, "file", "", "replay a captured byte stream instead of a live port")
	flag.StringVar(&mode, "mode", "auto", "decoder mode: auto, nmea, ubx")
	flag.BoolVar(&readOnly, "passive", false, "never write outbound UBX configuration frames")
}

func main() {
	flag.Parse()
	log := logrus.New()

	tr, err := openTransport()
	if err != nil {
		log.Fatalf("opening transport: %v", err)
	}
	defer tr.Close()

	cfg := session.Config{Mode: parseMode(mode), ReadOnly: readOnly}
	sess := session.New(tr, cfg, session.LogrusSink{Logger: log})
	sess.OnReport = func(r fix.Report) {
		fmt.Printf("fix: mode=%v status=%v lat=%.6f lon=%.6f alt=%.1f sats=%d\n",
			r.Fix.Mode, r.Fix.Status, r.Fix.Lat, r.Fix.Lon, r.Fix.AltMSL, r.Sky.SatellitesUsed())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = sess.Run(ctx)
	sess.Flush()
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, gnssfix.ErrOffline) {
		log.Fatalf("session ended: %v", err)
	}
	if errors.Is(err, gnssfix.ErrOffline) {
		log.Warn("no data received within the offline grace period")
	}
}

func openTransport() (transport.Transport, error) {
	switch {
	case filePath != "":
		return transport.OpenFile(filePath)
	case portName != "":
		return transport.OpenSerial(transport.SerialConfig{Port: portName, BaudRate: baudRate})
	default:
		return nil, fmt.Errorf("one of -port or -file is required")
	}
}

func parseMode(m string) session.Mode {
	switch m {
	case "nmea":
		return session.ModeNMEAOnly
	case "ubx":
		return session.ModeUBXOnly
	default:
		return session.ModeAuto
	}
}
