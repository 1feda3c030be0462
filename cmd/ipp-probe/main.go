/* ipp-probe - IPP printer capability and status discovery
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * The main function
 */

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	ippprobe "github.com/OpenPrinting/ipp-probe"
	"github.com/urfave/cli"
)

var globalFlags = []cli.Flag{
	cli.StringSliceFlag{
		Name:  "conf",
		Usage: "Configuration file (may be repeated)",
	},
	cli.BoolFlag{
		Name:  "debug",
		Usage: "Enable debug messages",
	},
	cli.BoolFlag{
		Name:  "trace",
		Usage: "Trace IPP requests and responses",
	},
	cli.DurationFlag{
		Name:  "timeout",
		Usage: "Per-request network timeout (default: from configuration)",
	},
	cli.StringFlag{
		Name:  "log-file",
		Usage: "Log into the named file within " + ippprobe.PathLogDir,
	},
	cli.StringFlag{
		Name:  "records",
		Usage: "Directory of per-printer records",
		Value: ippprobe.PathPrinterRecords,
	},
	cli.BoolFlag{
		Name:  "no-records",
		Usage: "Don't load or save per-printer records",
	},
}

var commands = []cli.Command{
	cli.Command{
		Name:      "caps",
		ShortName: "c",
		Usage:     "Query and decode printer capabilities",
		ArgsUsage: "URI",
		Action:    cmdCaps,
	},
	cli.Command{
		Name:      "state",
		ShortName: "s",
		Usage:     "Query printer state",
		ArgsUsage: "URI",
		Action:    cmdState,
	},
	cli.Command{
		Name:      "job",
		ShortName: "j",
		Usage:     "Query job state",
		ArgsUsage: "URI",
		Action:    cmdJob,
		Flags: []cli.Flag{
			cli.IntFlag{
				Name:  "id",
				Usage: "Job ID; if not set, the last job of the user",
				Value: -1,
			},
			cli.StringFlag{
				Name:  "user",
				Usage: "requesting-user-name",
			},
		},
	},
	cli.Command{
		Name:      "jobid",
		Usage:     "Find ID of the last job of the user",
		ArgsUsage: "URI",
		Action:    cmdJobID,
		Flags: []cli.Flag{
			cli.StringFlag{
				Name:  "user",
				Usage: "requesting-user-name",
			},
		},
	},
	cli.Command{
		Name:      "version",
		ShortName: "v",
		Usage:     "Negotiate IPP version",
		ArgsUsage: "URI",
		Action:    cmdVersion,
	},
}

// probe is the per-invocation state, shared by commands
type probe struct {
	conf      *ippprobe.Configuration
	log       *ippprobe.Logger
	transport *ippprobe.HTTPTransport
	session   *ippprobe.Session
	record    *ippprobe.PrinterRecord
	uri       string
}

// newProbe creates probe for the command
func newProbe(c *cli.Context) (*probe, error) {
	if c.NArg() != 1 {
		return nil, errors.New("exactly one printer URI expected")
	}

	conf, err := ippprobe.ConfLoad(c.GlobalStringSlice("conf")...)
	if err != nil {
		return nil, err
	}

	if c.GlobalIsSet("timeout") {
		conf.Timeout = c.GlobalDuration("timeout")
	}
	if c.GlobalBool("debug") {
		conf.LogConsole |= ippprobe.LogDebug
		conf.LogFile |= ippprobe.LogDebug
	}
	if c.GlobalBool("trace") {
		conf.LogConsole |= ippprobe.LogTraceIPP
		conf.LogFile |= ippprobe.LogTraceIPP
	}

	p := &probe{
		conf: conf,
		log:  ippprobe.ConfLogger(conf, c.GlobalString("log-file")),
		uri:  c.Args().First(),
	}

	ippprobe.Log = p.log

	if !c.GlobalBool("no-records") {
		ident := ippprobe.PrinterIdent(p.uri)
		if ident == "" {
			return nil, fmt.Errorf("%s: %w", p.uri, ippprobe.ErrBadURI)
		}

		p.record = ippprobe.LoadPrinterRecord(c.GlobalString("records"), ident)
		if p.record.URI != "" && ippprobe.PrinterIdent(p.record.URI) == ident {
			p.uri = p.record.URI
		}
	}

	p.transport = ippprobe.NewHTTPTransport(conf, p.log)
	p.session = ippprobe.NewSession(p.transport, conf, p.log)

	if p.record != nil {
		p.session.SetModel(p.record.Make)
		p.session.SeedVersion(p.record.Version)
	}

	return p, nil
}

// close saves the printer record and releases resources
func (p *probe) close(caps *ippprobe.PrinterCapabilities) {
	if p.record != nil && p.record.Update(p.uri, caps, p.session.Version()) {
		if err := p.record.Save(); err != nil {
			p.log.Error('!', "%s: record not saved: %s", p.uri, err)
		}
	}

	p.transport.CloseIdleConnections()
	p.log.Close()
}

// context returns context, canceled by SIGINT or SIGTERM
func (p *probe) context() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
}

func cmdCaps(c *cli.Context) error {
	p, err := newProbe(c)
	if err != nil {
		return cli.NewExitError(err, 2)
	}

	ctx, cancel := p.context()
	defer cancel()

	caps, err := p.session.GetCapabilities(ctx, &p.uri)
	p.close(caps)

	if err != nil {
		return cli.NewExitError(err, 1)
	}

	fmt.Print(caps)
	return nil
}

func cmdState(c *cli.Context) error {
	p, err := newProbe(c)
	if err != nil {
		return cli.NewExitError(err, 2)
	}

	ctx, cancel := p.context()
	defer cancel()

	snap, status := p.session.GetPrinterState(ctx, &p.uri)
	p.close(nil)

	fmt.Printf("%s: %s\n", status, snap)
	return nil
}

func cmdJob(c *cli.Context) error {
	p, err := newProbe(c)
	if err != nil {
		return cli.NewExitError(err, 2)
	}

	ctx, cancel := p.context()
	defer cancel()

	user := userName(c, p.conf)
	id := c.Int("id")
	if id < 0 {
		id = p.session.GetJobID(ctx, &p.uri, user)
	}

	if id < 0 {
		p.close(nil)
		return cli.NewExitError("no jobs found", 1)
	}

	snap, status := p.session.GetJobStatus(ctx, &p.uri, id, user)
	p.close(nil)

	fmt.Printf("job %d: %s: %s\n", id, status, snap)
	return nil
}

func cmdJobID(c *cli.Context) error {
	p, err := newProbe(c)
	if err != nil {
		return cli.NewExitError(err, 2)
	}

	ctx, cancel := p.context()
	defer cancel()

	id := p.session.GetJobID(ctx, &p.uri, userName(c, p.conf))
	p.close(nil)

	fmt.Println(id)
	return nil
}

func cmdVersion(c *cli.Context) error {
	p, err := newProbe(c)
	if err != nil {
		return cli.NewExitError(err, 2)
	}

	ctx, cancel := p.context()
	defer cancel()

	v, err := p.session.ResolveVersion(ctx, p.uri)
	p.close(nil)

	if err != nil {
		return cli.NewExitError(err, 1)
	}

	fmt.Println(v)
	return nil
}

// userName returns requesting-user-name for the job commands
func userName(c *cli.Context, conf *ippprobe.Configuration) string {
	if user := c.String("user"); user != "" {
		return user
	}
	return conf.UserName
}

func main() {
	app := cli.NewApp()
	app.Name = "ipp-probe"
	app.Usage = "IPP printer capability and status discovery"
	app.Version = "0.1"
	app.Flags = globalFlags
	app.Commands = commands

	app.Run(os.Args)
}
