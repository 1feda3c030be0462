/* ipp-probe - IPP printer capability and status discovery
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * Command-line front end tests
 */

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/OpenPrinting/goipp"
	ippprobe "github.com/OpenPrinting/ipp-probe"
	"github.com/urfave/cli"
)

// testCommand runs newProbe with the command line arguments,
// as the command would do
func testCommand(t *testing.T, args ...string) *probe {
	t.Helper()

	var p *probe
	app := cli.NewApp()
	app.Name = "ipp-probe"
	app.Flags = globalFlags
	app.Commands = []cli.Command{
		{
			Name: "test",
			Action: func(c *cli.Context) (err error) {
				p, err = newProbe(c)
				return err
			},
		},
	}

	argv := append([]string{"ipp-probe"}, args...)
	if err := app.Run(argv); err != nil {
		t.Fatalf("%s: %s", strings.Join(argv, " "), err)
	}

	return p
}

// testWriteFile writes file into the temporary directory
func testWriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("%s", err)
	}

	return path
}

// TestTimeout tests that --timeout overrides configuration only
// when given
func TestTimeout(t *testing.T) {
	conf := testWriteFile(t, t.TempDir(), "ipp-probe.conf",
		"[network]\ntimeout = 3s\n")

	p := testCommand(t, "--conf", conf, "--no-records",
		"test", "ipp://printer.local/")
	if p.conf.Timeout != 3*time.Second {
		t.Errorf("configured timeout: %s, expected 3s", p.conf.Timeout)
	}

	p = testCommand(t, "--conf", conf, "--no-records", "--timeout", "500ms",
		"test", "ipp://printer.local/")
	if p.conf.Timeout != 500*time.Millisecond {
		t.Errorf("--timeout: %s, expected 500ms", p.conf.Timeout)
	}

	p = testCommand(t, "--conf", filepath.Join(t.TempDir(), "none.conf"),
		"--no-records", "test", "ipp://printer.local/")
	if p.conf.Timeout != ippprobe.DefaultTimeout {
		t.Errorf("default timeout: %s", p.conf.Timeout)
	}
}

// TestRecordReuse tests that the saved URI and version are used
func TestRecordReuse(t *testing.T) {
	dir := t.TempDir()
	testWriteFile(t, dir, "printer.local.state",
		"[printer]\nuri = ipp://printer.local/\nipp-version = 1.1\n")

	p := testCommand(t, "--records", dir, "test", "ipp://printer.local/ipp/print")

	if p.uri != "ipp://printer.local/" {
		t.Errorf("URI: %q, expected the saved one", p.uri)
	}

	if v := p.session.Version(); v != goipp.MakeVersion(1, 1) {
		t.Errorf("version: %s, expected the saved 1.1", v)
	}
}

// TestRecordSaveError tests that failure to save the record
// is logged
func TestRecordSaveError(t *testing.T) {
	blocker := testWriteFile(t, t.TempDir(), "file", "")

	p := testCommand(t, "--records", filepath.Join(blocker, "records"),
		"test", "ipp://printer.local/")

	buf := &bytes.Buffer{}
	p.log = ippprobe.NewWriterLogger(buf, ippprobe.LogError)
	p.close(nil)

	if !strings.Contains(buf.String(), "record not saved") {
		t.Errorf("save error not logged: %q", buf.String())
	}
}
