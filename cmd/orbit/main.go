// Command orbit is the thin CLI over internal/core's plan, install, and
// checksum entry points (spec §6). It owns argument parsing and catalog
// discovery; every actual decision is made by internal/core.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hdlkit/orbit/internal/catalog"
	"github.com/hdlkit/orbit/internal/core"
	"github.com/hdlkit/orbit/internal/ip"
	"github.com/hdlkit/orbit/internal/lang"
	"github.com/hdlkit/orbit/internal/unitgraph"
	"github.com/hdlkit/orbit/internal/version"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "plan":
		runPlan(os.Args[2:])
	case "install":
		runInstall(os.Args[2:])
	case "checksum":
		runChecksum(os.Args[2:])
	case "-h", "--help", "help":
		printUsage()
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Usage: orbit <command> [options]

Commands:
  plan        Resolve dependencies, apply DST, and emit a blueprint
  install     Extract a downloaded archive into the cache
  checksum    Compute the content checksum of an IP directory

Options (given as --name value or --name=value):
  plan        --ip DIR --cache DIR --downloads DIR --target-dir DIR
              --target NAME --lang vhdl|verilog|sv --top UNIT --bench UNIT
              --fileset NAME=PATTERN (repeatable) --force --all
  install     --name NAME --version REQ --checksum HEX --cache DIR --downloads DIR
  checksum    [DIR] or --path DIR`)
}

func runPlan(args []string) {
	flags := parseFlags(args)
	ipDir := flags.str("ip", ".")
	cacheDir := flags.str("cache", filepath.Join(ipDir, ".orbit", "cache"))
	downloadDir := flags.str("downloads", filepath.Join(ipDir, ".orbit", "downloads"))
	targetDir := flags.str("target-dir", "build")
	target := flags.str("target", "default")

	working, err := ip.Load(ipDir)
	if err != nil {
		fail("loading %s: %v", ipDir, err)
	}

	cat := catalog.New(cacheDir, downloadDir)
	if err := cat.Discover(); err != nil {
		fail("discovering catalog: %v", err)
	}

	var filesets []unitgraph.Fileset
	for _, raw := range flags.list("fileset") {
		name, pattern, ok := strings.Cut(raw, "=")
		if !ok {
			fail("invalid --fileset %q, want NAME=PATTERN", raw)
		}
		filesets = append(filesets, unitgraph.Fileset{Name: name, Pattern: pattern})
	}

	result, err := core.Plan(core.PlanOptions{
		Working:   working,
		TargetDir: targetDir,
		Target:    target,
		Catalog:   cat,
		Language:  parseLanguage(flags.str("lang", "vhdl")),
		Force:     flags.bool("force"),
		All:       flags.bool("all"),
		Top:       flags.str("top", ""),
		Bench:     flags.str("bench", ""),
		Filesets:  filesets,
	})
	if err != nil {
		fail("plan: %v", err)
	}
	fmt.Println(result.Plan.Env["ORBIT_BLUEPRINT"])
}

func runInstall(args []string) {
	flags := parseFlags(args)
	cacheDir := flags.str("cache", ".orbit/cache")
	downloadDir := flags.str("downloads", ".orbit/downloads")
	name := flags.str("name", "")
	if name == "" {
		fail("install: --name is required")
	}
	req, err := version.ParseRequest(flags.str("version", ""))
	if err != nil {
		fail("install: %v", err)
	}
	expectedHex := flags.str("checksum", "")
	if expectedHex == "" {
		fail("install: --checksum is required")
	}
	expected, err := parseSum(expectedHex)
	if err != nil {
		fail("install: %v", err)
	}

	cat := catalog.New(cacheDir, downloadDir)
	if err := cat.Discover(); err != nil {
		fail("discovering catalog: %v", err)
	}

	installed, err := core.InstallFromDownload(core.InstallSpec{
		Name: name, Request: req, Expected: expected,
	}, cat)
	if err != nil {
		fail("install: %v", err)
	}
	fmt.Println(installed.Root)
}

func runChecksum(args []string) {
	flags := parseFlags(args)
	path := flags.str("path", ".")
	if len(flags.positional) > 0 {
		path = flags.positional[0]
	}
	sum, err := core.ComputeChecksum(path)
	if err != nil {
		fail("checksum: %v", err)
	}
	fmt.Println(sum.String())
}

func parseLanguage(s string) lang.Language {
	switch strings.ToLower(s) {
	case "verilog":
		return lang.Verilog
	case "sv", "systemverilog":
		return lang.SystemVerilog
	default:
		return lang.VHDL
	}
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "orbit: "+format+"\n", args...)
	os.Exit(1)
}
