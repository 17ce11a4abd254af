// Command epw converts and inspects EnergyPlus weather files offline.
//
// Usage:
//
//	epw wea -o chicago.wea chicago.epw
//	epw json chicago.epw > chicago.json
//	epw save -o roundtrip.epw chicago.json
//	epw summary chicago.epw
//	epw validate data/in/*.epw
//	epw missing chicago.epw
//
// Inputs ending in .json or .yaml are read as structured documents.
package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	json "github.com/goccy/go-json"

	"github.com/couchcryptid/epw-weather-service/internal/epw"
	"github.com/couchcryptid/epw-weather-service/internal/pipeline"
)

// errUsage marks bad invocations, which exit with status 2.
var errUsage = errors.New("usage")

// converters maps subcommands to the format they render.
var converters = map[string]epw.Format{
	"save": epw.FormatEPW,
	"wea":  epw.FormatWEA,
	"json": epw.FormatJSON,
	"yaml": epw.FormatYAML,
	"ddy":  epw.FormatDDY,
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return 2
	}
	cmd, rest := args[0], args[1:]

	var err error
	switch cmd {
	case "summary":
		err = summaryCmd(rest, stdout, stderr)
	case "validate":
		err = validateCmd(rest, stdout, stderr)
	case "missing":
		err = missingCmd(rest, stdout, stderr)
	case "help", "-h", "--help":
		usage(stdout)
		return 0
	default:
		format, ok := converters[cmd]
		if !ok {
			fmt.Fprintf(stderr, "epw: unknown command %q\n", cmd)
			usage(stderr)
			return 2
		}
		err = convertCmd(cmd, format, rest, stdout, stderr)
	}

	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage), errors.Is(err, flag.ErrHelp):
		return 2
	default:
		fmt.Fprintf(stderr, "epw %s: %v\n", cmd, err)
		return 1
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: epw <command> [flags] <file>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "conversions (write to stdout unless -o is given):")
	fmt.Fprintln(w, "  save      EnergyPlus weather file")
	fmt.Fprintln(w, "  wea       Radiance/Daysim radiation file")
	fmt.Fprintln(w, "  json      structured JSON document")
	fmt.Fprintln(w, "  yaml      structured YAML document")
	fmt.Fprintln(w, "  ddy       EnergyPlus design day objects")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "inspection:")
	fmt.Fprintln(w, "  summary   print the station summary as JSON")
	fmt.Fprintln(w, "  validate  fully parse one or more files")
	fmt.Fprintln(w, "  missing   count missing hours per field")
}

func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("epw "+name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

func convertCmd(name string, format epw.Format, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet(name, stderr)
	out := fs.String("o", "", "output path (default stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(stderr, "usage: epw %s [-o output] <file>\n", name)
		return errUsage
	}

	f, err := openInput(fs.Arg(0))
	if err != nil {
		return err
	}
	if *out == "" {
		return f.Render(stdout, format)
	}

	// Render fully before touching the output path.
	var buf bytes.Buffer
	if err := f.Render(&buf, format); err != nil {
		return err
	}
	if err := os.WriteFile(*out, buf.Bytes(), 0o644); err != nil { //nolint:gosec // output files are not secrets
		return fmt.Errorf("write %s: %w", *out, err)
	}
	return nil
}

func summaryCmd(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("summary", stderr)
	at := fs.String("at", "", "date for the magnetic declination, YYYY-MM-DD (default today)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "usage: epw summary [-at YYYY-MM-DD] <file>")
		return errUsage
	}
	when := time.Now().UTC()
	if *at != "" {
		parsed, err := time.Parse(time.DateOnly, *at)
		if err != nil {
			return fmt.Errorf("invalid -at %q: %w", *at, err)
		}
		when = parsed
	}

	f, err := openInput(fs.Arg(0))
	if err != nil {
		return err
	}
	summary, err := pipeline.Summarize(f, when)
	if err != nil {
		return err
	}
	b, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	_, err = fmt.Fprintf(stdout, "%s\n", b)
	return err
}

// validateCmd parses every file and reports each result. It fails when any
// file does.
func validateCmd(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("validate", stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(stderr, "usage: epw validate <file>...")
		return errUsage
	}

	failed := 0
	for _, path := range fs.Args() {
		f, err := openInput(path)
		if err == nil {
			err = f.Load()
		}
		if err != nil {
			failed++
			fmt.Fprintf(stdout, "FAIL  %s: %v\n", path, err)
			continue
		}
		fmt.Fprintf(stdout, "ok    %s\n", path)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files invalid", failed, fs.NArg())
	}
	return nil
}

func missingCmd(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("missing", stderr)
	all := fs.Bool("all", false, "list fields with no missing hours too")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "usage: epw missing [-all] <file>")
		return errUsage
	}

	f, err := openInput(fs.Arg(0))
	if err != nil {
		return err
	}
	table, err := f.Table()
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FIELD\tMISSING\tUNIT")
	for _, spec := range epw.HourlyFields() {
		n := table.MissingCount(spec.ID)
		if n == 0 && !*all {
			continue
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\n", spec.Key, n, spec.Unit)
	}
	return tw.Flush()
}

// openInput loads an EPW file, or a structured JSON/YAML document by
// extension.
func openInput(path string) (*epw.File, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if strings.EqualFold(filepath.Ext(path), ".json") {
			return epw.FromJSON(data)
		}
		return epw.FromYAML(data)
	default:
		return epw.Open(path)
	}
}
