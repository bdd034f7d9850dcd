// Command sfd prints SFD dust reddening, E(B−V), at galactic positions.
//
// Usage:
//
//	sfd [flags] <l> <b>
//	sfd --batch positions.csv
//	sfd --info
//	sfd --fetch
//
// Examples:
//
//	sfd 121.17 -21.57
//	sfd --order 3 --json 0 90
//	sfd --dir ~/sfd --batch - < positions.csv
//	sfd --fetch --dir ~/sfd
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"

	"github.com/spf13/pflag"

	"github.com/geal-ai/sfddust"
)

// usageError marks errors caused by the command line; they exit with 2.
type usageError struct{ error }

func (e usageError) Unwrap() error { return e.error }

func usagef(format string, args ...any) error {
	return usageError{fmt.Errorf(format, args...)}
}

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		var ue usageError
		if errors.As(err, &ue) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	var (
		configPath string
		dir        string
		baseName   string
		baseURL    string
		batchPath  string
		order      int
		asJSON     bool
		asCBOR     bool
		showInfo   bool
		fetch      bool
		verbose    bool
	)
	flagSet := pflag.NewFlagSet("sfd", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.SetInterspersed(false) // "sfd 120 -30" must not read -30 as a flag
	flagSet.StringVar(&configPath, "config", "", "YAML config file (default: $"+envConfig+")")
	flagSet.StringVarP(&dir, "dir", "d", "", "directory holding the map files (default: $"+envDir+" or .)")
	flagSet.StringVar(&baseName, "base-name", sfddust.DefaultBaseName, "map file prefix")
	flagSet.IntVarP(&order, "order", "o", sfddust.DefaultOrder, "interpolation order: 0 nearest, 1 bilinear, 2-5 spline")
	flagSet.StringVar(&batchPath, "batch", "", "read l,b lines from this CSV file (- for stdin)")
	flagSet.BoolVar(&asJSON, "json", false, "output JSON")
	flagSet.BoolVar(&asCBOR, "cbor", false, "output CBOR")
	flagSet.BoolVar(&showInfo, "info", false, "describe the loaded maps and exit")
	flagSet.BoolVar(&fetch, "fetch", false, "download missing map files into --dir and exit")
	flagSet.StringVar(&baseURL, "base-url", defaultBaseURL, "download location for --fetch")
	flagSet.BoolVarP(&verbose, "verbose", "v", false, "log progress to stderr")
	flagSet.Usage = func() { usage(flagSet, stderr) }

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return usageError{err}
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if flagSet.Changed("dir") {
		cfg.Dir = dir
	}
	if flagSet.Changed("base-name") {
		cfg.BaseName = baseName
	}
	if flagSet.Changed("order") {
		cfg.Order = order
	}
	if flagSet.Changed("base-url") {
		cfg.Fetch.BaseURL = baseURL
	}
	if err := cfg.validate(); err != nil {
		return usageError{err}
	}

	f := formatText
	switch {
	case asJSON && asCBOR:
		return usagef("--json and --cbor are mutually exclusive")
	case asJSON:
		f = formatJSON
	case asCBOR:
		f = formatCBOR
	}

	if fetch {
		return runFetch(cfg, logger, stdout)
	}

	mode := 0
	for _, on := range []bool{showInfo, batchPath != "", flagSet.NArg() > 0} {
		if on {
			mode++
		}
	}
	if mode > 1 {
		return usagef("--info, --batch and positional arguments are mutually exclusive")
	}
	if mode == 0 || (flagSet.NArg() > 0 && flagSet.NArg() != 2) {
		usage(flagSet, stderr)
		return usagef("l and b are required")
	}

	store, err := sfddust.Load(cfg.Dir, sfddust.WithBaseName(cfg.BaseName), sfddust.WithLogger(logger))
	if err != nil {
		if errors.Is(err, sfddust.ErrMapNotFound) {
			return fmt.Errorf("%w (run sfd --fetch to download the maps)", err)
		}
		return err
	}

	switch {
	case showInfo:
		infos := []hemisphereInfo{describe(store.North), describe(store.South)}
		if f == formatText {
			printInfo(stdout, infos)
			return nil
		}
		return emit(stdout, f, infos)

	case batchPath != "":
		in := stdin
		if batchPath != "-" {
			file, err := os.Open(batchPath)
			if err != nil {
				return err
			}
			defer file.Close()
			in = file
		}
		return runBatch(in, stdout, f, store, cfg.Order)
	}

	l, err := strconv.ParseFloat(flagSet.Arg(0), 64)
	if err != nil {
		return usagef("invalid l %q: %v", flagSet.Arg(0), err)
	}
	b, err := strconv.ParseFloat(flagSet.Arg(1), 64)
	if err != nil {
		return usagef("invalid b %q: %v", flagSet.Arg(1), err)
	}
	v, err := store.QueryScalar(l, b, sfddust.WithOrder(cfg.Order))
	if err != nil {
		return err
	}
	r := newResult(l, b, cfg.Order, v)
	if f == formatText {
		printResult(stdout, r)
		return nil
	}
	return emit(stdout, f, r)
}

func runFetch(cfg *Config, logger *slog.Logger, stdout io.Writer) error {
	timeout, err := cfg.timeout()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	fetcher := &Fetcher{
		HTTPClient: &http.Client{},
		BaseURL:    cfg.Fetch.BaseURL,
		MaxBytes:   cfg.Fetch.MaxBytes,
		Logger:     logger,
	}
	written, err := fetcher.FetchMissing(ctx, cfg.Dir, cfg.BaseName)
	for _, path := range written {
		fmt.Fprintln(stdout, path)
	}
	return err
}

func usage(flagSet *pflag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, `sfd: print SFD dust reddening E(B-V) at galactic (l, b)

Usage:
  sfd [flags] <l> <b>
  sfd [flags] --batch <file.csv|->
  sfd [flags] --info
  sfd [flags] --fetch

Flags:`)
	flagSet.SetOutput(w)
	flagSet.PrintDefaults()
	fmt.Fprintln(w, `
Flags must come before the position. Use -- before a negative longitude.

Examples:
  sfd 121.17 -21.57
  sfd --order 3 --json 0 90
  sfd --dir ~/sfd --batch - < positions.csv
  sfd --fetch --dir ~/sfd`)
}
