package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"go.uber.org/multierr"

	"github.com/leengari/tablestore/internal/config"
	"github.com/leengari/tablestore/internal/engine"
	"github.com/leengari/tablestore/internal/logging"
	"github.com/leengari/tablestore/internal/parser"
	"github.com/leengari/tablestore/internal/repl"
)

const usage = `usage: tablestore [flags] <command> [args]

commands:
  tables                       list tables and row counts
  schema <title>               show a table's fields
  query <title> [conditions]   query a table, e.g. query Agents "Mass >= 2 AND Active = true"
  demo [steps]                 record a sample workload
  repl                         interactive shell

flags:
`

var errUsage = errors.New("invalid usage")

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) (err error) {
	cfg := config.Default()
	fs := flag.NewFlagSet("tablestore", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	cfg.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errUsage
	}

	level, _ := cfg.Level()
	logger, closeFn := logging.SetupLogger(logging.Options{
		Level:  level,
		Format: cfg.LogFormat,
		SeqURL: cfg.SeqURL,
		Output: stderr,
	})
	defer closeFn()
	slog.SetDefault(logger)

	store, err := engine.Open(cfg.DBPath, append(cfg.StoreOptions(), engine.WithLogger(logger))...)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() { err = multierr.Append(err, store.Close()) }()
	store.AddObserver(engine.NewLoggingObserver(logger, slog.LevelDebug))

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "tables":
		repl.PrintTables(stdout, store)
		return nil

	case "schema":
		if len(rest) != 1 {
			fs.Usage()
			return errUsage
		}
		s, err := store.LoadSchema(rest[0])
		if err != nil {
			return err
		}
		repl.PrintSchema(stdout, s)
		return nil

	case "query":
		if len(rest) == 0 {
			fs.Usage()
			return errUsage
		}
		conds, err := parser.ParseConditions(strings.Join(rest[1:], " "))
		if err != nil {
			return fmt.Errorf("failed to parse conditions: %w", err)
		}
		res, err := store.Query(rest[0], conds)
		if err != nil {
			return err
		}
		repl.PrintResult(stdout, res)
		return nil

	case "demo":
		steps := defaultDemoSteps
		if len(rest) > 0 {
			n, convErr := strconv.Atoi(rest[0])
			if convErr != nil || n <= 0 {
				return fmt.Errorf("steps must be a positive integer, got %q", rest[0])
			}
			steps = n
		}
		written, err := runDemo(store, cfg.DumpCount, steps, logger)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "recorded %d datums into %s\n", written, store.Dir())
		return nil

	case "repl":
		repl.Start(store, stdin, stdout)
		return nil

	default:
		fmt.Fprintf(stderr, "unknown command %q\n", cmd)
		fs.Usage()
		return errUsage
	}
}
