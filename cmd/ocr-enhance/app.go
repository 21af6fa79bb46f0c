package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/ironsheep/ocr-enhance/internal/config"
	"github.com/ironsheep/ocr-enhance/internal/ocr"
	"github.com/ironsheep/ocr-enhance/internal/params"
)

// Exit codes.
const (
	exitOK      = 0
	exitFailed  = 1
	exitUsage   = 2
	programName = "ocr-enhance"
)

// usageError marks a problem with the command line rather than with the
// operation itself.
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func usagef(format string, args ...interface{}) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	engine ocr.Engine
	cfg    *config.Config
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *app {
	return &app{stdin: stdin, stdout: stdout, stderr: stderr, engine: ocr.Tesseract{}}
}

type command struct {
	name    string
	summary string
	run     func(a *app, ctx context.Context, args []string) error
}

func commands() []command {
	return []command{
		{"auto", "enhance an image or directory with automatically chosen parameters", (*app).runAuto},
		{"manual", "enhance with parameters from flags or a parameter file", (*app).runManual},
		{"batch", "enhance every image in a directory in parallel", (*app).runBatch},
		{"preview", "write a grid of the image under six settings", (*app).runPreview},
		{"preset", "enhance with a built-in text preset", (*app).runPreset},
		{"ocr", "read an image with Tesseract before and after enhancement", (*app).runOCR},
		{"serve", "run the MCP server on stdin/stdout", (*app).runServe},
		{"version", "print version information", (*app).runVersion},
		{"help", "show this help", (*app).runHelp},
	}
}

// run executes one command line and returns the process exit code.
func (a *app) run(ctx context.Context, args []string) int {
	if len(args) == 0 {
		a.printUsage()
		return exitUsage
	}

	name := args[0]
	switch name {
	case "-h", "--help":
		name = "help"
	case "-v", "--version":
		name = "version"
	}

	var cmd *command
	for _, c := range commands() {
		if c.name == name {
			c := c
			cmd = &c
			break
		}
	}
	if cmd == nil {
		fmt.Fprintf(a.stderr, "%s: unknown command %q\n\n", programName, name)
		a.printUsage()
		return exitUsage
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(a.stderr, "%s: %v\n", programName, err)
		return exitUsage
	}
	a.cfg = cfg
	if err := cfg.ApplyLogging(a.stderr); err != nil {
		fmt.Fprintf(a.stderr, "%s: %v\n", programName, err)
		return exitUsage
	}

	err = cmd.run(a, ctx, args[1:])
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, flag.ErrHelp):
		return exitOK
	}

	fmt.Fprintf(a.stderr, "%s %s: %v\n", programName, cmd.name, err)
	var (
		ue  *usageError
		ipe *params.InvalidParameterError
		cpe *params.CorruptParametersError
	)
	switch {
	case errors.As(err, &cpe):
		return exitFailed
	case errors.As(err, &ue), errors.As(err, &ipe):
		return exitUsage
	}
	return exitFailed
}

func (a *app) printUsage() {
	fmt.Fprintf(a.stderr, "%s - enhance scanned and photographed text for OCR\n\n", programName)
	fmt.Fprintf(a.stderr, "Usage: %s <command> [flags] [args]\n\nCommands:\n", programName)
	for _, c := range commands() {
		fmt.Fprintf(a.stderr, "  %-9s %s\n", c.name, c.summary)
	}
	fmt.Fprintf(a.stderr, "\nRun '%s <command> -h' for the flags of a command.\n", programName)
	fmt.Fprintf(a.stderr, "\nEnvironment variables:\n")
	for _, env := range []string{
		config.EnvLogLevel + "=debug|info|warn|error",
		config.EnvLogFormat + "=text|json",
		config.EnvWorkers + "=<n>",
		config.EnvSuffix + "=" + config.DefaultSuffix,
		config.EnvLanguage + "=" + config.DefaultLanguage,
	} {
		fmt.Fprintf(a.stderr, "  %s\n", env)
	}
}

func (a *app) runVersion(_ context.Context, _ []string) error {
	fmt.Fprintf(a.stdout, "%s %s\n", programName, Version)
	fmt.Fprintf(a.stdout, "  Build time: %s\n", BuildTime)
	fmt.Fprintf(a.stdout, "  Git commit: %s\n", GitCommit)
	return nil
}

func (a *app) runHelp(_ context.Context, _ []string) error {
	a.printUsage()
	return nil
}

// newFlagSet returns a flag set for a subcommand with the logging flags
// every command accepts. The returned func applies them after parsing.
func (a *app) newFlagSet(name, args string) (*flag.FlagSet, func() error) {
	fs := flag.NewFlagSet(programName+" "+name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: %s %s [flags] %s\n", programName, name, args)
		fs.PrintDefaults()
	}
	level := fs.String("log-level", "", "log level (overrides "+config.EnvLogLevel+")")
	format := fs.String("log-format", "", "log format text|json (overrides "+config.EnvLogFormat+")")

	return fs, func() error {
		if *level == "" && *format == "" {
			return nil
		}
		if *level != "" {
			a.cfg.LogLevel = strings.ToLower(*level)
		}
		if *format != "" {
			a.cfg.LogFormat = strings.ToLower(*format)
		}
		if err := a.cfg.Validate(); err != nil {
			return &usageError{msg: err.Error()}
		}
		return a.cfg.ApplyLogging(nil)
	}
}

// parseArgs parses flags that may appear before, between or after the
// positional arguments and returns the positionals.
func parseArgs(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			if errors.Is(err, flag.ErrHelp) {
				return nil, err
			}
			return nil, &usageError{msg: err.Error()}
		}
		rest := fs.Args()
		if len(rest) == 0 {
			return positional, nil
		}
		positional = append(positional, rest[0])
		args = rest[1:]
	}
}

// parseCommand is parseArgs plus the logging flags and a check on the
// number of positionals.
func parseCommand(fs *flag.FlagSet, apply func() error, args []string, want int) ([]string, error) {
	pos, err := parseArgs(fs, args)
	if err != nil {
		return nil, err
	}
	if len(pos) != want {
		fs.Usage()
		return nil, usagef("expected %d argument(s), got %d", want, len(pos))
	}
	if err := apply(); err != nil {
		return nil, err
	}
	return pos, nil
}

func stringFlag(fs *flag.FlagSet, p *string, names []string, value, usage string) {
	for _, n := range names {
		fs.StringVar(p, n, value, usage)
	}
}

func boolFlag(fs *flag.FlagSet, p *bool, names []string, usage string) {
	for _, n := range names {
		fs.BoolVar(p, n, false, usage)
	}
}
