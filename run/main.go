// Package run wires the top-level task of a binary: command-line logging
// options, the root logger and signal handling.
package run

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ridge/must/v2"
	"github.com/ridge/parallel"
	"github.com/ridge/ringsource/tlog"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

var fs = pflag.NewFlagSet(os.Args[0], pflag.ContinueOnError)

func init() {
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.String("log-format", "", "Log format (json|text)")
	fs.String("log-color", "", "Colored logs (yes|no|auto)")
	fs.BoolP("verbose", "v", false, "Enable verbose (debug level) messages")
	// usage is printed by the main command-line parser
	fs.Usage = func() {}

	pflag.CommandLine.AddFlagSet(fs)
}

// Tool runs the top-level task of a program, watching for signals.
//
// The context passed to the task carries a logger. It is closed when an
// interruption or termination signal arrives.
//
// Tool does not return. It exits with code 0 if the task returns nil, with the
// code provided by WithExitCode if the error implements it, and with code 1
// otherwise. Deferred functions installed before calling Tool do not run.
//
//	func main() {
//	    run.Tool(func(ctx context.Context) error {
//	        f, err := ringsource.Open(ctx, uri, ringsource.Config{})
//	        ...
//	    })
//	}
func Tool(task func(ctx context.Context) error) {
	// os.Exit skips deferred functions, so it is called from the first defer
	// which runs last
	var err error
	defer func() {
		var wec WithExitCode
		if errors.As(err, &wec) {
			os.Exit(wec.ExitCode())
		}
		if err != nil {
			os.Exit(1)
		}
	}()

	ctx := rootContext()

	err = parallel.Run(ctx, func(ctx context.Context, spawn parallel.SpawnFn) error {
		spawn("main", parallel.Exit, task)
		spawn("signals", parallel.Exit, handleSignals)
		return nil
	})
	if err != nil {
		tlog.Get(ctx).Error("Error", zap.Error(err))
	}
}

// Server is like Tool, except that a task ending with (possibly wrapped)
// context.Canceled after a signal counts as a clean exit
func Server(task func(ctx context.Context) error) {
	Tool(func(ctx context.Context) error {
		err := task(ctx)
		if errors.Is(err, ctx.Err()) {
			return nil
		}
		return err
	})
}

// WithExitCode is an optional interface that can be implemented by an error
// to choose the exit code of the process
type WithExitCode interface {
	ExitCode() int
}

func cliConfig() tlog.Config {
	if err := fs.Parse(os.Args[1:]); err != nil && !errors.Is(err, pflag.ErrHelp) {
		fmt.Println(err)
		os.Exit(2)
	}

	format := tlog.FormatText
	if fs.Lookup("log-format").Changed {
		format = tlog.Format(must.OK1(fs.GetString("log-format")))
	}
	color := tlog.ColorAuto
	if fs.Lookup("log-color").Changed {
		switch arg := must.OK1(fs.GetString("log-color")); arg {
		case "", "auto":
			color = tlog.ColorAuto
		case "yes":
			color = tlog.ColorYes
		case "no":
			color = tlog.ColorNo
		default:
			panic(fmt.Sprintf("invalid --log-color value %q", arg))
		}
	}

	return tlog.Config{
		Format:  format,
		Color:   color,
		Verbose: must.OK1(fs.GetBool("verbose")),
	}
}

func rootContext() context.Context {
	return tlog.WithLogger(context.Background(), tlog.New(cliConfig()))
}
