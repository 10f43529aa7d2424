// Command pdt turns a ChatGPT conversations.json export into a portable continuity snapshot.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/theimaginaryfoundation/pdt/snapshot"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// usageError marks failures caused by bad flags or config; they exit with status 2.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func usage(err error) error {
	if err == nil {
		return nil
	}
	return usageError{err: err}
}

// run executes the CLI and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := &app{stdout: stdout, stderr: stderr}
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	fmt.Fprintln(stderr, err.Error())
	var ue usageError
	if errors.As(err, &ue) {
		return 2
	}
	return 1
}

// app carries state shared by every subcommand.
type app struct {
	stdout io.Writer
	stderr io.Writer

	configPath string
	logLevel   string
	logFormat  string

	logger *zap.Logger
	file   FileConfig
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "pdt",
		Short:         "Portable ChatGPT Data Transformer: build a continuity snapshot from a ChatGPT export",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(a.logLevel, a.logFormat, a.stderr)
			if err != nil {
				return usage(err)
			}
			a.logger = logger

			path := a.configPath
			if path == "" {
				path = os.Getenv(envConfig)
			}
			file, err := loadFileConfig(path)
			if err != nil {
				return usage(err)
			}
			a.file = file
			if path != "" {
				a.logger.Debug("loaded config", zap.String("path", path))
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usage(err)
	})

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "TOML or YAML config file (env "+envConfig+")")
	pf.StringVar(&a.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	pf.StringVar(&a.logFormat, "log-format", "console", "log format: console or json")

	root.AddCommand(a.buildCmd())
	root.AddCommand(a.inspectCmd())
	root.AddCommand(a.cardCmd())
	root.AddCommand(a.searchCmd())
	root.AddCommand(a.serveCmd())
	return root
}

// newLogger builds a zap logger writing to w.
func newLogger(level, format string, w io.Writer) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid --log-level %q", level)
	}

	var encCfg zapcore.EncoderConfig
	var enc zapcore.Encoder
	switch strings.ToLower(format) {
	case "json":
		encCfg = zap.NewProductionEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		enc = zapcore.NewJSONEncoder(encCfg)
	case "console", "":
		encCfg = zap.NewDevelopmentEncoderConfig()
		enc = zapcore.NewConsoleEncoder(encCfg)
	default:
		return nil, fmt.Errorf("invalid --log-format %q", format)
	}

	core := zapcore.NewCore(enc, zapcore.Lock(zapcore.AddSync(w)), zap.NewAtomicLevelAt(lvl))
	return zap.New(core), nil
}

func (a *app) newParser() (*snapshot.Parser, error) {
	t := a.file.Tuning
	return snapshot.NewParser(snapshot.ParseOptions{Tuning: &t, Logger: a.logger})
}

func (a *app) parseExport(cmd *cobra.Command, path string) (snapshot.Result, error) {
	p, err := a.newParser()
	if err != nil {
		return snapshot.Result{}, usage(err)
	}
	res, err := p.ParseFile(cmd.Context(), path)
	if err != nil {
		return snapshot.Result{}, err
	}
	a.logger.Info("parsed export",
		zap.String("in", path),
		zap.Int("conversations", res.Snapshot.ConversationCount),
		zap.Int("messages", res.Snapshot.MessageCount),
	)
	return res, nil
}
