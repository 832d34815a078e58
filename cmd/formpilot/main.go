// Command formpilot is the CLI for the formpilot conversational
// form-filling engine.
//
// Usage:
//
//	formpilot run form.md --api-key sk-ant-...
//	formpilot validate form.md
package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"

	"github.com/alecthomas/kong"

	"github.com/kadirpekel/formpilot/pkg/logger"
)

// CLI defines the command-line interface.
type CLI struct {
	Run      RunCmd      `cmd:"" help:"Run an interactive terminal session against a form."`
	Validate ValidateCmd `cmd:"" help:"Parse a form file and report errors."`
	Version  VersionCmd  `cmd:"" help:"Show version information."`

	LogLevel  string `help:"Log level (debug, info, warn, error)." default:"info"`
	LogFile   string `help:"Log file path (empty = stderr)."`
	LogFormat string `help:"Log format (simple, verbose, or custom)." default:"simple"`
}

// VersionCmd shows version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	version := "dev"
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "(devel)" && info.Main.Version != "" {
			version = info.Main.Version
		}
	}
	fmt.Printf("formpilot version %s\n", version)
	return nil
}

func (c *CLI) initLogger() error {
	level, err := logger.ParseLevel(c.LogLevel)
	if err != nil {
		return err
	}

	output := os.Stderr
	if c.LogFile != "" {
		file, cleanup, err := logger.OpenLogFile(c.LogFile)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		_ = cleanup // the process owns the file handle for its lifetime
		output = file
	}

	logger.Init(level, output, c.LogFormat)
	return nil
}

func main() {
	var cli CLI
	parser := kong.Must(&cli,
		kong.Name("formpilot"),
		kong.Description("Conversational form-filling engine."),
		kong.UsageOnError(),
	)

	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	if err := cli.initLogger(); err != nil {
		fmt.Fprintln(os.Stderr, "formpilot: failed to initialize logger:", err)
		os.Exit(1)
	}

	if err := ctx.Run(&cli); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}
