package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/afero"

	"github.com/example/foxcode/internal/cli"
	"github.com/example/foxcode/internal/foxcode"
)

const (
	envHome      = "FOXCODE_HOME"
	envConfigDir = "FOXCODE_CONFIG_DIR"
	envLogLevel  = "FOXCODE_LOG_LEVEL"
)

var exitFunc = os.Exit

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitFunc(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	homeDir, err := resolveHomeDir(os.Getenv)
	if err != nil {
		return err
	}
	configDir := resolveConfigDir(os.Getenv, xdg.ConfigHome)
	logger := newLogger(stderr, os.Getenv(envLogLevel))

	mgr := foxcode.NewManager(afero.NewOsFs(), homeDir, configDir, logger)
	if err := mgr.InitInfra(); err != nil {
		return err
	}

	root := cli.NewRootCommand(mgr, cli.NewPromptUI(), stdout, stderr)
	root.SetArgs(args)
	return root.Execute()
}

// resolveHomeDir returns $FOXCODE_HOME, falling back to the user's home directory.
func resolveHomeDir(getenv func(string) string) (string, error) {
	if home := strings.TrimSpace(getenv(envHome)); home != "" {
		return filepath.Clean(home), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return home, nil
}

// resolveConfigDir picks the profile store directory. An overridden home keeps
// the store inside it so test and sandbox homes stay self-contained.
func resolveConfigDir(getenv func(string) string, configHome string) string {
	if dir := strings.TrimSpace(getenv(envConfigDir)); dir != "" {
		return filepath.Clean(dir)
	}
	if home := strings.TrimSpace(getenv(envHome)); home != "" {
		return filepath.Join(filepath.Clean(home), ".config", "foxcode")
	}
	return filepath.Join(configHome, "foxcode")
}

func newLogger(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: parseLogLevel(level)}))
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
