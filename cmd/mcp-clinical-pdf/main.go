package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/a3tai/mcp-clinical-pdf/internal/app"
	"github.com/a3tai/mcp-clinical-pdf/internal/config"
	"github.com/a3tai/mcp-clinical-pdf/internal/mcp"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// setupLogging installs the process logger. Logs always go to stderr: in
// stdio mode stdout carries the MCP protocol.
func setupLogging(cfg *config.Config, w io.Writer) *slog.Logger {
	log := app.NewLogger(cfg, w)
	slog.SetDefault(log)
	return log
}

// runServerMode handles server mode execution with signal handling
func runServerMode(ctx context.Context, cancel context.CancelFunc, server *mcp.Server, log *slog.Logger) int {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(signalCh)

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- server.Run(ctx)
	}()

	select {
	case sig := <-signalCh:
		log.Info("Received signal, initiating graceful shutdown", "signal", sig.String())
		cancel()

		if err := <-serverErrCh; err != nil {
			log.Error("Server shutdown with error", "error", err)
			return 1
		}

	case err := <-serverErrCh:
		if err != nil {
			log.Error("Server error", "error", err)
			return 1
		}
	}

	log.Info("Server stopped successfully")
	return 0
}

// runStdioMode handles stdio mode execution. The parent process controls
// the lifecycle and the server returns once stdin is closed.
func runStdioMode(ctx context.Context, server *mcp.Server, log *slog.Logger) int {
	if err := server.Run(ctx); err != nil {
		log.Error("Server error", "error", err)
		return 1
	}
	return 0
}

func main() {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			printVersion(os.Stdout)
			return
		}
	}

	cfg, err := config.LoadFromFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if version != "dev" {
		cfg.Version = version
	}

	log := setupLogging(cfg, os.Stderr)
	if cfg.IsDebug() && cfg.IsServerMode() {
		log.Debug("Starting with configuration", "config", cfg.String())
	}

	pdfService, err := app.NewService(cfg, log)
	if err != nil {
		log.Error("Failed to create PDF service", "error", err)
		os.Exit(1)
	}

	server, err := mcp.NewServer(cfg, pdfService, log)
	if err != nil {
		log.Error("Failed to create MCP server", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())

	var code int
	if cfg.IsServerMode() {
		code = runServerMode(ctx, cancel, server, log)
	} else {
		code = runStdioMode(ctx, server, log)
	}
	cancel()
	os.Exit(code)
}

// printVersion prints version information
func printVersion(w io.Writer) {
	fmt.Fprintf(w, "MCP Clinical PDF\n")
	fmt.Fprintf(w, "Version: %s\n", version)
	fmt.Fprintf(w, "Build Time: %s\n", buildTime)
	fmt.Fprintf(w, "Git Commit: %s\n", gitCommit)
	fmt.Fprintf(w, "Built with: %s\n", runtime.Version())
}
