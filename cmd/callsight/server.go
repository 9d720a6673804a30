package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/kresler/callsight/internal/analyzer"
	"github.com/kresler/callsight/internal/api"
	"github.com/kresler/callsight/internal/config"
	"github.com/kresler/callsight/internal/groq"
	"github.com/kresler/callsight/internal/history"
)

const historyFileName = "call_analysis.csv"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the callsight server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

func pidFilePath(dataDir string) string {
	return filepath.Join(dataDir, "callsight.pid")
}

func writePIDFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func removePIDFile(path string) {
	os.Remove(path)
}

func runServer() error {
	fmt.Fprintf(os.Stderr, "callsight version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Initialize structured logging.
	logLevel := slog.LevelInfo
	if strings.EqualFold(cfg.Log.Level, "debug") {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	// Check if a server is already running via the health endpoint.
	pidPath := pidFilePath(cfg.Storage.DataDir)
	healthURL := fmt.Sprintf("http://127.0.0.1:%d/health", cfg.Server.Port)
	healthClient := &http.Client{Timeout: 2 * time.Second}
	if resp, err := healthClient.Get(healthURL); err == nil {
		resp.Body.Close()
		if pid, pidErr := readPIDFile(pidPath); pidErr == nil {
			printWarning("callsight is already running (PID %d)", pid)
			return fmt.Errorf("server already running (PID %d)", pid)
		}
		printWarning("callsight is already running on port %d", cfg.Server.Port)
		return fmt.Errorf("server already running on port %d", cfg.Server.Port)
	}
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer removePIDFile(pidPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	groqTimeout, err := time.ParseDuration(cfg.Groq.Timeout)
	if err != nil {
		slog.Warn("invalid groq timeout, using default 30s", "value", cfg.Groq.Timeout, "error", err)
		groqTimeout = 30 * time.Second
	}
	rateWindow, err := time.ParseDuration(cfg.Limits.RateLimitWindow)
	if err != nil {
		slog.Warn("invalid rate limit window, using default 5m", "value", cfg.Limits.RateLimitWindow, "error", err)
		rateWindow = 5 * time.Minute
	}

	// Open the history store.
	if err := os.MkdirAll(cfg.Storage.DataDir, 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	store := history.Open(filepath.Join(cfg.Storage.DataDir, historyFileName))

	// Build the analyzer on top of the Groq client.
	client := groq.NewClient(cfg.Groq.APIKey,
		groq.WithBaseURL(cfg.Groq.BaseURL),
		groq.WithModel(cfg.Groq.Model),
		groq.WithTimeout(groqTimeout),
	)
	analy := analyzer.New(client, cfg.Limits.MaxTranscriptChars)

	deps := api.Deps{
		Analyzer:        analy,
		Store:           store,
		RateLimitMax:    cfg.Limits.RateLimitMax,
		RateLimitWindow: rateWindow,
	}

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: api.NewHandler(deps),
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	// Start the MCP server (stdio transport in a goroutine).
	mcpSrv := api.NewMCPServer(api.MCPDeps{Analyzer: analy, Store: store})
	stdioSrv := server.NewStdioServer(mcpSrv)
	go func() {
		if err := stdioSrv.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("MCP stdio server error", "error", err)
		}
	}()
	slog.Info("MCP server started (stdio transport)")

	// Start the HTTP server in a goroutine.
	errCh := make(chan error, 1)
	go func() {
		slog.Info("callsight listening", "addr", addr, "history", store.Path())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for signal or server error.
	select {
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "shutting down...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	// Graceful shutdown with timeout.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
