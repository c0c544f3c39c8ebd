// cmdhist assembles spacecraft command histories — it splices weekly command
// loads, synthesized out-of-band event commands, and continuation loads into
// one time-sorted timeline, either as a one-shot CLI run or as an HTTP
// service.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/acisops/cmdhist/pkg/api"
	"github.com/acisops/cmdhist/pkg/backstop"
	"github.com/acisops/cmdhist/pkg/config"
	"github.com/acisops/cmdhist/pkg/database"
	"github.com/acisops/cmdhist/pkg/services"
	"github.com/acisops/cmdhist/pkg/version"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	configDir := flag.String("config-dir",
		getEnv("CONFIG_DIR", "./deploy/config"),
		"Path to configuration directory")
	serve := flag.Bool("serve", false, "Run the HTTP assembly service instead of a one-shot assembly")
	loadDir := flag.String("load-dir", "", "Review load directory to assemble (one-shot mode)")
	output := flag.String("output", "", "Output file for the assembled history (one-shot mode)")
	chainLength := flag.Int("chain-length", 0, "Maximum continuity links to walk (0 = configured default)")
	flag.Parse()

	// Load .env file from config directory
	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		slog.Warn("Could not load .env file, continuing with existing environment",
			"path", envPath, "error", err)
	} else {
		slog.Info("Loaded environment", "path", envPath)
	}

	slog.Info("Starting cmdhist", "version", version.Full(), "config_dir", *configDir)

	ctx := context.Background()

	cfg, err := config.Initialize(*configDir)
	if err != nil {
		slog.Error("Failed to initialize configuration", "error", err)
		os.Exit(1)
	}
	if *chainLength > 0 {
		cfg.MaxChainLinks = *chainLength
	}

	var dbClient *database.Client
	if cfg.ArchiveEnabled {
		dbConfig, err := database.LoadConfigFromEnv()
		if err != nil {
			slog.Error("Failed to load database config", "error", err)
			os.Exit(1)
		}
		dbClient, err = database.NewClient(ctx, dbConfig)
		if err != nil {
			slog.Error("Failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := dbClient.Close(); err != nil {
				slog.Error("Error closing database client", "error", err)
			}
		}()
		slog.Info("Connected to PostgreSQL archive")
	}

	svc := services.NewAssemblyService(cfg.NLETPath, dbClient)

	if !*serve {
		if err := runOnce(ctx, svc, cfg, *loadDir, *output); err != nil {
			slog.Error("Assembly failed", "error", err)
			os.Exit(1)
		}
		return
	}

	// Serve mode: HTTP API with graceful shutdown.
	server := api.NewServer(svc, dbClient)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigCh:
		slog.Info("Received shutdown signal", "signal", sig)
	case err := <-errCh:
		slog.Error("Server failed", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}
	slog.Info("cmdhist stopped")
}

// runOnce assembles one review load's history and writes it to disk.
func runOnce(ctx context.Context, svc *services.AssemblyService, cfg *config.Config, loadDir, output string) error {
	if loadDir == "" {
		return fmt.Errorf("one-shot mode requires -load-dir (or use -serve)")
	}
	if output == "" {
		output = cfg.OutputPath
	}

	result, err := svc.AssembleChain(ctx, loadDir, cfg.MaxChainLinks)
	if err != nil {
		return err
	}

	if err := backstop.WriteCommands(output, result.Commands); err != nil {
		return fmt.Errorf("write assembled history: %w", err)
	}

	slog.Info("Assembled command history",
		"run_id", result.RunID,
		"review_load", result.ReviewLoad,
		"scenario", result.Scenario,
		"links", len(result.Chain),
		"commands", len(result.Commands),
		"output", output)
	return nil
}
