package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/vitalvault/vitalvault/internal/config"
	"github.com/vitalvault/vitalvault/internal/fetch"
	"github.com/vitalvault/vitalvault/internal/identity"
	"github.com/vitalvault/vitalvault/internal/mcp"
	"github.com/vitalvault/vitalvault/internal/models"
	"github.com/vitalvault/vitalvault/internal/source"
	"github.com/vitalvault/vitalvault/internal/syncer"
	"github.com/vitalvault/vitalvault/internal/vaultclient"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	mode := flag.String("mode", "full", "sync mode: full, retry, or background")
	startStr := flag.String("start", "", "range start (YYYY-MM-DD), defaults to 365 days before end")
	endStr := flag.String("end", "", "range end (YYYY-MM-DD), defaults to now")
	mcpMode := flag.Bool("mcp", false, "serve MCP tools over stdio instead of running a sync")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("vitalvault-sync", Version)
		return
	}

	// In MCP mode stdout carries the protocol; log to stderr.
	logOut := os.Stdout
	if *mcpMode {
		logOut = os.Stderr
	}
	log := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.ValidateSync(); err != nil {
		log.Error("config validation", "error", err)
		os.Exit(1)
	}

	stateDir := cfg.Sync.StateDir
	if stateDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			log.Error("failed to get home directory", "error", err)
			os.Exit(1)
		}
		stateDir = home + "/.vitalvault"
	}

	state, err := syncer.OpenStateStore(stateDir)
	if err != nil {
		log.Error("failed to open state store", "error", err)
		os.Exit(1)
	}
	defer state.Close()

	bridge := source.NewBridge(cfg.Sync.BridgeHost, cfg.Sync.BridgePort, log)
	fetcher := fetch.New(bridge, log)
	store := vaultclient.New(cfg.Sync.VaultURL, cfg.Auth.APIKey)
	session := identity.NewFileSession(cfg.Sync.SessionFile)

	sy, err := syncer.New(fetcher, store, session, state, log)
	if err != nil {
		log.Error("failed to create syncer", "error", err)
		os.Exit(1)
	}

	if *mcpMode {
		log.Info("serving MCP over stdio")
		if err := mcpserver.ServeStdio(mcp.New(sy, Version, log)); err != nil {
			log.Error("mcp server error", "error", err)
			os.Exit(1)
		}
		return
	}

	// Show staged progress on stderr while the sync runs.
	go func() {
		for st := range sy.Events() {
			if st.Phase == syncer.PhaseSyncing {
				fmt.Fprintf(os.Stderr, "\r[%3.0f%%] %-40s", st.Progress*100, st.Message)
			}
		}
	}()

	ctx := context.Background()

	var result *models.SyncResult
	switch *mode {
	case "full":
		start, end, err := parseRange(*startStr, *endStr)
		if err != nil {
			log.Error("invalid date range", "error", err)
			os.Exit(1)
		}
		result, err = sy.PerformFullSync(ctx, start, end)
		if err != nil {
			fmt.Fprintln(os.Stderr)
			log.Error("sync failed", "error", err)
			os.Exit(1)
		}

	case "retry":
		result, err = sy.RetrySync(ctx)
		if err != nil {
			fmt.Fprintln(os.Stderr)
			log.Error("retry failed", "error", err)
			os.Exit(1)
		}

	case "background":
		synced, err := sy.PerformBackgroundSync(ctx)
		if err != nil {
			fmt.Fprintln(os.Stderr)
			log.Error("background sync failed", "error", err)
			os.Exit(1)
		}
		if !synced {
			log.Info("already synced within the last 24 hours")
			return
		}
		result = sy.LastResult()

	default:
		fmt.Fprintf(os.Stderr, "unknown mode %q (expected full, retry, or background)\n", *mode)
		os.Exit(1)
	}

	fmt.Fprintln(os.Stderr)
	printResult(result)
}

func parseRange(startStr, endStr string) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error

	if endStr != "" {
		end, err = time.Parse("2006-01-02", endStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("parsing end date: %w", err)
		}
	}
	if startStr != "" {
		start, err = time.Parse("2006-01-02", startStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("parsing start date: %w", err)
		}
	}
	return start, end, nil
}

func printResult(r *models.SyncResult) {
	if r == nil {
		return
	}
	fmt.Println()
	fmt.Println("=== Sync Summary ===")
	fmt.Printf("  URI:          %s\n", r.StorjURI)
	fmt.Printf("  Content hash: %s\n", r.ContentHash)
	fmt.Printf("  Tier:         %s\n", r.Tier)
	fmt.Printf("  Score:        %d\n", r.Score)
	fmt.Printf("  Metrics:      %d\n", r.MetricsCount)
	fmt.Printf("  Days covered: %d\n", r.DaysCovered)
	fmt.Println()
}
