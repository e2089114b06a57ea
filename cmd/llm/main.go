package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joseph-ayodele/ballot-registry/internal/common"
	"github.com/joseph-ayodele/ballot-registry/internal/core"
	"github.com/joseph-ayodele/ballot-registry/internal/core/pages"
)

// llm renders one file and runs field extraction on every page, printing the
// extraction as JSON. Repeating the run shows how stable the model is.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if len(os.Args) < 2 {
		logger.Error("usage: llm <file.pdf|file.jpg> [times]")
		os.Exit(2)
	}
	path := os.Args[1]
	times := 1
	if len(os.Args) >= 3 {
		if n, err := strconv.Atoi(os.Args[2]); err == nil && n > 0 {
			times = n
		}
	}

	cfg, err := common.LoadConfig(os.Getenv("BALLOTS_CONFIG"))
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	oracle, err := core.NewOracle(cfg.LLM, logger)
	if err != nil {
		logger.Error("build oracle", "error", err)
		os.Exit(2)
	}
	extractor := pages.NewExtractor(pages.Config{
		Pdftoppm: cfg.Pages.Pdftoppm,
		DPI:      cfg.Pages.DPI,
		MaxPages: cfg.Pages.MaxPages,
	}, logger)

	pgs, err := extractor.Extract(ctx, path)
	if err != nil {
		logger.Error("render pages", "path", path, "error", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	for i := 1; i <= times; i++ {
		for _, p := range pgs {
			start := time.Now()
			ex, err := oracle.ExtractPage(ctx, p)
			if err != nil {
				logger.Error("llm.run.error", "iter", i, "page_id", p.ID, "error", err)
				if common.IsAuthorizationExpired(err) {
					os.Exit(1)
				}
				continue
			}
			logger.Info("llm.run.ok", "iter", i, "page_id", p.ID, "elapsed_ms", time.Since(start).Milliseconds())
			_ = enc.Encode(map[string]any{"iter": i, "page": p.ID, "extraction": ex})
		}
	}
}
