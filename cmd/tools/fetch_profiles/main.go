package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/kapu/wykra-go/internal/config"
	"github.com/kapu/wykra-go/internal/constants"
	"github.com/kapu/wykra-go/internal/service/profile"
	"github.com/kapu/wykra-go/internal/util"
	"github.com/kapu/wykra-go/pkg/errors"
)

type output struct {
	Username string `json:"username"`
	Profile  any    `json:"profile,omitempty"`
	Error    string `json:"error,omitempty"`
	Code     string `json:"code,omitempty"`
}

// fetch_profiles looks up each username given on the command line and prints
// the normalized profiles as a JSON array.
func main() {
	concurrency := flag.Int("concurrency", constants.ServerConfig.BatchConcurrency, "maximum lookups in flight")
	flag.Parse()

	usernames := flag.Args()
	if len(usernames) == 0 {
		fmt.Fprintln(os.Stderr, "usage: fetch_profiles [-concurrency N] <username> [username...]")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := util.NewLogger(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	os.Exit(run(cfg, logger, usernames, *concurrency))
}

func run(cfg *config.Config, logger *zap.Logger, usernames []string, concurrency int) int {
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc := profile.NewService(cfg.BrightData, logger)
	results := svc.FetchProfiles(ctx, usernames, concurrency)

	out := make([]output, 0, len(results))
	failed := 0
	for _, result := range results {
		entry := output{Username: result.Username}
		if result.Err != nil {
			failed++
			entry.Error = result.Err.Error()
			entry.Code = errors.Code(result.Err)
		} else {
			entry.Profile = result.Profile
		}
		out = append(out, entry)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(out); err != nil {
		logger.Error("Failed to write output", zap.Error(err))
		return 1
	}

	logger.Info("Profile fetch completed", zap.Int("requested", len(usernames)), zap.Int("failed", failed))
	if failed > 0 {
		return 1
	}
	return 0
}
