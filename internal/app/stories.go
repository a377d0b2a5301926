package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"pulsek12.com/pulse/internal/cli"
	"pulsek12.com/pulse/internal/config"
	"pulsek12.com/pulse/internal/db"
	"pulsek12.com/pulse/internal/logging"
	"pulsek12.com/pulse/internal/ranking"
)

func runStories(args []string) int {
	fs := flag.NewFlagSet("stories", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 30*time.Second, "Command timeout")
	limit := fs.Int("limit", 20, "Number of stories to print")
	audienceRaw := fs.String("audience", "", "Audience filter: teachers, admins, or edtech")
	days := fs.Int("days", 7, "Ranking window in days")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	var audience ranking.Audience
	if raw := strings.TrimSpace(*audienceRaw); raw != "" {
		parsed, ok := ranking.ParseAudience(raw)
		if !ok {
			fmt.Fprintf(os.Stderr, "--audience must be one of teachers, admins, edtech\n")
			return 2
		}
		audience = parsed
	}

	if envLoader != nil {
		if _, err := envLoader.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Error().Err(err).Msg("database connection failed")
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		return 1
	}
	defer pool.Close()

	rows, err := pool.ListStoriesForRanking(ctx, *days, 200)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load stories: %v\n", err)
		return 1
	}

	// Deterministic ordering only; the AI rerank belongs to the server.
	engine := ranking.NewEngine(logger, nil, nil, cfg.MinPreviewConfidence)
	stories := engine.Select(ctx, rows, ranking.Options{
		Limit:    *limit,
		Audience: audience,
	})

	return printJSON(stories)
}
