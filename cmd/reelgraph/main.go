// # cmd/reelgraph/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"reelgraph/internal/config"
	"reelgraph/internal/core/app"
	"reelgraph/internal/recommend"
	"reelgraph/internal/shared/observability"
	"reelgraph/internal/ui/cli"
)

var (
	configPath = flag.String("config", "./reelgraph.toml", "Path to config file")
	follow     = flag.String("follow", "", "Create a follow edge: <follower>:<followee>")
	unfollow   = flag.String("unfollow", "", "Remove a follow edge: <follower>:<followee>")
	recUser    = flag.String("recommend", "", "Print follow recommendations for a username")
	recCap     = flag.Int("cap", 0, "Maximum recommendations (0 uses the configured cap)")
	feedUser   = flag.String("feed", "", "Print the latest review from each followed user")
	syncNow    = flag.Bool("sync", false, "Flush the follow graph to storage and exit")
	serve      = flag.Bool("serve", false, "Stay resident: watch the config file and serve metrics")
	metricsAt  = flag.String("metrics-addr", "", "Listen address for /metrics and /health (overrides config)")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	version    = flag.Bool("version", false, "Print version and exit")
)

const VERSION = "1.0.0"

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("reelgraph v%s\n", VERSION)
		os.Exit(0)
	}

	// Setup logging
	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		if *configPath == "./reelgraph.toml" {
			cfg, err = config.Load("./reelgraph.example.toml")
		}
		if err != nil {
			slog.Warn("config not found, using defaults", "path", *configPath)
			cfg = config.DefaultConfig()
		}
	}

	if *metricsAt != "" {
		cfg.Observability.MetricsAddr = *metricsAt
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.Observability.OTLPEndpoint)
	if err != nil {
		slog.Error("failed to set up tracing", "error", err)
		os.Exit(1)
	}
	defer shutdownTracing(context.Background())

	session, err := app.New(ctx, cfg)
	if err != nil {
		slog.Error("failed to open session", "error", err)
		os.Exit(1)
	}

	if err := run(ctx, session, cfg); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		session.Close(context.Background())
		os.Exit(1)
	}

	if err := session.Close(context.Background()); err != nil {
		slog.Error("failed to close session", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, session *app.Session, cfg *config.Config) error {
	ran := false

	if *follow != "" {
		follower, followee, err := parseEdge(*follow)
		if err != nil {
			return err
		}
		if err := session.Follow(ctx, follower, followee); err != nil {
			return err
		}
		fmt.Printf("%s now follows %s\n", follower, followee)
		ran = true
	}

	if *unfollow != "" {
		follower, followee, err := parseEdge(*unfollow)
		if err != nil {
			return err
		}
		if err := session.Unfollow(ctx, follower, followee); err != nil {
			return err
		}
		fmt.Printf("%s no longer follows %s\n", follower, followee)
		ran = true
	}

	if *recUser != "" {
		candidates, err := session.Recommendations(ctx, *recUser, *recCap)
		if err != nil {
			return err
		}
		fmt.Print(formatRecommendations(*recUser, candidates))
		ran = true
	}

	if *feedUser != "" {
		items, err := session.LatestFromFollowed(ctx, *feedUser)
		if err != nil {
			return err
		}
		fmt.Print(formatFeed(*feedUser, items))
		ran = true
	}

	if *syncNow {
		if err := session.SyncNow(ctx); err != nil {
			return err
		}
		h := session.Health()
		fmt.Printf("synced %d follow edges\n", h.Edges)
		ran = true
	}

	if *serve {
		return serveForever(ctx, session, cfg)
	}

	if !ran {
		h := session.Health()
		fmt.Printf("reelgraph: %d users, %d follow edges (storage %s)\n", h.Users, h.Edges, h.Status)
	}
	return nil
}

func serveForever(ctx context.Context, session *app.Session, cfg *config.Config) error {
	obs := cli.NewObservabilityServer(cfg.Observability.MetricsAddr, session)
	if err := obs.Start(ctx); err != nil {
		return fmt.Errorf("start observability server: %w", err)
	}
	defer obs.Stop(context.Background())

	watcher := config.NewWatcher(*configPath, session.ApplyConfig)
	if err := watcher.Start(ctx); err != nil {
		slog.Warn("config watcher disabled", "error", err)
	} else {
		defer watcher.Stop()
	}

	slog.Info("serving", "metrics_addr", cfg.Observability.MetricsAddr)
	<-ctx.Done()
	slog.Info("shutting down")
	return nil
}

func parseEdge(arg string) (string, string, error) {
	follower, followee, ok := strings.Cut(arg, ":")
	if !ok || follower == "" || followee == "" {
		return "", "", fmt.Errorf("expected <follower>:<followee>, got %q", arg)
	}
	return follower, followee, nil
}

func formatRecommendations(username string, candidates []recommend.Candidate) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Recommendations for %s (%d)\n", username, len(candidates)))
	if len(candidates) == 0 {
		b.WriteString("  no candidates\n")
		return b.String()
	}
	for _, c := range candidates {
		b.WriteString(fmt.Sprintf("%d. %s [%s]", c.Rank, c.User.Username, c.Strategy))
		if c.LatestReview != nil {
			b.WriteString(fmt.Sprintf("  latest review: %q (%d/5)", c.LatestReview.Body, c.LatestReview.Rating))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func formatFeed(username string, items []app.FeedItem) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Latest reviews from users %s follows (%d)\n", username, len(items)))
	if len(items) == 0 {
		b.WriteString("  nothing yet\n")
		return b.String()
	}
	for _, item := range items {
		b.WriteString(fmt.Sprintf("- %s: %q (%d/5) at %s\n",
			item.User.Username, item.Review.Body, item.Review.Rating,
			item.Review.CreatedAt.Format("2006-01-02 15:04")))
	}
	return b.String()
}
