// # internal/core/app/session.go
package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"reelgraph/internal/config"
	"reelgraph/internal/core/errors"
	"reelgraph/internal/core/ports"
	"reelgraph/internal/data/store"
	"reelgraph/internal/directory"
	"reelgraph/internal/graph"
	"reelgraph/internal/recommend"
	"reelgraph/internal/shared/observability"
	"reelgraph/internal/shared/util"
)

// Session owns the directory, graph, store, and engine for one running
// process. There are no package-level singletons; construct one Session and
// pass it to collaborators. All graph mutations go through the session's
// writer lock, which keeps the mirror invariant safe even if the session is
// exposed to concurrent callers.
type Session struct {
	ID string

	cfg   *config.Config
	cfgMu sync.RWMutex

	store     *store.Store
	Directory *directory.Directory
	Graph     *graph.Graph

	engineMu sync.RWMutex
	engine   *recommend.Engine
	limiter  *util.Limiter

	writeMu sync.Mutex

	auth ports.CurrentUserProvider

	log *slog.Logger
}

// FeedItem pairs a followee with their most recent review.
type FeedItem struct {
	User   *directory.User
	Review store.Review
}

// HealthStatus is served by the observability endpoint.
type HealthStatus struct {
	Status string `json:"status"`
	Users  int    `json:"users"`
	Edges  int    `json:"edges"`
}

// New opens the store and performs the startup bulk load. A store-level load
// failure is not fatal: the session starts with an empty directory and graph,
// matching the recovery policy for unavailable storage.
func New(ctx context.Context, cfg *config.Config) (*Session, error) {
	s, err := store.OpenWithTimeout(cfg.DB.Path, cfg.DB.BusyTimeout)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeStorageUnavailable, "open store")
	}

	sessionID := uuid.NewString()
	log := slog.Default().With("session_id", sessionID)

	dir, g, _, err := s.Load(ctx)
	if err != nil {
		log.Error("bulk load failed, starting with empty graph", "error", err)
	}

	sess := &Session{
		ID:        sessionID,
		cfg:       cfg,
		store:     s,
		Directory: dir,
		Graph:     g,
		log:       log,
	}
	sess.rebuildEngine(cfg)
	return sess, nil
}

// ApplyConfig swaps recommendation tunables at runtime. Wired to the config
// watcher; the store path is fixed for the session's lifetime.
func (s *Session) ApplyConfig(cfg *config.Config) {
	s.cfgMu.Lock()
	s.cfg = cfg
	s.cfgMu.Unlock()
	s.rebuildEngine(cfg)
	s.log.Info("config applied",
		"cap", cfg.Recommend.Cap,
		"liked_window", cfg.Recommend.LikedWindow,
		"exclude_patterns", len(cfg.Recommend.ExcludeUsernames),
	)
}

func (s *Session) rebuildEngine(cfg *config.Config) {
	engine := recommend.New(s.Graph, s.Directory, s.store,
		recommend.WithLikedWindow(cfg.Recommend.LikedWindow),
		recommend.WithExcludePatterns(cfg.ExcludeGlobs()),
	)
	var limiter *util.Limiter
	if cfg.Recommend.RatePerMinute > 0 {
		limiter = util.PerMinute(cfg.Recommend.RatePerMinute, cfg.Recommend.RateBurst)
	}

	s.engineMu.Lock()
	s.engine = engine
	s.limiter = limiter
	s.engineMu.Unlock()
}

func (s *Session) config() *config.Config {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return s.cfg
}

func (s *Session) resolve(username string) (*directory.User, error) {
	u, ok := s.Directory.ByUsername(username)
	if !ok {
		return nil, errors.AddContext(
			errors.New(errors.CodeNotFound, "user not found"),
			errors.CtxUsername, username,
		)
	}
	return u, nil
}

// Follow creates the follower -> followee edge. Self-follows and existing
// edges are rejected with typed errors so the caller can message the user.
func (s *Session) Follow(ctx context.Context, followerName, followeeName string) error {
	_, span := observability.Tracer.Start(ctx, "session.Follow")
	defer span.End()

	follower, err := s.resolve(followerName)
	if err != nil {
		return err
	}
	followee, err := s.resolve(followeeName)
	if err != nil {
		return err
	}

	if follower.ID == followee.ID {
		observability.FollowsRejectedTotal.WithLabelValues("self").Inc()
		return errors.AddContext(
			errors.New(errors.CodeSelfFollow, "cannot follow yourself"),
			errors.CtxUsername, followerName,
		)
	}

	s.writeMu.Lock()
	added := s.Graph.AddRelationship(follower.ID, followee.ID)
	s.writeMu.Unlock()

	if !added {
		observability.FollowsRejectedTotal.WithLabelValues("duplicate").Inc()
		return errors.AddContext(
			errors.New(errors.CodeDuplicateEdge, "already following"),
			errors.CtxUsername, followeeName,
		)
	}

	observability.FollowsTotal.Inc()
	s.log.Info("follow", "follower", follower.Username, "followee", followee.Username)
	return nil
}

// Unfollow removes the follower -> followee edge.
func (s *Session) Unfollow(ctx context.Context, followerName, followeeName string) error {
	_, span := observability.Tracer.Start(ctx, "session.Unfollow")
	defer span.End()

	follower, err := s.resolve(followerName)
	if err != nil {
		return err
	}
	followee, err := s.resolve(followeeName)
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	removed := s.Graph.RemoveRelationship(follower.ID, followee.ID)
	s.writeMu.Unlock()

	if !removed {
		return errors.AddContext(
			errors.New(errors.CodeNotFound, "not following this user"),
			errors.CtxUsername, followeeName,
		)
	}

	observability.UnfollowsTotal.Inc()
	s.log.Info("unfollow", "follower", follower.Username, "followee", followee.Username)
	return nil
}

// Recommendations computes ranked follow suggestions for the named user.
// A zero cap uses the configured default.
func (s *Session) Recommendations(ctx context.Context, username string, cap int) ([]recommend.Candidate, error) {
	ctx, span := observability.Tracer.Start(ctx, "session.Recommendations",
		trace.WithAttributes(attribute.String("user", username)))
	defer span.End()

	user, err := s.resolve(username)
	if err != nil {
		return nil, err
	}

	s.engineMu.RLock()
	engine := s.engine
	limiter := s.limiter
	s.engineMu.RUnlock()

	if !limiter.Allow() {
		return nil, errors.New(errors.CodeInternal, "recommendation rate limit exceeded")
	}

	if cap <= 0 {
		cap = s.config().Recommend.Cap
	}
	return engine.Recommend(ctx, user, cap)
}

// SetAuthProvider wires the authentication collaborator used by
// CurrentRecommendations.
func (s *Session) SetAuthProvider(auth ports.CurrentUserProvider) {
	s.auth = auth
}

// CurrentRecommendations computes suggestions for whoever the authentication
// collaborator says is logged in.
func (s *Session) CurrentRecommendations(ctx context.Context, cap int) ([]recommend.Candidate, error) {
	if s.auth == nil {
		return nil, errors.New(errors.CodeInternal, "no authentication provider configured")
	}
	user, ok := s.auth.CurrentUser()
	if !ok {
		return nil, errors.New(errors.CodeNotFound, "no user is logged in")
	}
	return s.Recommendations(ctx, user.Username, cap)
}

// LatestFromFollowed returns the most recent review of each user the named
// user follows, newest first.
func (s *Session) LatestFromFollowed(ctx context.Context, username string) ([]FeedItem, error) {
	ctx, span := observability.Tracer.Start(ctx, "session.LatestFromFollowed")
	defer span.End()

	user, err := s.resolve(username)
	if err != nil {
		return nil, err
	}

	followees := s.Graph.Following(user.ID)
	reviews, err := s.store.LatestReviewsOf(ctx, followees)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeStorageUnavailable, "load followee reviews")
	}

	items := make([]FeedItem, 0, len(reviews))
	for _, review := range reviews {
		author, ok := s.Directory.ByID(review.UserID)
		if !ok {
			continue
		}
		items = append(items, FeedItem{User: author, Review: review})
	}
	return items, nil
}

// SyncNow flushes the current edge set to storage in one transaction.
func (s *Session) SyncNow(ctx context.Context) error {
	ctx, span := observability.Tracer.Start(ctx, "session.Sync")
	defer span.End()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.store.Sync(ctx, s.Graph)
}

// Health reports store reachability and graph size.
func (s *Session) Health() HealthStatus {
	status := "up"
	if err := s.store.Ping(); err != nil {
		status = "down"
	}
	return HealthStatus{
		Status: status,
		Users:  s.Graph.UserCount(),
		Edges:  s.Graph.EdgeCount(),
	}
}

// Close syncs the graph and releases the store. The sync error, if any, is
// returned after the store is closed.
func (s *Session) Close(ctx context.Context) error {
	syncErr := s.SyncNow(ctx)
	if err := s.store.Close(); err != nil {
		if syncErr != nil {
			return fmt.Errorf("close store after failed sync: %v (sync: %w)", err, syncErr)
		}
		return fmt.Errorf("close store: %w", err)
	}
	return syncErr
}
