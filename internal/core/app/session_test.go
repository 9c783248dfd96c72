package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"reelgraph/internal/config"
	"reelgraph/internal/core/errors"
	"reelgraph/internal/data/store"
	"reelgraph/internal/directory"
)

func newTestSession(t *testing.T) (*Session, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "social.db")
	seedUsers(t, dbPath)

	cfg := config.DefaultConfig()
	cfg.DB.Path = dbPath

	sess, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	t.Cleanup(func() { sess.Close(context.Background()) })
	return sess, dbPath
}

func seedUsers(t *testing.T, dbPath string) {
	t.Helper()
	s, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("open seed store: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	users := map[int64]string{1: "alice", 2: "bob", 3: "carol"}
	for id, name := range users {
		if err := s.UpsertUser(ctx, id, name, name+"@example.com", "DRAMA"); err != nil {
			t.Fatalf("seed user %s: %v", name, err)
		}
	}
}

func TestSession_FollowAndUnfollow(t *testing.T) {
	sess, _ := newTestSession(t)
	ctx := context.Background()

	if err := sess.Follow(ctx, "alice", "bob"); err != nil {
		t.Fatalf("follow: %v", err)
	}

	alice, _ := sess.Directory.ByUsername("alice")
	bob, _ := sess.Directory.ByUsername("bob")
	if !sess.Graph.IsFollowing(alice.ID, bob.ID) {
		t.Error("edge missing after Follow")
	}

	if err := sess.Unfollow(ctx, "alice", "bob"); err != nil {
		t.Fatalf("unfollow: %v", err)
	}
	if sess.Graph.IsFollowing(alice.ID, bob.ID) {
		t.Error("edge survived Unfollow")
	}
}

func TestSession_FollowRejections(t *testing.T) {
	sess, _ := newTestSession(t)
	ctx := context.Background()

	err := sess.Follow(ctx, "alice", "alice")
	if !errors.IsCode(err, errors.CodeSelfFollow) {
		t.Errorf("self-follow error = %v, want SELF_FOLLOW", err)
	}

	if err := sess.Follow(ctx, "alice", "bob"); err != nil {
		t.Fatalf("follow: %v", err)
	}
	err = sess.Follow(ctx, "alice", "bob")
	if !errors.IsCode(err, errors.CodeDuplicateEdge) {
		t.Errorf("duplicate follow error = %v, want DUPLICATE_EDGE", err)
	}

	err = sess.Follow(ctx, "alice", "nobody")
	if !errors.IsCode(err, errors.CodeNotFound) {
		t.Errorf("unknown followee error = %v, want NOT_FOUND", err)
	}

	err = sess.Unfollow(ctx, "alice", "carol")
	if !errors.IsCode(err, errors.CodeNotFound) {
		t.Errorf("unfollow without edge = %v, want NOT_FOUND", err)
	}
}

func TestSession_CloseSyncsToStorage(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "social.db")
	seedUsers(t, dbPath)

	cfg := config.DefaultConfig()
	cfg.DB.Path = dbPath

	ctx := context.Background()
	sess, err := New(ctx, cfg)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if err := sess.Follow(ctx, "alice", "bob"); err != nil {
		t.Fatalf("follow: %v", err)
	}
	if err := sess.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}

	// A fresh session must see the persisted edge.
	sess2, err := New(ctx, cfg)
	if err != nil {
		t.Fatalf("reopen session: %v", err)
	}
	defer sess2.Close(ctx)

	alice, _ := sess2.Directory.ByUsername("alice")
	bob, _ := sess2.Directory.ByUsername("bob")
	if !sess2.Graph.IsFollowing(alice.ID, bob.ID) {
		t.Error("edge not persisted across sessions")
	}
}

func TestSession_RecommendationsEndToEnd(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "social.db")
	func() {
		s, err := store.Open(dbPath)
		if err != nil {
			t.Fatalf("open seed store: %v", err)
		}
		defer s.Close()

		ctx := context.Background()
		base := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
		for id, name := range map[int64]string{1: "alice", 2: "bob", 3: "carol"} {
			if err := s.UpsertUser(ctx, id, name, ""); err != nil {
				t.Fatalf("seed user: %v", err)
			}
		}
		if err := s.UpsertMovie(ctx, 10, "Heat", "ACTION,CRIME"); err != nil {
			t.Fatalf("seed movie: %v", err)
		}
		// bob's latest review targets Heat; alice liked a review of Heat.
		if err := s.AddReview(ctx, 100, 2, 10, "classic", 5, base); err != nil {
			t.Fatalf("seed review: %v", err)
		}
		if err := s.AddReview(ctx, 101, 3, 10, "tense", 4, base.Add(time.Hour)); err != nil {
			t.Fatalf("seed review: %v", err)
		}
		if err := s.AddLike(ctx, 101, 1, base.Add(2*time.Hour)); err != nil {
			t.Fatalf("seed like: %v", err)
		}
	}()

	cfg := config.DefaultConfig()
	cfg.DB.Path = dbPath

	ctx := context.Background()
	sess, err := New(ctx, cfg)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	defer sess.Close(ctx)

	got, err := sess.Recommendations(ctx, "alice", 5)
	if err != nil {
		t.Fatalf("recommendations: %v", err)
	}
	if len(got) == 0 {
		t.Fatal("expected at least one candidate")
	}
	for _, c := range got {
		if c.User.Username == "alice" {
			t.Error("alice recommended to herself")
		}
	}
}

func TestSession_CurrentRecommendations(t *testing.T) {
	sess, _ := newTestSession(t)
	ctx := context.Background()

	if _, err := sess.CurrentRecommendations(ctx, 5); !errors.IsCode(err, errors.CodeInternal) {
		t.Errorf("expected error without auth provider, got %v", err)
	}

	alice, _ := sess.Directory.ByUsername("alice")
	sess.SetAuthProvider(staticAuth{user: alice})
	if _, err := sess.CurrentRecommendations(ctx, 5); err != nil {
		t.Errorf("current recommendations: %v", err)
	}

	sess.SetAuthProvider(staticAuth{})
	if _, err := sess.CurrentRecommendations(ctx, 5); !errors.IsCode(err, errors.CodeNotFound) {
		t.Errorf("expected NOT_FOUND when nobody is logged in, got %v", err)
	}
}

type staticAuth struct {
	user *directory.User
}

func (a staticAuth) CurrentUser() (*directory.User, bool) {
	return a.user, a.user != nil
}

func TestSession_ApplyConfigSwapsTunables(t *testing.T) {
	sess, _ := newTestSession(t)
	ctx := context.Background()

	cfg := config.DefaultConfig()
	cfg.DB.Path = sess.store.Path()
	cfg.Recommend.Cap = 1
	cfg.Recommend.ExcludeUsernames = []string{"bob"}
	sess.ApplyConfig(cfg)

	if err := sess.Follow(ctx, "alice", "carol"); err != nil {
		t.Fatalf("follow: %v", err)
	}
	if err := sess.Follow(ctx, "carol", "bob"); err != nil {
		t.Fatalf("follow: %v", err)
	}

	// bob is alice's only friend-of-friend but is excluded by pattern.
	got, err := sess.Recommendations(ctx, "alice", 0)
	if err != nil {
		t.Fatalf("recommendations: %v", err)
	}
	for _, c := range got {
		if c.User.Username == "bob" {
			t.Error("excluded username recommended after config reload")
		}
	}
}

func TestSession_Health(t *testing.T) {
	sess, _ := newTestSession(t)

	h := sess.Health()
	if h.Status != "up" {
		t.Errorf("status = %q, want up", h.Status)
	}
	if h.Users != 3 {
		t.Errorf("users = %d, want 3", h.Users)
	}
}
