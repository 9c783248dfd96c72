// # internal/data/store/graph_io.go
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"reelgraph/internal/core/errors"
	"reelgraph/internal/directory"
	"reelgraph/internal/graph"
	"reelgraph/internal/shared/observability"
)

// LoadStats summarizes anomalies tolerated during a bulk load.
type LoadStats struct {
	Users         int
	Edges         int
	SkippedGenres int
	DanglingEdges int
}

// Load performs the two-phase bulk read: all users with their genre rows
// first, then the follow edges. Edge rows are resolved only after the user
// set is complete; resolving earlier would silently drop edges for users
// read later in the scan.
//
// Row-level anomalies (unknown genre tags, edges referencing absent users)
// are skipped and logged, never fatal. A store-level failure returns an
// empty directory and graph alongside a STORAGE_UNAVAILABLE error so the
// caller can decide whether to continue with an empty session.
func (s *Store) Load(ctx context.Context) (*directory.Directory, *graph.Graph, LoadStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	dir := directory.New()
	g := graph.New()
	var stats LoadStats

	if err := s.loadUsers(ctx, dir, g, &stats); err != nil {
		return directory.New(), graph.New(), LoadStats{}, errors.AddContext(
			errors.Wrap(err, errors.CodeStorageUnavailable, "load users"),
			errors.CtxOperation, "load",
		)
	}
	if err := s.loadEdges(ctx, dir, g, &stats); err != nil {
		return directory.New(), graph.New(), LoadStats{}, errors.AddContext(
			errors.Wrap(err, errors.CodeStorageUnavailable, "load follow edges"),
			errors.CtxOperation, "load",
		)
	}

	observability.LoadDuration.Observe(time.Since(start).Seconds())
	slog.Info("graph loaded",
		"users", stats.Users,
		"edges", stats.Edges,
		"skipped_genres", stats.SkippedGenres,
		"dangling_edges", stats.DanglingEdges,
	)
	return dir, g, stats, nil
}

func (s *Store) loadUsers(ctx context.Context, dir *directory.Directory, g *graph.Graph, stats *LoadStats) error {
	genresByUser := make(map[int64][]directory.Genre)

	err := s.withRetry("load user genres", func() error {
		rows, err := s.db.QueryContext(ctx, `SELECT user_id, genre FROM user_genres`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var userID int64
			var raw string
			if err := rows.Scan(&userID, &raw); err != nil {
				return fmt.Errorf("scan genre row: %w", err)
			}
			genre, err := directory.ParseGenre(raw)
			if err != nil {
				// The tag is dropped; the user still loads.
				stats.SkippedGenres++
				observability.LoadWarningsTotal.WithLabelValues("invalid_genre").Inc()
				slog.Warn("skipping unknown genre tag", "user_id", userID, "genre", raw)
				continue
			}
			genresByUser[userID] = append(genresByUser[userID], genre)
		}
		return rows.Err()
	})
	if err != nil {
		return err
	}

	return s.withRetry("load users", func() error {
		rows, err := s.db.QueryContext(ctx, `SELECT id, username, email FROM users ORDER BY id`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var id int64
			var username, email string
			if err := rows.Scan(&id, &username, &email); err != nil {
				return fmt.Errorf("scan user row: %w", err)
			}
			dir.Add(directory.NewUser(id, username, email, genresByUser[id]...))
			g.Register(id)
			stats.Users++
		}
		return rows.Err()
	})
}

func (s *Store) loadEdges(ctx context.Context, dir *directory.Directory, g *graph.Graph, stats *LoadStats) error {
	return s.withRetry("load follow edges", func() error {
		rows, err := s.db.QueryContext(ctx, `SELECT follower_id, followee_id FROM user_follows`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var followerID, followeeID int64
			if err := rows.Scan(&followerID, &followeeID); err != nil {
				return fmt.Errorf("scan follow row: %w", err)
			}

			_, followerKnown := dir.ByID(followerID)
			_, followeeKnown := dir.ByID(followeeID)
			if !followerKnown || !followeeKnown {
				stats.DanglingEdges++
				observability.LoadWarningsTotal.WithLabelValues("dangling_edge").Inc()
				slog.Warn("skipping follow edge with unknown endpoint",
					"follower_id", followerID, "followee_id", followeeID)
				continue
			}

			if g.AddRelationship(followerID, followeeID) {
				stats.Edges++
			}
		}
		return rows.Err()
	})
}

// Sync rewrites user_follows to match the in-memory edge set in a single
// transaction. On any failure the transaction rolls back in full and the
// graph is untouched; no partial edge set ever reaches storage.
func (s *Store) Sync(ctx context.Context, g *graph.Graph) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	edges := g.Edges()

	err := s.withRetry("sync follow edges", func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}

		if err := syncTx(tx, edges); err != nil {
			_ = tx.Rollback()
			return err
		}
		return tx.Commit()
	})
	if err != nil {
		observability.SyncFailuresTotal.Inc()
		return errors.AddContext(
			errors.Wrap(err, errors.CodeStorageUnavailable, "sync follow edges"),
			errors.CtxTable, "user_follows",
		)
	}

	observability.SyncDuration.Observe(time.Since(start).Seconds())
	slog.Info("graph synced", "edges", len(edges), "took", time.Since(start))
	return nil
}

func syncTx(tx *sql.Tx, edges []graph.Edge) error {
	if _, err := tx.Exec(`DELETE FROM user_follows`); err != nil {
		return fmt.Errorf("clear follow table: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO user_follows (followee_id, follower_id) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare follow insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range edges {
		if _, err := stmt.Exec(e.FolloweeID, e.FollowerID); err != nil {
			return fmt.Errorf("insert follow edge %d->%d: %w", e.FollowerID, e.FolloweeID, err)
		}
	}
	return nil
}
