package store

import (
	"context"
	"time"
)

// Write paths for the tables owned by the account and review collaborators.
// The graph subsystem itself only reads them; they exist here so tests and
// tooling can populate a database without a second module.

func (s *Store) UpsertUser(ctx context.Context, id int64, username, email string, genres ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withRetry("upsert user", func() error {
		if _, err := s.db.ExecContext(ctx, `
INSERT INTO users (id, username, email) VALUES (?, ?, ?)
ON CONFLICT(id) DO UPDATE SET username=excluded.username, email=excluded.email
`, id, username, email); err != nil {
			return err
		}
		for _, g := range genres {
			if _, err := s.db.ExecContext(ctx, `
INSERT OR IGNORE INTO user_genres (user_id, genre) VALUES (?, ?)
`, id, g); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) UpsertMovie(ctx context.Context, id int64, title, genres string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withRetry("upsert movie", func() error {
		_, err := s.db.ExecContext(ctx, `
INSERT INTO movies (id, title, genres) VALUES (?, ?, ?)
ON CONFLICT(id) DO UPDATE SET title=excluded.title, genres=excluded.genres
`, id, title, genres)
		return err
	})
}

func (s *Store) AddReview(ctx context.Context, id, userID, movieID int64, body string, rating int, createdAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withRetry("add review", func() error {
		_, err := s.db.ExecContext(ctx, `
INSERT INTO reviews (id, user_id, movie_id, body, rating, created_at_utc)
VALUES (?, ?, ?, ?, ?, ?)
`, id, userID, movieID, body, rating, createdAt.UTC().Format(time.RFC3339Nano))
		return err
	})
}

func (s *Store) AddLike(ctx context.Context, reviewID, userID int64, likedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withRetry("add like", func() error {
		_, err := s.db.ExecContext(ctx, `
INSERT OR IGNORE INTO review_likes (review_id, user_id, liked_at_utc) VALUES (?, ?, ?)
`, reviewID, userID, likedAt.UTC().Format(time.RFC3339Nano))
		return err
	})
}

// InsertRawFollow writes a follow row directly, bypassing the in-memory
// graph. Tests use it to produce dangling rows a Load must tolerate.
func (s *Store) InsertRawFollow(ctx context.Context, followeeID, followerID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withRetry("insert raw follow", func() error {
		_, err := s.db.ExecContext(ctx, `
INSERT OR IGNORE INTO user_follows (followee_id, follower_id) VALUES (?, ?)
`, followeeID, followerID)
		return err
	})
}

// InsertRawGenre writes a user_genres row without tag validation. Tests use
// it to exercise the invalid-genre skip path in Load.
func (s *Store) InsertRawGenre(ctx context.Context, userID int64, genre string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withRetry("insert raw genre", func() error {
		_, err := s.db.ExecContext(ctx, `
INSERT OR IGNORE INTO user_genres (user_id, genre) VALUES (?, ?)
`, userID, genre)
		return err
	})
}
