// # internal/data/store/reviews.go
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Review is the read-side projection of a review row used for display and
// ranking. Review CRUD itself belongs to the review collaborator.
type Review struct {
	ID        int64
	UserID    int64
	MovieID   int64
	Body      string
	Rating    int
	CreatedAt time.Time
}

// ReviewerHit is a user whose latest review matched a strategy-1 movie.
type ReviewerHit struct {
	UserID     int64
	MovieID    int64
	ReviewedAt time.Time
}

// GenreReviewerHit is a user matched by genre affinity, ranked by how many of
// their reviews target movies in the requested genres.
type GenreReviewerHit struct {
	UserID        int64
	MatchingCount int
	LastMatchedAt time.Time
}

// RecentLikedMovies returns the distinct movies behind the user's most
// recently liked reviews, newest like first, capped at window.
func (s *Store) RecentLikedMovies(ctx context.Context, userID int64, window int) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if window <= 0 {
		return []int64{}, nil
	}

	var movies []int64
	err := s.withRetry("recent liked movies", func() error {
		rows, err := s.db.QueryContext(ctx, `
SELECT r.movie_id, MAX(l.liked_at_utc) AS last_like
FROM review_likes l
JOIN reviews r ON r.id = l.review_id
WHERE l.user_id = ?
GROUP BY r.movie_id
ORDER BY last_like DESC
LIMIT ?
`, userID, window)
		if err != nil {
			return err
		}
		defer rows.Close()

		movies = movies[:0]
		for rows.Next() {
			var movieID int64
			var lastLike string
			if err := rows.Scan(&movieID, &lastLike); err != nil {
				return fmt.Errorf("scan liked movie row: %w", err)
			}
			movies = append(movies, movieID)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	if movies == nil {
		movies = []int64{}
	}
	return movies, nil
}

// LatestReviewersOfMovies finds users whose single most recent review targets
// one of the given movies, excluding excludeUserID, ordered by the recency of
// that review (newest first).
func (s *Store) LatestReviewersOfMovies(ctx context.Context, movieIDs []int64, excludeUserID int64) ([]ReviewerHit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(movieIDs) == 0 {
		return []ReviewerHit{}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(movieIDs)), ",")
	query := fmt.Sprintf(`
SELECT r.user_id, r.movie_id, r.created_at_utc
FROM reviews r
JOIN (
  SELECT user_id, MAX(created_at_utc) AS latest_ts
  FROM reviews
  GROUP BY user_id
) latest ON latest.user_id = r.user_id AND latest.latest_ts = r.created_at_utc
WHERE r.movie_id IN (%s) AND r.user_id != ?
ORDER BY r.created_at_utc DESC
`, placeholders)

	args := make([]any, 0, len(movieIDs)+1)
	for _, id := range movieIDs {
		args = append(args, id)
	}
	args = append(args, excludeUserID)

	var hits []ReviewerHit
	err := s.withRetry("latest reviewers of movies", func() error {
		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		hits = hits[:0]
		for rows.Next() {
			var hit ReviewerHit
			var tsRaw string
			if err := rows.Scan(&hit.UserID, &hit.MovieID, &tsRaw); err != nil {
				return fmt.Errorf("scan reviewer row: %w", err)
			}
			ts, err := time.Parse(time.RFC3339Nano, tsRaw)
			if err != nil {
				return fmt.Errorf("parse review timestamp %q: %w", tsRaw, err)
			}
			hit.ReviewedAt = ts.UTC()
			hits = append(hits, hit)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	if hits == nil {
		hits = []ReviewerHit{}
	}
	return hits, nil
}

// GenreAffinityReviewers finds users whose most recent review targets a movie
// tagged with any of the given genres, excluding the listed ids. Results are
// ranked by number of matching reviews authored, ties broken by recency.
func (s *Store) GenreAffinityReviewers(ctx context.Context, genres []string, excludeIDs []int64, limit int) ([]GenreReviewerHit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(genres) == 0 || limit <= 0 {
		return []GenreReviewerHit{}, nil
	}

	genreCond := strings.TrimSuffix(strings.Repeat("m.genres LIKE '%' || ? || '%' OR ", len(genres)), " OR ")
	latestGenreCond := strings.ReplaceAll(genreCond, "m.genres", "lm.genres")

	excludeCond := "1=1"
	if len(excludeIDs) > 0 {
		excludeCond = fmt.Sprintf("r.user_id NOT IN (%s)", strings.TrimSuffix(strings.Repeat("?,", len(excludeIDs)), ","))
	}

	query := fmt.Sprintf(`
SELECT r.user_id, COUNT(r.id) AS matching, MAX(r.created_at_utc) AS last_match
FROM reviews r
JOIN movies m ON m.id = r.movie_id
JOIN (
  SELECT user_id, MAX(created_at_utc) AS latest_ts
  FROM reviews
  GROUP BY user_id
) latest ON latest.user_id = r.user_id
JOIN reviews lr ON lr.user_id = latest.user_id AND lr.created_at_utc = latest.latest_ts
JOIN movies lm ON lm.id = lr.movie_id
WHERE (%s) AND (%s) AND (%s)
GROUP BY r.user_id
ORDER BY matching DESC, last_match DESC
LIMIT ?
`, genreCond, latestGenreCond, excludeCond)

	args := make([]any, 0, 2*len(genres)+len(excludeIDs)+1)
	for _, g := range genres {
		args = append(args, g)
	}
	for _, g := range genres {
		args = append(args, g)
	}
	for _, id := range excludeIDs {
		args = append(args, id)
	}
	args = append(args, limit)

	var hits []GenreReviewerHit
	err := s.withRetry("genre affinity reviewers", func() error {
		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		hits = hits[:0]
		for rows.Next() {
			var hit GenreReviewerHit
			var tsRaw string
			if err := rows.Scan(&hit.UserID, &hit.MatchingCount, &tsRaw); err != nil {
				return fmt.Errorf("scan genre reviewer row: %w", err)
			}
			ts, err := time.Parse(time.RFC3339Nano, tsRaw)
			if err != nil {
				return fmt.Errorf("parse review timestamp %q: %w", tsRaw, err)
			}
			hit.LastMatchedAt = ts.UTC()
			hits = append(hits, hit)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	if hits == nil {
		hits = []GenreReviewerHit{}
	}
	return hits, nil
}

// LatestReview returns the user's most recent review, or ok=false if the
// user has never reviewed.
func (s *Store) LatestReview(ctx context.Context, userID int64) (Review, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var review Review
	found := false
	err := s.withRetry("latest review", func() error {
		row := s.db.QueryRowContext(ctx, `
SELECT id, user_id, movie_id, body, rating, created_at_utc
FROM reviews
WHERE user_id = ?
ORDER BY created_at_utc DESC
LIMIT 1
`, userID)

		var tsRaw string
		err := row.Scan(&review.ID, &review.UserID, &review.MovieID, &review.Body, &review.Rating, &tsRaw)
		if err == sql.ErrNoRows {
			found = false
			return nil
		}
		if err != nil {
			return err
		}
		ts, err := time.Parse(time.RFC3339Nano, tsRaw)
		if err != nil {
			return fmt.Errorf("parse review timestamp %q: %w", tsRaw, err)
		}
		review.CreatedAt = ts.UTC()
		found = true
		return nil
	})
	if err != nil {
		return Review{}, false, err
	}
	return review, found, nil
}

// LatestReviewsOf returns the most recent review of each listed user, newest
// first. Users without reviews are simply absent from the result.
func (s *Store) LatestReviewsOf(ctx context.Context, userIDs []int64) ([]Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(userIDs) == 0 {
		return []Review{}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(userIDs)), ",")
	query := fmt.Sprintf(`
SELECT r.id, r.user_id, r.movie_id, r.body, r.rating, r.created_at_utc
FROM reviews r
JOIN (
  SELECT user_id, MAX(created_at_utc) AS latest_ts
  FROM reviews
  GROUP BY user_id
) latest ON latest.user_id = r.user_id AND latest.latest_ts = r.created_at_utc
WHERE r.user_id IN (%s)
ORDER BY r.created_at_utc DESC
`, placeholders)

	args := make([]any, 0, len(userIDs))
	for _, id := range userIDs {
		args = append(args, id)
	}

	var reviews []Review
	err := s.withRetry("latest reviews of followees", func() error {
		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		reviews = reviews[:0]
		for rows.Next() {
			var review Review
			var tsRaw string
			if err := rows.Scan(&review.ID, &review.UserID, &review.MovieID, &review.Body, &review.Rating, &tsRaw); err != nil {
				return fmt.Errorf("scan review row: %w", err)
			}
			ts, err := time.Parse(time.RFC3339Nano, tsRaw)
			if err != nil {
				return fmt.Errorf("parse review timestamp %q: %w", tsRaw, err)
			}
			review.CreatedAt = ts.UTC()
			reviews = append(reviews, review)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	if reviews == nil {
		reviews = []Review{}
	}
	return reviews, nil
}
