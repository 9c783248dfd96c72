package ports

import (
	"context"

	"reelgraph/internal/data/store"
	"reelgraph/internal/directory"
)

// ReviewSource abstracts the review/like tables owned by the review
// collaborator. The sqlite store satisfies it; engine tests fake it.
type ReviewSource interface {
	RecentLikedMovies(ctx context.Context, userID int64, window int) ([]int64, error)
	LatestReviewersOfMovies(ctx context.Context, movieIDs []int64, excludeUserID int64) ([]store.ReviewerHit, error)
	GenreAffinityReviewers(ctx context.Context, genres []string, excludeIDs []int64, limit int) ([]store.GenreReviewerHit, error)
	LatestReview(ctx context.Context, userID int64) (store.Review, bool, error)
	LatestReviewsOf(ctx context.Context, userIDs []int64) ([]store.Review, error)
}

// CurrentUserProvider abstracts the authentication collaborator that knows
// who is driving the session.
type CurrentUserProvider interface {
	CurrentUser() (*directory.User, bool)
}
