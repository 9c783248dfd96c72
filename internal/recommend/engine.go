// # internal/recommend/engine.go
package recommend

import (
	"context"
	"log/slog"
	"time"

	"github.com/gobwas/glob"

	"reelgraph/internal/core/ports"
	"reelgraph/internal/data/store"
	"reelgraph/internal/directory"
	"reelgraph/internal/graph"
	"reelgraph/internal/shared/observability"
)

// Strategy identifies which signal produced a candidate.
type Strategy string

const (
	StrategyLikedReview    Strategy = "liked-review"
	StrategyGenreAffinity  Strategy = "genre-affinity"
	StrategyFriendOfFriend Strategy = "friend-of-friend"
)

// DefaultCap is the recommendation list size when the caller passes none.
const DefaultCap = 5

// DefaultLikedWindow bounds how many recently liked movies strategy one
// considers.
const DefaultLikedWindow = 5

// Candidate is one ranked suggestion. It lives only for the duration of a
// request; nothing about it is persisted.
type Candidate struct {
	User         *directory.User
	Strategy     Strategy
	Rank         int
	LatestReview *store.Review
}

// Engine combines the three suggestion strategies in strict priority order:
// liked-review affinity, then genre affinity, then friend-of-friend
// expansion, deduplicating across strategies and truncating at the cap.
type Engine struct {
	graph       *graph.Graph
	dir         *directory.Directory
	reviews     ports.ReviewSource
	likedWindow int
	exclude     []glob.Glob
}

type Option func(*Engine)

// WithLikedWindow overrides the recency window for strategy one.
func WithLikedWindow(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.likedWindow = n
		}
	}
}

// WithExcludePatterns filters out candidates whose username matches any of
// the compiled patterns (service accounts, test users).
func WithExcludePatterns(patterns []glob.Glob) Option {
	return func(e *Engine) {
		e.exclude = patterns
	}
}

func New(g *graph.Graph, dir *directory.Directory, reviews ports.ReviewSource, opts ...Option) *Engine {
	e := &Engine{
		graph:       g,
		dir:         dir,
		reviews:     reviews,
		likedWindow: DefaultLikedWindow,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Recommend produces up to cap ranked suggestions for the user to follow.
// Each strategy tolerates empty input and control always falls through to
// the next one until the cap is reached.
func (e *Engine) Recommend(ctx context.Context, user *directory.User, cap int) ([]Candidate, error) {
	start := time.Now()
	if cap <= 0 {
		cap = DefaultCap
	}

	acc := newAccumulator(e, user, cap)

	if err := e.likedReviewAffinity(ctx, user, acc); err != nil {
		observability.RecommendDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		return nil, err
	}
	if err := e.genreAffinity(ctx, user, acc); err != nil {
		observability.RecommendDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		return nil, err
	}
	e.friendOfFriend(user, acc)

	candidates := acc.list()
	for i := range candidates {
		review, ok, err := e.reviews.LatestReview(ctx, candidates[i].User.ID)
		if err != nil {
			// Display enrichment is best effort; the suggestion stands.
			slog.Warn("failed to fetch latest review for candidate",
				"user_id", candidates[i].User.ID, "error", err)
			continue
		}
		if ok {
			r := review
			candidates[i].LatestReview = &r
		}
	}

	observability.RecommendDuration.WithLabelValues("ok").Observe(time.Since(start).Seconds())
	return candidates, nil
}

// Strategy 1: users whose single most recent review targets a movie behind
// the requesting user's recently liked reviews, newest qualifying review
// first.
func (e *Engine) likedReviewAffinity(ctx context.Context, user *directory.User, acc *accumulator) error {
	if acc.full() {
		return nil
	}

	movies, err := e.reviews.RecentLikedMovies(ctx, user.ID, e.likedWindow)
	if err != nil {
		return err
	}
	if len(movies) == 0 {
		return nil
	}

	hits, err := e.reviews.LatestReviewersOfMovies(ctx, movies, user.ID)
	if err != nil {
		return err
	}
	for _, hit := range hits {
		if acc.full() {
			break
		}
		acc.add(hit.UserID, StrategyLikedReview)
	}
	return nil
}

// Strategy 2: users whose most recent review targets a movie in one of the
// requesting user's favorite genres, ranked by matching-review count with
// recency as the tie break. Ranking happens in the query.
func (e *Engine) genreAffinity(ctx context.Context, user *directory.User, acc *accumulator) error {
	if acc.full() {
		return nil
	}

	favorites := user.FavoriteGenres()
	if len(favorites) == 0 {
		return nil
	}
	genres := make([]string, len(favorites))
	for i, g := range favorites {
		genres[i] = string(g)
	}

	hits, err := e.reviews.GenreAffinityReviewers(ctx, genres, acc.excludeIDs(), acc.remaining())
	if err != nil {
		return err
	}
	for _, hit := range hits {
		if acc.full() {
			break
		}
		acc.add(hit.UserID, StrategyGenreAffinity)
	}
	return nil
}

// Strategy 3: fill remaining slots from the depth-2 neighborhood.
func (e *Engine) friendOfFriend(user *directory.User, acc *accumulator) {
	if acc.full() {
		return
	}
	for _, id := range e.graph.FriendsOfFriendsNotConnected(user.ID) {
		if acc.full() {
			break
		}
		acc.add(id, StrategyFriendOfFriend)
	}
}

// accumulator dedupes across strategies while preserving insertion order.
// The requesting user and everyone they already follow are excluded up
// front: suggesting an existing followee is never useful.
type accumulator struct {
	engine     *Engine
	cap        int
	seen       map[int64]bool
	candidates []Candidate
}

func newAccumulator(e *Engine, user *directory.User, cap int) *accumulator {
	seen := map[int64]bool{user.ID: true}
	for _, id := range e.graph.Following(user.ID) {
		seen[id] = true
	}
	return &accumulator{
		engine: e,
		cap:    cap,
		seen:   seen,
	}
}

func (a *accumulator) full() bool {
	return len(a.candidates) >= a.cap
}

func (a *accumulator) remaining() int {
	return a.cap - len(a.candidates)
}

func (a *accumulator) add(id int64, strategy Strategy) {
	if a.full() || a.seen[id] {
		return
	}
	a.seen[id] = true

	user, ok := a.engine.dir.ByID(id)
	if !ok {
		slog.Warn("candidate id missing from directory", "user_id", id)
		return
	}
	for _, pattern := range a.engine.exclude {
		if pattern.Match(user.Username) {
			return
		}
	}

	a.candidates = append(a.candidates, Candidate{
		User:     user,
		Strategy: strategy,
		Rank:     len(a.candidates) + 1,
	})
	observability.RecommendCandidatesTotal.WithLabelValues(string(strategy)).Inc()
}

// excludeIDs is the id set strategy queries must not return: the requester,
// their followees, and everything already collected.
func (a *accumulator) excludeIDs() []int64 {
	out := make([]int64, 0, len(a.seen))
	for id := range a.seen {
		out = append(out, id)
	}
	return out
}

func (a *accumulator) list() []Candidate {
	return a.candidates
}
