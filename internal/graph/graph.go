// # internal/graph/graph.go
package graph

import (
	"sort"
	"sync"

	"reelgraph/internal/shared/observability"
)

// Graph is the in-memory follow structure. Both directions of every edge are
// held explicitly: following (follower -> followees) and followers
// (followee -> followers). The two maps are only ever touched together,
// inside AddRelationship and RemoveRelationship, which keeps the mirror
// consistent at every observable point.
type Graph struct {
	mu sync.RWMutex

	following map[int64]map[int64]bool // follower -> followee -> true
	followers map[int64]map[int64]bool // followee -> follower -> true

	// Every id ever registered, including users with no edges.
	users map[int64]bool

	edgeCount int
}

// Edge is one directed follow relationship.
type Edge struct {
	FollowerID int64
	FolloweeID int64
}

func New() *Graph {
	return &Graph{
		following: make(map[int64]map[int64]bool),
		followers: make(map[int64]map[int64]bool),
		users:     make(map[int64]bool),
	}
}

// Register adds an id with empty adjacency. Idempotent.
func (g *Graph) Register(id int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.registerLocked(id)
}

func (g *Graph) registerLocked(id int64) {
	if !g.users[id] {
		g.users[id] = true
		observability.GraphUsers.Set(float64(len(g.users)))
	}
}

// AddRelationship creates the follower -> followee edge, registering either
// endpoint if unseen. Returns false without mutating anything when the edge
// already exists or when follower == followee (self-follows are rejected).
func (g *Graph) AddRelationship(follower, followee int64) bool {
	if follower == followee {
		return false
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.following[follower][followee] {
		return false
	}

	g.registerLocked(follower)
	g.registerLocked(followee)

	if g.following[follower] == nil {
		g.following[follower] = make(map[int64]bool)
	}
	if g.followers[followee] == nil {
		g.followers[followee] = make(map[int64]bool)
	}
	g.following[follower][followee] = true
	g.followers[followee][follower] = true
	g.edgeCount++
	observability.GraphEdges.Set(float64(g.edgeCount))
	return true
}

// RemoveRelationship deletes the edge from both sides of the mirror.
// Returns false if the edge did not exist.
func (g *Graph) RemoveRelationship(follower, followee int64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.following[follower][followee] {
		return false
	}

	delete(g.following[follower], followee)
	delete(g.followers[followee], follower)
	g.edgeCount--
	observability.GraphEdges.Set(float64(g.edgeCount))
	return true
}

// IsFollowing reports whether the follower -> followee edge exists.
func (g *Graph) IsFollowing(follower, followee int64) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.following[follower][followee]
}

// Following returns the ids the user follows, sorted. Unknown users get an
// empty slice, never nil semantics the caller has to guard against.
func (g *Graph) Following(id int64) []int64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return sortedKeys(g.following[id])
}

// Followers returns the ids following the user, sorted.
func (g *Graph) Followers(id int64) []int64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return sortedKeys(g.followers[id])
}

func (g *Graph) FollowingCount(id int64) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.following[id])
}

func (g *Graph) FollowerCount(id int64) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.followers[id])
}

// FriendsOfFriendsNotConnected returns every id at distance exactly two:
// the union of following(f) over each followee f, minus the user and the
// user's direct followees.
func (g *Graph) FriendsOfFriendsNotConnected(id int64) []int64 {
	g.mu.RLock()
	defer g.mu.RUnlock()

	direct := g.following[id]
	result := make(map[int64]bool)
	for f := range direct {
		for candidate := range g.following[f] {
			if candidate == id || direct[candidate] {
				continue
			}
			result[candidate] = true
		}
	}
	return sortedKeys(result)
}

// Users returns all registered ids, sorted.
func (g *Graph) Users() []int64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return sortedKeys(g.users)
}

func (g *Graph) UserCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.users)
}

func (g *Graph) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.edgeCount
}

// Edges returns a snapshot of every edge, ordered by follower then followee.
// Sync serializes this snapshot, so the order is stable across calls.
func (g *Graph) Edges() []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()

	edges := make([]Edge, 0, g.edgeCount)
	for follower, followees := range g.following {
		for followee := range followees {
			edges = append(edges, Edge{FollowerID: follower, FolloweeID: followee})
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].FollowerID != edges[j].FollowerID {
			return edges[i].FollowerID < edges[j].FollowerID
		}
		return edges[i].FolloweeID < edges[j].FolloweeID
	})
	return edges
}

func sortedKeys(set map[int64]bool) []int64 {
	out := make([]int64, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
