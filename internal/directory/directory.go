// # internal/directory/directory.go
package directory

import (
	"sort"
	"strings"
	"sync"
)

// User is an identity loaded from the users table. Immutable once added;
// profile edits go through the account collaborator, not this subsystem.
type User struct {
	ID       int64
	Username string
	Email    string
	genres   map[Genre]bool
}

func NewUser(id int64, username, email string, genres ...Genre) *User {
	u := &User{
		ID:       id,
		Username: username,
		Email:    email,
		genres:   make(map[Genre]bool, len(genres)),
	}
	for _, g := range genres {
		u.genres[g] = true
	}
	return u
}

func (u *User) HasGenre(g Genre) bool {
	return u.genres[g]
}

// FavoriteGenres returns the user's genre tags in stable sorted order.
func (u *User) FavoriteGenres() []Genre {
	out := make([]Genre, 0, len(u.genres))
	for g := range u.genres {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Directory holds every known user with a secondary index by id and by
// lowercased username. Populated once at load time.
type Directory struct {
	mu         sync.RWMutex
	byID       map[int64]*User
	byUsername map[string]*User
}

func New() *Directory {
	return &Directory{
		byID:       make(map[int64]*User),
		byUsername: make(map[string]*User),
	}
}

// Add registers a user under both index keys. A user with a duplicate id
// replaces the previous entry, including its username key.
func (d *Directory) Add(u *User) {
	if u == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if prev, ok := d.byID[u.ID]; ok {
		delete(d.byUsername, strings.ToLower(prev.Username))
	}
	d.byID[u.ID] = u
	d.byUsername[strings.ToLower(u.Username)] = u
}

func (d *Directory) ByID(id int64) (*User, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.byID[id]
	return u, ok
}

// ByUsername looks a user up case-insensitively.
func (d *Directory) ByUsername(name string) (*User, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.byUsername[strings.ToLower(name)]
	return u, ok
}

// Remove drops a user from every index key.
func (d *Directory) Remove(id int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	u, ok := d.byID[id]
	if !ok {
		return
	}
	delete(d.byID, id)
	delete(d.byUsername, strings.ToLower(u.Username))
}

func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.byID)
}

// Users returns a snapshot of all users sorted by id.
func (d *Directory) Users() []*User {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]*User, 0, len(d.byID))
	for _, u := range d.byID {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
