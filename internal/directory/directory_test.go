package directory

import "testing"

func TestDirectory_AddAndLookup(t *testing.T) {
	d := New()
	d.Add(NewUser(1, "alice", "alice@example.com", GenreDrama, GenreComedy))
	d.Add(NewUser(2, "bob", "bob@example.com"))

	if d.Len() != 2 {
		t.Fatalf("expected 2 users, got %d", d.Len())
	}

	u, ok := d.ByID(1)
	if !ok || u.Username != "alice" {
		t.Fatalf("ByID(1) = %v, %v", u, ok)
	}

	u, ok = d.ByUsername("ALICE")
	if !ok || u.ID != 1 {
		t.Errorf("case-insensitive ByUsername failed: %v, %v", u, ok)
	}

	if _, ok := d.ByID(99); ok {
		t.Error("expected ByID miss for unknown id")
	}
	if _, ok := d.ByUsername("carol"); ok {
		t.Error("expected ByUsername miss for unknown name")
	}
}

func TestDirectory_RemoveDropsAllIndexKeys(t *testing.T) {
	d := New()
	d.Add(NewUser(7, "carol", "carol@example.com"))
	d.Remove(7)

	if _, ok := d.ByID(7); ok {
		t.Error("id key survived Remove")
	}
	if _, ok := d.ByUsername("carol"); ok {
		t.Error("username key survived Remove")
	}
	if d.Len() != 0 {
		t.Errorf("expected empty directory, got %d", d.Len())
	}
}

func TestDirectory_DuplicateIDReplacesUsernameKey(t *testing.T) {
	d := New()
	d.Add(NewUser(3, "oldname", "x@example.com"))
	d.Add(NewUser(3, "newname", "x@example.com"))

	if _, ok := d.ByUsername("oldname"); ok {
		t.Error("stale username key after replacement")
	}
	if u, ok := d.ByUsername("newname"); !ok || u.ID != 3 {
		t.Errorf("expected newname to resolve to id 3, got %v, %v", u, ok)
	}
	if d.Len() != 1 {
		t.Errorf("expected 1 user, got %d", d.Len())
	}
}

func TestUser_FavoriteGenresSorted(t *testing.T) {
	u := NewUser(1, "alice", "", GenreWestern, GenreAction, GenreDrama)
	got := u.FavoriteGenres()
	want := []Genre{GenreAction, GenreDrama, GenreWestern}
	if len(got) != len(want) {
		t.Fatalf("expected %d genres, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("genre[%d] = %s, want %s", i, got[i], want[i])
		}
	}
	if !u.HasGenre(GenreAction) {
		t.Error("HasGenre(ACTION) = false")
	}
	if u.HasGenre(GenreHorror) {
		t.Error("HasGenre(HORROR) = true for absent genre")
	}
}

func TestParseGenre(t *testing.T) {
	cases := []struct {
		in   string
		want Genre
		ok   bool
	}{
		{"ACTION", GenreAction, true},
		{"science fiction", GenreScienceFiction, true},
		{"Science-Fiction", GenreScienceFiction, true},
		{" drama ", GenreDrama, true},
		{"POLKA", "", false},
		{"", "", false},
	}
	for _, c := range cases {
		got, err := ParseGenre(c.in)
		if c.ok && (err != nil || got != c.want) {
			t.Errorf("ParseGenre(%q) = %v, %v; want %v", c.in, got, err, c.want)
		}
		if !c.ok && err == nil {
			t.Errorf("ParseGenre(%q) succeeded, want error", c.in)
		}
	}
}

func TestParseGenreList_SkipsInvalidTags(t *testing.T) {
	valid, invalid := ParseGenreList("ACTION, POLKA, drama")
	if len(valid) != 2 || valid[0] != GenreAction || valid[1] != GenreDrama {
		t.Errorf("valid = %v", valid)
	}
	if len(invalid) != 1 || invalid[0] != "POLKA" {
		t.Errorf("invalid = %v", invalid)
	}
}

func TestGenre_Display(t *testing.T) {
	if got := GenreScienceFiction.Display(); got != "Science Fiction" {
		t.Errorf("Display() = %q", got)
	}
	if got := GenreTVMovie.Display(); got != "Tv Movie" {
		t.Errorf("Display() = %q", got)
	}
}
