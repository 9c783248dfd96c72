package directory

import (
	"strings"

	"reelgraph/internal/core/errors"
)

// Genre is one of the fixed catalog genre tags.
type Genre string

const (
	GenreAction         Genre = "ACTION"
	GenreAdventure      Genre = "ADVENTURE"
	GenreAnimation      Genre = "ANIMATION"
	GenreComedy         Genre = "COMEDY"
	GenreCrime          Genre = "CRIME"
	GenreDocumentary    Genre = "DOCUMENTARY"
	GenreDrama          Genre = "DRAMA"
	GenreFamily         Genre = "FAMILY"
	GenreFantasy        Genre = "FANTASY"
	GenreHistory        Genre = "HISTORY"
	GenreHorror         Genre = "HORROR"
	GenreMusic          Genre = "MUSIC"
	GenreMystery        Genre = "MYSTERY"
	GenreRomance        Genre = "ROMANCE"
	GenreScienceFiction Genre = "SCIENCE_FICTION"
	GenreTVMovie        Genre = "TV_MOVIE"
	GenreThriller       Genre = "THRILLER"
	GenreWar            Genre = "WAR"
	GenreWestern        Genre = "WESTERN"
)

var knownGenres = map[Genre]bool{
	GenreAction:         true,
	GenreAdventure:      true,
	GenreAnimation:      true,
	GenreComedy:         true,
	GenreCrime:          true,
	GenreDocumentary:    true,
	GenreDrama:          true,
	GenreFamily:         true,
	GenreFantasy:        true,
	GenreHistory:        true,
	GenreHorror:         true,
	GenreMusic:          true,
	GenreMystery:        true,
	GenreRomance:        true,
	GenreScienceFiction: true,
	GenreTVMovie:        true,
	GenreThriller:       true,
	GenreWar:            true,
	GenreWestern:        true,
}

// ParseGenre normalizes a raw tag ("Science Fiction", "science_fiction") to
// its canonical Genre. Unknown tags return an INVALID_GENRE error.
func ParseGenre(raw string) (Genre, error) {
	tag := strings.ToUpper(strings.TrimSpace(raw))
	tag = strings.ReplaceAll(tag, " ", "_")
	tag = strings.ReplaceAll(tag, "-", "_")
	g := Genre(tag)
	if !knownGenres[g] {
		return "", errors.AddContext(
			errors.New(errors.CodeInvalidGenre, "unknown genre tag"),
			errors.CtxGenre, raw,
		)
	}
	return g, nil
}

// Display returns the human form of the tag ("SCIENCE_FICTION" -> "Science Fiction").
func (g Genre) Display() string {
	words := strings.Split(string(g), "_")
	for i, w := range words {
		if len(w) > 0 {
			words[i] = w[:1] + strings.ToLower(w[1:])
		}
	}
	return strings.Join(words, " ")
}

// ParseGenreList splits a comma-joined tag string, keeping only valid tags.
// Invalid tags are returned separately so callers can log them.
func ParseGenreList(raw string) (valid []Genre, invalid []string) {
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		g, err := ParseGenre(part)
		if err != nil {
			invalid = append(invalid, part)
			continue
		}
		valid = append(valid, g)
	}
	return valid, invalid
}
