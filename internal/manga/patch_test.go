package manga

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"mangashelf/pkg/models"
)

func storedManga() models.Manga {
	return models.Manga{
		ID:              7,
		Title:           "Vagabond",
		Author:          "Takehiko Inoue",
		Genres:          []string{"Action", "Drama"},
		VolumeCount:     37,
		PublicationDate: "1998-09-03",
		Synopsis:        "The life of swordsman Miyamoto Musashi.",
		Rating:          9.1,
		Publisher:       "Kodansha",
	}
}

func TestPatchApplyOverridesOnlyPresentFields(t *testing.T) {
	title := "Vagabond (Deluxe)"
	rating := 9.5
	p := Patch{Title: &title, Rating: &rating}

	got := p.Apply(storedManga())

	want := storedManga()
	want.Title = title
	want.Rating = rating
	assert.Equal(t, want, got)
}

func TestPatchApplyEmptyIsIdentity(t *testing.T) {
	assert.Equal(t, storedManga(), Patch{}.Apply(storedManga()))
}

func TestPatchApplyDoesNotAliasSlices(t *testing.T) {
	orig := storedManga()
	p := Patch{Genres: []string{"Dark"}}

	got := p.Apply(orig)
	got.Genres[0] = "Comedy"
	p.Genres[0] = "Fantasy"

	assert.Equal(t, []string{"Action", "Drama"}, orig.Genres)
	assert.Equal(t, "Comedy", got.Genres[0])
}
