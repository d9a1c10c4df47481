package models

// Genre is one value of the closed genre vocabulary.
type Genre string

const (
	GenreAdventure    Genre = "Adventure"
	GenreAction       Genre = "Action"
	GenreComedy       Genre = "Comedy"
	GenreDrama        Genre = "Drama"
	GenreFantasy      Genre = "Fantasy"
	GenreSupernatural Genre = "Supernatural"
	GenreDark         Genre = "Dark"
)

// Genres lists the accepted genre values in display order.
var Genres = []Genre{
	GenreAdventure,
	GenreAction,
	GenreComedy,
	GenreDrama,
	GenreFantasy,
	GenreSupernatural,
	GenreDark,
}

// Manga is one record of the collection. The same shape is used on the wire
// and in every storage codec.
type Manga struct {
	ID              int      `json:"id" yaml:"id"`
	Title           string   `json:"title" yaml:"title"`
	Author          string   `json:"author" yaml:"author"`
	Genres          []string `json:"genres" yaml:"genres"`
	VolumeCount     int      `json:"volumeCount" yaml:"volumeCount"`
	PublicationDate string   `json:"publicationDate" yaml:"publicationDate"` // ISO-8601, kept as supplied
	Synopsis        string   `json:"synopsis" yaml:"synopsis"`
	Rating          float64  `json:"rating" yaml:"rating"`
	Publisher       string   `json:"publisher" yaml:"publisher"`
}

// Clone returns a copy that shares no slices with m.
func (m Manga) Clone() Manga {
	out := m
	if m.Genres != nil {
		out.Genres = append([]string(nil), m.Genres...)
	}
	return out
}
