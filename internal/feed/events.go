package feed

import (
	"time"

	"mangashelf/pkg/models"
)

const (
	MangaCreated = "manga.created"
	MangaUpdated = "manga.updated"
	MangaDeleted = "manga.deleted"
)

// Event is one change to the collection, as sent to subscribers.
type Event struct {
	Type  string       `json:"type"`
	ID    int          `json:"id"`
	Manga models.Manga `json:"manga"`
	At    time.Time    `json:"at"`
}

func NewEvent(kind string, m models.Manga) Event {
	return Event{Type: kind, ID: m.ID, Manga: m, At: time.Now().UTC()}
}
