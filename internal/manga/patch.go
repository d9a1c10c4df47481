package manga

import "mangashelf/pkg/models"

// Patch is a validated payload. A nil field was absent from the payload and
// leaves the target value untouched; a non-nil field overwrites it.
type Patch struct {
	Title           *string
	Author          *string
	Genres          []string
	VolumeCount     *int
	PublicationDate *string
	Synopsis        *string
	Rating          *float64
	Publisher       *string
}

// Apply merges p over m and returns the result. The id is never touched.
func (p Patch) Apply(m models.Manga) models.Manga {
	out := m.Clone()
	if p.Title != nil {
		out.Title = *p.Title
	}
	if p.Author != nil {
		out.Author = *p.Author
	}
	if p.Genres != nil {
		out.Genres = append([]string(nil), p.Genres...)
	}
	if p.VolumeCount != nil {
		out.VolumeCount = *p.VolumeCount
	}
	if p.PublicationDate != nil {
		out.PublicationDate = *p.PublicationDate
	}
	if p.Synopsis != nil {
		out.Synopsis = *p.Synopsis
	}
	if p.Rating != nil {
		out.Rating = *p.Rating
	}
	if p.Publisher != nil {
		out.Publisher = *p.Publisher
	}
	return out
}
