package entity

import (
	"fmt"
	"time"
)

// PlaceholderNameFormat names a document whose owner is not known yet.
const PlaceholderNameFormat = "Документ %d"

// GroupedDocument is one owner's ballot assembled from one or more pages.
type GroupedDocument struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Pages      []Page       `json:"pages"`
	Record     BallotRecord `json:"data"`
	IsVerified bool         `json:"is_verified"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// DisplayName derives the list label from the record, falling back to the
// document's position.
func DisplayName(r BallotRecord, position int) string {
	if name, ok := r.ShortName(); ok {
		return name
	}
	return fmt.Sprintf(PlaceholderNameFormat, position)
}

// HasPage reports whether a page with the given identity is already attached.
func (d *GroupedDocument) HasPage(pageID string) bool {
	for i := range d.Pages {
		if d.Pages[i].ID == pageID {
			return true
		}
	}
	return false
}
