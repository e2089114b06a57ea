package entity

import "fmt"

// Page is one rendered page of a source file. It is never modified after
// it has been assigned to a document.
type Page struct {
	ID         string `json:"id"`
	SourceFile string `json:"source_file"`
	PageNumber int    `json:"page_number"` // 1-based, physical order
	MimeType   string `json:"mime_type"`
	Image      []byte `json:"-"`

	Extraction *PageExtraction `json:"extraction,omitempty"`
}

// PageID builds the identity of a page from the sha256 of its source file's
// bytes and its page number. The same bytes read from any path give the same
// IDs; two different files that share a name do not.
func PageID(sourceDigest string, pageNumber int) string {
	return fmt.Sprintf("%s#%d", sourceDigest, pageNumber)
}

// PageExtraction is what the field extraction oracle said about a page.
type PageExtraction struct {
	IsStartPage bool         `json:"isStartPage"`
	Fields      BallotRecord `json:"data"`
	Failed      bool         `json:"failed,omitempty"` // oracle failed and an empty result was used
}
