package grouping

import "github.com/joseph-ayodele/ballot-registry/internal/entity"

// MatchKind says which signal attached a page or a document to an existing document.
type MatchKind string

const (
	MatchNone       MatchKind = ""
	MatchNationalID MatchKind = "national_id"
	MatchFullName   MatchKind = "full_name"
	MatchDocumentID MatchKind = "document_id" // consolidation only
	MatchSharedPage MatchKind = "shared_page" // consolidation only
)

// FindIdentityMatch scans docs in creation order. A national ID match on any
// document beats a full name match on an earlier one. Only readable values
// take part: two illegible IDs are not a match.
func FindIdentityMatch(docs []*entity.GroupedDocument, fields entity.BallotRecord) (*entity.GroupedDocument, MatchKind) {
	if id, ok := fields.NationalID(); ok {
		for _, d := range docs {
			if other, ok := d.Record.NationalID(); ok && other == id {
				return d, MatchNationalID
			}
		}
	}
	if name, ok := fields.FullName(); ok {
		for _, d := range docs {
			if other, ok := d.Record.FullName(); ok && other == name {
				return d, MatchFullName
			}
		}
	}
	return nil, MatchNone
}
