package grouping

import (
	"github.com/joseph-ayodele/ballot-registry/internal/entity"
)

// Consolidation records how one incoming document was folded into a set.
type Consolidation struct {
	IncomingID string
	TargetID   string
	Match      MatchKind // MatchNone when the document was appended as new
	AddedPages int
}

// Consolidate folds the documents of a finished run into an existing set
// using the same identity rule and merge as page grouping. existing is not
// modified; documents that receive pages are copied first.
//
// Targets are tried in order: the document with the same ID, the document
// already holding one of the incoming pages, then the identity match. A page
// held by any document in the set is never attached again, so consolidating
// the same files twice leaves the set unchanged even when the second run
// minted new document IDs.
func Consolidate(existing, incoming []*entity.GroupedDocument) ([]*entity.GroupedDocument, []Consolidation) {
	out := make([]*entity.GroupedDocument, len(existing), len(existing)+len(incoming))
	copy(out, existing)
	copied := make(map[*entity.GroupedDocument]bool, len(incoming))
	report := make([]Consolidation, 0, len(incoming))

	for _, doc := range incoming {
		target, match := findByID(out, doc.ID)
		if target == nil {
			target, match = findBySharedPage(out, doc.Pages)
		}
		if target == nil {
			target, match = FindIdentityMatch(out, doc.Record)
		}
		if target == nil {
			fresh := cloneDocument(doc)
			fresh.Pages = fresh.Pages[:0]
			for _, p := range doc.Pages {
				if !fresh.HasPage(p.ID) && heldBy(out, p.ID) == nil {
					fresh.Pages = append(fresh.Pages, p)
				}
			}
			out = append(out, fresh)
			copied[fresh] = true
			report = append(report, Consolidation{
				IncomingID: doc.ID,
				TargetID:   fresh.ID,
				AddedPages: len(fresh.Pages),
			})
			continue
		}

		if !copied[target] {
			dup := cloneDocument(target)
			for i := range out {
				if out[i] == target {
					out[i] = dup
				}
			}
			target = dup
			copied[dup] = true
		}

		added := 0
		for _, p := range doc.Pages {
			if heldBy(out, p.ID) != nil {
				continue
			}
			target.Pages = append(target.Pages, p)
			added++
		}
		hadLastName := target.Record.LastName.IsPresent()
		target.Record = Merge(target.Record, doc.Record)
		if !hadLastName && target.Record.LastName.IsPresent() {
			target.Name = entity.DisplayName(target.Record, documentPosition(out, target))
		}
		if doc.UpdatedAt.After(target.UpdatedAt) {
			target.UpdatedAt = doc.UpdatedAt
		}
		report = append(report, Consolidation{
			IncomingID: doc.ID,
			TargetID:   target.ID,
			Match:      match,
			AddedPages: added,
		})
	}
	return out, report
}

func findByID(docs []*entity.GroupedDocument, id string) (*entity.GroupedDocument, MatchKind) {
	for _, d := range docs {
		if d.ID == id {
			return d, MatchDocumentID
		}
	}
	return nil, MatchNone
}

func findBySharedPage(docs []*entity.GroupedDocument, pages []entity.Page) (*entity.GroupedDocument, MatchKind) {
	for _, p := range pages {
		if d := heldBy(docs, p.ID); d != nil {
			return d, MatchSharedPage
		}
	}
	return nil, MatchNone
}

func heldBy(docs []*entity.GroupedDocument, pageID string) *entity.GroupedDocument {
	for _, d := range docs {
		if d.HasPage(pageID) {
			return d
		}
	}
	return nil
}

func cloneDocument(d *entity.GroupedDocument) *entity.GroupedDocument {
	c := *d
	c.Pages = make([]entity.Page, len(d.Pages))
	copy(c.Pages, d.Pages)
	c.Record = d.Record.Clone()
	return &c
}
