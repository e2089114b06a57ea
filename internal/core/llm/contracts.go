package llm

import (
	"context"

	"github.com/joseph-ayodele/ballot-registry/constants"
	"github.com/joseph-ayodele/ballot-registry/internal/entity"
)

// PageFields is the shape we want from the model for one page. Every scalar
// is a string: "" means not on this page, ERROR means unreadable.
type PageFields struct {
	Address        string `json:"address,omitempty"`
	LastName       string `json:"lastName,omitempty"`
	FirstName      string `json:"firstName,omitempty"`
	MiddleName     string `json:"middleName,omitempty"`
	Snils          string `json:"snils,omitempty"` // 11 digits after sanitizing
	RoomNo         string `json:"roomNo,omitempty"`
	Area           string `json:"area,omitempty"`
	OwnershipShare string `json:"ownershipShare,omitempty"`
	OwnershipType  string `json:"ownershipType,omitempty"`
	RegNumber      string `json:"regNumber,omitempty"`
	RegDate        string `json:"regDate,omitempty"`
	MeetingDate    string `json:"meetingDate,omitempty"`

	QuestionTexts map[string]string `json:"questionTexts,omitempty"`
	Votes         map[string]string `json:"votes,omitempty"` // canonical vote codes
}

// PageResult is the full model answer for a page.
type PageResult struct {
	IsStartPage bool       `json:"isStartPage"`
	Data        PageFields `json:"data"`
}

type PageRequest struct {
	PageID     string
	SourceFile string
	PageNumber int
	MimeType   string
	Image      []byte
}

// PageExtractor is the interface the grouping oracle depends on.
type PageExtractor interface {
	ExtractPage(ctx context.Context, req PageRequest) (PageResult, []byte /*rawJSON*/, error)
}

// ToExtraction converts the wire answer into the typed record.
func (r PageResult) ToExtraction() entity.PageExtraction {
	d := r.Data
	rec := entity.BallotRecord{
		Address:        entity.ParseField(d.Address),
		LastName:       entity.ParseField(d.LastName),
		FirstName:      entity.ParseField(d.FirstName),
		MiddleName:     entity.ParseField(d.MiddleName),
		Snils:          entity.ParseField(d.Snils),
		RoomNo:         entity.ParseField(d.RoomNo),
		Area:           entity.ParseField(d.Area),
		OwnershipShare: entity.ParseField(d.OwnershipShare),
		OwnershipType:  entity.ParseField(d.OwnershipType),
		RegNumber:      entity.ParseField(d.RegNumber),
		RegDate:        entity.ParseField(d.RegDate),
		MeetingDate:    entity.ParseField(d.MeetingDate),
	}
	for q, text := range d.QuestionTexts {
		if text == "" {
			continue
		}
		if rec.QuestionTexts == nil {
			rec.QuestionTexts = make(map[string]string, len(d.QuestionTexts))
		}
		rec.QuestionTexts[q] = text
	}
	for q, raw := range d.Votes {
		v, ok := constants.CanonicalizeVote(raw)
		if !ok {
			continue
		}
		if rec.Votes == nil {
			rec.Votes = make(map[string]constants.Vote, len(d.Votes))
		}
		rec.Votes[q] = v
	}
	return entity.PageExtraction{IsStartPage: r.IsStartPage, Fields: rec}
}
