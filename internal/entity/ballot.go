package entity

import (
	"strings"
	"unicode/utf8"

	"github.com/joseph-ayodele/ballot-registry/constants"
)

// FieldName is the wire key of a scalar ballot field.
type FieldName string

const (
	FieldLastName       FieldName = "lastName"
	FieldFirstName      FieldName = "firstName"
	FieldMiddleName     FieldName = "middleName"
	FieldSnils          FieldName = "snils"
	FieldAddress        FieldName = "address"
	FieldRoomNo         FieldName = "roomNo"
	FieldArea           FieldName = "area"
	FieldOwnershipShare FieldName = "ownershipShare"
	FieldOwnershipType  FieldName = "ownershipType"
	FieldRegNumber      FieldName = "regNumber"
	FieldRegDate        FieldName = "regDate"
	FieldMeetingDate    FieldName = "meetingDate"
)

// ScalarFields lists every scalar field in registry column order.
var ScalarFields = []FieldName{
	FieldAddress,
	FieldLastName,
	FieldFirstName,
	FieldMiddleName,
	FieldSnils,
	FieldRoomNo,
	FieldArea,
	FieldOwnershipShare,
	FieldOwnershipType,
	FieldRegNumber,
	FieldRegDate,
	FieldMeetingDate,
}

// BallotRecord accumulates what is known about one owner's ballot.
type BallotRecord struct {
	LastName       Field `json:"lastName,omitzero"`
	FirstName      Field `json:"firstName,omitzero"`
	MiddleName     Field `json:"middleName,omitzero"`
	Snils          Field `json:"snils,omitzero"` // national ID
	Address        Field `json:"address,omitzero"`
	RoomNo         Field `json:"roomNo,omitzero"`
	Area           Field `json:"area,omitzero"`
	OwnershipShare Field `json:"ownershipShare,omitzero"`
	OwnershipType  Field `json:"ownershipType,omitzero"`
	RegNumber      Field `json:"regNumber,omitzero"`
	RegDate        Field `json:"regDate,omitzero"`
	MeetingDate    Field `json:"meetingDate,omitzero"`

	QuestionTexts map[string]string         `json:"questionTexts,omitempty"`
	Votes         map[string]constants.Vote `json:"votes,omitempty"`
}

// FieldRef returns a pointer to the named scalar, or nil for an unknown name.
func (r *BallotRecord) FieldRef(name FieldName) *Field {
	switch name {
	case FieldLastName:
		return &r.LastName
	case FieldFirstName:
		return &r.FirstName
	case FieldMiddleName:
		return &r.MiddleName
	case FieldSnils:
		return &r.Snils
	case FieldAddress:
		return &r.Address
	case FieldRoomNo:
		return &r.RoomNo
	case FieldArea:
		return &r.Area
	case FieldOwnershipShare:
		return &r.OwnershipShare
	case FieldOwnershipType:
		return &r.OwnershipType
	case FieldRegNumber:
		return &r.RegNumber
	case FieldRegDate:
		return &r.RegDate
	case FieldMeetingDate:
		return &r.MeetingDate
	default:
		return nil
	}
}

// Get returns the named scalar; unknown names read as absent.
func (r BallotRecord) Get(name FieldName) Field {
	if f := r.FieldRef(name); f != nil {
		return *f
	}
	return Field{}
}

// Clone copies the record so that no map is shared with r.
func (r BallotRecord) Clone() BallotRecord {
	out := r
	out.QuestionTexts = nil
	out.Votes = nil
	if len(r.QuestionTexts) > 0 {
		out.QuestionTexts = make(map[string]string, len(r.QuestionTexts))
		for k, v := range r.QuestionTexts {
			out.QuestionTexts[k] = v
		}
	}
	if len(r.Votes) > 0 {
		out.Votes = make(map[string]constants.Vote, len(r.Votes))
		for k, v := range r.Votes {
			out.Votes[k] = v
		}
	}
	return out
}

// IsEmpty reports whether nothing at all was observed.
func (r BallotRecord) IsEmpty() bool {
	for _, name := range ScalarFields {
		if !r.Get(name).IsAbsent() {
			return false
		}
	}
	return len(r.QuestionTexts) == 0 && len(r.Votes) == 0
}

// NationalID returns the SNILS when it was actually read.
func (r BallotRecord) NationalID() (string, bool) {
	return r.Snils.Get()
}

// FullName joins last, first and middle name with one space each, a missing
// part kept as an empty slot, so "Иванов Пётр" (first name) and
// "Иванов  Пётр" (patronymic) stay distinct. An illegible part makes the
// whole name unusable for identity purposes.
func (r BallotRecord) FullName() (string, bool) {
	parts := make([]string, 3)
	for i, f := range []Field{r.LastName, r.FirstName, r.MiddleName} {
		if f.IsIllegible() {
			return "", false
		}
		parts[i], _ = f.Get()
	}
	name := strings.TrimSpace(strings.Join(parts, " "))
	return name, name != ""
}

// ShortName renders "Фамилия И.О." from whatever parts are readable.
func (r BallotRecord) ShortName() (string, bool) {
	last, ok := r.LastName.Get()
	if !ok {
		return "", false
	}
	return last + " " + initial(r.FirstName) + "." + initial(r.MiddleName) + ".", true
}

func initial(f Field) string {
	v, ok := f.Get()
	if !ok {
		return ""
	}
	r, _ := utf8.DecodeRuneInString(v)
	if r == utf8.RuneError {
		return ""
	}
	return string(r)
}
