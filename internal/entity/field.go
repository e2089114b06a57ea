package entity

import (
	"encoding/json"
	"strings"

	"github.com/joseph-ayodele/ballot-registry/constants"
)

// FieldState tells apart a field that was never seen from one the model
// saw but could not read.
type FieldState uint8

const (
	FieldAbsent FieldState = iota
	FieldIllegible
	FieldPresent
)

func (s FieldState) String() string {
	switch s {
	case FieldIllegible:
		return "illegible"
	case FieldPresent:
		return "present"
	default:
		return "absent"
	}
}

// Field is one scalar ballot value. The zero value is absent.
type Field struct {
	state FieldState
	value string
}

func Absent() Field { return Field{} }

func Illegible() Field { return Field{state: FieldIllegible} }

// Value builds a present field; blank input is absent and the error marker is illegible.
func Value(s string) Field {
	return ParseField(s)
}

// ParseField reads the wire form: "" is absent, ERROR (or ОШИБКА) is illegible.
func ParseField(raw string) Field {
	s := strings.TrimSpace(raw)
	switch {
	case s == "":
		return Field{}
	case constants.IsErrorSentinel(s):
		return Field{state: FieldIllegible}
	default:
		return Field{state: FieldPresent, value: s}
	}
}

func (f Field) State() FieldState { return f.state }
func (f Field) IsAbsent() bool    { return f.state == FieldAbsent }
func (f Field) IsIllegible() bool { return f.state == FieldIllegible }
func (f Field) IsPresent() bool   { return f.state == FieldPresent }

// Get returns the readable value, if any.
func (f Field) Get() (string, bool) {
	if f.state != FieldPresent {
		return "", false
	}
	return f.value, true
}

// String renders the wire form.
func (f Field) String() string {
	switch f.state {
	case FieldPresent:
		return f.value
	case FieldIllegible:
		return constants.ErrorSentinel
	default:
		return ""
	}
}

// Or renders the field, substituting fallback when it is absent.
func (f Field) Or(fallback string) string {
	if f.IsAbsent() {
		return fallback
	}
	return f.String()
}

func (f Field) IsZero() bool { return f.state == FieldAbsent }

func (f Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.String())
}

func (f *Field) UnmarshalJSON(b []byte) error {
	var s *string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == nil {
		*f = Field{}
		return nil
	}
	*f = ParseField(*s)
	return nil
}
