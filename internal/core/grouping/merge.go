package grouping

import (
	"unicode/utf8"

	"github.com/joseph-ayodele/ballot-registry/constants"
	"github.com/joseph-ayodele/ballot-registry/internal/entity"
)

// Merge folds incoming into target and returns the result. Neither argument
// is modified and the result shares no maps with either of them.
//
// Scalars: the first readable value wins; an illegible value is replaced by a
// later readable one but never by absence. Votes: incoming overwrites per
// question. Question texts: the longer transcription wins, ties keep target.
func Merge(target, incoming entity.BallotRecord) entity.BallotRecord {
	out := target.Clone()
	for _, name := range entity.ScalarFields {
		f := out.FieldRef(name)
		*f = mergeField(*f, incoming.Get(name))
	}

	if len(incoming.Votes) > 0 {
		if out.Votes == nil {
			out.Votes = make(map[string]constants.Vote, len(incoming.Votes))
		}
		for q, v := range incoming.Votes {
			out.Votes[q] = v
		}
	}

	for q, text := range incoming.QuestionTexts {
		if text == "" {
			continue
		}
		if existing, ok := out.QuestionTexts[q]; ok && utf8.RuneCountInString(text) <= utf8.RuneCountInString(existing) {
			continue
		}
		if out.QuestionTexts == nil {
			out.QuestionTexts = make(map[string]string, len(incoming.QuestionTexts))
		}
		out.QuestionTexts[q] = text
	}
	return out
}

func mergeField(target, incoming entity.Field) entity.Field {
	switch {
	case target.IsAbsent():
		return incoming
	case target.IsIllegible() && incoming.IsPresent():
		return incoming
	default:
		return target
	}
}

// mergeChanges lists the scalar fields whose value differs between before and after.
func mergeChanges(before, after entity.BallotRecord) []string {
	var changed []string
	for _, name := range entity.ScalarFields {
		if before.Get(name) != after.Get(name) {
			changed = append(changed, string(name))
		}
	}
	return changed
}
