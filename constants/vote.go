package constants

import (
	"strings"
)

// ErrorSentinel marks a field the model saw but could not read.
const ErrorSentinel = "ERROR"

// localizedErrorSentinel is what the model tends to answer when prompted in Russian.
const localizedErrorSentinel = "ОШИБКА"

// IsErrorSentinel reports whether s is one of the spellings of the illegible marker.
func IsErrorSentinel(s string) bool {
	s = strings.TrimSpace(s)
	return strings.EqualFold(s, ErrorSentinel) || strings.EqualFold(s, localizedErrorSentinel)
}

type Vote string

const (
	VoteFor        Vote = "FOR"
	VoteAgainst    Vote = "AGAINST"
	VoteAbstain    Vote = "ABSTAIN"
	VoteDidNotVote Vote = "DID_NOT_VOTE"
)

var allVotes = []Vote{
	VoteFor,
	VoteAgainst,
	VoteAbstain,
	VoteDidNotVote,
}

var voteLabels = map[Vote]string{
	VoteFor:        "ЗА",
	VoteAgainst:    "ПРОТИВ",
	VoteAbstain:    "ВОЗДЕРЖАЛСЯ",
	VoteDidNotVote: "НЕ ГОЛОСОВАЛ",
}

// Label is the printed ballot wording, used by exports.
func (v Vote) Label() string {
	if l, ok := voteLabels[v]; ok {
		return l
	}
	return string(v)
}

func AllVotes() []Vote {
	out := make([]Vote, len(allVotes))
	copy(out, allVotes)
	return out
}

func VoteStrings() []string {
	result := make([]string, len(allVotes))
	for i, v := range allVotes {
		result[i] = string(v)
	}
	return result
}

// CanonicalizeVote maps whatever the model wrote in a vote cell onto a Vote.
func CanonicalizeVote(input string) (Vote, bool) {
	if input == "" {
		return "", false
	}

	normalized := strings.ToLower(strings.Join(strings.Fields(input), " "))

	// synonyms map
	synonyms := map[string]Vote{
		"за":            VoteFor,
		"for":           VoteFor,
		"против":        VoteAgainst,
		"against":       VoteAgainst,
		"воздержался":   VoteAbstain,
		"воздержалась":  VoteAbstain,
		"abstain":       VoteAbstain,
		"abstained":     VoteAbstain,
		"не голосовал":  VoteDidNotVote,
		"не голосовала": VoteDidNotVote,
		"did not vote":  VoteDidNotVote,
		"did_not_vote":  VoteDidNotVote,
	}

	if v, ok := synonyms[normalized]; ok {
		return v, true
	}

	for _, v := range allVotes {
		if normalized == strings.ToLower(string(v)) {
			return v, true
		}
	}

	return "", false
}
