package grouping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/ballot-registry/constants"
	"github.com/joseph-ayodele/ballot-registry/internal/entity"
)

func TestMergeScalars(t *testing.T) {
	t.Run("first readable value wins", func(t *testing.T) {
		a := entity.BallotRecord{LastName: entity.Value("Иванов")}
		b := entity.BallotRecord{LastName: entity.Value("Петров")}

		out := Merge(a, b)
		assert.Equal(t, "Иванов", out.LastName.String())
	})

	t.Run("absent target takes incoming", func(t *testing.T) {
		a := entity.BallotRecord{}
		b := entity.BallotRecord{RoomNo: entity.Value("12")}

		out := Merge(a, b)
		assert.Equal(t, "12", out.RoomNo.String())
	})

	t.Run("illegible is replaced by a readable value", func(t *testing.T) {
		a := entity.BallotRecord{Snils: entity.Illegible()}
		b := entity.BallotRecord{Snils: entity.Value("12345678901")}

		out := Merge(a, b)
		assert.Equal(t, "12345678901", out.Snils.String())
	})

	t.Run("illegible is never replaced by absence", func(t *testing.T) {
		a := entity.BallotRecord{Snils: entity.Illegible()}

		out := Merge(a, entity.BallotRecord{})
		assert.True(t, out.Snils.IsIllegible())
	})

	t.Run("illegible incoming does not overwrite a value", func(t *testing.T) {
		a := entity.BallotRecord{Area: entity.Value("54.2")}
		b := entity.BallotRecord{Area: entity.Illegible()}

		out := Merge(a, b)
		assert.Equal(t, "54.2", out.Area.String())
	})

	t.Run("absent target takes illegible", func(t *testing.T) {
		out := Merge(entity.BallotRecord{}, entity.BallotRecord{Area: entity.Illegible()})
		assert.True(t, out.Area.IsIllegible())
	})
}

func TestMergeVotesLastWriteWins(t *testing.T) {
	a := entity.BallotRecord{Votes: map[string]constants.Vote{"1": constants.VoteFor, "2": constants.VoteFor}}
	b := entity.BallotRecord{Votes: map[string]constants.Vote{"2": constants.VoteAgainst, "3": constants.VoteAbstain}}

	out := Merge(a, b)
	assert.Equal(t, map[string]constants.Vote{
		"1": constants.VoteFor,
		"2": constants.VoteAgainst,
		"3": constants.VoteAbstain,
	}, out.Votes)
}

func TestMergeQuestionTexts(t *testing.T) {
	t.Run("longer text wins", func(t *testing.T) {
		a := entity.BallotRecord{QuestionTexts: map[string]string{"1": "Выбор председателя"}}
		b := entity.BallotRecord{QuestionTexts: map[string]string{"1": "Выбор председателя общего собрания"}}

		assert.Equal(t, "Выбор председателя общего собрания", Merge(a, b).QuestionTexts["1"])
		assert.Equal(t, "Выбор председателя общего собрания", Merge(b, a).QuestionTexts["1"])
	})

	t.Run("length is counted in characters", func(t *testing.T) {
		// 4 Cyrillic runes are 8 bytes, 6 ASCII runes are 6 bytes.
		a := entity.BallotRecord{QuestionTexts: map[string]string{"1": "Тема"}}
		b := entity.BallotRecord{QuestionTexts: map[string]string{"1": "topics"}}

		assert.Equal(t, "topics", Merge(a, b).QuestionTexts["1"])
	})

	t.Run("tie keeps the existing text", func(t *testing.T) {
		a := entity.BallotRecord{QuestionTexts: map[string]string{"1": "abc"}}
		b := entity.BallotRecord{QuestionTexts: map[string]string{"1": "xyz"}}

		assert.Equal(t, "abc", Merge(a, b).QuestionTexts["1"])
	})

	t.Run("empty incoming text is ignored", func(t *testing.T) {
		out := Merge(entity.BallotRecord{}, entity.BallotRecord{QuestionTexts: map[string]string{"1": ""}})
		assert.Empty(t, out.QuestionTexts)
	})
}

func TestMergeIsIdempotent(t *testing.T) {
	r := entity.BallotRecord{
		LastName:      entity.Value("Иванов"),
		Snils:         entity.Illegible(),
		QuestionTexts: map[string]string{"1": "Вопрос"},
		Votes:         map[string]constants.Vote{"1": constants.VoteFor},
	}

	assert.Equal(t, r, Merge(r, r))
}

func TestMergeDoesNotAlias(t *testing.T) {
	a := entity.BallotRecord{Votes: map[string]constants.Vote{"1": constants.VoteFor}}
	b := entity.BallotRecord{
		Votes:         map[string]constants.Vote{"2": constants.VoteAgainst},
		QuestionTexts: map[string]string{"2": "Вопрос"},
	}

	out := Merge(a, b)
	out.Votes["1"] = constants.VoteAbstain
	out.QuestionTexts["2"] = "changed"

	require.Len(t, a.Votes, 1)
	assert.Equal(t, constants.VoteFor, a.Votes["1"])
	assert.Nil(t, a.QuestionTexts)
	assert.Equal(t, "Вопрос", b.QuestionTexts["2"])
}

func TestMergeChanges(t *testing.T) {
	before := entity.BallotRecord{LastName: entity.Value("Иванов"), Snils: entity.Illegible()}
	after := Merge(before, entity.BallotRecord{Snils: entity.Value("12345678901"), RoomNo: entity.Value("7")})

	assert.ElementsMatch(t, []string{"snils", "roomNo"}, mergeChanges(before, after))
}
