package grouping

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/ballot-registry/internal/entity"
)

func doc(id string, r entity.BallotRecord, pages ...string) *entity.GroupedDocument {
	d := &entity.GroupedDocument{ID: id, Name: entity.DisplayName(r, 1), Record: r}
	for _, p := range pages {
		d.Pages = append(d.Pages, entity.Page{ID: p})
	}
	return d
}

func TestConsolidateAppendsUnmatched(t *testing.T) {
	existing := []*entity.GroupedDocument{doc("d1", entity.BallotRecord{Snils: entity.Value("11111111111")}, "a#1")}
	incoming := []*entity.GroupedDocument{doc("d2", entity.BallotRecord{Snils: entity.Value("22222222222")}, "b#1")}

	out, report := Consolidate(existing, incoming)
	require.Len(t, out, 2)
	require.Len(t, report, 1)
	assert.Equal(t, MatchNone, report[0].Match)
	assert.Equal(t, 1, report[0].AddedPages)
	assert.NotSame(t, incoming[0], out[1])
}

func TestConsolidateMergesByIdentity(t *testing.T) {
	existing := []*entity.GroupedDocument{doc("d1", entity.BallotRecord{
		Snils:  entity.Value("11111111111"),
		RoomNo: entity.Illegible(),
	}, "a#1")}
	incoming := []*entity.GroupedDocument{doc("d9", entity.BallotRecord{
		LastName: entity.Value("Зайцев"),
		Snils:    entity.Value("11111111111"),
		RoomNo:   entity.Value("44"),
	}, "b#1", "b#2")}
	incoming[0].UpdatedAt = time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)

	out, report := Consolidate(existing, incoming)
	require.Len(t, out, 1)
	assert.Equal(t, MatchNationalID, report[0].Match)
	assert.Equal(t, "d1", report[0].TargetID)
	assert.Equal(t, 2, report[0].AddedPages)

	merged := out[0]
	assert.Equal(t, []string{"a#1", "b#1", "b#2"}, pageIDs(merged))
	assert.Equal(t, "44", merged.Record.RoomNo.String())
	assert.Equal(t, "Зайцев ..", merged.Name)
	assert.Equal(t, incoming[0].UpdatedAt, merged.UpdatedAt)

	// The caller's set is untouched.
	assert.NotSame(t, existing[0], merged)
	assert.Len(t, existing[0].Pages, 1)
	assert.True(t, existing[0].Record.RoomNo.IsIllegible())
}

func TestConsolidateIsIdempotent(t *testing.T) {
	run := []*entity.GroupedDocument{
		doc("d1", entity.BallotRecord{LastName: entity.Value("Белов"), FirstName: entity.Value("Ян")}, "a#1", "a#2"),
		doc("d2", entity.BallotRecord{RoomNo: entity.Value("3")}, "a#3"),
	}

	once, _ := Consolidate(nil, run)
	twice, report := Consolidate(once, run)

	require.Len(t, twice, 2)
	for _, r := range report {
		assert.Equal(t, MatchDocumentID, r.Match)
		assert.Zero(t, r.AddedPages)
	}
	assert.Equal(t, pageIDs(once[0]), pageIDs(twice[0]))
	assert.Equal(t, pageIDs(once[1]), pageIDs(twice[1]))
	assert.Equal(t, once[0].Record, twice[0].Record)
}

func TestConsolidateWithinIncoming(t *testing.T) {
	incoming := []*entity.GroupedDocument{
		doc("d1", entity.BallotRecord{LastName: entity.Value("Котов"), FirstName: entity.Value("Лев")}, "a#1"),
		doc("d2", entity.BallotRecord{LastName: entity.Value("Котов"), FirstName: entity.Value("Лев"), Area: entity.Value("30")}, "b#1"),
	}

	out, report := Consolidate(nil, incoming)
	require.Len(t, out, 1)
	assert.Equal(t, MatchFullName, report[1].Match)
	assert.Equal(t, []string{"a#1", "b#1"}, pageIDs(out[0]))
	assert.Equal(t, "30", out[0].Record.Area.String())
	assert.Len(t, incoming[0].Pages, 1)
}

func TestConsolidateSameFilesWithFreshIDs(t *testing.T) {
	first := []*entity.GroupedDocument{doc("u1", entity.BallotRecord{RoomNo: entity.Value("3")}, "h#1")}
	second := []*entity.GroupedDocument{doc("u2", entity.BallotRecord{RoomNo: entity.Value("3")}, "h#1")}

	once, _ := Consolidate(nil, first)
	twice, report := Consolidate(once, second)

	require.Len(t, twice, 1)
	assert.Equal(t, MatchSharedPage, report[0].Match)
	assert.Equal(t, "u1", report[0].TargetID)
	assert.Zero(t, report[0].AddedPages)
	assert.Equal(t, []string{"h#1"}, pageIDs(twice[0]))
}

func TestConsolidateAttachesEachPageOnce(t *testing.T) {
	existing := []*entity.GroupedDocument{
		doc("d1", entity.BallotRecord{Snils: entity.Value("11111111111")}, "a#1"),
		doc("d2", entity.BallotRecord{Snils: entity.Value("22222222222")}, "b#1"),
	}
	incoming := []*entity.GroupedDocument{
		doc("x1", entity.BallotRecord{Snils: entity.Value("22222222222")}, "c#1", "a#1"),
		doc("x2", entity.BallotRecord{Snils: entity.Value("33333333333")}, "e#1", "e#1"),
	}

	out, report := Consolidate(existing, incoming)
	require.Len(t, out, 3)

	// a#1 already belongs to d1, which wins over the identity match on d2
	assert.Equal(t, MatchSharedPage, report[0].Match)
	assert.Equal(t, "d1", report[0].TargetID)
	assert.Equal(t, []string{"a#1", "c#1"}, pageIDs(out[0]))
	assert.Equal(t, []string{"b#1"}, pageIDs(out[1]))

	assert.Equal(t, MatchNone, report[1].Match)
	assert.Equal(t, 1, report[1].AddedPages)
	assert.Equal(t, []string{"e#1"}, pageIDs(out[2]))
}
