package llm

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/ballot-registry/constants"
	"github.com/joseph-ayodele/ballot-registry/internal/common"
	"github.com/joseph-ayodele/ballot-registry/internal/entity"
)

type stubExtractor struct {
	result PageResult
	err    error
	got    PageRequest
}

func (s *stubExtractor) ExtractPage(_ context.Context, req PageRequest) (PageResult, []byte, error) {
	s.got = req
	return s.result, nil, s.err
}

func testPage() entity.Page {
	return entity.Page{ID: "a.pdf#2", SourceFile: "a.pdf", PageNumber: 2, MimeType: "image/jpeg", Image: []byte{1, 2, 3}}
}

func TestOracleConvertsResult(t *testing.T) {
	stub := &stubExtractor{result: PageResult{
		IsStartPage: true,
		Data: PageFields{
			LastName:      "Орлова",
			Snils:         "ERROR",
			QuestionTexts: map[string]string{"1": "Вопрос", "2": ""},
			Votes:         map[string]string{"1": "FOR", "2": "bogus"},
		},
	}}
	oracle := NewOracle(stub, common.ProviderGoogle, quietLogger())

	ext, err := oracle.ExtractPage(context.Background(), testPage())
	require.NoError(t, err)

	assert.Equal(t, "a.pdf#2", stub.got.PageID)
	assert.Equal(t, 2, stub.got.PageNumber)
	assert.True(t, ext.IsStartPage)
	assert.Equal(t, "Орлова", ext.Fields.LastName.String())
	assert.True(t, ext.Fields.Snils.IsIllegible())
	assert.True(t, ext.Fields.FirstName.IsAbsent())
	assert.Equal(t, map[string]string{"1": "Вопрос"}, ext.Fields.QuestionTexts)
	assert.Equal(t, map[string]constants.Vote{"1": constants.VoteFor}, ext.Fields.Votes)
}

func TestOracleClassifiesUnauthorized(t *testing.T) {
	stub := &stubExtractor{err: &HTTPError{Status: http.StatusForbidden}}
	oracle := NewOracle(stub, common.ProviderOpenRouter, quietLogger())

	_, err := oracle.ExtractPage(context.Background(), testPage())
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrAuthorizationExpired))
}

func TestOraclePassesOtherErrors(t *testing.T) {
	stub := &stubExtractor{err: &HTTPError{Status: http.StatusBadRequest}}
	oracle := NewOracle(stub, common.ProviderOpenRouter, quietLogger())

	_, err := oracle.ExtractPage(context.Background(), testPage())
	require.Error(t, err)
	assert.False(t, errors.Is(err, common.ErrAuthorizationExpired))
}

func TestOracleRejectsEmptyImage(t *testing.T) {
	stub := &stubExtractor{}
	oracle := NewOracle(stub, common.ProviderOpenAI, quietLogger())

	page := testPage()
	page.Image = nil
	_, err := oracle.ExtractPage(context.Background(), page)
	require.Error(t, err)
	assert.Empty(t, stub.got.PageID)
}

func TestDataURL(t *testing.T) {
	assert.Equal(t, "data:image/png;base64,AQID", DataURL(PageRequest{SourceFile: "scan.png", Image: []byte{1, 2, 3}}))
	assert.Equal(t, "data:image/jpeg;base64,AQID", DataURL(PageRequest{SourceFile: "scan.pdf", Image: []byte{1, 2, 3}}))
}
