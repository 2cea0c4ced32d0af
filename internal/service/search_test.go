package service

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/TranscriptSearch/internal/domain"
	"github.com/utafrali/TranscriptSearch/internal/engine/memory"
	apperrors "github.com/utafrali/TranscriptSearch/pkg/errors"
	"github.com/utafrali/TranscriptSearch/pkg/logger"
)

func str(s string) *string { return &s }

func newTestService(t *testing.T) (*SearchService, *memory.Engine) {
	t.Helper()
	eng := memory.New()
	svc := NewSearchService(eng, eng, domain.DefaultStaticConfig(), logger.Discard())

	_, err := svc.BulkIndex(context.Background(), []TranscriptionInput{
		{ID: "c1", GeneratedText: "hello there", Age: str("twenties"), Gender: str("female")},
		{ID: "c2", GeneratedText: "hello world", Age: str("thirties"), Gender: str("male")},
		{ID: "c3", GeneratedText: "good morning", Age: str("twenties"), Gender: str("male")},
	})
	require.NoError(t, err)
	return svc, eng
}

type malformedTransport struct{}

func (malformedTransport) Search(context.Context, *domain.SearchRequest) (*domain.RawResponse, error) {
	return &domain.RawResponse{}, nil
}

func TestSearchService_Search(t *testing.T) {
	svc, _ := newTestService(t)
	state := svc.NewQueryState()
	state.SetTerm("hello")
	require.NoError(t, state.ToggleFacetValue("gender", "male"))

	res, err := svc.Search(context.Background(), state)
	require.NoError(t, err)

	require.Len(t, res.Results, 1)
	assert.Equal(t, "c2", res.Results[0].ID)
	assert.Equal(t, domain.PagingInfo{CurrentPage: 1, TotalPages: 1, TotalResults: 1, PageSize: 10}, res.Paging)
	require.Len(t, res.Facets, 3)
	assert.Equal(t, "gender", res.Facets[1].Name)
	assert.True(t, res.Facets[1].Values[0].Selected)
	assert.Empty(t, res.Error)
}

func TestSearchService_Search_MatchAll(t *testing.T) {
	svc, _ := newTestService(t)

	res, err := svc.Search(context.Background(), svc.NewQueryState())
	require.NoError(t, err)
	assert.Equal(t, 3, res.Paging.TotalResults)
	assert.Equal(t, []domain.FacetValue{{Value: "twenties", Count: 2}, {Value: "thirties", Count: 1}}, res.Facets[0].Values)
}

func TestSearchService_Search_TransportFailure(t *testing.T) {
	svc, eng := newTestService(t)
	eng.FailWith = errors.New("connection refused")
	before := testutil.ToFloat64(searchRequests.WithLabelValues("search", "error"))

	_, err := svc.Search(context.Background(), svc.NewQueryState())

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "SEARCH_FAILED", appErr.Code)
	assert.Equal(t, 502, apperrors.HTTPStatus(err))
	assert.Equal(t, before+1, testutil.ToFloat64(searchRequests.WithLabelValues("search", "error")))
}

func TestSearchService_Search_Malformed(t *testing.T) {
	eng := memory.New()
	svc := NewSearchService(malformedTransport{}, eng, domain.DefaultStaticConfig(), logger.Discard())

	res, err := svc.Search(context.Background(), svc.NewQueryState())
	require.NoError(t, err)
	assert.Empty(t, res.Results)
	assert.Contains(t, res.Error, "malformed")
}

func TestSearchService_Suggest(t *testing.T) {
	svc, _ := newTestService(t)

	items, err := svc.Suggest(context.Background(), "  hel ")
	require.NoError(t, err)
	assert.Len(t, items, 2)

	items, err = svc.Suggest(context.Background(), "   ")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestSearchService_Suggest_EmptySkipsTransport(t *testing.T) {
	svc, eng := newTestService(t)
	eng.FailWith = errors.New("should not be called")

	items, err := svc.Suggest(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestSearchService_IndexAndDelete(t *testing.T) {
	svc, eng := newTestService(t)

	rec, err := svc.Index(context.Background(), &TranscriptionInput{GeneratedText: "  new clip ", Accent: str("  ")})
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "new clip", rec.GeneratedText)
	assert.Nil(t, rec.Accent)
	assert.Equal(t, 4, eng.Len())

	require.NoError(t, svc.Delete(context.Background(), rec.ID))
	assert.Equal(t, 3, eng.Len())
}

func TestSearchService_Delete_RequiresID(t *testing.T) {
	svc, _ := newTestService(t)

	err := svc.Delete(context.Background(), "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestSearchService_BulkIndex_Empty(t *testing.T) {
	svc, _ := newTestService(t)

	res, err := svc.BulkIndex(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Indexed)
}
