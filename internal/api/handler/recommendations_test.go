package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiranshivaraju/notable/internal/recommend"
)

type mockRecommender struct {
	agentName string
	err       error
}

func (m *mockRecommender) Recommendations(_ context.Context, _ uuid.UUID, agentName string) (*recommend.Report, error) {
	m.agentName = agentName
	if m.err != nil {
		return nil, m.err
	}
	report := recommend.Analyze(recommend.Input{AgentName: agentName})
	return &report, nil
}

func TestRecommendations(t *testing.T) {
	svc := &mockRecommender{}
	rec := serve(NewRecommendationsHandler(svc), newReq(t, http.MethodGet,
		"/api/v1/recommendations?agent_name=Jane%20Doe", nil, uuid.New()))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Jane Doe", svc.agentName)
	report := decodeData[recommend.Report](t, rec)
	assert.NotEmpty(t, report.Recommendations)
}

func TestRecommendations_MissingAgent(t *testing.T) {
	rec := serve(NewRecommendationsHandler(&mockRecommender{}), newReq(t, http.MethodGet,
		"/api/v1/recommendations", nil, uuid.New()))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecommendations_Error(t *testing.T) {
	rec := serve(NewRecommendationsHandler(&mockRecommender{err: errors.New("boom")}), newReq(t, http.MethodGet,
		"/api/v1/recommendations?agent_name=Jane", nil, uuid.New()))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
