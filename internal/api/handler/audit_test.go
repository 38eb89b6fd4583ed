package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiranshivaraju/notable/internal/audit"
	"github.com/kiranshivaraju/notable/pkg/models"
)

var testPolicy = AuditPolicy{MaxAgeDays: 7, ForceMaxAgeDays: 1}

type mockAuditor struct {
	stale     bool
	staleErr  error
	maxAge    int
	ran       bool
	runErr    error
	updated   *models.PlatformPresence
	updateErr error
}

func (m *mockAuditor) Profiles(_ context.Context, userID uuid.UUID, agentName string) ([]models.PlatformPresence, error) {
	out := make([]models.PlatformPresence, 0, len(models.AllPlatforms))
	for _, p := range models.AllPlatforms {
		out = append(out, models.UnknownPresence(userID, agentName, p))
	}
	return out, nil
}

func (m *mockAuditor) IsAuditStale(_ context.Context, _ uuid.UUID, maxAgeDays int) (bool, error) {
	m.maxAge = maxAgeDays
	return m.stale, m.staleErr
}

func (m *mockAuditor) RunAudit(ctx context.Context, userID uuid.UUID, agentName, _ string) (*audit.Result, error) {
	m.ran = true
	if m.runErr != nil {
		return nil, m.runErr
	}
	profiles, _ := m.Profiles(ctx, userID, agentName)
	return &audit.Result{Profiles: profiles, State: audit.StatePersisted, Outcome: audit.OutcomeOK}, nil
}

func (m *mockAuditor) UpdateProfileStatus(_ context.Context, userID uuid.UUID, agentName string, platform models.Platform, status models.ProfileStatus, profileURL *string) (*models.PlatformPresence, error) {
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	m.updated = &models.PlatformPresence{
		UserID: userID, AgentName: agentName, Platform: platform,
		Status: status, Source: models.SourceUserReported, ProfileURL: profileURL,
	}
	return m.updated, nil
}

func TestGetAudit(t *testing.T) {
	svc := &mockAuditor{stale: true}
	rec := serve(NewGetAuditHandler(svc, testPolicy), newReq(t, http.MethodGet, "/api/v1/audit?agent_name=Jane", nil, uuid.New()))

	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeData[auditStatusResponse](t, rec)
	assert.True(t, data.Stale)
	assert.Len(t, data.Profiles, len(models.AllPlatforms))
	assert.Equal(t, 7, svc.maxAge)
}

func TestRunAudit_FreshSkips(t *testing.T) {
	svc := &mockAuditor{stale: false}
	rec := serve(NewRunAuditHandler(svc, testPolicy), newReq(t, http.MethodPost, "/api/v1/audit",
		map[string]any{"agent_name": "Jane Doe", "location": "Austin"}, uuid.New()))

	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeData[auditRunResponse](t, rec)
	assert.False(t, data.Ran)
	assert.Nil(t, data.Result)
	assert.False(t, svc.ran)
	assert.Equal(t, 7, svc.maxAge)
}

func TestRunAudit_ForceUsesShorterAge(t *testing.T) {
	svc := &mockAuditor{stale: true}
	rec := serve(NewRunAuditHandler(svc, testPolicy), newReq(t, http.MethodPost, "/api/v1/audit",
		map[string]any{"agent_name": "Jane Doe", "location": "Austin", "force": true}, uuid.New()))

	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeData[auditRunResponse](t, rec)
	assert.True(t, data.Ran)
	require.NotNil(t, data.Result)
	assert.Equal(t, audit.OutcomeOK, data.Result.Outcome)
	assert.Equal(t, 1, svc.maxAge)
}

func TestRunAudit_InProgress(t *testing.T) {
	svc := &mockAuditor{stale: true, runErr: audit.ErrAuditInProgress}
	rec := serve(NewRunAuditHandler(svc, testPolicy), newReq(t, http.MethodPost, "/api/v1/audit",
		map[string]any{"agent_name": "Jane Doe", "location": "Austin"}, uuid.New()))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "AUDIT_IN_PROGRESS", errCode(t, rec))
}

func TestRunAudit_Validation(t *testing.T) {
	for name, body := range map[string]any{
		"missing agent":    map[string]any{"location": "Austin"},
		"missing location": map[string]any{"agent_name": "Jane"},
		"bad json":         "nope",
	} {
		t.Run(name, func(t *testing.T) {
			svc := &mockAuditor{stale: true}
			rec := serve(NewRunAuditHandler(svc, testPolicy), newReq(t, http.MethodPost, "/api/v1/audit", body, uuid.New()))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.False(t, svc.ran)
		})
	}
}

func TestRunAudit_StaleCheckFails(t *testing.T) {
	svc := &mockAuditor{staleErr: errors.New("db down")}
	rec := serve(NewRunAuditHandler(svc, testPolicy), newReq(t, http.MethodPost, "/api/v1/audit",
		map[string]any{"agent_name": "Jane Doe", "location": "Austin"}, uuid.New()))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestUpdateProfile(t *testing.T) {
	svc := &mockAuditor{}
	r := newReq(t, http.MethodPut, "/api/v1/audit/zillow", map[string]any{
		"agent_name": "Jane Doe",
		"status":     "Confirmed",
		"url":        "https://www.zillow.com/profile/jane",
	}, uuid.New())
	rec := serve(NewUpdateProfileHandler(svc), withURLParam(r, "platform", "zillow"))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotNil(t, svc.updated)
	assert.Equal(t, models.PlatformZillow, svc.updated.Platform)
	assert.Equal(t, models.StatusConfirmed, svc.updated.Status)
	require.NotNil(t, svc.updated.ProfileURL)
}

func TestUpdateProfile_Validation(t *testing.T) {
	tests := []struct {
		name     string
		platform string
		body     any
	}{
		{"unknown platform", "myspace", map[string]any{"agent_name": "Jane", "status": "confirmed"}},
		{"unknown status", "zillow", map[string]any{"agent_name": "Jane", "status": "maybe"}},
		{"missing agent", "zillow", map[string]any{"status": "confirmed"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockAuditor{}
			r := newReq(t, http.MethodPut, "/api/v1/audit/"+tt.platform, tt.body, uuid.New())
			rec := serve(NewUpdateProfileHandler(svc), withURLParam(r, "platform", tt.platform))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Nil(t, svc.updated)
		})
	}
}
