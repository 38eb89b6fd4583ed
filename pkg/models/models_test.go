package models_test

import (
	"testing"

	"github.com/kiranshivaraju/notable/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProvider_Aliases(t *testing.T) {
	cases := map[string]models.Provider{
		"chatgpt":    models.ProviderChatGPT,
		"OpenAI":     models.ProviderChatGPT,
		"anthropic":  models.ProviderClaude,
		" gemini ":   models.ProviderGemini,
		"perplexity": models.ProviderPerplexity,
		"xai":        models.ProviderGrok,
	}
	for in, want := range cases {
		got, err := models.ParseProvider(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := models.ParseProvider("bard")
	assert.Error(t, err)
}

func TestParseProviders_Dedupes(t *testing.T) {
	got, err := models.ParseProviders([]string{"claude", "anthropic", "gemini"})
	require.NoError(t, err)
	assert.Equal(t, []models.Provider{models.ProviderClaude, models.ProviderGemini}, got)
}

func TestParsePlatform(t *testing.T) {
	p, err := models.ParsePlatform("Zillow")
	require.NoError(t, err)
	assert.Equal(t, models.PlatformZillow, p)
	assert.Equal(t, "Zillow", p.Label())

	_, err = models.ParsePlatform("yelp")
	assert.Error(t, err)
}

func TestParseProfileSource(t *testing.T) {
	for _, in := range []string{"llm_audit", "citation", "user_reported"} {
		got, err := models.ParseProfileSource(in)
		require.NoError(t, err, in)
		assert.Equal(t, models.ProfileSource(in), got)
	}

	_, err := models.ParseProfileSource("scraper")
	assert.Error(t, err)
}

func TestPlatformPresence_YieldsToCitation(t *testing.T) {
	tests := []struct {
		name   string
		status models.ProfileStatus
		source models.ProfileSource
		want   bool
	}{
		{"user reported", models.StatusNotFound, models.SourceUserReported, false},
		{"audit confirmed", models.StatusConfirmed, models.SourceLLMAudit, false},
		{"audit not found", models.StatusNotFound, models.SourceLLMAudit, true},
		{"audit unknown", models.StatusUnknown, models.SourceLLMAudit, true},
		{"citation not found", models.StatusNotFound, models.SourceCitation, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := models.PlatformPresence{Status: tt.status, Source: tt.source}
			assert.Equal(t, tt.want, p.YieldsToCitation())
		})
	}
}

func TestPriority_Rank(t *testing.T) {
	assert.Less(t, models.PriorityHigh.Rank(), models.PriorityMedium.Rank())
	assert.Less(t, models.PriorityMedium.Rank(), models.PriorityLow.Rank())
}
