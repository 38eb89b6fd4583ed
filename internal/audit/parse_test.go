package audit_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiranshivaraju/notable/internal/audit"
	"github.com/kiranshivaraju/notable/pkg/models"
)

func TestParseReply_FencedPartialObject(t *testing.T) {
	reply := "```json\n{\"zillow\":{\"status\":\"FOUND\",\"url\":\"https://zillow.com/p/x\"},\"homes_com\":\"NOT_FOUND\"}\n```"

	got, err := audit.ParseReply(reply)
	require.NoError(t, err)
	require.Len(t, got, 2)

	z := got[models.PlatformZillow]
	assert.Equal(t, models.StatusConfirmed, z.Status)
	require.NotNil(t, z.URL)
	assert.Equal(t, "https://zillow.com/p/x", *z.URL)

	h := got[models.PlatformHomesCom]
	assert.Equal(t, models.StatusNotFound, h.Status)
	assert.Nil(t, h.URL)
}

func TestParseReply_ProseAroundObject(t *testing.T) {
	reply := `Here is what I found: {"realtor_com": {"status": "yes", "url": "N/A"}, "yelp": {"status": "FOUND"}} Hope that helps.`

	got, err := audit.ParseReply(reply)
	require.NoError(t, err)
	require.Len(t, got, 1, "unknown platform keys are ignored")
	assert.Equal(t, models.StatusConfirmed, got[models.PlatformRealtorCom].Status)
	assert.Nil(t, got[models.PlatformRealtorCom].URL)
}

func TestParseReply_NoObject(t *testing.T) {
	_, err := audit.ParseReply("I could not find anything about this agent.")
	assert.ErrorIs(t, err, audit.ErrNoJSON)
}

func TestParseReply_Malformed(t *testing.T) {
	_, err := audit.ParseReply(`{"zillow": {"status": "FOUND",}`)
	assert.ErrorIs(t, err, audit.ErrMalformedJSON)
}

func TestParseReply_OddValuesDegradeToUnknown(t *testing.T) {
	got, err := audit.ParseReply(`{"zillow": 5, "fastexpert": null, "bing_places": {"status": "FOUND", "url": 12}}`)
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnknown, got[models.PlatformZillow].Status)
	assert.Equal(t, models.StatusUnknown, got[models.PlatformFastExpert].Status)
	assert.Equal(t, models.StatusConfirmed, got[models.PlatformBingPlaces].Status)
	assert.Nil(t, got[models.PlatformBingPlaces].URL)
}

func TestNormalizeStatus(t *testing.T) {
	tests := map[string]models.ProfileStatus{
		"FOUND":     models.StatusConfirmed,
		"confirmed": models.StatusConfirmed,
		"Yes":       models.StatusConfirmed,
		"active":    models.StatusConfirmed,
		"NOT_FOUND": models.StatusNotFound,
		"not found": models.StatusNotFound,
		"no":        models.StatusNotFound,
		"INACTIVE":  models.StatusNotFound,
		"UNKNOWN":   models.StatusUnknown,
		"maybe":     models.StatusUnknown,
		"":          models.StatusUnknown,
	}
	for in, want := range tests {
		assert.Equal(t, want, audit.NormalizeStatus(in), in)
	}
}

func TestParseReply_URLValidation(t *testing.T) {
	tests := []struct {
		url  string
		kept bool
	}{
		{"https://www.homes.com/real-estate-agents/jane-doe/abc", true},
		{"http://fastexpert.com/agents/jane", true},
		{"null", false},
		{"N/A", false},
		{"zillow.com/profile/jane", false},
		{"ftp://example.com/x", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, err := audit.ParseReply(`{"homes_com": {"status": "FOUND", "url": "` + tt.url + `"}}`)
			require.NoError(t, err)
			if tt.kept {
				require.NotNil(t, got[models.PlatformHomesCom].URL)
				assert.Equal(t, tt.url, *got[models.PlatformHomesCom].URL)
			} else {
				assert.Nil(t, got[models.PlatformHomesCom].URL)
			}
		})
	}
}

func TestPlatformForCitation(t *testing.T) {
	tests := map[string]models.Platform{
		"https://www.zillow.com/profile/janedoe":    models.PlatformZillow,
		"HOMES.COM":                                 models.PlatformHomesCom,
		"https://www.realtor.com/realestateagents/x": models.PlatformRealtorCom,
		"https://www.bing.com/maps?q=jane":           models.PlatformBingPlaces,
		"https://www.google.com/maps/place/jane":     models.PlatformGoogleBusiness,
		"https://g.page/jane-doe-realty":             models.PlatformGoogleBusiness,
		"fastexpert.com/agents/jane-doe":             models.PlatformFastExpert,
	}
	for in, want := range tests {
		got, ok := audit.PlatformForCitation(in)
		require.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	_, ok := audit.PlatformForCitation("https://www.yelp.com/biz/jane")
	assert.False(t, ok)
}

func TestBuildPrompt_NamesEveryPlatform(t *testing.T) {
	prompt := audit.BuildPrompt("Jane Doe", "Austin, TX")
	assert.Contains(t, prompt, `"Jane Doe"`)
	assert.Contains(t, prompt, "Austin, TX")
	for _, p := range models.AllPlatforms {
		assert.Contains(t, prompt, string(p))
	}
	assert.Contains(t, prompt, "NOT_FOUND")
}
