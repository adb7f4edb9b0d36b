package detection

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/falconx-app/FalconX/app/models"
)

func redirectAction(pct int, params models.TriggerParams) models.CloneAction {
	return models.CloneAction{
		ID:                 1,
		UserID:             testUserID,
		ActionType:         models.ActionTypeRedirect,
		RedirectURL:        "https://original.example.com",
		RedirectPercentage: pct,
		TriggerParams:      params,
		IsActive:           true,
	}
}

func TestSelectNoActionsConfigured(t *testing.T) {
	s := NewSelector(&fakeActionRepo{})

	decision, err := s.Select(testUserID, "https://evil.com", "")
	require.NoError(t, err)
	assert.Equal(t, ActionNone, decision.Action)
}

func TestSelectRepositoryErrorYieldsNone(t *testing.T) {
	s := NewSelector(&fakeActionRepo{err: errors.New("db down")})

	decision, err := s.Select(testUserID, "https://evil.com", "")
	require.Error(t, err)
	assert.Equal(t, ActionNone, decision.Action)
}

func TestSelectPercentageGate(t *testing.T) {
	tests := []struct {
		name string
		pct  int
		draw int
		want string
	}{
		{"100 percent always fires", 100, 99, ActionRedirect},
		{"0 percent never fires", 0, 0, ActionSkip},
		{"draw below percentage fires", 50, 49, ActionRedirect},
		{"draw at percentage skips", 50, 50, ActionSkip},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeActionRepo{actions: []models.CloneAction{redirectAction(tt.pct, nil)}}
			s := NewSelector(repo, WithRand(func(int) int { return tt.draw }))

			decision, err := s.Select(testUserID, "https://evil.com", "")
			require.NoError(t, err)
			assert.Equal(t, tt.want, decision.Action)
		})
	}
}

func TestSelectTriggerGate(t *testing.T) {
	params := models.TriggerParams{"fbclid": true, "gclid": true, "utm_source": false}

	tests := []struct {
		name     string
		pageURL  string
		referrer string
		want     string
	}{
		{"enabled param in page url", "https://evil.com/?fbclid=abc", "", ActionRedirect},
		{"enabled param in referrer", "https://evil.com/", "https://fb.com/?gclid=x", ActionRedirect},
		{"disabled param does not count", "https://evil.com/?utm_source=x", "", ActionSkip},
		{"no params anywhere", "https://evil.com/", "", ActionSkip},
		{"unparseable url skips", "://bad", "", ActionSkip},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeActionRepo{actions: []models.CloneAction{redirectAction(100, params)}}
			s := NewSelector(repo, WithRand(func(int) int { return 0 }))

			decision, err := s.Select(testUserID, tt.pageURL, tt.referrer)
			require.NoError(t, err)
			assert.Equal(t, tt.want, decision.Action)
		})
	}
}

func TestSelectNoEnabledParamsPassesGate(t *testing.T) {
	repo := &fakeActionRepo{actions: []models.CloneAction{
		redirectAction(100, models.TriggerParams{"fbclid": false}),
	}}
	s := NewSelector(repo, WithRand(func(int) int { return 0 }))

	decision, err := s.Select(testUserID, "https://evil.com/", "")
	require.NoError(t, err)
	assert.Equal(t, ActionRedirect, decision.Action)
}

func TestSelectActionTypes(t *testing.T) {
	tests := []struct {
		name   string
		action models.CloneAction
		want   Decision
	}{
		{
			"redirect carries url",
			redirectAction(100, nil),
			Decision{Action: ActionRedirect, URL: "https://original.example.com"},
		},
		{
			"blank page",
			models.CloneAction{ActionType: models.ActionTypeBlankPage, RedirectPercentage: 100, IsActive: true},
			Decision{Action: ActionBlank},
		},
		{
			"custom message",
			models.CloneAction{ActionType: models.ActionTypeCustomMessage, CustomMessage: "This site is a copy.", RedirectPercentage: 100, IsActive: true},
			Decision{Action: ActionMessage, CustomMessage: "This site is a copy."},
		},
		{
			"unknown type maps to none",
			models.CloneAction{ActionType: "self_destruct", RedirectPercentage: 100, IsActive: true},
			Decision{Action: ActionNone},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeActionRepo{actions: []models.CloneAction{tt.action}}
			s := NewSelector(repo, WithRand(func(int) int { return 0 }))

			decision, err := s.Select(testUserID, "https://evil.com/", "")
			require.NoError(t, err)
			assert.Equal(t, tt.want, decision)
		})
	}
}

func TestSelectInactiveAndScopedActionsIgnored(t *testing.T) {
	cloneID := uint(4)
	repo := &fakeActionRepo{actions: []models.CloneAction{
		{ActionType: models.ActionTypeBlankPage, RedirectPercentage: 100, IsActive: false},
		{ActionType: models.ActionTypeBlankPage, RedirectPercentage: 100, IsActive: true, CloneID: &cloneID},
	}}
	s := NewSelector(repo, WithRand(func(int) int { return 0 }))

	decision, err := s.Select(testUserID, "https://evil.com/", "")
	require.NoError(t, err)
	assert.Equal(t, ActionNone, decision.Action)
}

func TestFirstActivePolicyTakesHead(t *testing.T) {
	first := redirectAction(100, nil)
	second := models.CloneAction{ID: 2, ActionType: models.ActionTypeBlankPage, RedirectPercentage: 100, IsActive: true}

	picked := FirstActive([]models.CloneAction{first, second})
	require.NotNil(t, picked)
	assert.Equal(t, first.ID, picked.ID)

	assert.Nil(t, FirstActive(nil))
}
