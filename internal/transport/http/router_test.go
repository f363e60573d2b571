package http

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"cogniquiz-service/internal/domain"
	"cogniquiz-service/internal/leaderboard"
	"github.com/stretchr/testify/require"
)

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	resp, err := http.Get(env.server.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestThemesAndCategories(t *testing.T) {
	env := newTestEnv(t)

	var themes []domain.ThemeOption
	require.Equal(t, http.StatusOK, getJSON(t, env.server.URL+"/api/themes", &themes))
	require.Len(t, themes, 5)
	require.Equal(t, domain.ThemeCelestial, themes[0].Value)

	var cats []domain.Category
	require.Equal(t, http.StatusOK, getJSON(t, env.server.URL+"/api/categories", &cats))
	require.Equal(t, domain.DefaultCategories(), cats)
}

func TestLeaderboardEndpoints(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.blobs.Set(ctx, leaderboard.Key, "garbage"))

	var resp leaderboardResponse
	require.Equal(t, http.StatusOK, getJSON(t, env.server.URL+"/api/leaderboard", &resp))
	require.Empty(t, resp.Records)
	require.Equal(t, "Failed to load leaderboard from local storage.", resp.Error)

	req, err := http.NewRequest(http.MethodDelete, env.server.URL+"/api/leaderboard", nil)
	require.NoError(t, err)
	del, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	del.Body.Close()
	require.Equal(t, http.StatusNoContent, del.StatusCode)

	resp = leaderboardResponse{}
	require.Equal(t, http.StatusOK, getJSON(t, env.server.URL+"/api/leaderboard", &resp))
	require.Empty(t, resp.Records)
	require.Empty(t, resp.Error)
}

func TestDailyAndSessions(t *testing.T) {
	env := newTestEnv(t)

	var status struct {
		Available  bool                  `json:"available"`
		Parameters domain.QuizParameters `json:"parameters"`
	}
	require.Equal(t, http.StatusOK, getJSON(t, env.server.URL+"/api/daily", &status))
	require.True(t, status.Available)
	require.Equal(t, 10, status.Parameters.NumQuestions)

	require.Equal(t, http.StatusNotFound, getJSON(t, env.server.URL+"/api/sessions/nope", nil))
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t)
	req, err := http.NewRequest(http.MethodOptions, env.server.URL+"/api/leaderboard", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://example.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodDelete)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
