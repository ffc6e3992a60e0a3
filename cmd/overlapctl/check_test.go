package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/channel-attribution/internal/domain"
)

const directory = `
channels:
  - id: paid-social
    sub_channels:
      - name: FB CPC
        utm_source: facebook
        utm_medium: cpc
        matching_type: exact
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func writeDirectory(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "directory.yaml")
	require.NoError(t, os.WriteFile(path, []byte(directory), 0o644))
	return path
}

func TestCheckLocal_Blocking(t *testing.T) {
	path := writeDirectory(t)
	out, err := execute(t, "check", "--local", path,
		"--parent", "paid-social", "--source", "Facebook", "--medium", "CPC")
	assert.ErrorIs(t, err, errBlocking)
	assert.Contains(t, out, "severity: error")
	assert.Contains(t, out, "paid-social#1")
}

func TestCheckLocal_ExcludeSelf(t *testing.T) {
	path := writeDirectory(t)
	out, err := execute(t, "check", "--local", path, "--exclude", "paid-social#1",
		"--parent", "paid-social", "--source", "facebook", "--medium", "cpc")
	require.NoError(t, err)
	assert.Contains(t, out, "severity: none")
}

func TestCheckLocal_JSONWarning(t *testing.T) {
	path := writeDirectory(t)
	out, err := execute(t, "check", "--local", path, "--json", "--match", "contains",
		"--parent", "paid-social", "--source", "facebook", "--medium", "cpc_retargeting")
	require.NoError(t, err)

	var resp domain.OverlapResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.True(t, resp.HasConflicts)
	assert.Equal(t, domain.SeverityWarning, resp.ConflictType)
}

func TestCheckLocal_UnknownStrategy(t *testing.T) {
	path := writeDirectory(t)
	_, err := execute(t, "check", "--local", path, "--strategy", "loose",
		"--parent", "paid-social", "--source", "facebook", "--medium", "cpc")
	assert.Error(t, err)
}

func TestCheckRemote(t *testing.T) {
	var got domain.OverlapRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(domain.NewOverlapResponse(domain.ValidationVerdict{
			Severity: domain.SeverityNone,
			Message:  "No conflicts detected",
		}))
	}))
	defer srv.Close()

	out, err := execute(t, "check", "--server", srv.URL,
		"--parent", "email", "--source", "newsletter", "--medium", "email")
	require.NoError(t, err)
	assert.Contains(t, out, "No conflicts detected")
	assert.Equal(t, "email", got.ParentChannelID)
	assert.Equal(t, domain.MatchExact, got.MatchingType)
}

func TestCheckRemote_UnknownSeverityFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"hasConflicts":true,"conflictType":"Error","message":"dup","conflictingChannels":[]}`))
	}))
	defer srv.Close()

	_, err := execute(t, "check", "--server", srv.URL,
		"--parent", "paid-social", "--source", "facebook", "--medium", "cpc")
	assert.ErrorIs(t, err, domain.ErrUnknownSeverity)
}

func TestCheckRequiresServerOrLocal(t *testing.T) {
	t.Setenv("ATTRIBUTION_API_URL", "")
	_, err := execute(t, "check", "--parent", "email", "--source", "newsletter", "--medium", "email")
	assert.Error(t, err)
}
