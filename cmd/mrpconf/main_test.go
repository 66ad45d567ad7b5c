package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmax-ai/mrpconf/pkg/api"
	"github.com/rmax-ai/mrpconf/pkg/client"
	"github.com/rmax-ai/mrpconf/pkg/loader"
	"github.com/rmax-ai/mrpconf/pkg/model"
	"github.com/rmax-ai/mrpconf/pkg/snapshot"
	"github.com/rmax-ai/mrpconf/pkg/store"
)

func newSource(t *testing.T) string {
	t.Helper()
	st, err := store.NewStore(filepath.Join(t.TempDir(), "cli.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	_, err = store.ApplySeed(context.Background(), st, store.Seed{
		Scenarios:   loader.ScenarioFallback(),
		Technical:   loader.TechnicalFallback(),
		Operational: loader.OperationalFallback(),
	})
	require.NoError(t, err)

	ts := httptest.NewServer(api.NewServer(st, "", api.WithOperationalTemplate(loader.OperationalFallback())).Handler())
	t.Cleanup(ts.Close)
	return ts.URL
}

// execute runs the CLI and returns stdout and stderr.
func execute(t *testing.T, url string, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	var stdout, stderr bytes.Buffer
	root := newRootCommand()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(append([]string{"--source-url", url, "--retries", "0", "--log-level", "error"}, args...))
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestScenarios(t *testing.T) {
	url := newSource(t)

	out, _, err := execute(t, url, "scenarios", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Standard_LDL_M1000")
	assert.Contains(t, out, "Test scenario for Client 3000")

	out, _, err = execute(t, url, "scenarios", "create", "Plan_B", "Backup plan")
	require.NoError(t, err)
	assert.Contains(t, out, "Scenario Plan_B created")

	_, _, err = execute(t, url, "scenarios", "create", "Plan_B", "Again")
	assert.ErrorIs(t, err, client.ErrBadResponse)

	_, _, err = execute(t, url, "scenarios", "create", "loading", "Reserved")
	assert.ErrorIs(t, err, model.ErrValidation)

	out, _, err = execute(t, url, "operational", "show", "Plan_B")
	require.NoError(t, err)
	assert.Contains(t, out, "batchSize")
}

func TestTechnicalSetAndShow(t *testing.T) {
	url := newSource(t)

	out, _, err := execute(t, url, "technical", "set", "datasourceDebug=TRUE", "datasourcePassword=hunter2")
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration saved successfully!")

	out, _, err = execute(t, url, "technical", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "datasourceDebug")
	assert.Contains(t, out, "true")
	assert.Contains(t, out, model.RedactedValue)
	assert.NotContains(t, out, "hunter2")
}

func TestTechnicalSetRejected(t *testing.T) {
	url := newSource(t)

	tests := []struct {
		name string
		args []string
	}{
		{"NotBoolean", []string{"datasourceDebug=yes"}},
		{"UnknownItem", []string{"nope=1"}},
		{"NotAnEdit", []string{"datasourceDebug"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, url, append([]string{"technical", "set"}, tt.args...)...)
			assert.ErrorIs(t, err, model.ErrValidation)
		})
	}

	out, _, err := execute(t, url, "technical", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "false")
}

func TestOperationalSet(t *testing.T) {
	url := newSource(t)

	_, _, err := execute(t, url, "operational", "set", "Test_Mandant_3000", "batchSize=42", "enableLogging=false")
	require.NoError(t, err)

	out, _, err := execute(t, url, "dump")
	require.NoError(t, err)

	var d snapshot.Snapshot
	require.NoError(t, json.Unmarshal([]byte(out), &d))
	require.Len(t, d.Scenarios, 2)
	assert.Len(t, d.Technical, 5)

	ops := d.Operational["Test_Mandant_3000"]
	require.Len(t, ops, 3)
	assert.Equal(t, model.StringValue("42"), ops[0].Value)
	assert.Equal(t, model.BoolValue(false), ops[1].Value)
	assert.Equal(t, model.StringValue("1000"), d.Operational["Standard_LDL_M1000"][0].Value)

	_, _, err = execute(t, url, "operational", "show", "error")
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestDumpSecrets(t *testing.T) {
	url := newSource(t)
	_, _, err := execute(t, url, "technical", "set", "datasourcePassword=hunter2")
	require.NoError(t, err)

	out, _, err := execute(t, url, "dump")
	require.NoError(t, err)
	assert.NotContains(t, out, "hunter2")

	out, _, err = execute(t, url, "dump", "--reveal-secrets")
	require.NoError(t, err)
	assert.Contains(t, out, "hunter2")
}

func TestSourceUnavailable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("unexpected write %s %s", r.Method, r.URL.Path)
		}
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	out, stderr, err := execute(t, ts.URL, "technical", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "datasourceUrl")
	assert.True(t, strings.Contains(stderr, "showing defaults"), stderr)

	_, _, err = execute(t, ts.URL, "technical", "set", "datasourceDebug=true")
	assert.Error(t, err)

	_, _, err = execute(t, ts.URL, "dump")
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "http://unused", "version")
	require.NoError(t, err)
	assert.Contains(t, out, Version)
}

func TestSnapshotsArchiveAndRestore(t *testing.T) {
	url := newSource(t)
	dir := filepath.Join(t.TempDir(), "snaps")

	_, _, err := execute(t, url, "technical", "set", "datasourcePassword=hunter2")
	require.NoError(t, err)

	// A redacted snapshot is archived but cannot be restored.
	_, stderr, err := execute(t, url, "dump", "--archive", dir)
	require.NoError(t, err)
	assert.Contains(t, stderr, "Archived as ")

	out, _, err := execute(t, url, "snapshots", "list", "--dir", dir)
	require.NoError(t, err)
	names := strings.Fields(out)
	require.Len(t, names, 1)

	_, _, err = execute(t, url, "snapshots", "restore", names[0], "--dir", dir)
	assert.ErrorIs(t, err, snapshot.ErrRedacted)

	_, _, err = execute(t, url, "snapshots", "delete", names[0], "--dir", dir)
	require.NoError(t, err)

	// An unredacted snapshot restores into a fresh source.
	_, _, err = execute(t, url, "dump", "--reveal-secrets", "--archive", dir)
	require.NoError(t, err)
	out, _, err = execute(t, url, "snapshots", "list", "--dir", dir)
	require.NoError(t, err)
	names = strings.Fields(out)
	require.Len(t, names, 1)

	fresh := newSource(t)
	out, _, err = execute(t, fresh, "snapshots", "restore", names[0], "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "3 sets saved")

	out, _, err = execute(t, fresh, "dump", "--reveal-secrets")
	require.NoError(t, err)
	assert.Contains(t, out, "hunter2")
}
