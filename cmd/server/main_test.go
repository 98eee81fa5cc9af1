package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dild26/caffeine-projects-sub001/internal/fileset"
	"github.com/dild26/caffeine-projects-sub001/internal/ingest"
	"github.com/dild26/caffeine-projects-sub001/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func TestCollectFiles(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"b.json":        "{}",
		"a.txt":         "x",
		"nested/c.json": "{}",
	})
	single := filepath.Join(t.TempDir(), "solo.json")
	require.NoError(t, os.WriteFile(single, []byte("{}"), 0o644))

	files, err := collectFiles([]string{dir, single})
	require.NoError(t, err)

	var names []string
	for _, f := range files {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"a.txt", "b.json", "c.json", "solo.json"}, names)

	data, err := files[3].ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))

	_, err = collectFiles([]string{filepath.Join(dir, "missing")})
	assert.Error(t, err)
}

func TestPrintReport(t *testing.T) {
	done := models.NewFileSet("alpha")
	done.Status = models.StatusCompleted
	done.Recovered = true
	done.Heuristics = []string{"trailing_comma"}
	done.AutoSaved = true
	bad := models.NewFileSet("beta")
	bad.MarkError("invalid structured data")

	var out bytes.Buffer
	printReport(&out, &ingest.Result{
		FileSets:  []*models.FileSet{done, bad},
		Report:    models.BatchReport{RunID: "r1", Attempted: 2, Succeeded: 1, Failed: 1},
		Rejected:  []models.RejectedFile{{Name: "x.pdf", Reason: "unsupported file type"}},
		Anomalies: []fileset.Anomaly{{BaseName: "alpha", Kept: "alpha.json", Dropped: "Alpha.json"}},
	})

	text := out.String()
	assert.Contains(t, text, "run r1")
	assert.Contains(t, text, "attempted=2 succeeded=1")
	assert.Contains(t, text, "recovered [trailing_comma]")
	assert.Contains(t, text, "invalid structured data")
	assert.Contains(t, text, "x.pdf")
	assert.Contains(t, text, "dropped Alpha.json, kept alpha.json")
}

func TestRunIngest(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "ingest.yaml")
	writeFiles(t, dir, map[string]string{
		"ingest.yaml": `storage:
  driver: duckdb
  data_directory: data
  spool_directory: data/spool
  duckdb_path: data/test.duckdb
archive:
  driver: none
log:
  level: error
`,
		"in/good.json":   `{"title": "Good",}`,
		"in/good.txt":    "description",
		"in/broken.json": `{"a": }`,
	})

	configFile = cfgPath
	t.Cleanup(func() { configFile = "" })

	files, err := collectFiles([]string{filepath.Join(dir, "in")})
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, runIngest(context.Background(), &out, files, true, false))

	var res struct {
		Report   models.BatchReport `json:"report"`
		FileSets []models.FileSet   `json:"fileSets"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.Equal(t, 2, res.Report.Attempted)
	assert.Equal(t, 1, res.Report.Succeeded)
	assert.Equal(t, 1, res.Report.Recovered)
	assert.Equal(t, 1, res.Report.AutoSaved)
	assert.Equal(t, 1, res.Report.Failed)

	out.Reset()
	err = runIngest(context.Background(), &out, files, false, true)
	var ce cliError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, exitFailedSets, ce.code)
}

func TestConfigPath(t *testing.T) {
	configFile = ""
	t.Setenv("INGEST_CONFIG", "")
	assert.Equal(t, defaultConfigFile, configPath())

	t.Setenv("INGEST_CONFIG", "/etc/ingest.yaml")
	assert.Equal(t, "/etc/ingest.yaml", configPath())

	configFile = "local.yaml"
	t.Cleanup(func() { configFile = "" })
	assert.Equal(t, "local.yaml", configPath())
}
