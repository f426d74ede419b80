package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-assembly/internal/assembly"
	"github.com/mind-engage/mindengage-assembly/internal/db"
	"github.com/mind-engage/mindengage-assembly/internal/itembank"
)

const bankFile = `[
  {"id":"m1","type":"mcq","level":"B1","difficulty_score":0.1},
  {"id":"m2","type":"mcq","level":"B1","difficulty_score":0.2},
  {"id":"m3","type":"mcq","level":"B1","difficulty_score":0.5},
  {"id":"m4","type":"mcq","level":"B1","difficulty_score":0.9},
  {"id":"c1","type":"cloze","level":"B1","difficulty_score":0.4}
]`

const paperYAML = `total_items: 3
item_distribution:
  mcq: 2
  cloze: 1
difficulty_distribution:
  easy: 0.5
  medium: 0.5
  hard: 0
level: B1
`

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestAssembleCommand(t *testing.T) {
	dir := writeFiles(t, map[string]string{"bank.json": bankFile, "paper.yaml": paperYAML})

	out, err := run(t, "assemble", "--bank", filepath.Join(dir, "bank.json"), "--config", filepath.Join(dir, "paper.yaml"), "--seed", "7")
	require.NoError(t, err)
	var res assembly.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.True(t, res.Success)
	assert.Len(t, res.SelectedItems, 3)

	again, err := run(t, "assemble", "--bank", filepath.Join(dir, "bank.json"), "--config", filepath.Join(dir, "paper.yaml"), "--seed", "7")
	require.NoError(t, err)
	assert.Equal(t, out, again)
}

func TestAssembleCommandEmptyBank(t *testing.T) {
	dir := writeFiles(t, map[string]string{"bank.json": `[]`, "paper.yaml": paperYAML})

	out, err := run(t, "assemble", "--bank", filepath.Join(dir, "bank.json"), "--config", filepath.Join(dir, "paper.yaml"))
	require.ErrorIs(t, err, errNoItems)
	assert.Contains(t, out, `"success": false`)
}

func TestAssembleCommandRejectsBadConfig(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"bank.json":  bankFile,
		"paper.yaml": "total_items: 5\nitem_distribution:\n  mcq: 2\ndifficulty_distribution:\n  easy: 1\n",
	})
	_, err := run(t, "assemble", "--bank", filepath.Join(dir, "bank.json"), "--config", filepath.Join(dir, "paper.yaml"))
	assert.ErrorIs(t, err, assembly.ErrInvalidConfig)

	_, err = run(t, "assemble", "--bank", filepath.Join(dir, "bank.json"))
	assert.Error(t, err)
}

func TestCheckCommand(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"bank.csv":   "id,type,level,difficulty_score\nm1,mcq,B1,0.1\n",
		"paper.yaml": paperYAML,
	})
	out, err := run(t, "check", "--bank", filepath.Join(dir, "bank.csv"), "--config", filepath.Join(dir, "paper.yaml"))
	require.NoError(t, err)
	var rep assembly.Feasibility
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.False(t, rep.IsValid)
	assert.Contains(t, rep.Issues, "Insufficient cloze items")
}

func TestImportCommand(t *testing.T) {
	dir := writeFiles(t, map[string]string{"bank.json": bankFile})
	dsn := "file:" + filepath.Join(dir, "bank.db")

	out, err := run(t, "import", "--dsn", dsn, "--owner", "t-1", "--bank", filepath.Join(dir, "bank.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"inserted":5,"updated":0}`, out)

	ctx := context.Background()
	dbh, err := db.Open(ctx, db.DriverSQLite, dsn)
	require.NoError(t, err)
	defer dbh.Close()
	snap, err := itembank.NewSQLStore(dbh).Snapshot(ctx, "t-1", "")
	require.NoError(t, err)
	assert.Len(t, snap, 5)
}
