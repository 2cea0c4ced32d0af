package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `filename,text,up_votes,down_votes,age,gender,accent,duration,generated_text
cv-valid-dev/sample-000000.mp3,be careful,1,0,,,,5.1,BE CAREFUL
cv-valid-dev/sample-000001.mp3,hello,2,0,twenties,female,us,,HELLO WORLD
cv-valid-dev/sample-000002.mp3,missing,1,0,thirties,male,england,3,
`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("SEARCH_ENGINE", "memory")
	t.Setenv("LOG_LEVEL", "error")

	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cv-valid-dev.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRootCommand_HasSubcommands(t *testing.T) {
	root := NewRootCommand()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"serve", "index", "ui"})
}

func TestIndex_LoadsCSVIntoMemoryEngine(t *testing.T) {
	path := writeCSV(t, sampleCSV)

	out, err := run(t, "index", "--file", path, "--batch-size", "2")
	require.NoError(t, err)
	assert.Equal(t, "Indexed 3 documents with 0 failures.\n", out)
}

func TestIndex_FileFromEnvironment(t *testing.T) {
	t.Setenv("FILEPATH", writeCSV(t, sampleCSV))

	out, err := run(t, "index")
	require.NoError(t, err)
	assert.Contains(t, out, "Indexed 3 documents")
}

func TestIndex_RequiresFile(t *testing.T) {
	t.Setenv("FILEPATH", "")

	_, err := run(t, "index")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--file is required")
}

func TestIndex_MissingFile(t *testing.T) {
	_, err := run(t, "index", "--file", filepath.Join(t.TempDir(), "absent.csv"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestIndex_MissingTextColumn(t *testing.T) {
	path := writeCSV(t, "filename,age\nclip.mp3,twenties\n")

	_, err := run(t, "index", "--file", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "generated_text")
}

func TestIndex_PublishNeedsBrokers(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "")
	path := writeCSV(t, sampleCSV)

	_, err := run(t, "index", "--file", path, "--publish")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_BROKERS")
}

func TestServe_RejectsArguments(t *testing.T) {
	_, err := run(t, "serve", "extra")
	require.Error(t, err)
}

func TestIndex_PublishAndRecreateConflict(t *testing.T) {
	path := writeCSV(t, sampleCSV)

	_, err := run(t, "index", "--file", path, "--publish", "--recreate")
	require.Error(t, err)
}

func TestIndex_RecreateOnMemoryEngine(t *testing.T) {
	path := writeCSV(t, sampleCSV)

	out, err := run(t, "index", "--file", path, "--recreate")
	require.NoError(t, err)
	assert.Contains(t, out, "Indexed 3 documents")
}
