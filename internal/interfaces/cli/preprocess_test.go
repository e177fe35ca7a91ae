package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	apperrors "github.com/turtacn/bref-insight/pkg/errors"
)

var preprocessInputs = map[string]string{
	"bref_hierarchy_optimized.json": `{"hierarchy":{"CWW":{"id":"CWW","name":"Waste water","children":[{"id":"CWW_1","name":"Scrubbing"}]}},` +
		`"flatMap":{"CWW_1":{"name":"Scrubbing"}}}`,
	"pollutant_filenames.json": `{"NOx":"nox"}`,
	"labels/bref_pollutant.csv": "code,pollutant,label\nCWW_1,NOx,1\n",
}

func TestPreprocessCmd(t *testing.T) {
	in := writeFixtures(t, preprocessInputs)
	out := t.TempDir()

	stdout, _, err := runCLI(t, "-o", "json", "preprocess",
		"--input", in, "--csv", "labels/bref_pollutant.csv", "--output-dir", out)
	require.NoError(t, err)

	var res struct {
		Rows       int      `json:"rows"`
		Files      []string `json:"files"`
		Pollutants []struct {
			Slug string `json:"slug"`
		} `json:"pollutants"`
	}
	decodeJSON(t, stdout, &res)
	assert.Equal(t, 1, res.Rows)
	require.Len(t, res.Pollutants, 1)
	assert.Equal(t, "nox", res.Pollutants[0].Slug)

	nox, err := os.ReadFile(filepath.Join(out, "pollutant_bref_hierarchies", "nox_bref_hierarchy.json"))
	require.NoError(t, err)
	assert.True(t, gjson.GetBytes(nox, "CWW.children.0.hasMatchForPollutant").Bool())

	main, err := os.ReadFile(filepath.Join(out, "bref_hierarchy_optimized.json"))
	require.NoError(t, err)
	assert.Equal(t, `["NOx"]`, gjson.GetBytes(main, "flatMap.CWW_1.matchingPollutants").Raw)

	// Inputs are untouched when an output directory is given.
	orig, err := os.ReadFile(filepath.Join(in, "bref_hierarchy_optimized.json"))
	require.NoError(t, err)
	assert.Equal(t, preprocessInputs["bref_hierarchy_optimized.json"], string(orig))
}

func TestPreprocessCmd_TextOutput(t *testing.T) {
	in := writeFixtures(t, preprocessInputs)

	stdout, _, err := runCLI(t, "--data-root", in, "preprocess", "--csv", "labels/bref_pollutant.csv")
	require.NoError(t, err)
	assert.Contains(t, stdout, "NOx")
	assert.Contains(t, stdout, "OK: 3 files written")
}

func TestPreprocessCmd_MissingHierarchy(t *testing.T) {
	in := writeFixtures(t, map[string]string{"bref_pollutant.csv": "code,pollutant,label\n"})

	_, _, err := runCLI(t, "preprocess", "--input", in)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeResourceNotFound), "got %v", err)
}

func TestPreprocessCmd_UploadNeedsBucket(t *testing.T) {
	in := writeFixtures(t, preprocessInputs)

	_, _, err := runCLI(t, "preprocess", "--input", in, "--csv", "labels/bref_pollutant.csv", "--upload")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeSourceMisconfig), "got %v", err)
}

//Personal.AI order the ending
