// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package report_test

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xeipuuv/gojsonschema"

	jsonfmt "censor-scan/internal/formatters/json"
	"censor-scan/internal/report"
	"censor-scan/internal/terms"
)

const reportSchema = `{
  "type": "object",
  "required": ["name", "createdTime", "censoredWords", "files"],
  "properties": {
    "name": {"type": "string", "pattern": "^[0-9]{14}$"},
    "createdTime": {"type": "string", "format": "date-time"},
    "censoredWords": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["word", "count"],
        "properties": {
          "word": {"type": "string"},
          "count": {"type": "integer", "minimum": 0}
        }
      }
    },
    "files": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name", "path", "size", "words"],
        "properties": {
          "name": {"type": "string"},
          "path": {"type": "string"},
          "size": {"type": "integer", "minimum": 0},
          "words": {"type": "array", "minItems": 1}
        }
      }
    }
  }
}`

func sampleReport() *report.RunReport {
	created := time.Date(2024, time.March, 7, 9, 5, 3, 0, time.UTC)
	return report.New("07032024090503", created,
		[]terms.WordCount{{Word: "secret", Count: 3}, {Word: "unused", Count: 0}},
		[]report.FileEntry{
			{Name: "b.txt", Path: "/data/z/b.txt", Size: 20, Words: []terms.WordCount{{Word: "secret", Count: 1}}},
			{Name: "a.txt", Path: "/data/a.txt", Size: 10, Words: []terms.WordCount{{Word: "secret", Count: 2}}},
		})
}

func TestNew_SortsFilesByPath(t *testing.T) {
	r := sampleReport()

	require.Len(t, r.Files, 2)
	assert.Equal(t, "/data/a.txt", r.Files[0].Path)
	assert.Equal(t, "/data/z/b.txt", r.Files[1].Path)
	assert.Equal(t, 3, r.TotalMatches())
	assert.Equal(t, 2, r.Files[0].Total())
}

func TestNew_EmptyCollectionsSerializeAsArrays(t *testing.T) {
	r := report.New("07032024090503", time.Now(), nil, nil)

	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"censoredWords":[]`)
	assert.Contains(t, string(data), `"files":[]`)
}

func TestGenerator_WritesValidReport(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/reports/run", 0700))
	gen := report.NewGenerator(fs, nil, jsonfmt.NewFormatter())

	path, err := gen.Write("/reports/run", sampleReport())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/reports/run", "report.json"), path)

	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(reportSchema),
		gojsonschema.NewBytesLoader(data),
	)
	require.NoError(t, err)
	assert.True(t, result.Valid(), "%v", result.Errors())

	var decoded report.RunReport
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "07032024090503", decoded.Name)
	assert.Equal(t, 3, decoded.CensoredWords[0].Count)

	exists, err := afero.Exists(fs, path+".tmp")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestGenerator_OverwritesExistingReport(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/run/report.json", []byte("old"), 0600))
	gen := report.NewGenerator(fs, nil, jsonfmt.NewFormatter())

	path, err := gen.Write("/run", sampleReport())
	require.NoError(t, err)

	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	assert.NotEqual(t, "old", string(data))

	exists, err := afero.Exists(fs, path+".bak")
	require.NoError(t, err)
	assert.False(t, exists)
}

type failingEncoder struct{}

func (failingEncoder) Name() string          { return "broken" }
func (failingEncoder) FileExtension() string { return ".broken" }
func (failingEncoder) Format(*report.RunReport) ([]byte, error) {
	return nil, errors.New("boom")
}

func TestGenerator_ExtraFormatFailureIsSkipped(t *testing.T) {
	fs := afero.NewMemMapFs()
	gen := report.NewGenerator(fs, nil, jsonfmt.NewFormatter(), failingEncoder{})
	assert.Equal(t, []string{"json", "broken"}, gen.Formats())

	path, err := gen.Write("/run", sampleReport())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/run", "report.json"), path)
}

func TestGenerator_PrimaryFailureFails(t *testing.T) {
	gen := report.NewGenerator(afero.NewMemMapFs(), nil, failingEncoder{})

	_, err := gen.Write("/run", sampleReport())
	assert.Error(t, err)
}
