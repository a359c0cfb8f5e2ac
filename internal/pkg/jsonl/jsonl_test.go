package jsonl

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	Name string `json:"name"`
	N    int    `json:"n"`
}

func scanRows(t *testing.T, fs afero.Fs, path string) ([]row, error) {
	t.Helper()

	var out []row
	err := Scan(fs, path, func(line []byte) error {
		var r row
		if err := Decode(line, &r); err != nil {
			return err
		}
		out = append(out, r)
		return nil
	})

	return out, err
}

func TestAppendScan(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()

	rows, err := scanRows(t, fs, "/data/rows.jsonl")
	require.NoError(t, err)
	assert.Empty(t, rows)

	require.NoError(t, Append(fs, "/data/rows.jsonl", row{Name: "a", N: 1}))
	require.NoError(t, Append(fs, "/data/rows.jsonl", row{Name: "b", N: 2}))

	rows, err = scanRows(t, fs, "/data/rows.jsonl")
	require.NoError(t, err)
	assert.Equal(t, []row{{"a", 1}, {"b", 2}}, rows)
}

func TestRewrite(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, Append(fs, "/rows.jsonl", row{Name: "a", N: 1}))

	require.NoError(t, Rewrite(fs, "/rows.jsonl", []row{{"x", 9}}))

	rows, err := scanRows(t, fs, "/rows.jsonl")
	require.NoError(t, err)
	assert.Equal(t, []row{{"x", 9}}, rows)

	entries, err := afero.ReadDir(fs, "/")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestScan_Strict(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		line int
	}{
		{name: "UnknownField", body: `{"name":"a","n":1}` + "\n" + `{"name":"b","extra":true}` + "\n", line: 2},
		{name: "Garbage", body: "\n" + `not json` + "\n", line: 2},
		{name: "TwoValues", body: `{"name":"a"} {"name":"b"}` + "\n", line: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fs := afero.NewMemMapFs()
			require.NoError(t, afero.WriteFile(fs, "/rows.jsonl", []byte(tt.body), 0o600))

			_, err := scanRows(t, fs, "/rows.jsonl")

			var le *LineError
			require.ErrorAs(t, err, &le)
			assert.Equal(t, tt.line, le.Line)
		})
	}
}
