package decoder

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectRenamesMappedAndPreservesUnmappedCasing(t *testing.T) {
	d, err := New(Options{
		Path: "in.csv",
		Columns: []ColumnMapping{
			{Source: "Name", Target: "account_name"},
			{Source: "Amount", Target: "revenue"},
		},
	})
	require.NoError(t, err)

	fr := frame{
		columns: []string{"NAME", "ReGiOn", "amount"},
		rows:    [][]string{{"acme", "emea", "9"}},
	}
	header, take, err := d.project(&fr)
	require.NoError(t, err)

	assert.Equal(t, []string{"account_name", "revenue"}, header)
	assert.Equal(t, []int{0, 2}, take)
	// Mapped columns are rewritten in place; unmapped ones keep whatever
	// casing the source file used.
	assert.Equal(t, []string{"account_name", "ReGiOn", "revenue"}, fr.columns)
}

func TestClassify(t *testing.T) {
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "data.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("a,b\n1,2\n"), 0o644))

	xlsxPath := filepath.Join(dir, "data.xlsx")
	require.NoError(t, os.WriteFile(xlsxPath, []byte("ignored"), 0o644))

	zipPath := filepath.Join(dir, "data.bin")
	var zbuf bytes.Buffer
	zw := zip.NewWriter(&zbuf)
	_, err := zw.Create("member")
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, os.WriteFile(zipPath, zbuf.Bytes(), 0o644))

	tarPath := filepath.Join(dir, "data.dat")
	var tbuf bytes.Buffer
	tw := tar.NewWriter(&tbuf)
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "member", Mode: 0o644, Size: 0}))
	require.NoError(t, tw.Close())
	require.NoError(t, os.WriteFile(tarPath, tbuf.Bytes(), 0o644))

	textPath := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(textPath, []byte("plain text"), 0o644))

	tests := []struct {
		path string
		want entryKind
	}{
		{dir, kindDirectory},
		{csvPath, kindTabular},
		{xlsxPath, kindTabular},
		{zipPath, kindZip},
		{tarPath, kindTar},
		{textPath, kindUnknown},
	}
	for _, tc := range tests {
		got, err := classify(tc.path)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, tc.path)
	}
}
