package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadFilesReadsContent(t *testing.T) {
	dir := t.TempDir()
	emsPath := filepath.Join(dir, "estimate_7741.ems")
	require.NoError(t, os.WriteFile(emsPath, []byte("EST|EST-7741|2025-03-01"), 0o600))
	bmsPath := filepath.Join(dir, "estimate_7742.xml")
	require.NoError(t, os.WriteFile(bmsPath, []byte("<Estimate></Estimate>"), 0o600))

	files, err := LoadFiles([]string{emsPath, bmsPath})
	require.NoError(t, err)
	require.Len(t, files, 2)
	require.Equal(t, "estimate_7741.ems", files[0].Name)
	require.Equal(t, []byte("EST|EST-7741|2025-03-01"), files[0].Content)
	require.Equal(t, "estimate_7742.xml", files[1].Name)
}

func TestLoadFilesMissingFile(t *testing.T) {
	_, err := LoadFiles([]string{filepath.Join(t.TempDir(), "absent.ems")})
	require.Error(t, err)
}

func TestLoadFilesEmpty(t *testing.T) {
	_, err := LoadFiles(nil)
	require.Error(t, err)
}
