package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMissingFileFallsBackToDefaults(t *testing.T) {
	mgr, err := NewManager(filepath.Join(t.TempDir(), "settings.json"))
	require.NoError(t, err)

	current := mgr.Get()
	require.Equal(t, "AL FOURQANE", current.CompanyName)
	require.Equal(t, "rapports", current.ReportsFolder)
	require.Equal(t, "backup", current.BackupFolder)
	require.Equal(t, "Clair", current.Theme)
	require.True(t, current.AutoBackup)
}

func TestSavePersistsAndCreatesFolders(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")

	mgr, err := NewManager(path)
	require.NoError(t, err)

	updated := mgr.Get()
	updated.CompanyName = "Poissonnerie du Port"
	updated.Phone = "0499 00 11 22"
	updated.ReportsFolder = filepath.Join(dir, "rapports")
	updated.BackupFolder = filepath.Join(dir, "sauvegardes")
	updated.AutoBackup = false
	require.NoError(t, mgr.Save(updated))

	require.DirExists(t, updated.ReportsFolder)
	require.DirExists(t, updated.BackupFolder)

	reloaded, err := NewManager(path)
	require.NoError(t, err)
	require.Equal(t, "Poissonnerie du Port", reloaded.Get().CompanyName)
	require.False(t, reloaded.Get().AutoBackup)
}

func TestSaveRejectsEmptyCompanyName(t *testing.T) {
	mgr, err := NewManager(filepath.Join(t.TempDir(), "settings.json"))
	require.NoError(t, err)

	updated := mgr.Get()
	updated.CompanyName = "   "
	require.Error(t, mgr.Save(updated))
}

func TestUnknownKeysAreIgnored(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	payload := []byte(`{"company_name": "Chez Momo", "legacy_field": 42}`)
	require.NoError(t, os.WriteFile(path, payload, 0o644))

	mgr, err := NewManager(path)
	require.NoError(t, err)
	require.Equal(t, "Chez Momo", mgr.Get().CompanyName)
	require.Equal(t, "rapports", mgr.Get().ReportsFolder)
}
