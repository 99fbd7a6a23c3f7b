package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()

	storage, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "paywidget.db"))
	require.NoError(t, err)
	t.Cleanup(func() { storage.Close() })

	return storage
}

func TestSQLiteStorageSaveAndLoad(t *testing.T) {
	storage := newTestStorage(t)

	conf := map[string]string{
		"applicationId": "sandbox-sq0idb-AbCdEf123456",
		"locationId":    "LKYXSPGPXK0A5",
		"environment":   "sandbox",
	}

	require.NoError(t, storage.SaveVendorConfig("square", conf))

	loaded, err := storage.LoadVendorConfig("square")
	require.NoError(t, err)
	assert.Equal(t, conf, loaded)
}

func TestSQLiteStorageUpsert(t *testing.T) {
	storage := newTestStorage(t)

	require.NoError(t, storage.SaveVendorConfig("square", map[string]string{"applicationId": "first"}))
	require.NoError(t, storage.SaveVendorConfig("square", map[string]string{"applicationId": "second"}))

	loaded, err := storage.LoadVendorConfig("square")
	require.NoError(t, err)
	assert.Equal(t, "second", loaded["applicationId"])

	stats, err := storage.GetStats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats["total_configs"])
}

func TestSQLiteStorageVendorNameIsLowercased(t *testing.T) {
	storage := newTestStorage(t)

	require.NoError(t, storage.SaveVendorConfig("Square", map[string]string{"applicationId": "x"}))

	loaded, err := storage.LoadVendorConfig("SQUARE")
	require.NoError(t, err)
	assert.Equal(t, "x", loaded["applicationId"])
}

func TestSQLiteStorageLoadAll(t *testing.T) {
	storage := newTestStorage(t)

	require.NoError(t, storage.SaveVendorConfig("square", map[string]string{"applicationId": "sq"}))
	require.NoError(t, storage.SaveVendorConfig("paypal", map[string]string{"clientId": "pp"}))

	configs, err := storage.LoadAllVendorConfigs()
	require.NoError(t, err)
	assert.Len(t, configs, 2)
	assert.Equal(t, "sq", configs["square"]["applicationId"])
	assert.Equal(t, "pp", configs["paypal"]["clientId"])
}

func TestSQLiteStorageLoadMissing(t *testing.T) {
	storage := newTestStorage(t)

	_, err := storage.LoadVendorConfig("unknown")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no configuration found")
}

func TestSQLiteStorageDelete(t *testing.T) {
	storage := newTestStorage(t)

	require.NoError(t, storage.SaveVendorConfig("square", map[string]string{"applicationId": "x"}))
	require.NoError(t, storage.DeleteVendorConfig("square"))

	_, err := storage.LoadVendorConfig("square")
	assert.Error(t, err)

	// Deleting a missing vendor reports an error
	assert.Error(t, storage.DeleteVendorConfig("square"))
}

func TestSQLiteStoragePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "paywidget.db")

	storage, err := NewSQLiteStorage(path)
	require.NoError(t, err)
	require.NoError(t, storage.SaveVendorConfig("square", map[string]string{"applicationId": "x"}))
	require.NoError(t, storage.Close())

	reopened, err := NewSQLiteStorage(path)
	require.NoError(t, err)
	defer reopened.Close()

	loaded, err := reopened.LoadVendorConfig("square")
	require.NoError(t, err)
	assert.Equal(t, "x", loaded["applicationId"])
}

func TestSQLiteStorageStats(t *testing.T) {
	storage := newTestStorage(t)

	stats, err := storage.GetStats()
	require.NoError(t, err)
	assert.Equal(t, 0, stats["total_configs"])
	assert.Equal(t, storage.path, stats["db_path"])
}
