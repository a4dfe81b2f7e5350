package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestNewConfiguration_Defaults verifies the zero-file default configuration.
func TestNewConfiguration_Defaults(t *testing.T) {
	cfg, err := NewConfiguration()
	assert.NoError(t, err)

	assert.Equal(t, 1000, cfg.Reader.ReadAheadMaxRecords)
	assert.Equal(t, 10, cfg.Reader.ReadAheadBatchSize)
	assert.Equal(t, 5000, cfg.Reader.IdleWarnThreshold.Milliseconds())
	assert.Equal(t, 1000, cfg.Reader.IdleCheckInterval.Milliseconds())
	assert.False(t, cfg.Reader.IgnoreTruncationStatus)
	assert.True(t, cfg.Reader.AlertWhenPositioningOnTruncated)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.True(t, cfg.Log.Stdout)

	assert.Equal(t, []string{"localhost:2379"}, cfg.Etcd.GetEndpoints())
	assert.Equal(t, "dlreader", cfg.Etcd.RootPath)
	assert.False(t, cfg.Etcd.Use.Embed)

	assert.Equal(t, 3000, cfg.Store.DialTimeout.Milliseconds())
	assert.Equal(t, 3, cfg.Store.MaxRetries)

	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, 9599, cfg.Metrics.Port)
}

// TestNewConfiguration_FileOverride verifies that a YAML file overrides defaults.
func TestNewConfiguration_FileOverride(t *testing.T) {
	content := `reader:
  readAheadMaxRecords: 5000
  readAheadBatchSize: 50
  ignoreTruncationStatus: true
etcd:
  endpoints: "etcd-0:2379,etcd-1:2379"
  rootPath: "myapp"
store:
  maxRetries: 7
`
	f, err := os.CreateTemp("", "reader_config_*.yaml")
	assert.NoError(t, err)
	defer os.Remove(f.Name())
	_, err = f.WriteString(content)
	assert.NoError(t, err)
	assert.NoError(t, f.Close())

	cfg, err := NewConfiguration(f.Name())
	assert.NoError(t, err)

	assert.Equal(t, 5000, cfg.Reader.ReadAheadMaxRecords)
	assert.Equal(t, 50, cfg.Reader.ReadAheadBatchSize)
	assert.True(t, cfg.Reader.IgnoreTruncationStatus)
	assert.Equal(t, []string{"etcd-0:2379", "etcd-1:2379"}, cfg.Etcd.GetEndpoints())
	assert.Equal(t, "myapp", cfg.Etcd.RootPath)
	assert.Equal(t, 7, cfg.Store.MaxRetries)

	// Untouched defaults survive the partial override.
	assert.Equal(t, "info", cfg.Log.Level)
}

// TestNewConfiguration_LayeredFiles verifies later files win over earlier ones.
func TestNewConfiguration_LayeredFiles(t *testing.T) {
	base, err := os.CreateTemp("", "base_*.yaml")
	assert.NoError(t, err)
	defer os.Remove(base.Name())
	_, err = base.WriteString("reader:\n  readAheadMaxRecords: 100\n  readAheadBatchSize: 5\n")
	assert.NoError(t, err)
	assert.NoError(t, base.Close())

	override, err := os.CreateTemp("", "override_*.yaml")
	assert.NoError(t, err)
	defer os.Remove(override.Name())
	_, err = override.WriteString("reader:\n  readAheadMaxRecords: 200\n")
	assert.NoError(t, err)
	assert.NoError(t, override.Close())

	cfg, err := NewConfiguration(base.Name(), override.Name())
	assert.NoError(t, err)
	assert.Equal(t, 200, cfg.Reader.ReadAheadMaxRecords)
	assert.Equal(t, 5, cfg.Reader.ReadAheadBatchSize)
}
