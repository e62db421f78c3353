package config

import (
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, data string) string {
	path := filepath.Join(t.TempDir(), "nanofs.yaml")
	require.NoError(t, ioutil.WriteFile(path, []byte(data), 0644))
	return path
}

func TestDefaults(t *testing.T) {
	c, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), *c)
	assert.Equal(t, "disk.dat", c.Disk)
	assert.Equal(t, uint64(25), c.DiskBlocks)
	assert.NoError(t, c.Validate())
	assert.Error(t, c.ValidateRemote(), "no bucket")
}

func TestFileThenEnv(t *testing.T) {
	path := writeFile(t, "disk: /tmp/vol.img\nbucket: backups\ndebug: 3\n")
	t.Setenv("NANOFS_DEBUG", "7")
	t.Setenv("NANOFS_DISK_BLOCKS", "40")

	c, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/vol.img", c.Disk)
	assert.Equal(t, "backups", c.Bucket)
	assert.Equal(t, "nanofs/disk.dat", c.Key)
	assert.Equal(t, uint64(7), c.Debug)
	assert.Equal(t, uint64(40), c.DiskBlocks)
	assert.NoError(t, c.ValidateRemote())
}

func TestConfigFileEnv(t *testing.T) {
	path := writeFile(t, "key: snap/one\n")
	t.Setenv("NANOFS_CONFIG_FILE", path)
	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "snap/one", c.Key)
}

func TestStrict(t *testing.T) {
	path := writeFile(t, "disk: a\nunknown: 1\n")
	_, err := LoadFile(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	c := Default()
	c.DiskBlocks = 3
	assert.Error(t, c.Validate())
	c = Default()
	c.Disk = ""
	assert.Error(t, c.Validate())
}
