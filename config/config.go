// Package config loads the nanofs command-line settings from a YAML file and
// the environment. Environment variables win over the file.
package config

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"github.com/mit-pdos/go-nanofs/common"
	"github.com/mit-pdos/go-nanofs/super"
)

const (
	envVarPrefix = "NANOFS"
	appName      = "nanofs"
)

type Config struct {
	Disk       string `envconfig:"NANOFS_DISK"        yaml:"disk"`
	DiskBlocks uint64 `envconfig:"NANOFS_DISK_BLOCKS" yaml:"diskBlocks"`
	Bucket     string `envconfig:"NANOFS_BUCKET"      yaml:"bucket"`
	Key        string `envconfig:"NANOFS_KEY"         yaml:"key"`
	Debug      uint64 `envconfig:"NANOFS_DEBUG"       yaml:"debug"`
}

// Default is the configuration before the file and the environment are
// applied. envconfig defaults would clobber values from the file, so they
// are set here instead.
func Default() Config {
	return Config{
		Disk:       "disk.dat",
		DiskBlocks: MinDiskBlocks(),
		Key:        "nanofs/disk.dat",
	}
}

// DefaultFile is the config file used when NANOFS_CONFIG_FILE is unset.
func DefaultFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.Getenv("HOME")
	}
	return filepath.Join(home, ".config", appName+".yaml")
}

// Load reads the file named by NANOFS_CONFIG_FILE (or DefaultFile) and then
// applies the environment. A missing file is not an error.
func Load() (*Config, error) {
	configFile := os.Getenv(envVarPrefix + "_CONFIG_FILE")
	if configFile == "" {
		configFile = DefaultFile()
	}
	return LoadFile(configFile)
}

func LoadFile(configFile string) (*Config, error) {
	c := Default()
	data, err := ioutil.ReadFile(configFile)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	} else if err := yaml.UnmarshalStrict(data, &c); err != nil {
		return nil, fmt.Errorf("unmarshaling config file: %w", err)
	}

	if err := envconfig.Process(envVarPrefix, &c); err != nil {
		return nil, fmt.Errorf("parsing environment variables: %w", err)
	}

	return &c, nil
}

// MinDiskBlocks is the smallest device that holds a volume.
func MinDiskBlocks() uint64 {
	return super.MkSuperblock(0).NumBlocks()
}

// Validate checks the settings every command needs.
func (c *Config) Validate() error {
	if c.Disk == "" {
		return fmt.Errorf(
			"missing required configuration: disk / %s_DISK",
			envVarPrefix,
		)
	}
	if c.DiskBlocks < MinDiskBlocks() {
		return fmt.Errorf(
			"diskBlocks / %s_DISK_BLOCKS: %d blocks of %d bytes, need at least %d",
			envVarPrefix,
			c.DiskBlocks,
			common.BlockSize,
			MinDiskBlocks(),
		)
	}
	return nil
}

// ValidateRemote additionally checks the snapshot destination.
func (c *Config) ValidateRemote() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if y, e := func() (string, string) {
		if c.Bucket == "" {
			return "bucket", "BUCKET"
		}
		if c.Key == "" {
			return "key", "KEY"
		}
		return "", ""
	}(); y != "" {
		return fmt.Errorf(
			"missing required configuration: %s / %s_%s",
			y,
			envVarPrefix,
			e,
		)
	}
	return nil
}
