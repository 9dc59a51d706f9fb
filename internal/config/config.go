package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

// SlotLimit is the most patients a run can hold; the display selects slots
// with the keys 1 to 4.
const SlotLimit = 4

type Config struct {
	DataDir    string `env:"BALNEO_DATA_DIR"`
	DBPath     string `env:"BALNEO_DB_PATH"`
	CatalogDir string `env:"BALNEO_CATALOG_DIR"`
	CueScript  string `env:"BALNEO_CUE_SCRIPT"`
	Bell       bool   `env:"BALNEO_BELL" envDefault:"true"`
	MinSlots   int    `env:"BALNEO_MIN_SLOTS" envDefault:"2"`
	MaxSlots   int    `env:"BALNEO_MAX_SLOTS" envDefault:"4"`
}

func New() (*Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if c.DataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		c.DataDir = filepath.Join(homeDir, ".balneo")
	}
	if c.DBPath == "" {
		c.DBPath = filepath.Join(c.DataDir, "balneo.db")
	}
	if c.CatalogDir == "" {
		c.CatalogDir = filepath.Join(c.DataDir, "catalog")
	}
	if c.CueScript == "" {
		c.CueScript = filepath.Join(c.DataDir, "cues.lua")
	}

	if c.MinSlots < 1 || c.MaxSlots < c.MinSlots || c.MaxSlots > SlotLimit {
		return nil, fmt.Errorf("invalid slot range %d..%d (allowed 1..%d)", c.MinSlots, c.MaxSlots, SlotLimit)
	}

	return &c, nil
}

func (c *Config) EnsureDataDir() error {
	if err := os.MkdirAll(c.DataDir, 0755); err != nil {
		return err
	}
	return nil
}

func (c *Config) LogPath() string {
	return filepath.Join(c.DataDir, "balneo.log")
}
