// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/verte-zerg/gnssview/internal/api"
	"github.com/verte-zerg/gnssview/internal/model"
)

// APIURLEnv overrides the backend URL from the config file.
const APIURLEnv = "GNSS_API_URL"

// DefaultAPIURL is used when nothing else names a backend.
const DefaultAPIURL = api.DefaultBaseURL

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Client  ClientConfig  `toml:"client"`
	History HistoryConfig `toml:"history"`
}

// ClientConfig maps backend and initial selection settings.
type ClientConfig struct {
	APIURL  *string `toml:"api-url"`
	Timeout *int    `toml:"timeout"`
	Dataset *string `toml:"dataset"`
	Model   *string `toml:"model"`
}

// HistoryConfig maps snapshot log settings.
type HistoryConfig struct {
	Enabled *bool `toml:"enabled"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// Overrides holds values set explicitly on the command line. Nil means unset.
type Overrides struct {
	APIURL    *string
	Timeout   *int
	Dataset   *string
	Model     *string
	NoHistory bool
}

// Resolve merges defaults, the config file, the environment and flags, in
// increasing order of precedence. getenv is usually os.Getenv.
func Resolve(file FileConfig, flags Overrides, getenv func(string) string) (model.Config, error) {
	cfg := model.Config{
		APIURL:         DefaultAPIURL,
		Dataset:        model.DatasetGEO,
		Model:          model.DefaultModel,
		HistoryEnabled: true,
	}

	if file.Client.APIURL != nil && *file.Client.APIURL != "" {
		cfg.APIURL = *file.Client.APIURL
	}
	if getenv != nil {
		if v := getenv(APIURLEnv); v != "" {
			cfg.APIURL = v
		}
	}
	if flags.APIURL != nil && *flags.APIURL != "" {
		cfg.APIURL = *flags.APIURL
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	if cfg.APIURL == "" {
		return model.Config{}, fmt.Errorf("api url is empty")
	}

	timeout := 0
	if file.Client.Timeout != nil {
		timeout = *file.Client.Timeout
	}
	if flags.Timeout != nil {
		timeout = *flags.Timeout
	}
	if timeout < 0 {
		return model.Config{}, fmt.Errorf("timeout must be >= 0")
	}
	cfg.Timeout = time.Duration(timeout) * time.Second

	if file.Client.Dataset != nil {
		cfg.Dataset = *file.Client.Dataset
	}
	if flags.Dataset != nil {
		cfg.Dataset = *flags.Dataset
	}
	if !knownDataset(cfg.Dataset) {
		return model.Config{}, fmt.Errorf("unknown dataset %q (want one of %s)", cfg.Dataset, strings.Join(model.Datasets, ", "))
	}

	if file.Client.Model != nil && *file.Client.Model != "" {
		cfg.Model = *file.Client.Model
	}
	if flags.Model != nil && *flags.Model != "" {
		cfg.Model = *flags.Model
	}

	if file.History.Enabled != nil {
		cfg.HistoryEnabled = *file.History.Enabled
	}
	if flags.NoHistory {
		cfg.HistoryEnabled = false
	}
	return cfg, nil
}

func knownDataset(id string) bool {
	for _, ds := range model.Datasets {
		if ds == id {
			return true
		}
	}
	return false
}
