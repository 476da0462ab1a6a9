package news

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// SourceConfig is the operator-level configuration for one adapter,
// loaded from a YAML file in the sources directory.
type SourceConfig struct {
	Name     string               // Derived from filename (without .yml extension)
	Source   string               `yaml:"source"` // Display name from the source enumeration
	Settings SourceConfigSettings `yaml:"settings"`
}

type SourceConfigSettings struct {
	Enabled         bool `yaml:"enabled"`
	RefreshInterval int  `yaml:"refresh_interval"` // seconds
	MaxArticles     int  `yaml:"max_articles"`
	Timeout         int  `yaml:"timeout"` // seconds
	ExtractContent  bool `yaml:"extract_content"`
}

type ConfigCache struct {
	sourcesDir string
	cache      map[string]*SourceConfig
	mu         sync.RWMutex
}

func NewConfigCache(sourcesDir string) *ConfigCache {
	return &ConfigCache{
		sourcesDir: sourcesDir,
		cache:      make(map[string]*SourceConfig),
	}
}

func (cc *ConfigCache) Run() error {
	if _, err := os.Stat(cc.sourcesDir); os.IsNotExist(err) {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(cc.sourcesDir, "*.yml"))
	if err != nil {
		return fmt.Errorf("failed to find YML files: %w", err)
	}

	for _, file := range files {
		fileName := filepath.Base(file)
		configName := strings.TrimSuffix(fileName, ".yml")

		config, err := cc.LoadConfig(configName)
		if err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}

		slog.Debug("Source configuration loaded",
			"name", configName,
			"source", config.Source,
			"enabled", config.Settings.Enabled,
			"refresh_interval", config.Settings.RefreshInterval)
	}

	return nil
}

func (cc *ConfigCache) LoadConfig(configName string) (*SourceConfig, error) {
	configFile := filepath.Join(cc.sourcesDir, configName+".yml")

	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var config SourceConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	config.Name = configName
	cc.setDefaults(&config)

	if err := cc.validate(&config); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configFile, err)
	}

	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.cache[config.Name] = &config

	return &config, nil
}

func (cc *ConfigCache) GetConfig(configName string) (*SourceConfig, error) {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	config, ok := cc.cache[configName]
	if !ok {
		return nil, fmt.Errorf("no configuration loaded for %s", configName)
	}
	return config, nil
}

func (cc *ConfigCache) GetConfigs() []*SourceConfig {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	configs := make([]*SourceConfig, 0, len(cc.cache))
	for _, config := range cc.cache {
		configs = append(configs, config)
	}
	sort.Slice(configs, func(i, j int) bool { return configs[i].Name < configs[j].Name })
	return configs
}

func (cc *ConfigCache) GetEnabledConfigs() []*SourceConfig {
	var enabled []*SourceConfig
	for _, config := range cc.GetConfigs() {
		if config.Settings.Enabled {
			enabled = append(enabled, config)
		}
	}
	return enabled
}

// EnabledSourceNames returns the display names of the enabled sources, in
// config-name order. Used as the default enabled-source set when a query
// does not specify one.
func (cc *ConfigCache) EnabledSourceNames() []string {
	var names []string
	for _, config := range cc.GetEnabledConfigs() {
		names = append(names, config.Source)
	}
	return names
}

func (cc *ConfigCache) GetConfigCount() int {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return len(cc.cache)
}

func (cc *ConfigCache) setDefaults(config *SourceConfig) {
	if config.Settings.RefreshInterval == 0 {
		config.Settings.RefreshInterval = 900
	}
	if config.Settings.MaxArticles == 0 {
		config.Settings.MaxArticles = 50
	}
	if config.Settings.Timeout == 0 {
		config.Settings.Timeout = 15
	}
}

func (cc *ConfigCache) validate(config *SourceConfig) error {
	switch config.Source {
	case SourceGuardian, SourceNYTimes, SourceNewsAPI:
		return nil
	case "":
		return fmt.Errorf("missing source name")
	default:
		return fmt.Errorf("unknown source name: %s", config.Source)
	}
}
