package news

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigCacheLoadValidConfig(t *testing.T) {
	// Create temp directory
	tempDir := t.TempDir()

	// Create test YAML file
	content := `
source: "The Guardian"

settings:
  enabled: true
  refresh_interval: 1800
  max_articles: 25
  timeout: 10
  extract_content: true
`

	err := os.WriteFile(filepath.Join(tempDir, "guardian.yml"), []byte(content), 0644)
	if err != nil {
		t.Fatal(err)
	}

	configCache := NewConfigCache(tempDir)
	err = configCache.Run()
	if err != nil {
		t.Fatal(err)
	}

	if configCache.GetConfigCount() != 1 {
		t.Errorf("Expected 1 config, got %d", configCache.GetConfigCount())
	}

	config, err := configCache.GetConfig("guardian")
	if err != nil {
		t.Fatal(err)
	}

	if config.Name != "guardian" {
		t.Errorf("Expected name 'guardian', got '%s'", config.Name)
	}
	if config.Source != SourceGuardian {
		t.Errorf("Expected source '%s', got '%s'", SourceGuardian, config.Source)
	}
	if config.Settings.RefreshInterval != 1800 {
		t.Errorf("Expected refresh interval 1800, got %d", config.Settings.RefreshInterval)
	}
	if config.Settings.MaxArticles != 25 {
		t.Errorf("Expected max articles 25, got %d", config.Settings.MaxArticles)
	}
	if !config.Settings.ExtractContent {
		t.Error("Expected extract_content true")
	}
}

func TestConfigCacheLoadConfigWithDefaults(t *testing.T) {
	tempDir := t.TempDir()

	// Create minimal test YAML file
	content := `
source: "NewsAPI"

settings:
  enabled: true
`

	err := os.WriteFile(filepath.Join(tempDir, "newsapi.yml"), []byte(content), 0644)
	if err != nil {
		t.Fatal(err)
	}

	configCache := NewConfigCache(tempDir)
	if err := configCache.Run(); err != nil {
		t.Fatal(err)
	}

	config, err := configCache.GetConfig("newsapi")
	if err != nil {
		t.Fatal(err)
	}

	if config.Settings.RefreshInterval != 900 {
		t.Errorf("Expected default refresh interval 900, got %d", config.Settings.RefreshInterval)
	}
	if config.Settings.MaxArticles != 50 {
		t.Errorf("Expected default max articles 50, got %d", config.Settings.MaxArticles)
	}
	if config.Settings.Timeout != 15 {
		t.Errorf("Expected default timeout 15, got %d", config.Settings.Timeout)
	}
	if config.Settings.ExtractContent {
		t.Error("Expected extract_content default false")
	}
}

func TestConfigCacheRejectsUnknownSource(t *testing.T) {
	tempDir := t.TempDir()

	content := `
source: "Some Other Wire"

settings:
  enabled: true
`

	err := os.WriteFile(filepath.Join(tempDir, "other.yml"), []byte(content), 0644)
	if err != nil {
		t.Fatal(err)
	}

	configCache := NewConfigCache(tempDir)
	if err := configCache.Run(); err == nil {
		t.Error("Expected error for unknown source name, got nil")
	}
}

func TestConfigCacheEnabledSourceNames(t *testing.T) {
	tempDir := t.TempDir()

	files := map[string]string{
		"guardian.yml": "source: \"The Guardian\"\nsettings:\n  enabled: true\n",
		"newsapi.yml":  "source: \"NewsAPI\"\nsettings:\n  enabled: false\n",
		"nytimes.yml":  "source: \"New York Times\"\nsettings:\n  enabled: true\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(tempDir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	configCache := NewConfigCache(tempDir)
	if err := configCache.Run(); err != nil {
		t.Fatal(err)
	}

	names := configCache.EnabledSourceNames()
	if len(names) != 2 {
		t.Fatalf("Expected 2 enabled sources, got %d", len(names))
	}

	// Config-name order: guardian before nytimes
	if names[0] != SourceGuardian || names[1] != SourceNYTimes {
		t.Errorf("Expected [%s %s], got %v", SourceGuardian, SourceNYTimes, names)
	}
}

func TestConfigCacheMissingDirectory(t *testing.T) {
	configCache := NewConfigCache("/nonexistent/sources/dir")
	if err := configCache.Run(); err != nil {
		t.Errorf("Expected missing directory to be tolerated, got: %v", err)
	}
	if configCache.GetConfigCount() != 0 {
		t.Errorf("Expected 0 configs, got %d", configCache.GetConfigCount())
	}
}
