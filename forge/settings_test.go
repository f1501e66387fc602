package forge

import (
	"os"
	"path/filepath"
	"testing"
)

func writeSettingsFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), SettingsFile)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadSettings(t *testing.T) {
	path := writeSettingsFile(t, "output_dir = \"out\"\ndata_dir = \"chaindata\"\nverbosity = 5\n")
	settings := LoadSettings(path)
	if settings.OutputDir != "out" {
		t.Errorf("output_dir = %q, want %q", settings.OutputDir, "out")
	}
	if settings.DataDir != "chaindata" {
		t.Errorf("data_dir = %q, want %q", settings.DataDir, "chaindata")
	}
	if settings.Verbosity != 5 {
		t.Errorf("verbosity = %d, want 5", settings.Verbosity)
	}
}

func TestLoadSettingsMissingFile(t *testing.T) {
	settings := LoadSettings(filepath.Join(t.TempDir(), "absent.toml"))
	if settings != DefaultSettings() {
		t.Errorf("settings = %+v, want defaults", settings)
	}
}

func TestLoadSettingsPartialFile(t *testing.T) {
	// keys absent from the file keep their defaults
	path := writeSettingsFile(t, "verbosity = 1\n")
	settings := LoadSettings(path)
	if settings.Verbosity != 1 {
		t.Errorf("verbosity = %d, want 1", settings.Verbosity)
	}
	if settings.OutputDir != DefaultSettings().OutputDir {
		t.Errorf("output_dir = %q, want the default", settings.OutputDir)
	}
	if settings.DataDir != DefaultSettings().DataDir {
		t.Errorf("data_dir = %q, want the default", settings.DataDir)
	}
}

func TestLoadSettingsBrokenFile(t *testing.T) {
	path := writeSettingsFile(t, "verbosity = [\n")
	settings := LoadSettings(path)
	if settings != DefaultSettings() {
		t.Errorf("settings = %+v, want defaults", settings)
	}
}
