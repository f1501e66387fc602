package forge

import (
	"os"

	"github.com/ethereum/go-ethereum/log"
	"github.com/pelletier/go-toml"
)

// SettingsFile is looked up in the working directory.
const SettingsFile = "dawnforge.toml"

// Settings are operator defaults read from dawnforge.toml. Command line
// flags override them; the file itself is optional.
type Settings struct {
	// OutputDir receives the generated genesis files.
	OutputDir string `toml:"output_dir"`
	// DataDir, when set, receives the persisted-genesis store.
	DataDir string `toml:"data_dir"`
	// Verbosity is the log level, 0 (silent) through 5 (trace).
	Verbosity int `toml:"verbosity"`
}

func DefaultSettings() Settings {
	return Settings{
		OutputDir: ".",
		Verbosity: 3,
	}
}

// LoadSettings reads the settings file at path. A missing or unreadable
// file yields the defaults with a warning rather than an error.
func LoadSettings(path string) Settings {
	settings := DefaultSettings()
	data, err := os.ReadFile(path)
	if err != nil {
		log.Warn("No settings file, using defaults", "path", path)
		return settings
	}
	if err := toml.Unmarshal(data, &settings); err != nil {
		log.Warn("Unreadable settings file, using defaults", "path", path, "err", err)
		return DefaultSettings()
	}
	return settings
}
