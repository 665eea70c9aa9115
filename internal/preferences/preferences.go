package preferences

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// Preferences mirrors the plugin's persisted settings. The keys match the
// plugin's data.json, which is also valid YAML.
type Preferences struct {
	ImportPath     string `yaml:"importPath" json:"importPath"`
	OverwriteFiles bool   `yaml:"overwriteFiles" json:"overwriteFiles"`
}

func Defaults() Preferences {
	return Preferences{
		ImportPath:     "",
		OverwriteFiles: false,
	}
}

// Load reads preferences from path. Keys missing from the file keep their
// defaults and a missing file yields the defaults.
func Load(path string) (Preferences, error) {
	prefs := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return prefs, nil
		}
		return prefs, fmt.Errorf("failed to read preferences: %w", err)
	}

	if err := yaml.Unmarshal(data, &prefs); err != nil {
		return Defaults(), fmt.Errorf("failed to parse preferences %s: %w", path, err)
	}

	return prefs, nil
}
