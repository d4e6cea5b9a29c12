package feed

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

type sourcesFile struct {
	Feeds []Source `yaml:"feeds"`
}

// LoadSources reads the feed source list from a YAML file.
func LoadSources(path string) ([]Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read feeds file: %w", err)
	}

	var parsed sourcesFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse feeds file: %w", err)
	}

	sources := make([]Source, 0, len(parsed.Feeds))
	for _, source := range parsed.Feeds {
		if source.URL == "" {
			slog.Warn("Skipping feed source with empty URL", "file", path)
			continue
		}
		if source.Category == "" {
			source.Category = CategoryGeneral
		}
		sources = append(sources, source)
	}

	if len(sources) == 0 {
		return nil, fmt.Errorf("no feed sources configured in %s", path)
	}

	slog.Debug("Feed sources loaded", "file", path, "count", len(sources))

	return sources, nil
}
