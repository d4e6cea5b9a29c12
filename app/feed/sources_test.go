package feed

import (
	"os"
	"path/filepath"
	"testing"
)

func writeSourcesFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "feeds.yml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write feeds file: %v", err)
	}
	return path
}

func TestLoadSources(t *testing.T) {
	path := writeSourcesFile(t, `
feeds:
  - url: https://vanguardngr.com/feed/
    category: general
  - url: https://www.completesports.com/feed/
    category: sports
  - url: https://bellanaija.com/feed/
    category: entertainment
`)

	sources, err := LoadSources(path)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(sources) != 3 {
		t.Fatalf("Expected 3 sources, got %d", len(sources))
	}
	if sources[0].URL != "https://vanguardngr.com/feed/" {
		t.Errorf("Expected first source URL preserved, got %q", sources[0].URL)
	}
	if sources[1].Category != CategorySports {
		t.Errorf("Expected category 'sports', got %q", sources[1].Category)
	}
}

func TestLoadSourcesDefaultsCategory(t *testing.T) {
	path := writeSourcesFile(t, `
feeds:
  - url: https://guardian.ng/feed/
`)

	sources, err := LoadSources(path)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if sources[0].Category != CategoryGeneral {
		t.Errorf("Expected missing category to default to 'general', got %q", sources[0].Category)
	}
}

func TestLoadSourcesSkipsEmptyURL(t *testing.T) {
	path := writeSourcesFile(t, `
feeds:
  - url: ""
    category: general
  - url: https://punchng.com/feed/
    category: general
`)

	sources, err := LoadSources(path)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(sources) != 1 {
		t.Fatalf("Expected empty-URL entry skipped, got %d sources", len(sources))
	}
}

func TestLoadSourcesMissingFile(t *testing.T) {
	_, err := LoadSources(filepath.Join(t.TempDir(), "absent.yml"))
	if err == nil {
		t.Error("Expected error for missing feeds file")
	}
}

func TestLoadSourcesEmptyList(t *testing.T) {
	path := writeSourcesFile(t, `feeds: []`)
	_, err := LoadSources(path)
	if err == nil {
		t.Error("Expected error for empty feed source list")
	}
}
