package knowledge

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// maxDocumentBytes caps how much of a single file enters the index. Oversize
// files are truncated, not rejected.
const maxDocumentBytes = 64 * 1024

// Manifest declares which files form the local knowledge corpus.
type Manifest struct {
	Documents []DocumentRule `yaml:"documents"`
}

// DocumentRule selects files by glob, relative to the corpus root.
type DocumentRule struct {
	Glob string `yaml:"glob"`
	Tag  string `yaml:"tag,omitempty"`
}

// Document is one loaded corpus entry.
type Document struct {
	Locator string
	Tag     string
	Text    string
}

// LoadManifest reads and validates a corpus manifest.
func LoadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("read corpus manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("parse corpus manifest: %w", err)
	}
	if len(m.Documents) == 0 {
		return Manifest{}, fmt.Errorf("corpus manifest declares no documents")
	}
	for i, rule := range m.Documents {
		if strings.TrimSpace(rule.Glob) == "" {
			return Manifest{}, fmt.Errorf("documents[%d]: glob is required", i)
		}
	}
	return m, nil
}

// LoadCorpus resolves the manifest globs against root and loads each matched
// file as one document. Matches are deduplicated and sorted by locator so the
// resulting index is stable across runs.
func LoadCorpus(root string, m Manifest) ([]Document, error) {
	seen := make(map[string]string) // locator -> tag
	for _, rule := range m.Documents {
		matches, err := filepath.Glob(filepath.Join(root, rule.Glob))
		if err != nil {
			return nil, fmt.Errorf("resolve glob %q: %w", rule.Glob, err)
		}
		for _, match := range matches {
			rel, err := filepath.Rel(root, match)
			if err != nil {
				rel = match
			}
			if _, ok := seen[rel]; !ok {
				seen[rel] = rule.Tag
			}
		}
	}

	locators := make([]string, 0, len(seen))
	for locator := range seen {
		locators = append(locators, locator)
	}
	sort.Strings(locators)

	docs := make([]Document, 0, len(locators))
	for _, locator := range locators {
		info, err := os.Stat(filepath.Join(root, locator))
		if err != nil || info.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(root, locator))
		if err != nil {
			return nil, fmt.Errorf("read corpus file %q: %w", locator, err)
		}
		if len(data) > maxDocumentBytes {
			data = data[:maxDocumentBytes]
		}
		text := strings.TrimSpace(string(data))
		if text == "" {
			continue
		}
		docs = append(docs, Document{
			Locator: locator,
			Tag:     seen[locator],
			Text:    text,
		})
	}
	return docs, nil
}
