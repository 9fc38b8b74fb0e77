package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// QueryCase is a recorded query and the publication numbers a reference
// engine returned for it.
type QueryCase struct {
	Name    string   `json:"-"`
	Query   string   `json:"query"`
	Results []string `json:"results"`
}

// ReadQueryCases loads every *.json file in dir, sorted by file name.
func ReadQueryCases(dir string) ([]QueryCase, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("listing query cases: %w", err)
	}
	sort.Strings(paths)

	out := make([]QueryCase, 0, len(paths))
	for _, path := range paths {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		var c QueryCase
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		c.Name = filepath.Base(path)
		out = append(out, c)
	}
	return out, nil
}
