package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Watchlist is the set of channels re-ingested by the scheduler in addition
// to the channels already stored.
type Watchlist struct {
	Channels []string `yaml:"channels"`
}

// LoadWatchlist reads a YAML watchlist. A missing file yields an empty list.
func LoadWatchlist(path string) (*Watchlist, error) {
	if path == "" {
		return &Watchlist{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Watchlist{}, nil
		}
		return nil, fmt.Errorf("read watchlist: %w", err)
	}

	var wl Watchlist
	if err := yaml.Unmarshal(data, &wl); err != nil {
		return nil, fmt.Errorf("parse watchlist %s: %w", path, err)
	}

	// drop blanks and duplicates, keep file order
	seen := make(map[string]bool, len(wl.Channels))
	out := wl.Channels[:0]
	for _, ch := range wl.Channels {
		ch = strings.TrimSpace(ch)
		if ch == "" || seen[ch] {
			continue
		}
		seen[ch] = true
		out = append(out, ch)
	}
	wl.Channels = out

	return &wl, nil
}
