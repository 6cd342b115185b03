// Package feed supplies the content a node shell displays: posts, pages,
// socials, fortunes and system information. The host injects the current
// snapshot into every session state before dispatching.
package feed

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tecnoter/ttsh/internal/state"
)

// Feed is the on-disk content document.
type Feed struct {
	Posts      []state.Post     `json:"posts" yaml:"posts"`
	Pages      []state.Page     `json:"pages" yaml:"pages"`
	Socials    []state.Social   `json:"socials" yaml:"socials"`
	Fortunes   []string         `json:"fortunes" yaml:"fortunes"`
	SystemInfo state.SystemInfo `json:"systemInfo" yaml:"systemInfo"`
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// Load reads a feed from path. Files ending in .yaml or .yml are parsed as
// YAML, anything else as JSON. A missing file yields an empty feed.
func Load(path string) (Feed, error) {
	log.Printf("INFO: Loading content feed from %s", path)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("WARN: feed not found at %s. Serving an empty catalog.", path)
			return Feed{}.normalised(), nil
		}
		return Feed{}, fmt.Errorf("failed to read feed %s: %w", path, err)
	}

	f, err := Parse(data, isYAML(path))
	if err != nil {
		return Feed{}, fmt.Errorf("failed to parse feed %s: %w", path, err)
	}

	log.Printf("INFO: Loaded feed with %d posts, %d pages, %d socials, %d fortunes",
		len(f.Posts), len(f.Pages), len(f.Socials), len(f.Fortunes))
	return f, nil
}

// Parse decodes a feed document.
func Parse(data []byte, asYAML bool) (Feed, error) {
	var f Feed
	var err error
	if asYAML {
		err = yaml.Unmarshal(data, &f)
	} else {
		err = json.Unmarshal(data, &f)
	}
	if err != nil {
		return Feed{}, err
	}
	return f.normalised(), nil
}

// normalised replaces nil lists so the snapshot always encodes as arrays.
func (f Feed) normalised() Feed {
	if f.Posts == nil {
		f.Posts = []state.Post{}
	}
	if f.Pages == nil {
		f.Pages = []state.Page{}
	}
	if f.Socials == nil {
		f.Socials = []state.Social{}
	}
	if f.Fortunes == nil {
		f.Fortunes = []string{}
	}
	return f
}
