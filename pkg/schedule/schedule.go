// Package schedule defines the weekly poster configuration document and its
// loading.
package schedule

import (
	"encoding/json"
	"fmt"
	"os"
)

// DefaultBaseTimezone is assumed when the document does not name one.
const DefaultBaseTimezone = "Asia/Taipei"

// Config is the poster configuration document. All event times are
// wall-clock "HH:MM" strings in BaseTimezone, or free-text placeholders for
// times not yet set.
type Config struct {
	Title        string           `json:"title"`
	BaseTimezone string           `json:"baseTimezone"`
	Timezones    []TimezoneOption `json:"timezones"`
	Daily        []Event          `json:"daily"`
	Days         []Day            `json:"days"`
}

// TimezoneOption is one entry of the zone selector offered to viewers.
type TimezoneOption struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Day groups the events of one weekday.
type Day struct {
	Label  string  `json:"label"`
	Events []Event `json:"events"`
}

// Event is a single schedule entry. Note and NoteTime form an optional
// secondary "note + time" field.
type Event struct {
	Name     string `json:"name"`
	Time     string `json:"time"`
	Note     string `json:"note,omitempty"`
	NoteTime string `json:"noteTime,omitempty"`
}

// Offers reports whether the document's selector offers the given zone.
func (c *Config) Offers(tz string) bool {
	if tz == c.BaseTimezone {
		return true
	}
	for _, opt := range c.Timezones {
		if opt.ID == tz {
			return true
		}
	}
	return false
}

// Parse decodes a configuration document and fills in defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing schedule config: %w", err)
	}

	if cfg.BaseTimezone == "" {
		cfg.BaseTimezone = DefaultBaseTimezone
	}

	return &cfg, nil
}

// Load reads a configuration document from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schedule config: %w", err)
	}
	return Parse(data)
}
