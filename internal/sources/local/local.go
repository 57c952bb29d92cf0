// Package local provides a feeds.Source backed by a YAML file on disk. It
// exists so the sync path can be exercised without network feed adapters:
// operators drop a calendar file next to the binary, and tests use fixtures.
package local

import (
	"context"
	"os"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/macrohub/macrosync/pkg/errors"
	"github.com/macrohub/macrosync/pkg/feeds"
	"github.com/macrohub/macrosync/pkg/indicators"
)

// Source reads candidate events from a YAML calendar file.
type Source struct {
	name string
	path string
}

// New creates a local file source with the given source name.
func New(name, path string) *Source {
	return &Source{name: name, path: path}
}

// Name implements feeds.Source.
func (s *Source) Name() string {
	return s.name
}

// calendarFile is the YAML shape of a local calendar.
type calendarFile struct {
	Events []calendarEvent `yaml:"events"`
}

type calendarEvent struct {
	Indicator  string    `yaml:"indicator"`
	Country    string    `yaml:"country"`
	Category   string    `yaml:"category"`
	Source     string    `yaml:"source"`
	SourceURL  string    `yaml:"source_url"`
	ReleasedAt time.Time `yaml:"released_at"`
	Period     string    `yaml:"period"`
	Actual     string    `yaml:"actual"`
	Forecast   string    `yaml:"forecast"`
	Previous   string    `yaml:"previous"`
	Revised    string    `yaml:"revised"`
	Unit       string    `yaml:"unit"`
	Notes      string    `yaml:"notes"`
	Confirmed  bool      `yaml:"confirmed"`
}

// Fetch implements feeds.Source.
func (s *Source) Fetch(_ context.Context) ([]feeds.Event, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, errors.WrapFeed(s.name, err)
	}

	var file calendarFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.WrapFeed(s.name, err)
	}

	events := make([]feeds.Event, 0, len(file.Events))
	for _, e := range file.Events {
		events = append(events, feeds.Event{
			Source:    s.name,
			Confirmed: e.Confirmed,
			Record: indicators.Record{
				Indicator:  e.Indicator,
				Country:    e.Country,
				Category:   e.Category,
				Source:     e.Source,
				SourceURL:  e.SourceURL,
				ReleasedAt: e.ReleasedAt,
				Period:     e.Period,
				Actual:     e.Actual,
				Forecast:   e.Forecast,
				Previous:   e.Previous,
				Revised:    e.Revised,
				Unit:       e.Unit,
				Notes:      e.Notes,
			},
		})
	}
	return events, nil
}
