// Package authority determines which feed source wins when more than one
// source reports the same real-world release.
//
// The order is explicit configuration, never inferred from registration
// order: operators list sources from most to least authoritative, and that
// list is the single tie-break used by the deduplicator.
package authority

import (
	"os"

	"github.com/goccy/go-yaml"

	"github.com/macrohub/macrosync/pkg/errors"
)

// Order is a deterministic source priority order. Higher priority means more
// authoritative. Sources not in the order rank below every configured one.
type Order struct {
	priorities map[string]int
	names      []string
}

// New creates an Order from a list of source names, most authoritative
// first.
func New(names ...string) *Order {
	o := &Order{
		priorities: make(map[string]int, len(names)),
		names:      names,
	}
	for i, name := range names {
		o.priorities[name] = len(names) - i
	}
	return o
}

// Priority returns the source's priority. Unknown sources get 0, below any
// configured source.
func (o *Order) Priority(source string) int {
	return o.priorities[source]
}

// Known reports whether the source appears in the configured order.
func (o *Order) Known(source string) bool {
	_, ok := o.priorities[source]
	return ok
}

// Names returns the configured source names, most authoritative first.
func (o *Order) Names() []string {
	return o.names
}

// file is the YAML shape of a priority configuration file.
type file struct {
	Sources []string `yaml:"sources"`
}

// Load reads a priority order from a YAML file of the form:
//
//	sources:
//	  - tradingfloor
//	  - cme-calendar
//	  - govstats
func Load(path string) (*Order, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewConfigError("authority", "reading priority file", err)
	}
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.NewConfigError("authority", "parsing priority file", err)
	}
	if len(f.Sources) == 0 {
		return nil, errors.NewConfigError("authority", "priority file lists no sources", nil)
	}
	return New(f.Sources...), nil
}
