// Package indicators defines the canonical domain types for economic
// indicators and their releases, along with the natural keys used to
// reconcile incoming batches against the store.
//
// Natural keys are business identities, not generated ids: an Indicator is
// identified by (name, country) and a Release by (indicator id, release
// timestamp, period label). Repeated imports that mention the same natural
// key describe the same logical record.
package indicators

import "fmt"

// Indicator is a canonical economic indicator series, such as "CPI" for "US".
type Indicator struct {
	// ID is the store-generated identifier. Empty until first persisted.
	ID string `json:"id,omitempty" yaml:"id,omitempty"`

	// Name and Country form the natural key and are immutable once chosen.
	Name    string `json:"name" yaml:"name"`
	Country string `json:"country" yaml:"country"`

	// Mutable attributes, overwritten wholesale by later batches.
	Category  string `json:"category" yaml:"category"`
	Source    string `json:"source" yaml:"source"`
	SourceURL string `json:"source_url" yaml:"source_url"`
}

// Key returns the indicator's natural key.
func (i *Indicator) Key() IndicatorKey {
	return IndicatorKey{Name: i.Name, Country: i.Country}
}

// IndicatorKey is the natural key of an Indicator: (name, country code).
type IndicatorKey struct {
	Name    string
	Country string
}

// String returns a stable human-readable form of the key.
func (k IndicatorKey) String() string {
	return fmt.Sprintf("%s/%s", k.Country, k.Name)
}
