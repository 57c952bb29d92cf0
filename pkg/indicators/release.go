package indicators

import (
	"fmt"
	"time"
)

// Release is one scheduled publication of an indicator's figures.
//
// The value fields are opaque strings on purpose: providers format numbers
// with their own notation ("3.1%", "250K", "1,024.5") and downstream
// consumers interpret them. The engine never parses or normalizes values.
type Release struct {
	// ID is the store-generated identifier. Empty until first persisted.
	ID string `json:"id,omitempty" yaml:"id,omitempty"`

	// IndicatorID, ReleasedAt and Period form the natural key. Changing any
	// of the three identifies a different release, not an update.
	IndicatorID string    `json:"indicator_id" yaml:"indicator_id"`
	ReleasedAt  time.Time `json:"released_at" yaml:"released_at"`
	Period      string    `json:"period" yaml:"period"`

	// Mutable attributes, overwritten wholesale by later batches. A batch
	// that omits one of these sets it back to empty; the engine does not
	// merge against stored values.
	Actual   string `json:"actual,omitempty" yaml:"actual,omitempty"`
	Forecast string `json:"forecast,omitempty" yaml:"forecast,omitempty"`
	Previous string `json:"previous,omitempty" yaml:"previous,omitempty"`
	Revised  string `json:"revised,omitempty" yaml:"revised,omitempty"`
	Unit     string `json:"unit,omitempty" yaml:"unit,omitempty"`
	Notes    string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// Key returns the release's natural key.
func (r *Release) Key() ReleaseKey {
	return NewReleaseKey(r.IndicatorID, r.ReleasedAt, r.Period)
}

// ReleaseKey is the natural key of a Release: (indicator id, release
// timestamp, period label). Always construct via NewReleaseKey so that
// timestamps compare equal regardless of source location or monotonic
// clock reading.
type ReleaseKey struct {
	IndicatorID string
	ReleasedAt  time.Time
	Period      string
}

// NewReleaseKey builds a ReleaseKey with a normalized timestamp, making the
// key usable as a Go map key.
func NewReleaseKey(indicatorID string, releasedAt time.Time, period string) ReleaseKey {
	return ReleaseKey{
		IndicatorID: indicatorID,
		ReleasedAt:  releasedAt.UTC().Truncate(time.Second),
		Period:      period,
	}
}

// String returns a stable human-readable form of the key.
func (k ReleaseKey) String() string {
	return fmt.Sprintf("%s@%s/%s", k.IndicatorID, k.ReleasedAt.Format(time.RFC3339), k.Period)
}
