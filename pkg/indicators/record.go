package indicators

import "time"

// Raw field names accepted at the submission boundary. Parsers for each
// source are expected to emit these keys regardless of the provider's own
// column headings.
const (
	FieldIndicator  = "indicator"
	FieldCountry    = "country"
	FieldCategory   = "category"
	FieldSource     = "source"
	FieldSourceURL  = "source_url"
	FieldReleasedAt = "released_at"
	FieldPeriod     = "period"
	FieldActual     = "actual"
	FieldForecast   = "forecast"
	FieldPrevious   = "previous"
	FieldRevised    = "revised"
	FieldUnit       = "unit"
	FieldNotes      = "notes"
)

// RawRecord is one candidate row as produced by a source parser: a flat
// string-keyed map, unvalidated.
type RawRecord map[string]string

// Record is a validated, typed row. It is produced once by the validator and
// passed immutably through the rest of the pipeline.
type Record struct {
	// Indicator attributes.
	Indicator string
	Country   string
	Category  string
	Source    string
	SourceURL string

	// Release attributes.
	ReleasedAt time.Time
	Period     string
	Actual     string
	Forecast   string
	Previous   string
	Revised    string
	Unit       string
	Notes      string
}

// IndicatorKey returns the natural key of the indicator this row describes.
func (r Record) IndicatorKey() IndicatorKey {
	return IndicatorKey{Name: r.Indicator, Country: r.Country}
}

// ToIndicator builds the indicator attribute set carried by this row.
func (r Record) ToIndicator() Indicator {
	return Indicator{
		Name:      r.Indicator,
		Country:   r.Country,
		Category:  r.Category,
		Source:    r.Source,
		SourceURL: r.SourceURL,
	}
}

// ToRelease builds the release attribute set carried by this row. The
// indicator id is not known at this stage; the planner fills it in after
// resolution.
func (r Record) ToRelease() Release {
	return Release{
		ReleasedAt: r.ReleasedAt,
		Period:     r.Period,
		Actual:     r.Actual,
		Forecast:   r.Forecast,
		Previous:   r.Previous,
		Revised:    r.Revised,
		Unit:       r.Unit,
		Notes:      r.Notes,
	}
}
