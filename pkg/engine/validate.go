package engine

import (
	"strings"
	"time"

	"github.com/macrohub/macrosync/pkg/errors"
	"github.com/macrohub/macrosync/pkg/indicators"
)

// headerRowOffset shifts reported row numbers so they match what the
// uploader sees in a spreadsheet with a header row: the first data row is
// row 2.
const headerRowOffset = 1

// requiredFields must be present and non-empty on every row.
var requiredFields = []string{
	indicators.FieldIndicator,
	indicators.FieldCountry,
	indicators.FieldCategory,
	indicators.FieldSource,
	indicators.FieldSourceURL,
	indicators.FieldReleasedAt,
	indicators.FieldPeriod,
}

// timestampLayouts are the accepted release timestamp formats, tried in
// order.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// validate schema-checks every candidate row, collecting all failures
// rather than stopping at the first. If any row fails, the whole batch is
// rejected: the returned ValidationError enumerates every failure (capped
// to errorCap) and no records are returned.
//
// Optional value fields pass through as opaque strings; provider notation
// like "3.1%" or "250K" is preserved, not parsed.
func validate(raw []indicators.RawRecord, errorCap int) ([]indicators.Record, *errors.ValidationError) {
	records := make([]indicators.Record, 0, len(raw))
	var failures []*errors.RowError

	for i, row := range raw {
		rowNum := i + 1 + headerRowOffset

		rowFailures := checkRow(rowNum, row)
		if len(rowFailures) > 0 {
			failures = append(failures, rowFailures...)
			continue
		}

		releasedAt, _ := parseTimestamp(row[indicators.FieldReleasedAt])
		records = append(records, indicators.Record{
			Indicator:  strings.TrimSpace(row[indicators.FieldIndicator]),
			Country:    strings.TrimSpace(row[indicators.FieldCountry]),
			Category:   strings.TrimSpace(row[indicators.FieldCategory]),
			Source:     strings.TrimSpace(row[indicators.FieldSource]),
			SourceURL:  strings.TrimSpace(row[indicators.FieldSourceURL]),
			ReleasedAt: releasedAt,
			Period:     strings.TrimSpace(row[indicators.FieldPeriod]),
			Actual:     row[indicators.FieldActual],
			Forecast:   row[indicators.FieldForecast],
			Previous:   row[indicators.FieldPrevious],
			Revised:    row[indicators.FieldRevised],
			Unit:       row[indicators.FieldUnit],
			Notes:      row[indicators.FieldNotes],
		})
	}

	if len(failures) > 0 {
		verr := &errors.ValidationError{Rows: failures}
		if errorCap > 0 && len(failures) > errorCap {
			verr.Rows = failures[:errorCap]
			verr.Truncated = len(failures) - errorCap
		}
		return nil, verr
	}
	return records, nil
}

// checkRow returns every failure on a single row.
func checkRow(rowNum int, row indicators.RawRecord) []*errors.RowError {
	var failures []*errors.RowError

	for _, field := range requiredFields {
		if strings.TrimSpace(row[field]) == "" {
			failures = append(failures, &errors.RowError{Row: rowNum, Field: field, Message: "required"})
		}
	}

	if ts := strings.TrimSpace(row[indicators.FieldReleasedAt]); ts != "" {
		if _, err := parseTimestamp(ts); err != nil {
			failures = append(failures, &errors.RowError{
				Row:     rowNum,
				Field:   indicators.FieldReleasedAt,
				Message: "invalid timestamp " + strings.TrimSpace(row[indicators.FieldReleasedAt]),
			})
		}
	}

	return failures
}

// parseTimestamp parses a release timestamp in any accepted layout.
func parseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	var lastErr error
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
