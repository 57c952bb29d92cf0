package app

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/macrohub/macrosync/pkg/errors"
	"github.com/macrohub/macrosync/pkg/indicators"
)

// uploadCommand reconciles a hand-uploaded CSV of release records.
func (a *App) uploadCommand() *cobra.Command {
	var actor string

	cmd := &cobra.Command{
		Use:   "upload <file.csv>",
		Short: "Validate and reconcile a CSV of indicator releases",
		Long: `Upload reads a CSV whose header row names the standard fields
(indicator, country, category, source, source_url, released_at, period,
and the optional value columns) and reconciles every row against the store.

If any row fails validation the whole batch is rejected and each failing
row is reported with its spreadsheet row number; nothing is written.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := readCSV(args[0])
			if err != nil {
				return err
			}

			client, err := a.Client(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := client.Import(cmd.Context(), rows, actor)
			if err != nil {
				if errors.IsValidation(err) && result != nil {
					for _, rowErr := range result.RowErrors {
						fmt.Fprintln(os.Stderr, rowErr.Error())
					}
					if result.TruncatedErrors > 0 {
						fmt.Fprintf(os.Stderr, "... and %d more\n", result.TruncatedErrors)
					}
				}
				return err
			}

			fmt.Println(result.Summary())
			return nil
		},
	}

	cmd.Flags().StringVar(&actor, "actor", "cli", "identity recorded on the audit trail")
	return cmd
}

// readCSV decodes a CSV file into raw records, mapping header names to the
// standard field keys.
func readCSV(path string) ([]indicators.RawRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	var rows []indicators.RawRecord
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV row %d: %w", len(rows)+2, err)
		}
		row := make(indicators.RawRecord, len(header))
		for i, name := range header {
			if i < len(fields) {
				row[name] = fields[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
