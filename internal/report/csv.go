package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"
)

// MonthLabel renders "2024-03" as "Mar 2024". Unparseable input is returned
// unchanged.
func MonthLabel(month string) string {
	y, m, ok := splitMonth(month)
	if !ok {
		return month
	}
	return time.Date(y, time.Month(m), 1, 0, 0, 0, 0, time.UTC).Format("Jan 2006")
}

// CSVFilename is the download name for an export of span.
func CSVFilename(span Span) string {
	return fmt.Sprintf("income_report_%d_%02d-%02d.csv", span.Year, span.From, span.To)
}

// WriteCSV writes one row per grid month: the month label then one value per
// series, two decimals each. Rows end in CRLF.
func WriteCSV(w io.Writer, g Grid) error {
	cw := csv.NewWriter(w)
	cw.UseCRLF = true

	header := make([]string, 0, len(g.Series)+1)
	header = append(header, "Month")
	for _, s := range g.Series {
		header = append(header, string(s.Membership))
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for i, month := range g.Months {
		record := make([]string, 0, len(g.Series)+1)
		record = append(record, MonthLabel(month))
		for _, s := range g.Series {
			record = append(record, s.Values[i].String())
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row %s: %w", month, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
