package epicore

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"
)

// CSVWriter is a TelemetryWriter that appends one row per round to a
// single comma-delimited file, using an AppendToFile-per-write,
// buffer-then-format-row style, collapsed from a one-file-per-tracked-
// quantity layout into a single file since a TelemetryRecord's fields
// already fit one fixed-shape row.
type CSVWriter struct {
	path          string
	locationTypes []string
	wroteHeader   bool
}

// NewCSVWriter builds a writer rooted at path. locationTypes fixes the
// column order for the per-venue-type infection breakdown so every row
// has the same shape regardless of which types a given round touched.
func NewCSVWriter(path string, locationTypes []string) *CSVWriter {
	sorted := append([]string{}, locationTypes...)
	sort.Strings(sorted)
	return &CSVWriter{path: path, locationTypes: sorted}
}

func (w *CSVWriter) header() string {
	cols := []string{
		"round", "weekday",
		"total_infected", "infected_household", "infected_school",
		"infected_office", "infected_interhh",
		"infected_by_children", "infected_by_adults",
		"quarantined_by_detection", "quarantined_by_test",
	}
	for _, typ := range w.locationTypes {
		cols = append(cols, "infected_"+typ)
	}
	return strings.Join(cols, ",") + "\n"
}

// WriteRecord appends one row, writing the header first on the
// writer's first call.
func (w *CSVWriter) WriteRecord(record TelemetryRecord) error {
	var b bytes.Buffer
	if !w.wroteHeader {
		b.WriteString(w.header())
		w.wroteHeader = true
	}
	fields := []string{
		fmt.Sprintf("%d", record.Round),
		fmt.Sprintf("%d", record.Weekday),
		fmt.Sprintf("%d", record.TotalInfected),
		fmt.Sprintf("%d", record.InfectedHousehold),
		fmt.Sprintf("%d", record.InfectedSchool),
		fmt.Sprintf("%d", record.InfectedOffice),
		fmt.Sprintf("%d", record.InfectedInterhh),
		fmt.Sprintf("%d", record.InfectedByChildren),
		fmt.Sprintf("%d", record.InfectedByAdults),
		fmt.Sprintf("%d", record.QuarantinedByDetection),
		fmt.Sprintf("%d", record.QuarantinedByTest),
	}
	for _, typ := range w.locationTypes {
		fields = append(fields, fmt.Sprintf("%d", record.InfectedByLocationType[typ]))
	}
	b.WriteString(strings.Join(fields, ","))
	b.WriteString("\n")
	return AppendToFile(w.path, b.Bytes())
}

// Close is a no-op: each WriteRecord opens and syncs its own
// descriptor, so there is nothing held open between calls.
func (w *CSVWriter) Close() error { return nil }

// AppendToFile creates path if absent and appends b, syncing before
// return.
func AppendToFile(path string, b []byte) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Write(b); err != nil {
		return err
	}
	return f.Sync()
}
