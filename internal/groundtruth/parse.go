package groundtruth

import (
	"encoding/csv"
	"os"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/refstudy/purity-cli/internal/model"
)

// ParseRawCSV reads the static analyzer's semicolon-delimited export and
// returns one observation per row. Rows are not grouped or validated here
// beyond basic shape; Reconcile owns filtering and resolution.
func ParseRawCSV(path string) ([]model.RawObservation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "groundtruth: open raw csv")
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.Comma = ';'
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "groundtruth: read raw csv")
	}
	if len(records) < 2 {
		return nil, eris.New("groundtruth: raw csv has no data rows")
	}

	header := records[0]
	colIdx := make(map[string]int, len(header))
	for i, col := range header {
		colIdx[strings.ToLower(strings.TrimSpace(col))] = i
	}
	for _, col := range []string{"commit", "purity"} {
		if _, ok := colIdx[col]; !ok {
			return nil, eris.Errorf("groundtruth: missing required column %q", col)
		}
	}

	observations := make([]model.RawObservation, 0, len(records)-1)
	for _, row := range records[1:] {
		observations = append(observations, model.RawObservation{
			Key:             getCol(row, colIdx, "commit"),
			RawLabel:        normalizeRawLabel(getCol(row, colIdx, "purity")),
			RefactoringType: getCol(row, colIdx, "refactoring_type"),
			Description:     getCol(row, colIdx, "refactoring_description"),
		})
	}

	return observations, nil
}

func getCol(row []string, colIdx map[string]int, name string) string {
	idx, ok := colIdx[name]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// normalizeRawLabel maps the analyzer's free-form purity column onto the
// three raw labels. Anything unrecognized is treated as absent.
func normalizeRawLabel(s string) string {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRUE":
		return "TRUE"
	case "FALSE":
		return "FALSE"
	case "NONE":
		return "NONE"
	}
	return ""
}
