package dataset

import (
	"strconv"
	"strings"
	"time"

	"github.com/tablescope/tablescope/pkg/models"
)

// missingTokens are cell values treated as absent, compared lowercase.
var missingTokens = map[string]struct{}{
	"":     {},
	"na":   {},
	"n/a":  {},
	"nan":  {},
	"null": {},
	"none": {},
}

func isMissing(cell string) bool {
	_, ok := missingTokens[strings.ToLower(strings.TrimSpace(cell))]
	return ok
}

var datetimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
	"2006/01/02",
}

var booleanTokens = map[string]struct{}{
	"true": {}, "false": {},
	"yes": {}, "no": {},
	"t": {}, "f": {},
}

// inferSampleSize bounds how many cells type inference inspects per column.
const inferSampleSize = 100

// inferType decides the semantic type of a column from a sample of its
// non-missing cells. Order matters: datetime before numeric (a year column
// of "2006/01/02" strings should not parse as division), numeric before
// boolean so 0/1 columns stay numeric.
func inferType(col *Column) models.DataType {
	var sample []string
	for i, raw := range col.Raw {
		if col.Missing[i] {
			continue
		}
		sample = append(sample, raw)
		if len(sample) >= inferSampleSize {
			break
		}
	}
	if len(sample) == 0 {
		return models.DataTypeUnknown
	}

	if allMatch(sample, isDatetime) {
		return models.DataTypeDatetime
	}
	if allMatch(sample, isNumeric) {
		return models.DataTypeNumeric
	}
	if allMatch(sample, isBoolean) {
		return models.DataTypeBoolean
	}

	unique := make(map[string]struct{})
	total := 0
	var length int
	for i, raw := range col.Raw {
		if col.Missing[i] {
			continue
		}
		unique[raw] = struct{}{}
		length += len(raw)
		total++
	}
	if float64(len(unique))/float64(total) < 0.5 {
		return models.DataTypeCategorical
	}
	if float64(length)/float64(total) > 50 {
		return models.DataTypeText
	}
	return models.DataTypeCategorical
}

func allMatch(sample []string, pred func(string) bool) bool {
	for _, s := range sample {
		if !pred(s) {
			return false
		}
	}
	return true
}

func isNumeric(s string) bool {
	_, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return err == nil
}

func isBoolean(s string) bool {
	_, ok := booleanTokens[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

func isDatetime(s string) bool {
	s = strings.TrimSpace(s)
	for _, layout := range datetimeLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}
