// Package dataset loads tabular files into the column-major in-memory
// structure the analysis engine consumes, inferring a schema on the way.
package dataset

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/tablescope/tablescope/pkg/models"
)

var (
	// ErrInvalidDataset marks malformed or oversized input. The orchestrator
	// surfaces it as a validation failure, which is fatal for the job.
	ErrInvalidDataset = errors.New("invalid dataset")
)

// Loader turns a file reference into an in-memory table plus its schema.
type Loader interface {
	Load(ctx context.Context, reference string) (*Dataset, *models.DatasetSchema, error)
}

// Dataset is a column-major table. Cells keep their raw text; numeric
// parsing happens on access so the analyzer sees original row positions.
type Dataset struct {
	Columns  []Column
	RowCount int
}

// Column holds one column's raw cells and missing mask, index-aligned with
// the original rows.
type Column struct {
	Name    string
	Type    models.DataType
	Raw     []string
	Missing []bool
}

// Floats returns the parseable non-missing values of the column together
// with their original row indices, in row order.
func (c *Column) Floats() (values []float64, rows []int) {
	values = make([]float64, 0, len(c.Raw))
	rows = make([]int, 0, len(c.Raw))
	for i, raw := range c.Raw {
		if c.Missing[i] {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			continue
		}
		values = append(values, v)
		rows = append(rows, i)
	}
	return values, rows
}

// Strings returns the non-missing cell values in row order.
func (c *Column) Strings() []string {
	out := make([]string, 0, len(c.Raw))
	for i, raw := range c.Raw {
		if c.Missing[i] {
			continue
		}
		out = append(out, raw)
	}
	return out
}

// Column returns the named column, or nil.
func (d *Dataset) Column(name string) *Column {
	for i := range d.Columns {
		if d.Columns[i].Name == name {
			return &d.Columns[i]
		}
	}
	return nil
}

// NumericColumns returns the columns inferred as numeric, in order.
func (d *Dataset) NumericColumns() []*Column {
	var cols []*Column
	for i := range d.Columns {
		if d.Columns[i].Type == models.DataTypeNumeric {
			cols = append(cols, &d.Columns[i])
		}
	}
	return cols
}
