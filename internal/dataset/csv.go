package dataset

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"

	"github.com/tablescope/tablescope/internal/config"
	"github.com/tablescope/tablescope/pkg/models"
)

// CSVLoader implements Loader for comma-separated files on the local
// filesystem. The reference is the file path.
type CSVLoader struct {
	cfg config.AnalysisConfig
}

func NewCSVLoader(cfg config.AnalysisConfig) *CSVLoader {
	return &CSVLoader{cfg: cfg}
}

func (l *CSVLoader) Load(ctx context.Context, reference string) (*Dataset, *models.DatasetSchema, error) {
	f, err := os.Open(reference)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: opening %s: %v", ErrInvalidDataset, reference, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.ReuseRecord = false

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: reading header: %v", ErrInvalidDataset, err)
	}
	if len(header) > l.cfg.MaxColumns {
		return nil, nil, fmt.Errorf("%w: %d columns exceeds limit of %d", ErrInvalidDataset, len(header), l.cfg.MaxColumns)
	}
	if dup := firstDuplicate(header); dup != "" {
		return nil, nil, fmt.Errorf("%w: duplicate column name %q", ErrInvalidDataset, dup)
	}

	cols := make([]Column, len(header))
	for i, name := range header {
		cols[i] = Column{Name: name}
	}

	rows := 0
	truncated := false
	for {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("%w: row %d: %v", ErrInvalidDataset, rows+2, err)
		}
		if rows >= l.cfg.MaxRows {
			truncated = true
			break
		}
		for i := range cols {
			var cell string
			if i < len(record) {
				cell = record[i]
			}
			cols[i].Raw = append(cols[i].Raw, cell)
			cols[i].Missing = append(cols[i].Missing, isMissing(cell))
		}
		rows++
	}
	if truncated {
		slog.Warn("row limit reached, truncating dataset", "file", reference, "max_rows", l.cfg.MaxRows)
	}
	if rows < l.cfg.MinRows {
		return nil, nil, fmt.Errorf("%w: %d rows is below the minimum of %d", ErrInvalidDataset, rows, l.cfg.MinRows)
	}

	ds := &Dataset{Columns: cols, RowCount: rows}
	for i := range ds.Columns {
		ds.Columns[i].Type = inferType(&ds.Columns[i])
	}

	schema := l.inferSchema(ds)
	slog.Info("dataset loaded", "file", reference, "rows", rows, "columns", len(cols))
	return ds, schema, nil
}

func (l *CSVLoader) inferSchema(ds *Dataset) *models.DatasetSchema {
	columns := make([]models.ColumnSchema, 0, len(ds.Columns))
	totalMissing := 0
	var bytes int64

	for i := range ds.Columns {
		col := &ds.Columns[i]
		missing := 0
		unique := make(map[string]struct{})
		var samples []string
		for j, raw := range col.Raw {
			bytes += int64(len(raw)) + 16
			if col.Missing[j] {
				missing++
				continue
			}
			unique[raw] = struct{}{}
			if len(samples) < l.cfg.SampleValuesPerCol {
				samples = append(samples, raw)
			}
		}
		totalMissing += missing
		pct := 0.0
		if ds.RowCount > 0 {
			pct = round2(float64(missing) / float64(ds.RowCount) * 100)
		}
		columns = append(columns, models.ColumnSchema{
			Name:              col.Name,
			DataType:          col.Type,
			MissingCount:      missing,
			MissingPercentage: pct,
			UniqueCount:       len(unique),
			SampleValues:      samples,
		})
	}

	return &models.DatasetSchema{
		RowCount:      ds.RowCount,
		ColumnCount:   len(ds.Columns),
		Columns:       columns,
		TotalMissing:  totalMissing,
		MemoryUsageMB: round2(float64(bytes) / (1 << 20)),
	}
}

func firstDuplicate(names []string) string {
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			return n
		}
		seen[n] = struct{}{}
	}
	return ""
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

var _ Loader = (*CSVLoader)(nil)
