package viz

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"

	"github.com/tablescope/tablescope/internal/dataset"
	"github.com/tablescope/tablescope/pkg/models"
)

const (
	maxHistograms    = 6
	maxBarCharts     = 4
	maxBarCategories = 15
	maxScatterPoints = 1000
)

// SpecEngine writes self-contained JSON chart specs under a results
// directory, one file per chart. Consumers (a frontend, a notebook) render
// them; the server never rasterizes anything.
type SpecEngine struct {
	dir string
}

func NewSpecEngine(resultsDir string) *SpecEngine {
	return &SpecEngine{dir: resultsDir}
}

// chartSpec is the envelope persisted for every chart.
type chartSpec struct {
	Type  string `json:"type"`
	Title string `json:"title"`
	Data  any    `json:"data"`
}

// Render produces histogram, bar chart, heatmap and scatter specs for the
// dataset. Individual chart failures are logged and skipped; Render fails
// only when the output directory cannot be created.
func (e *SpecEngine) Render(ctx context.Context, req Request) ([]models.Visualization, error) {
	jobDir := filepath.Join(e.dir, req.JobID.String())
	if err := os.MkdirAll(jobDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating visualization dir: %w", err)
	}

	var visuals []models.Visualization

	numeric := req.Dataset.NumericColumns()
	for i, col := range numeric {
		if i >= maxHistograms {
			break
		}
		if err := ctx.Err(); err != nil {
			return visuals, err
		}
		v, err := e.histogram(jobDir, col)
		if err != nil {
			slog.Warn("skipping histogram", "column", col.Name, "error", err)
			continue
		}
		visuals = append(visuals, v)
	}

	rendered := 0
	for i := range req.Dataset.Columns {
		col := &req.Dataset.Columns[i]
		if col.Type != models.DataTypeCategorical && col.Type != models.DataTypeBoolean {
			continue
		}
		if rendered >= maxBarCharts {
			break
		}
		v, err := e.barChart(jobDir, col)
		if err != nil {
			slog.Warn("skipping bar chart", "column", col.Name, "error", err)
			continue
		}
		visuals = append(visuals, v)
		rendered++
	}

	if corr := req.Correlation; corr != nil && len(corr.CorrelationMatrix) >= 2 {
		v, err := e.heatmap(jobDir, corr)
		if err != nil {
			slog.Warn("skipping correlation heatmap", "error", err)
		} else {
			visuals = append(visuals, v)
		}

		if len(corr.StrongCorrelations) > 0 {
			top := corr.StrongCorrelations[0]
			v, err := e.scatter(jobDir, req.Dataset, top)
			if err != nil {
				slog.Warn("skipping scatter plot", "columns", []string{top.Column1, top.Column2}, "error", err)
			} else {
				visuals = append(visuals, v)
			}
		}
	}

	return visuals, nil
}

func (e *SpecEngine) histogram(dir string, col *dataset.Column) (models.Visualization, error) {
	values, _ := col.Floats()
	if len(values) == 0 {
		return models.Visualization{}, fmt.Errorf("no numeric values")
	}

	bins := histogramBins(values)
	path, err := e.writeSpec(dir, "histogram_"+col.Name, chartSpec{
		Type:  "histogram",
		Title: fmt.Sprintf("Distribution of %s", col.Name),
		Data:  bins,
	})
	if err != nil {
		return models.Visualization{}, err
	}

	return models.Visualization{
		ID:          uuid.New(),
		Type:        "histogram",
		Title:       fmt.Sprintf("Distribution of %s", col.Name),
		Path:        path,
		ColumnsUsed: []string{col.Name},
		Description: fmt.Sprintf("Value distribution of %s across %d observations", col.Name, len(values)),
	}, nil
}

type histogramData struct {
	BinEdges []float64 `json:"bin_edges"`
	Counts   []int     `json:"counts"`
}

// histogramBins buckets values with Sturges' rule, capped at 20 bins.
func histogramBins(values []float64) histogramData {
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	n := int(math.Ceil(math.Log2(float64(len(values))))) + 1
	if n < 1 {
		n = 1
	}
	if n > 20 {
		n = 20
	}
	if hi == lo {
		return histogramData{BinEdges: []float64{lo, hi}, Counts: []int{len(values)}}
	}

	width := (hi - lo) / float64(n)
	edges := make([]float64, n+1)
	for i := range edges {
		edges[i] = lo + float64(i)*width
	}
	counts := make([]int, n)
	for _, v := range values {
		idx := int((v - lo) / width)
		if idx >= n {
			idx = n - 1
		}
		counts[idx]++
	}
	return histogramData{BinEdges: edges, Counts: counts}
}

type barData struct {
	Categories []string `json:"categories"`
	Counts     []int    `json:"counts"`
}

func (e *SpecEngine) barChart(dir string, col *dataset.Column) (models.Visualization, error) {
	values := col.Strings()
	if len(values) == 0 {
		return models.Visualization{}, fmt.Errorf("no values")
	}

	counts := make(map[string]int)
	order := make([]string, 0)
	for _, v := range values {
		if _, seen := counts[v]; !seen {
			order = append(order, v)
		}
		counts[v]++
	}
	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })
	if len(order) > maxBarCategories {
		order = order[:maxBarCategories]
	}

	data := barData{}
	for _, cat := range order {
		data.Categories = append(data.Categories, cat)
		data.Counts = append(data.Counts, counts[cat])
	}

	path, err := e.writeSpec(dir, "bar_"+col.Name, chartSpec{
		Type:  "bar",
		Title: fmt.Sprintf("Frequency of %s", col.Name),
		Data:  data,
	})
	if err != nil {
		return models.Visualization{}, err
	}

	return models.Visualization{
		ID:          uuid.New(),
		Type:        "bar",
		Title:       fmt.Sprintf("Frequency of %s", col.Name),
		Path:        path,
		ColumnsUsed: []string{col.Name},
		Description: fmt.Sprintf("Top category counts for %s", col.Name),
	}, nil
}

type heatmapData struct {
	Columns []string    `json:"columns"`
	Matrix  [][]float64 `json:"matrix"`
}

func (e *SpecEngine) heatmap(dir string, corr *models.CorrelationAnalysis) (models.Visualization, error) {
	cols := make([]string, 0, len(corr.CorrelationMatrix))
	for name := range corr.CorrelationMatrix {
		cols = append(cols, name)
	}
	sort.Strings(cols)

	matrix := make([][]float64, len(cols))
	for i, a := range cols {
		matrix[i] = make([]float64, len(cols))
		for j, b := range cols {
			matrix[i][j] = corr.CorrelationMatrix[a][b]
		}
	}

	path, err := e.writeSpec(dir, "correlation_heatmap", chartSpec{
		Type:  "heatmap",
		Title: fmt.Sprintf("Correlation matrix (%s)", corr.Method),
		Data:  heatmapData{Columns: cols, Matrix: matrix},
	})
	if err != nil {
		return models.Visualization{}, err
	}

	return models.Visualization{
		ID:          uuid.New(),
		Type:        "heatmap",
		Title:       fmt.Sprintf("Correlation matrix (%s)", corr.Method),
		Path:        path,
		ColumnsUsed: cols,
		Description: fmt.Sprintf("Pairwise %s correlations between %d numeric columns", corr.Method, len(cols)),
	}, nil
}

type scatterData struct {
	X []float64 `json:"x"`
	Y []float64 `json:"y"`
}

func (e *SpecEngine) scatter(dir string, ds *dataset.Dataset, pair models.StrongCorrelation) (models.Visualization, error) {
	colX := ds.Column(pair.Column1)
	colY := ds.Column(pair.Column2)
	if colX == nil || colY == nil {
		return models.Visualization{}, fmt.Errorf("columns %q/%q not found", pair.Column1, pair.Column2)
	}

	xVals, xRows := colX.Floats()
	yVals, yRows := colY.Floats()
	yByRow := make(map[int]float64, len(yVals))
	for i, row := range yRows {
		yByRow[row] = yVals[i]
	}

	var data scatterData
	for i, row := range xRows {
		if len(data.X) >= maxScatterPoints {
			break
		}
		y, ok := yByRow[row]
		if !ok {
			continue
		}
		data.X = append(data.X, xVals[i])
		data.Y = append(data.Y, y)
	}
	if len(data.X) == 0 {
		return models.Visualization{}, fmt.Errorf("no paired values")
	}

	title := fmt.Sprintf("%s vs %s", pair.Column1, pair.Column2)
	path, err := e.writeSpec(dir, fmt.Sprintf("scatter_%s_%s", pair.Column1, pair.Column2), chartSpec{
		Type:  "scatter",
		Title: title,
		Data:  data,
	})
	if err != nil {
		return models.Visualization{}, err
	}

	return models.Visualization{
		ID:          uuid.New(),
		Type:        "scatter",
		Title:       title,
		Path:        path,
		ColumnsUsed: []string{pair.Column1, pair.Column2},
		Description: fmt.Sprintf("Strongest correlated pair (coefficient %.4f, %s)", pair.Coefficient, pair.Strength),
	}, nil
}

func (e *SpecEngine) writeSpec(dir, name string, spec chartSpec) (string, error) {
	payload, err := json.MarshalIndent(spec, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal chart spec: %w", err)
	}
	path := filepath.Join(dir, sanitizeFilename(name)+".json")
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return "", fmt.Errorf("write chart spec: %w", err)
	}
	return path, nil
}

// sanitizeFilename keeps column-derived names filesystem-safe.
func sanitizeFilename(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}

var _ Engine = (*SpecEngine)(nil)
