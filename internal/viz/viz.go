// Package viz renders chart specifications for an analyzed dataset. Charts
// are an optional enrichment: the pipeline tolerates a failed render and
// ships the result without them.
package viz

import (
	"context"

	"github.com/google/uuid"

	"github.com/tablescope/tablescope/internal/dataset"
	"github.com/tablescope/tablescope/pkg/models"
)

// Request carries everything a renderer may draw from.
type Request struct {
	JobID       uuid.UUID
	Dataset     *dataset.Dataset
	Schema      *models.DatasetSchema
	Correlation *models.CorrelationAnalysis
}

// Engine renders visualization artifacts for a dataset.
type Engine interface {
	Render(ctx context.Context, req Request) ([]models.Visualization, error)
}
