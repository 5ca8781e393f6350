package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJobStatusCanTransition(t *testing.T) {
	tests := []struct {
		from    JobStatus
		to      JobStatus
		allowed bool
	}{
		{JobStatusPending, JobStatusProcessing, true},
		{JobStatusPending, JobStatusCancelled, true},
		{JobStatusPending, JobStatusCompleted, false},
		{JobStatusPending, JobStatusFailed, false},
		{JobStatusProcessing, JobStatusCompleted, true},
		{JobStatusProcessing, JobStatusFailed, true},
		{JobStatusProcessing, JobStatusCancelled, true},
		{JobStatusProcessing, JobStatusPending, false},
		{JobStatusCompleted, JobStatusProcessing, false},
		{JobStatusCompleted, JobStatusCancelled, false},
		{JobStatusFailed, JobStatusProcessing, false},
		{JobStatusCancelled, JobStatusProcessing, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransition(tt.to))
		})
	}
}

func TestJobStatusTerminal(t *testing.T) {
	assert.False(t, JobStatusPending.Terminal())
	assert.False(t, JobStatusProcessing.Terminal())
	assert.True(t, JobStatusCompleted.Terminal())
	assert.True(t, JobStatusFailed.Terminal())
	assert.True(t, JobStatusCancelled.Terminal())
}

func TestJobStatusValid(t *testing.T) {
	assert.True(t, JobStatusPending.Valid())
	assert.True(t, JobStatusCancelled.Valid())
	assert.False(t, JobStatus("queued").Valid())
	assert.False(t, JobStatus("").Valid())
}

func TestAnalysisOptionsWants(t *testing.T) {
	assert.True(t, AnalysisOptions{}.Wants(AnalysisOutlier), "empty means all")

	opts := AnalysisOptions{AnalysisTypes: []AnalysisType{AnalysisDescriptive, AnalysisCorrelation}}
	assert.True(t, opts.Wants(AnalysisDescriptive))
	assert.True(t, opts.Wants(AnalysisCorrelation))
	assert.False(t, opts.Wants(AnalysisOutlier))
	assert.False(t, opts.Wants(AnalysisDistribution))

	all := AnalysisOptions{AnalysisTypes: []AnalysisType{AnalysisAll}}
	assert.True(t, all.Wants(AnalysisDescriptive))
	assert.True(t, all.Wants(AnalysisDistribution))
}
