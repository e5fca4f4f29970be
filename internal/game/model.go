// Package game runs the external model for one job: a primary run on the job
// labels followed by a second run on the additional labels.
package game

import (
	"context"

	"github.com/sirfoga/gamer/internal/orchestrator/domain"
)

// PrimaryRequest is the input of the primary model run. Absent values are
// left out of the encoded request; a present null stays null.
type PrimaryRequest struct {
	Labels         domain.Value `json:"labels,omitzero"`
	OutputFilename string       `json:"output_filename"`
}

// AdditionalRequest is the input of the additional labels run
type AdditionalRequest struct {
	AdditionalFeatures domain.Value `json:"additional_features,omitzero"`
	LabelsFile         string       `json:"labels_file"`
	OutputFilename     string       `json:"output_filename"`
}

// Model is the opaque model collaborator. Both calls block until the model
// finished writing its output file.
type Model interface {
	Run(ctx context.Context, req PrimaryRequest) error
	RunAdditionalLabels(ctx context.Context, req AdditionalRequest) error
}
