package game

import (
	"context"
	"log/slog"
)

// LogModel only logs the calls it receives. Used for dry runs.
type LogModel struct {
	logger *slog.Logger
}

// NewLogModel creates a new dry run model
func NewLogModel(logger *slog.Logger) *LogModel {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogModel{logger: logger}
}

func (m *LogModel) Run(ctx context.Context, req PrimaryRequest) error {
	m.logger.InfoContext(ctx, "Dry run: model run",
		slog.Any("labels", req.Labels),
		slog.String("output_filename", req.OutputFilename),
	)
	return nil
}

func (m *LogModel) RunAdditionalLabels(ctx context.Context, req AdditionalRequest) error {
	m.logger.InfoContext(ctx, "Dry run: model run on additional labels",
		slog.Any("additional_features", req.AdditionalFeatures),
		slog.String("labels_file", req.LabelsFile),
		slog.String("output_filename", req.OutputFilename),
	)
	return nil
}
