package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sirfoga/gamer/internal/orchestrator/domain"
	"github.com/sirfoga/gamer/shared/fsutil"
)

const (
	// DefaultPrimaryOutput is the file name of the primary run output
	DefaultPrimaryOutput = "output_ml.dat"
	// DefaultAdditionalOutput is the file name of the additional labels run output
	DefaultAdditionalOutput = "output_ml_additional.dat"
)

// ErrMissingUploadFolder is returned when a job has no usable upload folder
var ErrMissingUploadFolder = errors.New("upload folder is missing or not a string")

// DriverConfig holds driver configuration
type DriverConfig struct {
	Logger *slog.Logger
	Model  Model
	// LabelsFile defaults to <cwd>/library/additional_labels.dat
	LabelsFile       string
	PrimaryOutput    string
	AdditionalOutput string
	// ArchiveFolder, when set, receives the upload folder content after a successful job
	ArchiveFolder string
}

// Driver runs the two model calls of a job
type Driver struct {
	logger           *slog.Logger
	model            Model
	labelsFile       string
	primaryOutput    string
	additionalOutput string
	archiveFolder    string
}

// NewDriver creates a new driver instance
func NewDriver(cfg *DriverConfig) (*Driver, error) {
	if cfg.Model == nil {
		return nil, fmt.Errorf("model is required")
	}

	labelsFile := cfg.LabelsFile
	if labelsFile == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		labelsFile = filepath.Join(cwd, "library", "additional_labels.dat")
	}

	primary := cfg.PrimaryOutput
	if primary == "" {
		primary = DefaultPrimaryOutput
	}
	additional := cfg.AdditionalOutput
	if additional == "" {
		additional = DefaultAdditionalOutput
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Driver{
		logger:           logger,
		model:            cfg.Model,
		labelsFile:       labelsFile,
		primaryOutput:    primary,
		additionalOutput: additional,
		archiveFolder:    cfg.ArchiveFolder,
	}, nil
}

// RunGame runs the primary model on the labels, then the additional labels
// run, both writing under the upload folder.
func (d *Driver) RunGame(ctx context.Context, args domain.Arguments) error {
	uploadFolder, ok := args.UploadFolder.AsString()
	if !ok {
		return ErrMissingUploadFolder
	}

	primary := PrimaryRequest{
		Labels:         args.Labels,
		OutputFilename: filepath.Join(uploadFolder, d.primaryOutput),
	}
	if err := d.model.Run(ctx, primary); err != nil {
		return fmt.Errorf("failed to run model: %w", err)
	}

	d.logger.Debug("Primary model run finished",
		slog.String("output_filename", primary.OutputFilename),
	)

	additional := AdditionalRequest{
		AdditionalFeatures: args.AdditionalLabels,
		LabelsFile:         d.labelsFile,
		OutputFilename:     filepath.Join(uploadFolder, d.additionalOutput),
	}
	if err := d.model.RunAdditionalLabels(ctx, additional); err != nil {
		return fmt.Errorf("failed to run model on additional labels: %w", err)
	}

	d.logger.Debug("Additional labels run finished",
		slog.String("output_filename", additional.OutputFilename),
	)

	if d.archiveFolder != "" {
		if err := d.archive(uploadFolder); err != nil {
			return err
		}
	}

	return nil
}

// archive moves the upload folder content into the archive folder
func (d *Driver) archive(uploadFolder string) error {
	moved, err := fsutil.MoveFolder(uploadFolder, d.archiveFolder)
	if err != nil {
		return fmt.Errorf("failed to archive upload folder: %w", err)
	}

	target := filepath.Join(d.archiveFolder, fsutil.FolderName(uploadFolder))
	folders, err := fsutil.ListFolders(target)
	if err != nil {
		return fmt.Errorf("failed to list archived folder: %w", err)
	}

	d.logger.Info("Upload folder archived",
		slog.String("upload_folder", uploadFolder),
		slog.String("archive", target),
		slog.Int("moved_entries", len(moved)),
		slog.Int("subfolders", len(folders)),
	)

	return nil
}
