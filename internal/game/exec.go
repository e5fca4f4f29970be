package game

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// Model command modes, passed as the last argument of the command
const (
	ModeRun                 = "run"
	ModeRunAdditionalLabels = "run-additional-labels"
)

// maxOutputInError caps the command output quoted in an error
const maxOutputInError = 2048

// ExecModel runs the model as an external command, one process per call.
// The request is written as JSON to the process stdin.
type ExecModel struct {
	logger  *slog.Logger
	command string
	args    []string
}

// NewExecModel creates a model backed by command
func NewExecModel(command string, args []string, logger *slog.Logger) (*ExecModel, error) {
	if command == "" {
		return nil, fmt.Errorf("model command is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ExecModel{
		logger:  logger,
		command: command,
		args:    args,
	}, nil
}

// Run runs the primary model
func (m *ExecModel) Run(ctx context.Context, req PrimaryRequest) error {
	return m.exec(ctx, ModeRun, req)
}

// RunAdditionalLabels runs the model on the additional labels
func (m *ExecModel) RunAdditionalLabels(ctx context.Context, req AdditionalRequest) error {
	return m.exec(ctx, ModeRunAdditionalLabels, req)
}

func (m *ExecModel) exec(ctx context.Context, mode string, req any) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal model request: %w", err)
	}

	args := append(append([]string{}, m.args...), mode)
	cmd := exec.CommandContext(ctx, m.command, args...)
	cmd.Stdin = bytes.NewReader(body)

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	m.logger.Debug("Starting model command",
		slog.String("command", m.command),
		slog.String("mode", mode),
	)

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("model command %s %s failed: %w: %s", m.command, mode, err, tail(output.String()))
	}

	m.logger.Debug("Model command finished",
		slog.String("command", m.command),
		slog.String("mode", mode),
		slog.Int("output_size", output.Len()),
	)

	return nil
}

func tail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxOutputInError {
		s = "..." + s[len(s)-maxOutputInError:]
	}
	return s
}
