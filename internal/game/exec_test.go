package game

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sirfoga/gamer/internal/orchestrator/domain"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestNewExecModel(t *testing.T) {
	_, err := NewExecModel("", nil, nil)
	require.Error(t, err)
}

func TestExecModel_WritesRequestToStdin(t *testing.T) {
	requireShell(t)
	dir := t.TempDir()

	// With sh -c the appended mode argument becomes $0.
	script := fmt.Sprintf(`cat > %q/"$0".json`, dir)
	m, err := NewExecModel("sh", []string{"-c", script}, discardLogger())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, m.Run(ctx, PrimaryRequest{
		Labels:         domain.Present([]any{"x"}),
		OutputFilename: "/out/a/output_ml.dat",
	}))
	require.NoError(t, m.RunAdditionalLabels(ctx, AdditionalRequest{
		AdditionalFeatures: domain.Absent,
		LabelsFile:         "/lib/additional_labels.dat",
		OutputFilename:     "/out/a/output_ml_additional.dat",
	}))

	raw, err := os.ReadFile(filepath.Join(dir, ModeRun+".json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"labels":["x"],"output_filename":"/out/a/output_ml.dat"}`, string(raw))

	raw, err = os.ReadFile(filepath.Join(dir, ModeRunAdditionalLabels+".json"))
	require.NoError(t, err)
	var req map[string]any
	require.NoError(t, json.Unmarshal(raw, &req))
	assert.NotContains(t, req, "additional_features")
	assert.Equal(t, "/lib/additional_labels.dat", req["labels_file"])
}

func TestRequestJSON_AbsentVersusNull(t *testing.T) {
	tests := []struct {
		name string
		req  any
		want string
	}{
		{
			name: "absent labels are omitted",
			req:  PrimaryRequest{Labels: domain.Absent, OutputFilename: "o.dat"},
			want: `{"output_filename":"o.dat"}`,
		},
		{
			name: "null labels stay null",
			req:  PrimaryRequest{Labels: domain.Present(nil), OutputFilename: "o.dat"},
			want: `{"labels":null,"output_filename":"o.dat"}`,
		},
		{
			name: "absent additional features are omitted",
			req:  AdditionalRequest{AdditionalFeatures: domain.Absent, LabelsFile: "l.dat", OutputFilename: "o.dat"},
			want: `{"labels_file":"l.dat","output_filename":"o.dat"}`,
		},
		{
			name: "null additional features stay null",
			req:  AdditionalRequest{AdditionalFeatures: domain.Present(nil), LabelsFile: "l.dat", OutputFilename: "o.dat"},
			want: `{"additional_features":null,"labels_file":"l.dat","output_filename":"o.dat"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := json.Marshal(tt.req)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(raw))
		})
	}
}

func TestExecModel_FailureQuotesOutput(t *testing.T) {
	requireShell(t)

	m, err := NewExecModel("sh", []string{"-c", "echo model exploded >&2; exit 3"}, discardLogger())
	require.NoError(t, err)

	err = m.Run(context.Background(), PrimaryRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model exploded")

	var exitErr *exec.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 3, exitErr.ExitCode())
}

func TestExecModel_ContextCanceled(t *testing.T) {
	requireShell(t)

	m, err := NewExecModel("sh", []string{"-c", "sleep 5"}, discardLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = m.Run(ctx, PrimaryRequest{})
	require.Error(t, err)
}

func TestTail(t *testing.T) {
	long := make([]byte, maxOutputInError+10)
	for i := range long {
		long[i] = 'a'
	}
	got := tail(string(long))
	assert.Len(t, got, maxOutputInError+3)
	assert.Equal(t, "ok", tail("  ok\n"))
}
