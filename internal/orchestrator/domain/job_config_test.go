package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// onceReader serves content on the first read and fails every later read
type onceReader struct {
	mu      sync.Mutex
	content []byte
	reads   int
}

func (r *onceReader) read(string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reads++
	if r.reads > 1 {
		return nil, errors.New("backing file read twice")
	}
	return r.content, nil
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		wantErr   bool
		errTarget error
	}{
		{
			name:    "full document",
			content: `{"labels":["x"],"additional labels":{"k":"v"},"UploadFolder":"/out/a"}`,
		},
		{
			name:    "empty object",
			content: `{}`,
		},
		{
			name:    "malformed json",
			content: `{"labels": [`,
			wantErr: true,
		},
		{
			name:      "top level array",
			content:   `["labels"]`,
			wantErr:   true,
			errTarget: ErrInvalidConfigDocument,
		},
		{
			name:      "top level null",
			content:   `null`,
			wantErr:   true,
			errTarget: ErrInvalidConfigDocument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "job.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			cfg, err := Load(path, nil)

			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, cfg)

				var parseErr *ConfigParseError
				require.ErrorAs(t, err, &parseErr)
				assert.Equal(t, path, parseErr.SourcePath)
				if tt.errTarget != nil {
					assert.ErrorIs(t, err, tt.errTarget)
				}
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)
			assert.Equal(t, path, cfg.SourcePath())
			assert.True(t, cfg.IsLoaded())
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.json")

	cfg, err := Load(path, nil)
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, err.Error(), "failed to read file")
}

func TestJobConfig_ParseOnce(t *testing.T) {
	reader := &onceReader{content: []byte(`{"labels":["x"],"UploadFolder":"/out/a"}`)}

	cfg, err := Load("a.json", reader.read)
	require.NoError(t, err)

	// The reader fails on a second read, so every call below must be memoized.
	for i := 0; i < 3; i++ {
		data, err := cfg.Parse()
		require.NoError(t, err)
		assert.Equal(t, "/out/a", data[KeyUploadFolder])
	}
	assert.Equal(t, []any{"x"}, cfg.Get(KeyLabels).Raw())
	assert.Equal(t, 1, reader.reads)
}

func TestJobConfig_ParseOnceConcurrent(t *testing.T) {
	reader := &onceReader{content: []byte(`{"labels":["x"]}`)}
	cfg := NewJobConfig("a.json", reader.read)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = cfg.Parse()
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, 1, reader.reads)
}

func TestJobConfig_ParseResultIsACopy(t *testing.T) {
	reader := &onceReader{content: []byte(`{"UploadFolder":"/out/a"}`)}
	cfg, err := Load("a.json", reader.read)
	require.NoError(t, err)

	data, err := cfg.Parse()
	require.NoError(t, err)
	data[KeyUploadFolder] = "/tampered"
	delete(data, KeyUploadFolder)

	folder, ok := cfg.Get(KeyUploadFolder).AsString()
	require.True(t, ok)
	assert.Equal(t, "/out/a", folder)
}

func TestJobConfig_FailedParseStaysUnloaded(t *testing.T) {
	calls := 0
	read := func(string) ([]byte, error) {
		calls++
		if calls == 1 {
			return []byte(`{"labels":`), nil
		}
		return []byte(`{"labels":["y"]}`), nil
	}
	cfg := NewJobConfig("a.json", read)

	_, err := cfg.Parse()
	require.Error(t, err)
	assert.False(t, cfg.IsLoaded())
	assert.True(t, cfg.Get(KeyLabels).IsAbsent())

	_, err = cfg.Parse()
	require.NoError(t, err)
	assert.Equal(t, []any{"y"}, cfg.Get(KeyLabels).Raw())
}

func TestJobConfig_Get(t *testing.T) {
	reader := &onceReader{content: []byte(`{"labels":["x"],"present null":null,"UploadFolder":"/out/a"}`)}
	cfg, err := Load("a.json", reader.read)
	require.NoError(t, err)

	tests := []struct {
		name       string
		key        string
		wantAbsent bool
		wantRaw    any
	}{
		{name: "present array", key: KeyLabels, wantRaw: []any{"x"}},
		{name: "present string", key: KeyUploadFolder, wantRaw: "/out/a"},
		{name: "present null", key: "present null", wantRaw: nil},
		{name: "missing key", key: KeyAdditionalLabels, wantAbsent: true},
		{name: "key match is case sensitive", key: "uploadfolder", wantAbsent: true},
		{name: "key match keeps the space", key: "additional_labels", wantAbsent: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := cfg.Get(tt.key)
			assert.Equal(t, tt.wantAbsent, v.IsAbsent())
			assert.Equal(t, tt.wantRaw, v.Raw())
		})
	}
}

func TestJobConfig_GetBeforeLoad(t *testing.T) {
	read := func(string) ([]byte, error) {
		t.Fatal("Get must not read the backing file")
		return nil, nil
	}
	cfg := NewJobConfig("a.json", read)

	assert.True(t, cfg.Get(KeyLabels).IsAbsent())
}

func TestJobConfig_JobArguments(t *testing.T) {
	reader := &onceReader{content: []byte(`{"labels":["y"],"additional labels":["z"],"UploadFolder":"/out/b"}`)}
	cfg, err := Load("b.json", reader.read)
	require.NoError(t, err)

	args := cfg.JobArguments()
	assert.Equal(t, Present([]any{"y"}), args.Labels)
	assert.Equal(t, Present([]any{"z"}), args.AdditionalLabels)
	assert.Equal(t, Present("/out/b"), args.UploadFolder)

	partial, err := Load("a.json", (&onceReader{content: []byte(`{"labels":["x"],"UploadFolder":"/out/a"}`)}).read)
	require.NoError(t, err)
	assert.Equal(t, Absent, partial.JobArguments().AdditionalLabels)
}

func TestValue_MarshalJSON(t *testing.T) {
	raw, err := json.Marshal(map[string]Value{
		"absent":  Absent,
		"present": Present([]any{"x"}),
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"absent":null,"present":["x"]}`, string(raw))
}

func TestValue_AsString(t *testing.T) {
	s, ok := Present("/out").AsString()
	assert.True(t, ok)
	assert.Equal(t, "/out", s)

	_, ok = Present(42.0).AsString()
	assert.False(t, ok)

	_, ok = Absent.AsString()
	assert.False(t, ok)
}

func TestValue_LogValue(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	logger.Info("Job", slog.Any("labels", Present([]any{"x"})), slog.Any("extra", Absent))

	out := buf.String()
	assert.Contains(t, out, "labels=[x]")
	assert.Contains(t, out, "extra=<absent>")
	assert.NotContains(t, out, "present")
}
