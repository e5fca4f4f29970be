package domain

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"sync"
)

// ReadFunc reads the full content of a job config file
type ReadFunc func(path string) ([]byte, error)

// Value is a job config value that may be absent
type Value struct {
	raw     any
	present bool
}

// Absent is the value of a key missing from the config document
var Absent = Value{}

// Present wraps a value found in the config document
func Present(v any) Value {
	return Value{raw: v, present: true}
}

// IsAbsent reports whether the key was missing from the document
func (v Value) IsAbsent() bool {
	return !v.present
}

// Raw returns the decoded JSON value, nil when absent
func (v Value) Raw() any {
	return v.raw
}

// AsString returns the value as a string when it is one
func (v Value) AsString() (string, bool) {
	s, ok := v.raw.(string)
	return s, ok && v.present
}

// IsZero reports whether v is absent, so `omitzero` fields drop absent values
func (v Value) IsZero() bool {
	return !v.present
}

// LogValue logs the decoded value, or "<absent>"
func (v Value) LogValue() slog.Value {
	if !v.present {
		return slog.StringValue("<absent>")
	}
	return slog.AnyValue(v.raw)
}

// MarshalJSON encodes an absent value as null
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.present {
		return []byte("null"), nil
	}
	return json.Marshal(v.raw)
}

// Arguments is the fixed view of a job config passed to the job procedure.
// Absent fields are passed through unchanged.
type Arguments struct {
	Labels           Value
	AdditionalLabels Value
	UploadFolder     Value
}

type loadState int

const (
	unloaded loadState = iota
	loaded
)

// JobConfig is one declared job, backed by a JSON file.
// The document is parsed once; after that it is never read or reassigned again.
type JobConfig struct {
	sourcePath string
	read       ReadFunc

	mu      sync.Mutex
	state   loadState
	rawData map[string]any
}

// NewJobConfig creates an unloaded job config. A nil read uses os.ReadFile.
func NewJobConfig(sourcePath string, read ReadFunc) *JobConfig {
	if read == nil {
		read = os.ReadFile
	}
	return &JobConfig{
		sourcePath: sourcePath,
		read:       read,
		state:      unloaded,
	}
}

// Load creates a job config and parses its document
func Load(sourcePath string, read ReadFunc) (*JobConfig, error) {
	cfg := NewJobConfig(sourcePath, read)
	if _, err := cfg.Parse(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SourcePath returns the path of the backing file
func (c *JobConfig) SourcePath() string {
	return c.sourcePath
}

// Parse reads and decodes the document on first use and returns the memoized
// data afterwards. A failed parse leaves the config unloaded.
func (c *JobConfig) Parse() (map[string]any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == loaded {
		return maps.Clone(c.rawData), nil
	}

	content, err := c.read(c.sourcePath)
	if err != nil {
		return nil, &ConfigParseError{SourcePath: c.sourcePath, Err: fmt.Errorf("failed to read file: %w", err)}
	}

	var doc any
	if err := json.Unmarshal(content, &doc); err != nil {
		return nil, &ConfigParseError{SourcePath: c.sourcePath, Err: err}
	}

	data, ok := doc.(map[string]any)
	if !ok {
		return nil, &ConfigParseError{SourcePath: c.sourcePath, Err: ErrInvalidConfigDocument}
	}

	c.rawData = data
	c.state = loaded

	return maps.Clone(c.rawData), nil
}

// IsLoaded reports whether the document has been parsed
func (c *JobConfig) IsLoaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == loaded
}

// Get looks a key up without any I/O. Unloaded configs and missing keys give Absent.
func (c *JobConfig) Get(key string) Value {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != loaded {
		return Absent
	}
	v, ok := c.rawData[key]
	if !ok {
		return Absent
	}
	return Present(v)
}

// JobArguments returns the labels, additional labels and upload folder of the job
func (c *JobConfig) JobArguments() Arguments {
	return Arguments{
		Labels:           c.Get(KeyLabels),
		AdditionalLabels: c.Get(KeyAdditionalLabels),
		UploadFolder:     c.Get(KeyUploadFolder),
	}
}
