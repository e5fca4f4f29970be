package domain

// Job task status constants
const (
	JobStatusPending   = "PENDING"
	JobStatusRunning   = "RUNNING"
	JobStatusSucceeded = "SUCCEEDED"
	JobStatusFailed    = "FAILED"
)

// Job config keys, matched exactly
const (
	KeyLabels           = "labels"
	KeyAdditionalLabels = "additional labels"
	KeyUploadFolder     = "UploadFolder"
)

// ConfigSuffix is the file suffix of job config files
const ConfigSuffix = ".json"
