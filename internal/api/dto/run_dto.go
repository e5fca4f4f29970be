package dto

type CreateRunRequest struct {
	ConfigFolder string `json:"config_folder" binding:"required"`
}

type ListRunsRequest struct {
	Status   string `form:"status"`
	PageSize int    `form:"page_size"`
	Cursor   string `form:"cursor"`
}

type ListRunsResponse struct {
	Runs       []RunDTO `json:"runs"`
	NextCursor string   `json:"next_cursor,omitempty"`
}

type RunDTO struct {
	RunID        string `json:"run_id"`
	ConfigFolder string `json:"config_folder"`
	Status       string `json:"status"`
	WorkerID     string `json:"worker_id,omitempty"`
	Succeeded    int    `json:"succeeded"`
	Failed       int    `json:"failed"`
	Skipped      int    `json:"skipped"`
	Error        string `json:"error,omitempty"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
	StartedAt    string `json:"started_at,omitempty"`
	CompletedAt  string `json:"completed_at,omitempty"`
}

type RunJobDTO struct {
	SourcePath string `json:"source_path"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
	StartedAt  string `json:"started_at,omitempty"`
	FinishedAt string `json:"finished_at,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

type RunDetailResponse struct {
	RunDTO
	Jobs []RunJobDTO `json:"jobs"`
}
