package orchestrator

import "time"

// Report is the serializable form of a Summary
type Report struct {
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Succeeded  int             `json:"succeeded"`
	Failed     int             `json:"failed"`
	Jobs       []JobReport     `json:"jobs"`
	Skipped    []SkippedReport `json:"skipped"`
}

// JobReport describes the outcome of one job
type JobReport struct {
	SourcePath string    `json:"source_path"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	DurationMS int64     `json:"duration_ms"`
}

// SkippedReport describes a job config left out of the run
type SkippedReport struct {
	SourcePath string `json:"source_path"`
	Error      string `json:"error"`
}

// Report builds the serializable form of the summary
func (s *Summary) Report() Report {
	report := Report{
		StartedAt:  s.StartedAt,
		FinishedAt: s.FinishedAt,
		Jobs:       []JobReport{},
		Skipped:    []SkippedReport{},
	}

	for _, o := range s.Outcomes() {
		job := JobReport{
			SourcePath: o.SourcePath,
			Status:     o.Status,
			StartedAt:  o.StartedAt,
			FinishedAt: o.FinishedAt,
			DurationMS: o.Duration().Milliseconds(),
		}
		if o.Err != nil {
			job.Error = o.Err.Error()
			report.Failed++
		} else if o.Succeeded() {
			report.Succeeded++
		}
		report.Jobs = append(report.Jobs, job)
	}

	for _, skipped := range s.Skipped() {
		report.Skipped = append(report.Skipped, SkippedReport{
			SourcePath: skipped.SourcePath,
			Error:      skipped.Err.Error(),
		})
	}

	return report
}
