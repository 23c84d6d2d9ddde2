package dto

import "time"

// IngestStartedResponse acknowledges a newly started ingestion job.
type IngestStartedResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	JobID   string `json:"jobId"`
}

// IngestProgress is the progress snapshot of one ingestion job.
type IngestProgress struct {
	CurrentRoster     string   `json:"currentRoster"`
	CurrentSubject    string   `json:"currentSubject"`
	RostersCompleted  int      `json:"rostersCompleted"`
	SubjectsCompleted int      `json:"subjectsCompleted"`
	CoursesStored     int      `json:"coursesStored"`
	TotalRosters      int      `json:"totalRosters"`
	TotalSubjects     int      `json:"totalSubjects"`
	Errors            []string `json:"errors"`
}

// IngestJobResponse reports the state of an ingestion job.
type IngestJobResponse struct {
	Success    bool           `json:"success"`
	JobID      string         `json:"jobId"`
	Status     string         `json:"status"`
	Progress   IngestProgress `json:"progress"`
	StartedAt  time.Time      `json:"startedAt"`
	FinishedAt *time.Time     `json:"finishedAt,omitempty"`
}
