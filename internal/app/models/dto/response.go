package dto

import (
	"time"

	"rosterchat/internal/app/models"
)

// RostersResponse wraps the roster list endpoint payload.
type RostersResponse struct {
	Success bool            `json:"success"`
	Rosters []models.Roster `json:"rosters"`
}

// CourseResponse wraps a single stored course.
type CourseResponse struct {
	Success bool           `json:"success"`
	Course  *models.Course `json:"course"`
}

// CourseHistoryResponse wraps the per-term history of a course.
type CourseHistoryResponse struct {
	Success bool            `json:"success"`
	History []models.Course `json:"history"`
}

// StatsResponse reports how much data the store currently holds.
type StatsResponse struct {
	Rosters  int `json:"rosters"`
	Subjects int `json:"subjects"`
	Courses  int `json:"courses"`
}

// PingResponse is the health check payload.
type PingResponse struct {
	Status    string        `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
	Stats     StatsResponse `json:"stats"`
}
