package dto

import "rosterchat/internal/app/models"

// AskRequest is the body of POST /api/ask.
type AskRequest struct {
	Question            string               `json:"question" binding:"required"`
	ConversationHistory []models.ChatMessage `json:"conversationHistory"`
}

// CourseInfo is the structured course projection returned alongside answers.
type CourseInfo struct {
	Subject                string                  `json:"subject"`
	CatalogNbr             string                  `json:"catalogNbr"`
	TitleLong              string                  `json:"titleLong"`
	Description            string                  `json:"description,omitempty"`
	GradingBasis           string                  `json:"gradingBasis,omitempty"`
	GradingBasisVariations []string                `json:"gradingBasisVariations,omitempty"`
	UnitsMinimum           *float64                `json:"unitsMinimum,omitempty"`
	UnitsMaximum           *float64                `json:"unitsMaximum,omitempty"`
	Instructors            []string                `json:"instructors,omitempty"`
	MeetingPatterns        []models.MeetingPattern `json:"meetingPatterns,omitempty"`
	Prerequisites          string                  `json:"prerequisites,omitempty"`
	Outcomes               string                  `json:"outcomes,omitempty"`
	LastTermsOffered       string                  `json:"lastTermsOffered,omitempty"`
}

// CourseListItem is one entry of a subject-browse or disambiguation list.
type CourseListItem struct {
	Subject      string `json:"subject"`
	CatalogNbr   string `json:"catalogNbr"`
	TitleLong    string `json:"titleLong"`
	RosterSlug   string `json:"rosterSlug"`
	RosterDescr  string `json:"rosterDescr"`
	ClassPageUrl string `json:"classPageUrl,omitempty"`
}

// AnswerResponse is the result of answering one question. Business-logic
// failures are reported here with Success=false, never as HTTP errors.
type AnswerResponse struct {
	Success      bool             `json:"success"`
	AIAnswer     string           `json:"aiAnswer,omitempty"`
	CourseInfo   *CourseInfo      `json:"courseInfo,omitempty"`
	RosterSlug   string           `json:"rosterSlug,omitempty"`
	RosterDescr  string           `json:"rosterDescr,omitempty"`
	IsOldData    bool             `json:"isOldData"`
	ClassPageUrl string           `json:"classPageUrl,omitempty"`
	AnswerType   models.Intent    `json:"answerType,omitempty"`
	Message      string           `json:"message,omitempty"`
	Error        string           `json:"error,omitempty"`
	Suggestions  []string         `json:"suggestions,omitempty"`
	CourseList   []CourseListItem `json:"courseList,omitempty"`
}
