package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rosterchat/internal/app/models/dto"
	"rosterchat/internal/app/services"
)

// AskController handles conversational course questions.
type AskController struct {
	answerService *services.AnswerService
}

// NewAskController creates a new AskController
func NewAskController(answerService *services.AnswerService) *AskController {
	return &AskController{
		answerService: answerService,
	}
}

// Ask answers a natural language course question
// @Summary Ask a course question
// @Description Answers a natural language question about Cornell courses, grounded on ingested roster data
// @Tags ask
// @Accept json
// @Produce json
// @Param request body dto.AskRequest true "Question and optional conversation history"
// @Success 200 {object} dto.AnswerResponse "Answer payload; business-logic failures use success=false"
// @Failure 400 {object} dto.ErrorResponse "Invalid request body"
// @Router /ask [post]
func (c *AskController) Ask(ctx *gin.Context) {
	var req dto.AskRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid request: question is required")
		errorDetail = errorDetail.WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	response := c.answerService.Answer(ctx.Request.Context(), req.Question, req.ConversationHistory)
	ctx.JSON(http.StatusOK, response)
}
