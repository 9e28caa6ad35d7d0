package handlers

import (
	"net/http"

	"github.com/ArnavJain-cy/sih-app/internal/quiz"
	"github.com/gin-gonic/gin"
)

type QuizHandler struct{}

func NewQuizHandler() *QuizHandler {
	return &QuizHandler{}
}

type ScoreRequest struct {
	Answers []int `json:"answers" binding:"required,max=5,dive,gte=0,lte=3"`
}

func (h *QuizHandler) Questions(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"questions": quiz.Questions()})
}

func (h *QuizHandler) Score(ctx *gin.Context) {
	var req ScoreRequest
	if !BindJSON(ctx, &req) {
		return
	}

	res, err := quiz.Score(req.Answers)
	if err != nil {
		RespondBadRequest(ctx, err.Error(), nil)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"scores":         res.Scores,
		"track":          res.Track,
		"recommendation": res.Recommendation,
	})
}
