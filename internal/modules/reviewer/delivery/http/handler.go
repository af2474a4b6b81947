package handler

import (
	"net/http"

	"anoa.com/teamcommonapp/internal/modules/reviewer/dto"
	reviewer "anoa.com/teamcommonapp/internal/modules/reviewer/service"
	"anoa.com/teamcommonapp/pkg/apperror"
	"anoa.com/teamcommonapp/pkg/response"
	"github.com/gin-gonic/gin"
)

type ReviewerHandler struct {
	service reviewer.ReviewerService
}

func NewReviewerHandler(service reviewer.ReviewerService) *ReviewerHandler {
	return &ReviewerHandler{service: service}
}

func (h *ReviewerHandler) ListReviewers(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	teamID, err := response.ParamUUID(c, "team_id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	reviewers, err := h.service.ListReviewers(c.Request.Context(), userID, teamID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": reviewers})
}

func (h *ReviewerHandler) AddReviewer(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	teamID, err := response.ParamUUID(c, "team_id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var input dto.AddReviewerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.ResponseError(c, apperror.New(http.StatusBadRequest, "invalid request body", err))
		return
	}

	r, err := h.service.AddReviewer(c.Request.Context(), userID, teamID, input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": r})
}

func (h *ReviewerHandler) RemoveReviewer(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	teamID, err := response.ParamUUID(c, "team_id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	reviewerID, err := response.ParamUUID(c, "user_id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	if err := h.service.RemoveReviewer(c.Request.Context(), userID, teamID, reviewerID); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "reviewer removed"})
}
