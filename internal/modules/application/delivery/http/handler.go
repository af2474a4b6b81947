package handler

import (
	"net/http"

	"anoa.com/teamcommonapp/internal/modules/application/dto"
	application "anoa.com/teamcommonapp/internal/modules/application/service"
	"anoa.com/teamcommonapp/pkg/apperror"
	"anoa.com/teamcommonapp/pkg/response"
	"github.com/gin-gonic/gin"
)

type ApplicationHandler struct {
	service application.ApplicationService
}

func NewApplicationHandler(service application.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{service: service}
}

func (h *ApplicationHandler) CreateApplication(c *gin.Context) {
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

	var input dto.AnswersInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.ResponseError(c, apperror.New(http.StatusBadRequest, "invalid request body", err))
		return
	}

	app, err := h.service.CreateApplication(c.Request.Context(), userID, teamID, input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": app})
}

func (h *ApplicationHandler) GetApplication(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	applicationID, err := response.ParamUUID(c, "application_id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	app, err := h.service.GetApplication(c.Request.Context(), userID, applicationID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": app})
}

func (h *ApplicationHandler) ListMyApplications(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	apps, err := h.service.ListMyApplications(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": apps})
}

func (h *ApplicationHandler) UpdateAnswers(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	applicationID, err := response.ParamUUID(c, "application_id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var input dto.AnswersInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.ResponseError(c, apperror.New(http.StatusBadRequest, "invalid request body", err))
		return
	}

	app, err := h.service.UpdateAnswers(c.Request.Context(), userID, applicationID, input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": app})
}

func (h *ApplicationHandler) SubmitApplication(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	applicationID, err := response.ParamUUID(c, "application_id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	app, err := h.service.SubmitApplication(c.Request.Context(), userID, applicationID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": app})
}

func (h *ApplicationHandler) SetStatus(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	applicationID, err := response.ParamUUID(c, "application_id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var input dto.StatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.ResponseError(c, apperror.New(http.StatusBadRequest, "invalid request body", err))
		return
	}

	app, err := h.service.SetStatus(c.Request.Context(), userID, applicationID, input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": app})
}

func (h *ApplicationHandler) ListTeamApplications(c *gin.Context) {
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

	var filter dto.ApplicationFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.ResponseError(c, apperror.New(http.StatusBadRequest, "invalid query parameters", err))
		return
	}

	result, err := h.service.ListTeamApplications(c.Request.Context(), userID, teamID, filter)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
