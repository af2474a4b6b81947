package handler

import (
	"net/http"

	"anoa.com/teamcommonapp/internal/modules/team/dto"
	team "anoa.com/teamcommonapp/internal/modules/team/service"
	"anoa.com/teamcommonapp/pkg/apperror"
	"anoa.com/teamcommonapp/pkg/response"
	"github.com/gin-gonic/gin"
)

type TeamHandler struct {
	service team.TeamService
}

func NewTeamHandler(service team.TeamService) *TeamHandler {
	return &TeamHandler{service: service}
}

func (h *TeamHandler) ListTeams(c *gin.Context) {
	var filter dto.TeamFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.ResponseError(c, apperror.New(http.StatusBadRequest, "invalid query", err))
		return
	}

	teams, err := h.service.ListTeams(c.Request.Context(), filter)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, teams)
}

func (h *TeamHandler) GetTeam(c *gin.Context) {
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

	t, err := h.service.GetTeam(c.Request.Context(), userID, teamID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": t})
}

func (h *TeamHandler) ManagedTeams(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	teams, err := h.service.ManagedTeams(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": teams})
}

func (h *TeamHandler) SetDeadlines(c *gin.Context) {
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

	var input dto.DeadlinesInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.ResponseError(c, apperror.New(http.StatusBadRequest, "invalid request body", err))
		return
	}

	t, err := h.service.SetDeadlines(c.Request.Context(), userID, teamID, input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": t})
}
