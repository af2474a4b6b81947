package handler

import (
	"net/http"

	"anoa.com/teamcommonapp/internal/modules/note/dto"
	note "anoa.com/teamcommonapp/internal/modules/note/service"
	"anoa.com/teamcommonapp/pkg/apperror"
	"anoa.com/teamcommonapp/pkg/response"
	"github.com/gin-gonic/gin"
)

type NoteHandler struct {
	service note.NoteService
}

func NewNoteHandler(service note.NoteService) *NoteHandler {
	return &NoteHandler{service: service}
}

func (h *NoteHandler) ListNotes(c *gin.Context) {
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

	notes, err := h.service.ListNotes(c.Request.Context(), userID, applicationID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": notes})
}

func (h *NoteHandler) CreateNote(c *gin.Context) {
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

	var input dto.NoteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.ResponseError(c, apperror.New(http.StatusBadRequest, "invalid request body", err))
		return
	}

	n, err := h.service.CreateNote(c.Request.Context(), userID, applicationID, input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": n})
}

func (h *NoteHandler) UpdateNote(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	noteID, err := response.ParamUUID(c, "note_id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var input dto.NoteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.ResponseError(c, apperror.New(http.StatusBadRequest, "invalid request body", err))
		return
	}

	n, err := h.service.UpdateNote(c.Request.Context(), userID, noteID, input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": n})
}

func (h *NoteHandler) DeleteNote(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	noteID, err := response.ParamUUID(c, "note_id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	if err := h.service.DeleteNote(c.Request.Context(), userID, noteID); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "note deleted"})
}
