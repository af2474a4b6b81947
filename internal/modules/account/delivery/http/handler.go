package handler

import (
	"net/http"

	"anoa.com/teamcommonapp/internal/modules/account/dto"
	account "anoa.com/teamcommonapp/internal/modules/account/service"
	"anoa.com/teamcommonapp/pkg/apperror"
	"anoa.com/teamcommonapp/pkg/response"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	service account.AuthService
}

func NewAuthHandler(service account.AuthService) *AuthHandler {
	return &AuthHandler{service: service}
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req dto.SignupInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ResponseError(c, apperror.New(http.StatusBadRequest, "invalid request body", err))
		return
	}

	resp, err := h.service.Signup(c.Request.Context(), req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ResponseError(c, apperror.New(http.StatusBadRequest, "invalid request body", err))
		return
	}

	resp, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
