package handlers

import (
	"github.com/gin-gonic/gin"

	"jobbridge_backend/internal/services"
	"jobbridge_backend/internal/services/dto"
)

type AuthHandler struct {
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) RegisterStudent(c *gin.Context) {
	var req dto.RegisterStudentRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.authService.RegisterStudent(&req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, resp)
}

func (h *AuthHandler) RegisterCompany(c *gin.Context) {
	var req dto.RegisterCompanyRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.authService.RegisterCompany(&req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, resp)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.authService.Login(&req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, resp)
}
