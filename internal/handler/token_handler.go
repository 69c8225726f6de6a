package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/patshala/patshala-backend/internal/middleware"
	"github.com/patshala/patshala-backend/internal/model"
	"github.com/patshala/patshala-backend/internal/response"
	"github.com/patshala/patshala-backend/internal/service"
	"github.com/patshala/patshala-backend/internal/validator"
)

// TokenHandler handles enrollment-token redemption.
type TokenHandler struct {
	tokenService *service.TokenService
}

// NewTokenHandler creates a new TokenHandler.
func NewTokenHandler(tokenService *service.TokenService) *TokenHandler {
	return &TokenHandler{tokenService: tokenService}
}

// RedeemToken godoc
// POST /api/v1/student/tokens/redeem
// Consumes a manually distributed enrollment token for the caller.
func (h *TokenHandler) RedeemToken(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.RedeemTokenRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.tokenService.Redeem(c.Request.Context(), req.Token, claims.UserID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidToken):
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidEnrollToken)
		case errors.Is(err, service.ErrExpiredToken):
			response.Fail(c, http.StatusBadRequest, response.ErrExpiredEnrollToken)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"result": result})
}
