package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"jobbridge_backend/internal/logger"
	"jobbridge_backend/pkg/apperrors"
)

// respondError maps an AppError onto its HTTP status; anything else is
// a 500 with a generic body.
func respondError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if apperrors.As(err, &appErr) {
		c.JSON(appErr.HTTPCode, gin.H{"error": appErr})
		return
	}

	logger.WithError(err).Error("unhandled error in request path")
	c.JSON(http.StatusInternalServerError, gin.H{"error": apperrors.InternalError(err)})
}

func respondOK(c *gin.Context, payload interface{}) {
	c.JSON(http.StatusOK, payload)
}

func respondCreated(c *gin.Context, payload interface{}) {
	c.JSON(http.StatusCreated, payload)
}

func bindJSON(c *gin.Context, target interface{}) bool {
	if err := c.ShouldBindJSON(target); err != nil {
		respondError(c, apperrors.NewBadRequestError(err.Error()))
		return false
	}
	return true
}
