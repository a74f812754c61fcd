package http

import (
	"errors"
	"net/http"

	"whiteboard-relay/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func HandleServiceError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrInvalidRoom) || errors.Is(err, service.ErrInvalidSnapshot) {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
	} else if errors.Is(err, service.ErrStateUnavailable) {
		logrus.WithError(err).Error("State store unavailable")
		ErrorResponse(c, http.StatusServiceUnavailable, "Room state temporarily unavailable")
	} else {
		logrus.WithError(err).Error("Unhandled internal server error")
		ErrorResponse(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}
