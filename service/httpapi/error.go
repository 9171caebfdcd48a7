package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/viant/moderation/model"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code    model.Code `json:"code"`
	Message string     `json:"message"`
}

// StatusOf maps an error code onto an HTTP status.
func StatusOf(code model.Code) int {
	switch code {
	case model.CodeValidation:
		return http.StatusBadRequest
	case model.CodeInvalidCode:
		return http.StatusUnprocessableEntity
	case model.CodeExpiredCode:
		return http.StatusGone
	case model.CodeAlreadyConsumed, model.CodeAlreadyReviewed:
		return http.StatusConflict
	case model.CodeTooManyAttempts:
		return http.StatusTooManyRequests
	case model.CodeNotFound:
		return http.StatusNotFound
	case model.CodeNotification:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func errorBody(err error) ErrorResponse {
	return ErrorResponse{Code: model.CodeOf(err), Message: model.MessageOf(err)}
}

func abort(c *gin.Context, err error) {
	c.AbortWithStatusJSON(StatusOf(model.CodeOf(err)), errorBody(err))
}
