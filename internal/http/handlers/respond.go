package handlers

import (
	"net/http"

	"github.com/ArnavJain-cy/sih-app/internal/account"
	"github.com/ArnavJain-cy/sih-app/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

const MsgRouteNotFound = "Route not found"

func RespondError(ctx *gin.Context, status int, code, message string, details interface{}) {
	middlewares.AbortWithError(ctx, status, code, message, details)
}

func RespondBadRequest(ctx *gin.Context, message string, details interface{}) {
	RespondError(ctx, http.StatusBadRequest, "invalid_request", message, details)
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, "not_found", message, nil)
}

// RespondServiceError translates a service error into status, code and
// message. Errors without a kind become a 500 with fallback as the message.
func RespondServiceError(ctx *gin.Context, err error, fallback string) {
	status, code := statusFor(account.KindOf(err))
	RespondError(ctx, status, code, account.MessageOf(err, fallback), nil)
}

func statusFor(kind account.Kind) (int, string) {
	switch kind {
	case account.KindValidation:
		return http.StatusBadRequest, "invalid_request"
	case account.KindConflict:
		// duplicate accounts are reported as 400, not 409
		return http.StatusBadRequest, "conflict"
	case account.KindUnauthenticated:
		return http.StatusUnauthorized, "invalid_credentials"
	case account.KindNotFound:
		return http.StatusNotFound, "not_found"
	case account.KindUnavailable:
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// NoRoute answers unmatched paths and methods.
func NoRoute(ctx *gin.Context) {
	RespondNotFound(ctx, MsgRouteNotFound)
}
