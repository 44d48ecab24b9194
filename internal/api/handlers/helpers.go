package handlers

import (
	"net/http"

	"github.com/dishom/opsboard/internal/api/middleware"
	"github.com/dishom/opsboard/internal/pkg/errors"
	"github.com/dishom/opsboard/internal/pkg/utils"
)

// writeServiceError writes a service error, preserving AppError status
// and code and downgrading anything else to a 500.
func writeServiceError(w http.ResponseWriter, err error, fallback string) {
	if appErr, ok := err.(*errors.AppError); ok {
		utils.WriteError(w, appErr)
		return
	}
	utils.WriteError(w, errors.Internal(fallback, err))
}

// actorFromRequest returns the authenticated caller's ID as a nullable
// actor reference.
func actorFromRequest(r *http.Request) *int64 {
	if userID, ok := middleware.GetUserID(r); ok {
		return &userID
	}
	return nil
}

// clientIP returns the remote address without the port.
func clientIP(r *http.Request) *string {
	addr := r.RemoteAddr
	for i := len(addr) - 1; i >= 0; i-- {
		if addr[i] == ':' {
			addr = addr[:i]
			break
		}
	}
	if addr == "" {
		return nil
	}
	return &addr
}
