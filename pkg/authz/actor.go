package authz

import (
	"net"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// ActorContext identifies who performed a mutation and from where. Every
// mutating service call takes it explicitly; audit snapshots are built from
// it rather than from ambient request state.
type ActorContext struct {
	UserID    string `json:"user_id"`
	UserName  string `json:"user_name"`
	UserEmail string `json:"user_email"`
	UserRole  string `json:"user_role"`
	IP        string `json:"ip"`
	UserAgent string `json:"user_agent"`
	SessionID string `json:"session_id"`
	RequestID string `json:"request_id"`
}

// SystemActor is used for seeding and scheduled maintenance, where no
// authenticated user is behind the mutation.
func SystemActor() ActorContext {
	return ActorContext{
		UserID:    "system",
		UserName:  "system",
		RequestID: uuid.NewString(),
	}
}

// ActorFromRequest fills the request-scoped fields of an ActorContext.
// Identity fields are supplied by the caller once the principal is known.
func ActorFromRequest(r *http.Request) ActorContext {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		ip = host
	}

	requestID := middleware.GetReqID(r.Context())
	if requestID == "" {
		requestID = uuid.NewString()
	}

	return ActorContext{
		IP:        ip,
		UserAgent: r.UserAgent(),
		SessionID: sessionIDFromRequest(r),
		RequestID: requestID,
	}
}

func sessionIDFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie("medgate_session"); err == nil {
		return cookie.Value
	}
	return ""
}
