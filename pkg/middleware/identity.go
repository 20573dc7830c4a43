package middleware

import (
	"net/http"

	"reservation-engine/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Headers set by the upstream gateway after it authenticates the caller.
// This service never authenticates; it only consumes a verified identity.
const (
	SubjectIDHeader   = "X-Subject-Id"
	SubjectRoleHeader = "X-Subject-Role"
)

// Identity extracts the upstream-verified subject identity into the
// request context. Requests without a parseable identity are rejected
// before any business logic runs.
func Identity(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get(SubjectIDHeader)
			if raw == "" {
				utils.ResponseUnauthorized(w, "Missing subject identity")
				return
			}

			subjectID, err := uuid.Parse(raw)
			if err != nil {
				logger.Warn("Malformed subject identity header",
					zap.String("subject_id", raw),
					zap.String("path", r.URL.Path),
				)
				utils.ResponseUnauthorized(w, "Invalid subject identity")
				return
			}

			admin := r.Header.Get(SubjectRoleHeader) == "admin"
			ctx := utils.SetSubjectContext(r.Context(), subjectID, admin)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Admin gates routes reserved for the administrative collaborator. The
// role decision itself is made upstream and arrives on the request.
func Admin(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subjectID, ok := utils.GetSubjectIDFromContext(r.Context())
			if !ok {
				utils.ResponseUnauthorized(w, "Authentication required")
				return
			}

			if !utils.IsAdminFromContext(r.Context()) {
				logger.Warn("Non-admin access attempt",
					zap.String("subject_id", subjectID.String()),
					zap.String("path", r.URL.Path),
				)
				utils.ResponseForbidden(w, "Admin access required")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
