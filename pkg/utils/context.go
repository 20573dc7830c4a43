package utils

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	SubjectIDKey contextKey = "subject_id"
	AdminKey     contextKey = "admin"
)

// GetSubjectIDFromContext returns the upstream-verified subject identity
// set by the identity middleware.
func GetSubjectIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	subjectVal := ctx.Value(SubjectIDKey)
	if subjectVal == nil {
		return uuid.Nil, false
	}

	subjectStr, ok := subjectVal.(string)
	if !ok {
		return uuid.Nil, false
	}

	subjectID, err := uuid.Parse(subjectStr)
	if err != nil {
		return uuid.Nil, false
	}

	return subjectID, true
}

// IsAdminFromContext reports whether the upstream marked the caller as an
// administrative collaborator.
func IsAdminFromContext(ctx context.Context) bool {
	adminVal := ctx.Value(AdminKey)
	if adminVal == nil {
		return false
	}

	admin, ok := adminVal.(bool)
	return ok && admin
}

// SetSubjectContext stores the verified identity for downstream handlers.
func SetSubjectContext(ctx context.Context, subjectID uuid.UUID, admin bool) context.Context {
	ctx = context.WithValue(ctx, SubjectIDKey, subjectID.String())
	ctx = context.WithValue(ctx, AdminKey, admin)
	return ctx
}
