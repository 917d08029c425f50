package role

import (
	"context"
	"errors"
	"log/slog"
)

var ErrRoleNotFound = errors.New("role not found")

type RepositoryAPI interface {
	// GetRole returns the stored role value for userID or ErrRoleNotFound.
	GetRole(ctx context.Context, userID int64) (string, error)
}

type Resolver struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewResolver(repo RepositoryAPI, logger *slog.Logger) *Resolver {
	return &Resolver{
		repo:   repo,
		logger: logger,
	}
}

// Resolve returns the role of userID. A missing record, a failed lookup, or an
// unrecognised value all resolve to Employee so that no error path can grant
// elevated access.
func (r *Resolver) Resolve(ctx context.Context, userID int64) Role {
	if userID <= 0 {
		r.logger.WarnContext(ctx, "role resolution requested without a user id")
		return Employee
	}

	value, err := r.repo.GetRole(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrRoleNotFound) {
			r.logger.DebugContext(ctx, "no role record, defaulting to employee", "user_id", userID)
			return Employee
		}
		r.logger.ErrorContext(ctx, "failed to fetch user role", "error", err, "user_id", userID)
		return Employee
	}

	resolved := Parse(value)
	if string(resolved) != value {
		r.logger.WarnContext(ctx, "unrecognised role value", "user_id", userID, "value", value, "resolved", resolved)
	}
	return resolved
}
