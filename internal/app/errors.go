package service

import (
	"github.com/okian/fieldscout/internal/adapters/auth"
	"github.com/okian/fieldscout/internal/adapters/repository"
	"github.com/okian/fieldscout/internal/domain/access"
	"github.com/okian/fieldscout/internal/domain/model"
)

// Error kinds returned by the service. Callers match them with errors.Is.
var (
	ErrUnauthorized   = access.ErrUnauthorized
	ErrForbidden      = access.ErrForbidden
	ErrBadCredentials = auth.ErrBadCredentials
	ErrNotFound       = repository.ErrNotFound
	ErrConflict       = repository.ErrConflict
	ErrValidation     = model.ErrValidation
)
