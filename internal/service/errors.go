package service

import "errors"

// --- Error Definitions ---
var (
	ErrUniquenessViolation = errors.New("username or email already taken")
	ErrInvalidCredential   = errors.New("invalid credential")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrNotFound            = errors.New("not found")
	ErrValidationFailed    = errors.New("validation failed")
	ErrHashingFailed       = errors.New("failed to hash password")
	ErrStorageDisabled     = errors.New("avatar uploads are not enabled")
	ErrCatalogUnavailable  = errors.New("exercise catalog unavailable")
	ErrUnknownCategory     = errors.New("unknown exercise category")
)
