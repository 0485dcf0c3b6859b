package services

import "errors"

// Failure classes surfaced to the API layer. Handlers map these onto HTTP
// status codes; nothing in this package touches HTTP.
var (
	// not found
	ErrPipelineNotFound = errors.New("pipeline not found")
	ErrStageNotFound    = errors.New("stage not found")
	ErrDealNotFound     = errors.New("deal not found")
	ErrContactNotFound  = errors.New("contact profile not found")
	ErrUserNotFound     = errors.New("user not found")

	// validation
	ErrDuplicatePipelineName = errors.New("pipeline with this name already exists")
	ErrCrossPipelineMove     = errors.New("target stage belongs to a different pipeline")
	ErrLossReasonRequired    = errors.New("loss reason is required")
	ErrStageOrderMismatch    = errors.New("stage ids do not match the pipeline's stages")
	ErrNegativeValue         = errors.New("deal value must not be negative")

	// conflict
	ErrConcurrentModification = errors.New("deal was moved by another user, refetch and retry")

	// auth
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
)
