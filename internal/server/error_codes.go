package server

const (
	// Validation (1xxx)
	ErrCodeInvalidArgument    = 1000
	ErrCodeInvalidJSON        = 1001
	ErrCodeRequestTooLarge    = 1002
	ErrCodeInvalidQuery       = 1003
	ErrCodeMissingEmail       = 1010
	ErrCodeMissingPassword    = 1011
	ErrCodeMissingName        = 1012
	ErrCodeMissingType        = 1013
	ErrCodeMissingData        = 1014
	ErrCodeInvalidData        = 1015
	ErrCodeInvalidCredentials = 1016

	// Domain state (2xxx)
	ErrCodeFileNotFound       = 2001
	ErrCodeParentNotFound     = 2002
	ErrCodeParentNotFolder    = 2003
	ErrCodeFolderHasNoContent = 2004
	ErrCodeContentNotFound    = 2005
	ErrCodeUserExists         = 2101

	// Auth (3xxx)
	ErrCodeUnauthorized    = 3001
	ErrCodeTooManyAttempts = 3002

	// Internal/system (4xxx)
	ErrCodeInternal     = 4001
	ErrCodeStoreFailure = 4002
	ErrCodeBlobFailure  = 4003
)

func defaultErrorCodeByStatus(status int) int {
	switch status {
	case 400:
		return ErrCodeInvalidArgument
	case 401:
		return ErrCodeUnauthorized
	case 404:
		return ErrCodeFileNotFound
	case 500:
		return ErrCodeInternal
	default:
		return 0
	}
}
