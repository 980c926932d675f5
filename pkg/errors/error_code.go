package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidDirection     ErrorCode = 102
	ErrCodeInvalidTimeframe     ErrorCode = 103
	ErrCodeInvalidDecay         ErrorCode = 104
	ErrCodeInvalidCapacity      ErrorCode = 105
	ErrCodeInvalidWindow        ErrorCode = 106
	ErrCodeMissingParameter     ErrorCode = 107

	// Data/Resource errors (200-299)
	ErrCodeDataNotFound          ErrorCode = 200
	ErrCodeDataSourceUnavailable ErrorCode = 201
	ErrCodeQueryFailed           ErrorCode = 202
	ErrCodeInsufficientData      ErrorCode = 203

	// Strategy errors (300-399)
	ErrCodeStrategyConfigError  ErrorCode = 300
	ErrCodeStrategyRuntimeError ErrorCode = 301

	// Market data errors (400-499)
	ErrCodeMarketDataFetchFailed  ErrorCode = 400
	ErrCodeMarketDataWriteFailed  ErrorCode = 401
	ErrCodeMarketDataParseFailed  ErrorCode = 402
	ErrCodeProviderNotConnected   ErrorCode = 403
	ErrCodeInvalidProvider        ErrorCode = 404
	ErrCodeStreamingNotSupported  ErrorCode = 405
	ErrCodeProviderConnectFailed  ErrorCode = 406
	ErrCodeProviderShutdownFailed ErrorCode = 407
)
