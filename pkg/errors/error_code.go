package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Configuration errors (100-199). These fail fast at construction and
	// are never raised mid-run.
	ErrCodeInvalidConfiguration  ErrorCode = 100
	ErrCodeInvalidInitialCapital ErrorCode = 101
	ErrCodeInvalidTimeRange      ErrorCode = 102
	ErrCodeInvalidRiskLimits     ErrorCode = 103
	ErrCodeEmptyUniverse         ErrorCode = 104
	ErrCodeInvalidFeeModel       ErrorCode = 105
	ErrCodeInvalidSlippageModel  ErrorCode = 106
	ErrCodeInvalidBar            ErrorCode = 107
	ErrCodeInvalidSignal         ErrorCode = 108
	ErrCodeInvalidOrder          ErrorCode = 109

	// Data errors (200-299)
	ErrCodeDataOutOfOrder        ErrorCode = 200
	ErrCodeDataSourceUnavailable ErrorCode = 201
	ErrCodeDataParseFailed       ErrorCode = 202
	ErrCodeNoDataFound           ErrorCode = 203
	ErrCodeQueryFailed           ErrorCode = 204

	// Strategy errors (400-499)
	ErrCodeStrategyNotFound      ErrorCode = 400
	ErrCodeStrategyAlreadyExists ErrorCode = 401
	ErrCodeStrategyRuntimeError  ErrorCode = 402
	ErrCodeVersionMismatch       ErrorCode = 403

	// Trading errors (500-599)
	ErrCodeOrderFailed      ErrorCode = 500
	ErrCodePositionNotFound ErrorCode = 501
	ErrCodeReconciliation   ErrorCode = 502

	// Backtest errors (600-699)
	ErrCodeBacktestNotRunnable ErrorCode = 600
	ErrCodeBacktestAborted     ErrorCode = 601
	ErrCodeBacktestCancelled   ErrorCode = 602
	ErrCodeJournalFailed       ErrorCode = 603
)
