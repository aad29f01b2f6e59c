package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	CodeRequiredField   Code = "REQUIRED_FIELD"
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeInvalidState    Code = "INVALID_STATE"
	CodeNotFound        Code = "NOT_FOUND"
	CodeValidationError Code = "VALIDATION_ERROR"

	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Scanner-specific error codes
const (
	// Venue errors
	CodeVenueInit        Code = "VENUE_INIT_FAILED"
	CodeVenueCall        Code = "VENUE_CALL_FAILED"
	CodeVenueUnsupported Code = "VENUE_KIND_UNSUPPORTED"
	CodeUnsupportedToken Code = "UNSUPPORTED_TOKEN"
	CodePoolNotFound     Code = "POOL_NOT_FOUND"
	CodeContractCall     Code = "CONTRACT_CALL_FAILED"
	CodeQuoteInvalid     Code = "QUOTE_INVALID"

	// Detection and profit errors
	CodeDegenerateTrade Code = "DEGENERATE_TRADE"
	CodeCycleFailed     Code = "CYCLE_FAILED"

	// Storage errors
	CodeStoreQuery Code = "STORE_QUERY_FAILED"
	CodeStoreWrite Code = "STORE_WRITE_FAILED"

	// Execution errors
	CodeExecutionFailed  Code = "EXECUTION_FAILED"
	CodeStatusTransition Code = "INVALID_STATUS_TRANSITION"

	// Circuit breaker errors
	CodeCircuitOpen Code = "CIRCUIT_OPEN"
)
