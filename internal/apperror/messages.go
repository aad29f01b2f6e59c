package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	CodeRequiredField:   "Required field is missing",
	CodeInvalidInput:    "Invalid input provided",
	CodeInvalidState:    "Invalid state for this operation",
	CodeNotFound:        "Resource not found",
	CodeValidationError: "Validation error",

	CodeConfigurationError: "Configuration error",

	CodeInternalError: "Internal error",
	CodeUnknownError:  "An unknown error occurred",

	CodeVenueInit:        "Venue initialization failed",
	CodeVenueCall:        "Venue call failed",
	CodeVenueUnsupported: "Venue kind is not supported",
	CodeUnsupportedToken: "Token symbol has no known address",
	CodePoolNotFound:     "No liquidity pool found for pair",
	CodeContractCall:     "Smart contract call failed",
	CodeQuoteInvalid:     "Invalid quote data",

	CodeDegenerateTrade: "Trade value is not positive",
	CodeCycleFailed:     "Scan cycle failed",

	CodeStoreQuery: "Storage query failed",
	CodeStoreWrite: "Storage write failed",

	CodeExecutionFailed:  "Trade execution failed",
	CodeStatusTransition: "Invalid opportunity status transition",

	CodeCircuitOpen: "Circuit breaker is open",
}
