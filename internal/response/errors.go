package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrSessionActive      ErrCode = "SESSION_ALREADY_ACTIVE"
	ErrSessionInvalidated ErrCode = "SESSION_INVALIDATED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrTokenExpired       ErrCode = "TOKEN_EXPIRED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden ErrCode = "FORBIDDEN"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Study sessions ────────────────────────────────────────────────
	ErrSessionCompleted       ErrCode = "SESSION_COMPLETED"
	ErrNoActiveQuestion       ErrCode = "NO_ACTIVE_QUESTION"
	ErrQuestionAlreadyAnswer  ErrCode = "QUESTION_ALREADY_ANSWERED"
	ErrAnswerRequired         ErrCode = "ANSWER_REQUIRED"
	ErrPivotUnavailable       ErrCode = "PIVOT_UNAVAILABLE"
	ErrInvalidSessionLength   ErrCode = "INVALID_SESSION_LENGTH"
	ErrGenerationFailed       ErrCode = "GENERATION_FAILED"
	ErrGenerationUnconfigured ErrCode = "GENERATION_UNCONFIGURED"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Email or password is incorrect."
	case ErrSessionInvalidated:
		return "Your session has ended. Please log in again."
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid."
	case ErrTokenExpired:
		return "The authentication token has expired."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You do not have permission to access this resource."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidPayload:
		return "Invalid request payload."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrConflict:
		return "Resource already exists."

	// ─── Study sessions ────────────────────────────────────────────────
	case ErrSessionActive:
		return "You are already logged in on another device."
	case ErrSessionCompleted:
		return "This study session is already complete."
	case ErrNoActiveQuestion:
		return "There is no active question to act on."
	case ErrQuestionAlreadyAnswer:
		return "This question has already been answered."
	case ErrAnswerRequired:
		return "Answer the current question before advancing."
	case ErrPivotUnavailable:
		return "A pivot scenario is not available for this question yet."
	case ErrInvalidSessionLength:
		return "Practice sessions must be 10, 25, or 50 questions."
	case ErrGenerationFailed:
		return "Question generation failed. Please try again."
	case ErrGenerationUnconfigured:
		return "AI generation is not configured on this server."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
