package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrTokenExpired       ErrCode = "TOKEN_EXPIRED"
	ErrPhoneTaken         ErrCode = "PHONE_ALREADY_REGISTERED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden         ErrCode = "FORBIDDEN"
	ErrStudentAccessOnly ErrCode = "STUDENT_ACCESS_ONLY"
	ErrAdminAccessOnly   ErrCode = "ADMIN_ACCESS_ONLY"
	ErrNotEnrolled       ErrCode = "NOT_ENROLLED"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound      ErrCode = "NOT_FOUND"
	ErrOrderNotFound ErrCode = "ORDER_NOT_FOUND"
	ErrExamNotFound  ErrCode = "EXAM_NOT_FOUND"
	ErrBatchNotFound ErrCode = "BATCH_NOT_FOUND"
	ErrConflict      ErrCode = "CONFLICT"

	// ─── Enrollment tokens ─────────────────────────────────────────────
	ErrInvalidEnrollToken ErrCode = "INVALID_ENROLL_TOKEN"
	ErrExpiredEnrollToken ErrCode = "EXPIRED_ENROLL_TOKEN"

	// ─── Exam sessions ─────────────────────────────────────────────────
	ErrNoQuestions      ErrCode = "NO_QUESTIONS"
	ErrSessionNotActive ErrCode = "SESSION_NOT_ACTIVE"
	ErrSessionSubmitted ErrCode = "SESSION_ALREADY_SUBMITTED"
	ErrNoResult         ErrCode = "NO_RESULT"

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
		return "Phone number or password is incorrect."
	case ErrTokenRequired:
		return "Authentication token is required."
	case ErrTokenInvalid:
		return "Authentication token is invalid."
	case ErrTokenExpired:
		return "Authentication token has expired."
	case ErrPhoneTaken:
		return "An account with this phone number already exists."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You do not have permission to access this resource."
	case ErrStudentAccessOnly:
		return "This resource is restricted to students."
	case ErrAdminAccessOnly:
		return "This resource is restricted to administrators."
	case ErrNotEnrolled:
		return "You are not enrolled in this batch."

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
	case ErrOrderNotFound:
		return "Order not found."
	case ErrExamNotFound:
		return "Exam not found."
	case ErrBatchNotFound:
		return "Batch not found."
	case ErrConflict:
		return "Resource already exists."

	// ─── Enrollment tokens ─────────────────────────────────────────────
	case ErrInvalidEnrollToken:
		return "This token is invalid or has already been used."
	case ErrExpiredEnrollToken:
		return "This token has expired."

	// ─── Exam sessions ─────────────────────────────────────────────────
	case ErrNoQuestions:
		return "This exam has no questions."
	case ErrSessionNotActive:
		return "No active exam session. Start the exam first."
	case ErrSessionSubmitted:
		return "This exam has already been submitted."
	case ErrNoResult:
		return "No exam result available."

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
