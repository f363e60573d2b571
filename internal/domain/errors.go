package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionNotFound is returned when a quiz session has not been opened.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrInvalidParameters indicates quiz parameters out of range.
	ErrInvalidParameters = errors.New("invalid quiz parameters")
	// ErrAlreadyStarted is returned when a session is started twice.
	ErrAlreadyStarted = errors.New("quiz session already started")
	// ErrNoActiveQuestion indicates an action that needs an answerable question.
	ErrNoActiveQuestion = errors.New("no active question")
	// ErrNoSelection indicates a manual submit without a chosen option.
	ErrNoSelection = errors.New("no option selected")
	// ErrOptionNotFound indicates a selected option key is invalid.
	ErrOptionNotFound = errors.New("option not found")
	// ErrNotRevealed indicates an advance before the current question was answered.
	ErrNotRevealed = errors.New("question not answered yet")
	// ErrInvalidTransition is returned by the phase router for an event the phase does not accept.
	ErrInvalidTransition = errors.New("invalid phase transition")
	// ErrTokenNotReady indicates a quiz was begun before a session token was acquired.
	ErrTokenNotReady = errors.New("session token not ready")
	// ErrDailyAlreadyPlayed is returned when the daily challenge was already played today.
	ErrDailyAlreadyPlayed = errors.New("daily challenge already played today")
)

// Service and storage error kinds. Concrete errors wrap one of these.
var (
	ErrTokenAcquisition      = errors.New("token acquisition failed")
	ErrTokenReset            = errors.New("token reset failed")
	ErrRateLimited           = errors.New("rate limited")
	ErrInsufficientQuestions = errors.New("insufficient questions")
	ErrInvalidParameter      = errors.New("invalid parameter")
	ErrTokenInvalid          = errors.New("token not found")
	ErrTokenExhausted        = errors.New("token exhausted")
	ErrNetwork               = errors.New("network error")
	ErrNoQuestions           = errors.New("no questions returned")
	ErrUnexpectedResponse    = errors.New("unexpected response")
	ErrStorageRead           = errors.New("storage read failed")
	ErrStorageWrite          = errors.New("storage write failed")
)

// Recovery tells the client which action gets it out of an error.
type Recovery string

const (
	RecoveryRetry   Recovery = "retry"
	RecoveryRefresh Recovery = "refresh"
	RecoverySetup   Recovery = "setup"
)

// ServiceError is a classified failure talking to the question service.
type ServiceError struct {
	Kind   error
	Code   int    // response_code when the service answered, otherwise -1
	Detail string // response_message when the service sent one
	Err    error  // transport or decode cause
}

func (e *ServiceError) Error() string {
	msg := e.Kind.Error()
	if e.Code >= 0 {
		msg = fmt.Sprintf("%s (response_code %d)", msg, e.Code)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ServiceError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// ErrorForCode maps a non-zero question service response_code to its error kind.
func ErrorForCode(code int) error {
	switch code {
	case 1:
		return ErrInsufficientQuestions
	case 2:
		return ErrInvalidParameter
	case 3:
		return ErrTokenInvalid
	case 4:
		return ErrTokenExhausted
	case 5:
		return ErrRateLimited
	default:
		return ErrUnexpectedResponse
	}
}

// UserMessage renders err as the text shown to the player.
func UserMessage(err error) string {
	var svc *ServiceError
	detail := ""
	if errors.As(err, &svc) {
		detail = svc.Detail
	}
	switch {
	case errors.Is(err, ErrTokenAcquisition):
		if errors.Is(err, ErrNetwork) {
			return "Network error: Could not connect to the quiz service. Check your connection."
		}
		return fmt.Sprintf("Failed to acquire a quiz token: %s. Please refresh.", detail)
	case errors.Is(err, ErrTokenReset):
		if errors.Is(err, ErrNetwork) {
			return "Network error: Could not reset quiz token."
		}
		return fmt.Sprintf("Failed to reset quiz token: %s.", detail)
	case errors.Is(err, ErrRateLimited):
		return "Rate limit exceeded. Please wait a moment before starting another quiz."
	case errors.Is(err, ErrInsufficientQuestions):
		return "Not enough questions for your criteria. Try different settings!"
	case errors.Is(err, ErrInvalidParameter):
		return "Invalid parameters provided. This could be due to an incorrect category. Please check your quiz settings."
	case errors.Is(err, ErrTokenInvalid):
		return "Session token not found or invalid. This quiz cannot proceed. Please refresh the page."
	case errors.Is(err, ErrTokenExhausted):
		return "All questions exhausted for this token and criteria. Please reset token or try different settings."
	case errors.Is(err, ErrNetwork):
		return "Network error: Could not connect to the quest service. Please check your internet connection."
	case errors.Is(err, ErrNoQuestions):
		return "No challenges found for your criteria. Please return to setup and try different selections."
	case errors.Is(err, ErrStorageRead):
		return "Failed to load leaderboard from local storage."
	case errors.Is(err, ErrStorageWrite):
		return "Failed to save your score to local storage."
	case errors.Is(err, ErrInvalidParameters):
		return err.Error()
	case errors.Is(err, ErrTokenNotReady):
		return "Preparing your quiz token..."
	case errors.Is(err, ErrDailyAlreadyPlayed):
		return "You have already taken today's challenge. Come back tomorrow!"
	default:
		return "An unexpected error occurred fetching questions."
	}
}

// RecoveryFor suggests how the player recovers from err.
func RecoveryFor(err error) Recovery {
	switch {
	case errors.Is(err, ErrRateLimited), errors.Is(err, ErrNetwork) && !IsTokenError(err):
		return RecoveryRetry
	case IsTokenError(err):
		return RecoveryRefresh
	default:
		return RecoverySetup
	}
}

// IsTokenError reports whether err leaves the session token unusable.
func IsTokenError(err error) bool {
	return errors.Is(err, ErrTokenAcquisition) ||
		errors.Is(err, ErrTokenReset) ||
		errors.Is(err, ErrTokenInvalid)
}
