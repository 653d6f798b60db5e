package domain

// OcrStatus tracks text recognition for a document.
//
// The lifecycle is a small state machine:
//
//	pending -> processing -> completed | failed
//	failed -> pending      (retry)
//	completed -> pending   (caller invalidated the recognized text)
//
// Every persisted status change goes through CanTransitionTo, so a document
// can never, for example, jump from pending straight to completed.
type OcrStatus string

const (
	OcrStatusPending    OcrStatus = "pending"
	OcrStatusProcessing OcrStatus = "processing"
	OcrStatusCompleted  OcrStatus = "completed"
	OcrStatusFailed     OcrStatus = "failed"
)

// ParseOcrStatus converts a stored string into an OcrStatus.
func ParseOcrStatus(s string) (OcrStatus, error) {
	status := OcrStatus(s)
	if !status.Valid() {
		return "", ErrInvalidOcrStatus
	}
	return status, nil
}

// Valid reports whether the status is one of the known states.
func (s OcrStatus) Valid() bool {
	switch s {
	case OcrStatusPending, OcrStatusProcessing, OcrStatusCompleted, OcrStatusFailed:
		return true
	}
	return false
}

// CanTransitionTo reports whether moving from s to next is allowed.
func (s OcrStatus) CanTransitionTo(next OcrStatus) bool {
	switch s {
	case OcrStatusPending:
		return next == OcrStatusProcessing
	case OcrStatusProcessing:
		return next == OcrStatusCompleted || next == OcrStatusFailed
	case OcrStatusCompleted, OcrStatusFailed:
		return next == OcrStatusPending
	}
	return false
}

func (s OcrStatus) String() string {
	return string(s)
}
