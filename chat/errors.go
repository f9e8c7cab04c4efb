package chat

import "errors"

var (
	// ErrConversationNotFound is returned when no stored conversation has the requested id
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrSlotUnavailable signals that the backing storage cannot be reached at all.
	// Store treats it as an empty collection when reading.
	ErrSlotUnavailable = errors.New("storage slot unavailable")

	// ErrEmptyInput rejects blank submissions
	ErrEmptyInput = errors.New("input is empty")

	// ErrSubmissionInFlight rejects a submission while another one is pending
	ErrSubmissionInFlight = errors.New("a submission is already in flight")

	// ErrEmptyReply is reported when the collaborator succeeds without usable text
	ErrEmptyReply = errors.New("completion returned no text")
)
