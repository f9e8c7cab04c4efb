package auth

import (
	"errors"
	"fmt"

	"light-chat/chat"
)

// SessionKey names the persisted login flag
const SessionKey = "isLoggedIn"

const loggedInValue = "true"

// FlagSlot is a removable slot, satisfied by db.KeySlot
type FlagSlot interface {
	chat.Slot
	Remove() error
}

// SessionFlag is the persisted "logged in" boolean. It never expires.
type SessionFlag struct {
	slot FlagSlot
}

// NewSessionFlag wraps slot; a nil slot is never logged in
func NewSessionFlag(slot FlagSlot) *SessionFlag {
	return &SessionFlag{slot: slot}
}

// IsLoggedIn is true only when the slot holds exactly "true"
func (f *SessionFlag) IsLoggedIn() bool {
	if f.slot == nil {
		return false
	}
	data, err := f.slot.Load()
	if err != nil {
		return false
	}
	return string(data) == loggedInValue
}

// Set marks the session as logged in
func (f *SessionFlag) Set() error {
	if f.slot == nil {
		return chat.ErrSlotUnavailable
	}
	if err := f.slot.Save([]byte(loggedInValue)); err != nil {
		return fmt.Errorf("failed to save session flag: %w", err)
	}
	return nil
}

// Clear logs out
func (f *SessionFlag) Clear() error {
	if f.slot == nil {
		return nil
	}
	if err := f.slot.Remove(); err != nil && !errors.Is(err, chat.ErrSlotUnavailable) {
		return fmt.Errorf("failed to clear session flag: %w", err)
	}
	return nil
}
