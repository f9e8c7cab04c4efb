package utils

import (
	"fmt"
	"runtime/debug"
)

// PanicError carries a recovered panic value and the stack it happened on
type PanicError struct {
	Where string
	Value interface{}
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("%s: panic: %v", e.Where, e.Value)
}

func recovered(logger *Logger, where string, r interface{}) *PanicError {
	p := &PanicError{Where: where, Value: r, Stack: debug.Stack()}
	logger.Error("Panic recovered in %s: %v\n%s", where, r, p.Stack)
	return p
}

// RecoverFromPanic is deferred by goroutines that must not take the process down
func RecoverFromPanic(logger *Logger, where string) {
	if r := recover(); r != nil {
		recovered(logger, where, r)
	}
}

// SafeGo runs fn in a goroutine with panic recovery
func SafeGo(logger *Logger, where string, fn func()) {
	go func() {
		defer RecoverFromPanic(logger, where)
		fn()
	}()
}

// SafeGoWithError runs fn in a goroutine. A returned error or a recovered
// panic (as *PanicError) is logged and passed to onError.
func SafeGoWithError(logger *Logger, where string, fn func() error, onError func(error)) {
	go func() {
		var err error
		defer func() {
			if r := recover(); r != nil {
				err = recovered(logger, where, r)
			}
			if err != nil && onError != nil {
				onError(err)
			}
		}()

		if err = fn(); err != nil {
			logger.Error("Error in %s: %v", where, err)
		}
	}()
}
