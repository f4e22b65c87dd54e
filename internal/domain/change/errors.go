package change

import (
	"errors"
	"fmt"
)

// ErrSubscriberPanic marks a subscriber that panicked while handling a change.
var ErrSubscriberPanic = errors.New("subscriber panicked")

// SubscriberError reports one subscriber that failed to apply one change.
type SubscriberError struct {
	Subscriber string
	Kind       Kind
	Owner      string
	Err        error
}

func (e *SubscriberError) Error() string {
	return fmt.Sprintf("subscriber %q: %s change for user %q: %v", e.Subscriber, e.Kind, e.Owner, e.Err)
}

func (e *SubscriberError) Unwrap() error { return e.Err }
