package port

import "time"

// Task is a scheduled callback that can be called off before it runs.
type Task interface {
	// Cancel stops the task, returns false if it already ran or was cancelled
	Cancel() bool
}

type Clock interface {
	Now() time.Time

	// AfterFunc runs f once d has elapsed
	AfterFunc(d time.Duration, f func()) Task
}
