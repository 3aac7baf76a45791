package clock

import "time"

// Clock provides time to the application so tests can control it.
type Clock interface {
	Now() time.Time
}
