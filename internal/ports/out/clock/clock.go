package clock

import "time"

// Clock provides time to the application.
// created_at values are taken from it, so tests can pin them.
type Clock interface {
	Now() time.Time
}

// Func adapts a plain function to Clock.
type Func func() time.Time

func (f Func) Now() time.Time { return f() }
