package testutil

import "time"

// FixedClock always returns T. Use to make upsert timestamps deterministic.
type FixedClock struct {
	T time.Time
}

func (c FixedClock) Now() time.Time { return c.T }
