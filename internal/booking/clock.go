package booking

import "time"

// Clock: источник текущего времени; в тестах подменяется.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// FixedClock всегда возвращает одно и то же время.
type FixedClock struct {
	T time.Time
}

func (c *FixedClock) Now() time.Time { return c.T }

// Advance сдвигает часы вперёд.
func (c *FixedClock) Advance(d time.Duration) { c.T = c.T.Add(d) }
