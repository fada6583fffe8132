package clock

import "time"

// Clock abstracts wall time so expiration can be tested deterministically.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func New() Clock {
	return realClock{}
}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}
