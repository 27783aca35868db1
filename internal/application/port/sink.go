package port

import "time"

// Sink is a rendered-line output for the reference console consumer.
type Sink interface {
	WriteLive(line string) error
	WriteStatus(ts time.Time, line string) error
	NewLine() error
}
