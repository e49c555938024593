package server

import "time"

const (
	ProtocolVersion       = 1
	tickRate              = 15 // ticks per second (10-20 Hz)
	snapshotIntervalTicks = 15
)

// TickInterval derives the wall-clock spacing of simulation ticks.
func TickInterval(rate int) time.Duration {
	if rate <= 0 {
		rate = tickRate
	}
	return time.Second / time.Duration(rate)
}
