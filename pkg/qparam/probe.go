package qparam

import "time"

// Op identifies the kind of pass a store ran.
type Op string

const (
	OpConstruct Op = "construct"
	OpExternal  Op = "external"
	OpLocal     Op = "local"
	OpFlush     Op = "flush"
)

// Pass describes one completed diff, update or flush.
type Pass struct {
	Op       Op
	Started  time.Time
	Duration time.Duration

	// Changed lists the keys that changed (empty for flush passes).
	Changed []string

	// Errors is the size of the error set after the pass.
	Errors int

	// Notified is the number of observers invoked (flush passes only).
	Notified int

	// Err is the error returned to the caller, if any (local passes only).
	Err error
}

// Probe receives a Pass after each store operation. Implementations live in
// pkg/metrics.
type Probe interface {
	PassCompleted(p Pass)
}

// ProbeFunc adapts a function to Probe.
type ProbeFunc func(p Pass)

// PassCompleted calls f.
func (f ProbeFunc) PassCompleted(p Pass) { f(p) }

type nopProbe struct{}

func (nopProbe) PassCompleted(Pass) {}
