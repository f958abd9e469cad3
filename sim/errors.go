package sim

import "fmt"

// ConfigError signals invalid CLI arguments. Fatal, surfaced to the user
// before the simulation starts.
type ConfigError struct{ Msg string }

func (e *ConfigError) Error() string { return fmt.Sprintf("config error: %s", e.Msg) }

// TopologyError signals a topology file referencing nonexistent hosts,
// routers, or links. Fatal at load time.
type TopologyError struct{ Msg string }

func (e *TopologyError) Error() string { return fmt.Sprintf("topology error: %s", e.Msg) }

// InternalInvariantViolation marks a state the implementation's own
// invariants rule out (e.g. an unexpected packet kind reaching a flow's
// state machine). It is never recovered from; invariant panics with it.
type InternalInvariantViolation struct{ Msg string }

func (e *InternalInvariantViolation) Error() string {
	return fmt.Sprintf("internal invariant violation: %s", e.Msg)
}

// invariant panics with an InternalInvariantViolation if cond is false.
// RuntimeDrop, ProtocolTimeout, StaleRoutingInfo, and UnroutableDest are
// not represented as error values: they are routine, non-fatal conditions
// that feed metrics/logs rather than propagate, so
// they're handled inline at the call site (link.go, router.go) with a
// logrus.Debugf/Warnf and a counter increment instead of an error return.
func invariant(cond bool, format string, args ...any) {
	if !cond {
		panic(&InternalInvariantViolation{Msg: fmt.Sprintf(format, args...)})
	}
}
