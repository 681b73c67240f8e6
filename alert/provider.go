// Package alert defines how failed commands are reported to an alerting
// system.
package alert

import "context"

// Provider sends error alerts to a monitoring system.
//
// errCode identifies the failure, operation names what was being executed
// (e.g. "command: CreateTodoCommand") and details carries request metadata
// such as the trace id.
type Provider interface {
	SendError(ctx context.Context, errCode, msg, operation string, details map[string]string) error
}
