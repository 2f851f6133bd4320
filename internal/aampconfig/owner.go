// Package aampconfig implements the session-local, owner-priority
// configuration override store: a typed key/value table where a value
// set by a higher-priority owner shadows one set by a lower-priority
// owner, and RestoreConfiguration lets a owner give its override back,
// revealing whatever the next owner down had set.
package aampconfig

import "fmt"

// Owner identifies who set a configuration value. Owners are ordered
// by priority: a Set from a higher owner always takes effect over a
// lower owner's existing value; a Set from a lower owner is rejected
// while a higher owner's value is in place.
type Owner int

const (
	// Default is the process-wide configuration baseline (see internal/config).
	Default Owner = iota
	// OperatorSetting is applied by the deployment/operator layer (e.g. an MSO policy push).
	OperatorSetting
	// StreamSetting is derived from the manifest/playlist being played.
	StreamSetting
	// TuneSetting is supplied by the caller of Tune for this one session.
	TuneSetting
	// DevSetting overrides for local development/debugging, never persisted.
	DevSetting
	// AppSetting is set at runtime by the embedding application; highest priority.
	AppSetting
)

func (o Owner) String() string {
	switch o {
	case Default:
		return "default"
	case OperatorSetting:
		return "operator"
	case StreamSetting:
		return "stream"
	case TuneSetting:
		return "tune"
	case DevSetting:
		return "dev"
	case AppSetting:
		return "app"
	default:
		return fmt.Sprintf("owner(%d)", int(o))
	}
}
