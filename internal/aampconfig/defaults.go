package aampconfig

import (
	"golang.org/x/sync/singleflight"

	"github.com/jmylchreest/aampcore/internal/config"
)

// DefaultsLoader supplies the process-wide default Config a Store
// seeds itself from and re-reads from on a Store.RefreshDefaults call.
// Many sessions tend to refresh their defaults around the same moment
// (e.g. a fleet-wide config reload), so concurrent loads are collapsed
// into one via singleflight.
type DefaultsLoader struct {
	group singleflight.Group
	load  func() (*config.Config, error)
}

// NewDefaultsLoader wraps load, which should read+validate the
// process configuration (typically config.Load).
func NewDefaultsLoader(load func() (*config.Config, error)) *DefaultsLoader {
	return &DefaultsLoader{load: load}
}

// Load returns the current default Config, deduping concurrent callers.
func (d *DefaultsLoader) Load() (*config.Config, error) {
	v, err, _ := d.group.Do("defaults", func() (any, error) {
		return d.load()
	})
	if err != nil {
		return nil, err
	}
	return v.(*config.Config), nil
}
