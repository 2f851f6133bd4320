package aampconfig

import (
	"log/slog"
	"sync"

	"github.com/jmylchreest/aampcore/internal/config"
	"github.com/jmylchreest/aampcore/pkg/bytesize"
)

// Store is a session-local, owner-priority configuration override
// table. One Store is owned per tune session; Get reads always see
// the highest-priority owner's value for that key.
type Store struct {
	mu sync.RWMutex

	bools   map[BoolKey]*slot[bool]
	ints    map[IntKey]*slot[int]
	floats  map[FloatKey]*slot[float64]
	strings map[StringKey]*slot[string]

	defaults *DefaultsLoader
	logger   *slog.Logger
}

// NewStore creates an empty Store. Call SeedDefaults to populate it
// from the process configuration before first use.
func NewStore(defaults *DefaultsLoader, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		bools:    make(map[BoolKey]*slot[bool]),
		ints:     make(map[IntKey]*slot[int]),
		floats:   make(map[FloatKey]*slot[float64]),
		strings:  make(map[StringKey]*slot[string]),
		defaults: defaults,
		logger:   logger.With(slog.String("component", "aampconfig")),
	}
}

// SeedDefaults (re)installs the Default-owner floor for every known
// key from cfg, without disturbing any higher-priority override
// already in place.
func (s *Store) SeedDefaults(cfg *config.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seedBool(s.bools, KeyBufferTimeBased, cfg.Buffer.TimeBased)
	seedBool(s.bools, KeyLLDEnabled, cfg.LLD.Enabled)
	seedBool(s.bools, KeyTSBEnabled, cfg.TSB.Enabled)
	seedBool(s.bools, KeyProfilerCSV, cfg.Profiler.EnableCSV)
	seedBool(s.bools, KeyProfilerJSON, cfg.Profiler.EnableJSON)

	seedInt(s.ints, KeyRetryAttempts, cfg.Network.RetryAttempts)
	seedInt(s.ints, KeySchedulerWorkers, cfg.Scheduler.Workers)

	seedFloat(s.floats, KeyBufferTargetDurationSeconds, cfg.Buffer.TargetDuration.Duration().Seconds())
	seedFloat(s.floats, KeyRampUpThreshold, cfg.Buffer.RampUpThreshold)
	seedFloat(s.floats, KeyRampDownThreshold, cfg.Buffer.RampDownThreshold)
	seedFloat(s.floats, KeyLLDLatencyCeilingSeconds, cfg.LLD.LatencyCeiling.Duration().Seconds())
	seedFloat(s.floats, KeyNetworkTimeoutSeconds, cfg.Network.Timeout.Duration().Seconds())
	seedFloat(s.floats, KeyNetworkConnectTimeoutSecs, cfg.Network.ConnectTimeout.Duration().Seconds())
	seedFloat(s.floats, KeyRetryDelaySeconds, cfg.Network.RetryDelay.Duration().Seconds())
	seedFloat(s.floats, KeyTSBMaxDurationSeconds, cfg.TSB.MaxDuration.Duration().Seconds())

	seedString(s.strings, KeyBufferMaxBytes, cfg.Buffer.MaxBytes.String())
	seedString(s.strings, KeyTSBMaxBytes, cfg.TSB.MaxBytes.String())
	seedString(s.strings, KeyTSBStorePath, cfg.TSB.StorePath)
	seedString(s.strings, KeyPreferredLanguage, cfg.Network.PreferredLanguage)
	seedString(s.strings, KeyLogLevel, cfg.Logging.Level)
}

func seedBool(m map[BoolKey]*slot[bool], k BoolKey, v bool)          { seed(m, k, v) }
func seedInt(m map[IntKey]*slot[int], k IntKey, v int)               { seed(m, k, v) }
func seedFloat(m map[FloatKey]*slot[float64], k FloatKey, v float64) { seed(m, k, v) }
func seedString(m map[StringKey]*slot[string], k StringKey, v string) { seed(m, k, v) }

func seed[K comparable, T any](m map[K]*slot[T], k K, v T) {
	sl, ok := m[k]
	if !ok {
		sl = &slot[T]{}
		m[k] = sl
	}
	sl.seedDefault(v)
}

// SetBool records value at owner for key, provided no higher-priority
// owner currently holds it. Returns false if rejected.
func (s *Store) SetBool(owner Owner, key BoolKey, value bool) bool {
	return set(s, &s.mu, s.bools, key, owner, value)
}

// GetBool returns key's current effective value and the owner that set it.
func (s *Store) GetBool(key BoolKey) (bool, Owner) { return get(&s.mu, s.bools, key) }

// RestoreBool pops owner's override on key, if owner currently holds it.
func (s *Store) RestoreBool(owner Owner, key BoolKey) bool {
	return restore(&s.mu, s.bools, key, owner)
}

func (s *Store) SetInt(owner Owner, key IntKey, value int) bool {
	return set(s, &s.mu, s.ints, key, owner, value)
}
func (s *Store) GetInt(key IntKey) (int, Owner)        { return get(&s.mu, s.ints, key) }
func (s *Store) RestoreInt(owner Owner, key IntKey) bool {
	return restore(&s.mu, s.ints, key, owner)
}

func (s *Store) SetFloat(owner Owner, key FloatKey, value float64) bool {
	return set(s, &s.mu, s.floats, key, owner, value)
}
func (s *Store) GetFloat(key FloatKey) (float64, Owner) { return get(&s.mu, s.floats, key) }
func (s *Store) RestoreFloat(owner Owner, key FloatKey) bool {
	return restore(&s.mu, s.floats, key, owner)
}

func (s *Store) SetString(owner Owner, key StringKey, value string) bool {
	return set(s, &s.mu, s.strings, key, owner, value)
}
func (s *Store) GetString(key StringKey) (string, Owner) { return get(&s.mu, s.strings, key) }
func (s *Store) RestoreString(owner Owner, key StringKey) bool {
	return restore(&s.mu, s.strings, key, owner)
}

// GetBytes resolves a StringKey holding a human-readable byte size
// (e.g. "8MB") via pkg/bytesize, for keys like KeyBufferMaxBytes.
func (s *Store) GetBytes(key StringKey) (bytesize.Size, Owner, error) {
	raw, owner := s.GetString(key)
	size, err := bytesize.Parse(raw)
	return size, owner, err
}

func set[K comparable, T any](s *Store, mu *sync.RWMutex, m map[K]*slot[T], key K, owner Owner, value T) bool {
	mu.Lock()
	defer mu.Unlock()
	sl, ok := m[key]
	if !ok {
		sl = &slot[T]{}
		m[key] = sl
	}
	applied := sl.trySet(owner, value)
	if !applied && s != nil {
		s.logger.Debug("config set rejected: lower priority than current owner",
			slog.Any("key", key), slog.String("owner", owner.String()), slog.String("current_owner", sl.owner.String()))
	}
	return applied
}

func get[K comparable, T any](mu *sync.RWMutex, m map[K]*slot[T], key K) (T, Owner) {
	mu.RLock()
	defer mu.RUnlock()
	sl, ok := m[key]
	if !ok {
		var zero T
		return zero, Default
	}
	return sl.value, sl.owner
}

func restore[K comparable, T any](mu *sync.RWMutex, m map[K]*slot[T], key K, owner Owner) bool {
	mu.Lock()
	defer mu.Unlock()
	sl, ok := m[key]
	if !ok {
		return false
	}
	return sl.restore(owner)
}

// RestoreConfiguration pops owner's override from every key it
// currently holds across all four kinds, analogous to tearing down a
// stream- or tune-level configuration layer in one call.
func (s *Store) RestoreConfiguration(owner Owner) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sl := range s.bools {
		sl.restore(owner)
	}
	for _, sl := range s.ints {
		sl.restore(owner)
	}
	for _, sl := range s.floats {
		sl.restore(owner)
	}
	for _, sl := range s.strings {
		sl.restore(owner)
	}
}

// RefreshDefaults re-reads the process configuration via the
// DefaultsLoader and re-seeds every Default-owned floor, for callers
// where restoring to Default means "go back to whatever the live
// defaults say now", not merely "revert to a stale cached value".
// RestoreConfiguration never re-reads the defaults itself.
func (s *Store) RefreshDefaults() error {
	if s.defaults == nil {
		return nil
	}
	cfg, err := s.defaults.Load()
	if err != nil {
		return err
	}
	s.SeedDefaults(cfg)
	return nil
}
