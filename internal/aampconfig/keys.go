package aampconfig

// BoolKey, IntKey, FloatKey, and StringKey each name a distinct
// namespace of typed settings, mirroring the original's separate
// per-kind enums (AAMPConfigSettingBool/Int/Float/String): a caller
// can't accidentally pass a bool key where a string is expected.
type (
	BoolKey   string
	IntKey    string
	FloatKey  string
	StringKey string
)

// Keys covering the subset of the original's ~150-entry setting table
// that a named SPEC_FULL.md component actually reads: Buffer Control,
// the fetcher's network timeouts, Local TSB, LLD rate correction, and
// the Profiler's payload toggles. Every other original key has no
// corresponding component in this module and is not reproduced (see
// DESIGN.md).
const (
	KeyBufferTimeBased BoolKey = "buffer.time_based"
	KeyLLDEnabled      BoolKey = "lld.enabled"
	KeyTSBEnabled      BoolKey = "tsb.enabled"
	KeyProfilerCSV     BoolKey = "profiler.enable_csv"
	KeyProfilerJSON    BoolKey = "profiler.enable_json"
	KeyInterfaceWifi   BoolKey = "network.interface_wifi"
)

const (
	KeyRetryAttempts    IntKey = "network.retry_attempts"
	KeySchedulerWorkers IntKey = "scheduler.workers"
)

const (
	KeyBufferTargetDurationSeconds FloatKey = "buffer.target_duration_seconds"
	KeyRampUpThreshold             FloatKey = "buffer.ramp_up_threshold"
	KeyRampDownThreshold           FloatKey = "buffer.ramp_down_threshold"
	KeyLLDLatencyCeilingSeconds    FloatKey = "lld.latency_ceiling_seconds"
	KeyNetworkTimeoutSeconds       FloatKey = "network.timeout_seconds"
	KeyNetworkConnectTimeoutSecs   FloatKey = "network.connect_timeout_seconds"
	KeyRetryDelaySeconds           FloatKey = "network.retry_delay_seconds"
	KeyTSBMaxDurationSeconds       FloatKey = "tsb.max_duration_seconds"
)

const (
	KeyBufferMaxBytes    StringKey = "buffer.max_bytes" // parsed via pkg/bytesize
	KeyTSBMaxBytes       StringKey = "tsb.max_bytes"    // parsed via pkg/bytesize
	KeyTSBStorePath      StringKey = "tsb.store_path"
	KeyPreferredLanguage StringKey = "network.preferred_language"
	KeyLogLevel          StringKey = "logging.level"
)
