package aampconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/aampcore/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	return cfg
}

func TestStore_SeedDefaults_GetReturnsDefaultOwner(t *testing.T) {
	s := NewStore(nil, nil)
	s.SeedDefaults(testConfig(t))

	got, owner := s.GetFloat(KeyRampUpThreshold)
	assert.Equal(t, Default, owner)
	assert.Greater(t, got, 0.0)
}

func TestStore_HigherPriorityOwnerShadowsLower(t *testing.T) {
	s := NewStore(nil, nil)
	s.SeedDefaults(testConfig(t))

	assert.True(t, s.SetBool(StreamSetting, KeyLLDEnabled, true))
	v, owner := s.GetBool(KeyLLDEnabled)
	assert.True(t, v)
	assert.Equal(t, StreamSetting, owner)

	assert.True(t, s.SetBool(AppSetting, KeyLLDEnabled, false))
	v, owner = s.GetBool(KeyLLDEnabled)
	assert.False(t, v)
	assert.Equal(t, AppSetting, owner)
}

func TestStore_LowerPriorityOwnerRejected(t *testing.T) {
	s := NewStore(nil, nil)
	s.SeedDefaults(testConfig(t))

	require.True(t, s.SetBool(AppSetting, KeyLLDEnabled, true))
	assert.False(t, s.SetBool(StreamSetting, KeyLLDEnabled, false))

	v, owner := s.GetBool(KeyLLDEnabled)
	assert.True(t, v)
	assert.Equal(t, AppSetting, owner)
}

func TestStore_RestoreBool_PopsOneLevel(t *testing.T) {
	s := NewStore(nil, nil)
	s.SeedDefaults(testConfig(t))

	require.True(t, s.SetBool(OperatorSetting, KeyTSBEnabled, true))
	require.True(t, s.SetBool(TuneSetting, KeyTSBEnabled, false))

	v, owner := s.GetBool(KeyTSBEnabled)
	require.Equal(t, TuneSetting, owner)
	require.False(t, v)

	assert.True(t, s.RestoreBool(TuneSetting, KeyTSBEnabled))
	v, owner = s.GetBool(KeyTSBEnabled)
	assert.Equal(t, OperatorSetting, owner)
	assert.True(t, v)
}

func TestStore_RestoreBool_NoopWhenOwnerDoesNotHoldIt(t *testing.T) {
	s := NewStore(nil, nil)
	s.SeedDefaults(testConfig(t))

	require.True(t, s.SetBool(AppSetting, KeyTSBEnabled, true))
	// Stream tried to set it earlier conceptually but never actually took
	// effect because App already held it; restoring Stream must be a no-op.
	assert.False(t, s.RestoreBool(StreamSetting, KeyTSBEnabled))

	v, owner := s.GetBool(KeyTSBEnabled)
	assert.True(t, v)
	assert.Equal(t, AppSetting, owner)
}

func TestStore_RestoreConfiguration_PopsEveryKeyOwnedByOwner(t *testing.T) {
	s := NewStore(nil, nil)
	s.SeedDefaults(testConfig(t))

	require.True(t, s.SetBool(TuneSetting, KeyTSBEnabled, true))
	require.True(t, s.SetFloat(TuneSetting, KeyRampUpThreshold, 0.99))
	require.True(t, s.SetString(TuneSetting, KeyPreferredLanguage, "fr"))

	s.RestoreConfiguration(TuneSetting)

	_, owner := s.GetBool(KeyTSBEnabled)
	assert.Equal(t, Default, owner)
	_, owner = s.GetFloat(KeyRampUpThreshold)
	assert.Equal(t, Default, owner)
	_, owner = s.GetString(KeyPreferredLanguage)
	assert.Equal(t, Default, owner)
}

func TestStore_GetBytes_ParsesHumanReadableSize(t *testing.T) {
	s := NewStore(nil, nil)
	s.SeedDefaults(testConfig(t))
	require.True(t, s.SetString(AppSetting, KeyBufferMaxBytes, "16MB"))

	size, owner, err := s.GetBytes(KeyBufferMaxBytes)
	require.NoError(t, err)
	assert.Equal(t, AppSetting, owner)
	assert.EqualValues(t, 16*1024*1024, size)
}

func TestStore_RefreshDefaults_DedupesViaDefaultsLoader(t *testing.T) {
	calls := 0
	loader := NewDefaultsLoader(func() (*config.Config, error) {
		calls++
		return config.Load("")
	})

	s := NewStore(loader, nil)
	require.NoError(t, s.RefreshDefaults())
	require.NoError(t, s.RefreshDefaults())

	assert.GreaterOrEqual(t, calls, 1)
	_, owner := s.GetFloat(KeyRampUpThreshold)
	assert.Equal(t, Default, owner)
}

func TestOwner_String(t *testing.T) {
	assert.Equal(t, "app", AppSetting.String())
	assert.Equal(t, "default", Default.String())
}
