package config_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smegmarip/stash-portrait-plugin/internal/config"
)

type sample struct {
	Port     int     `opt:"server_port"`
	Host     string  `opt:"server_name"`
	Scale    float64 `opt:"scale"`
	ForceCPU bool    `opt:"flag_force_cpu"`
	Internal string
}

func TestNamespace_LaterLayerWins(t *testing.T) {
	ns := config.NewNamespace(
		map[string]interface{}{"server_port": 8890, "server_name": "127.0.0.1"},
		map[string]interface{}{"server_port": 9000, "server_name": nil},
	)

	port, ok := ns.Get("server_port")
	require.True(t, ok)
	assert.Equal(t, 9000, port)

	host, ok := ns.Get("server_name")
	require.True(t, ok)
	assert.Equal(t, "127.0.0.1", host, "nil values never mask earlier layers")

	assert.Equal(t, []string{"server_name", "server_port"}, ns.Keys())
	assert.Equal(t, 2, ns.Len())
}

func TestResolve_OverridesTaggedFields(t *testing.T) {
	defaults := sample{Port: 8890, Host: "127.0.0.1", Scale: 2.3, Internal: "keep"}
	ns := config.NewNamespace(map[string]interface{}{
		"server_port":    9000,
		"scale":          2.5,
		"flag_force_cpu": true,
		"unrelated_key":  "ignored",
	})

	got, err := config.Resolve(defaults, ns)
	require.NoError(t, err)
	assert.Equal(t, sample{Port: 9000, Host: "127.0.0.1", Scale: 2.5, ForceCPU: true, Internal: "keep"}, got)
	assert.Equal(t, 8890, defaults.Port, "defaults are not modified")
}

func TestResolve_AbsentKeysKeepDefaults(t *testing.T) {
	defaults := sample{Port: 8890, Host: "127.0.0.1"}
	got, err := config.Resolve(defaults, config.NewNamespace())
	require.NoError(t, err)
	assert.Equal(t, defaults, got)
}

func TestResolve_IsIdempotent(t *testing.T) {
	ns := config.NewNamespace(map[string]interface{}{"server_port": 9100, "scale": 3.0})
	once, err := config.Resolve(sample{}, ns)
	require.NoError(t, err)
	twice, err := config.Resolve(once, ns)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestResolve_LosslessConversions(t *testing.T) {
	ns := config.NewNamespace(map[string]interface{}{
		"server_port":    float64(9000),
		"scale":          2,
		"flag_force_cpu": "true",
	})
	got, err := config.Resolve(sample{}, ns)
	require.NoError(t, err)
	assert.Equal(t, 9000, got.Port)
	assert.Equal(t, 2.0, got.Scale)
	assert.True(t, got.ForceCPU)

	ns = config.NewNamespace(map[string]interface{}{"server_port": "9001", "scale": "2.75"})
	got, err = config.Resolve(sample{}, ns)
	require.NoError(t, err)
	assert.Equal(t, 9001, got.Port)
	assert.Equal(t, 2.75, got.Scale)
}

func TestResolve_TypeMismatchFails(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value interface{}
	}{
		{"fractional int", "server_port", 8890.5},
		{"word for int", "server_port", "eighty"},
		{"number for string", "server_name", 42},
		{"yes for bool", "flag_force_cpu", "yes"},
		{"number for bool", "flag_force_cpu", 1},
		{"list for float", "scale", []interface{}{2.3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ns := config.NewNamespace(map[string]interface{}{tt.key: tt.value})
			_, err := config.Resolve(sample{}, ns)
			require.Error(t, err)

			var typeErr *config.FieldTypeError
			require.True(t, errors.As(err, &typeErr))
			assert.Equal(t, tt.key, typeErr.Key)
		})
	}
}

func TestResolve_SharedKeysFeedBothSchemas(t *testing.T) {
	ns := config.NewNamespace(map[string]interface{}{"device_id": 1, "flag_force_cpu": true, "source_max_dim": 960})

	inference, err := config.Resolve(config.InferenceConfig{}, ns)
	require.NoError(t, err)
	crop, err := config.Resolve(config.CropConfig{}, ns)
	require.NoError(t, err)

	assert.Equal(t, 1, inference.DeviceID)
	assert.Equal(t, 1, crop.DeviceID)
	assert.True(t, inference.FlagForceCPU)
	assert.True(t, crop.FlagForceCPU)
	assert.Equal(t, 960, inference.SourceMaxDim)
	assert.Equal(t, 960, crop.SourceMaxDim)
}

func TestOptions_RoundTripsThroughResolve(t *testing.T) {
	args := config.DefaultArguments()
	got, err := config.Resolve(config.ArgumentConfig{}, config.NewNamespace(config.Options(args)))
	require.NoError(t, err)
	assert.Equal(t, args, got)
}
