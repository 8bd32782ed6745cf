package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveServiceURL(t *testing.T) {
	tests := []struct {
		name       string
		configured string
		want       string
	}{
		{"empty uses fallback", "", "http://portrait-engine:8000"},
		{"localhost keeps port", "http://localhost:9000", "http://localhost:9000"},
		{"localhost default port", "http://localhost", "http://localhost:8000"},
		{"ip as-is", "https://10.0.0.5:8443", "https://10.0.0.5:8443"},
		{"ipv6", "http://[::1]:8000", "http://[::1]:8000"},
		{"no host", "http://:8000", "http://portrait-engine:8000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resolveServiceURL(tt.configured, defaultEngineContainer, defaultEnginePort))
		})
	}
}

func TestSettingGetters(t *testing.T) {
	settings := map[string]interface{}{
		"s": "value",
		"i": float64(12),
		"f": 3,
		"b": true,
	}
	assert.Equal(t, "value", getStringSetting(settings, "s"))
	assert.Equal(t, "", getStringSetting(settings, "i"))
	assert.Equal(t, 12, getIntSetting(settings, "i"))
	assert.Equal(t, 0, getIntSetting(settings, "b"))
	assert.Equal(t, 3.0, getFloatSetting(settings, "f"))
	assert.Equal(t, 0.0, getFloatSetting(settings, "missing"))
}
