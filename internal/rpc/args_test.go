package rpc

import (
	"testing"

	graphql "github.com/hasura/go-graphql-client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArgs_Float(t *testing.T) {
	args := Args{
		"json":   0.25,
		"int":    3,
		"string": " 1.5 ",
		"blank":  "",
		"bad":    "high",
		"bool":   true,
	}

	tests := []struct {
		key     string
		want    float64
		wantErr bool
	}{
		{"json", 0.25, false},
		{"int", 3, false},
		{"string", 1.5, false},
		{"blank", 9, false},
		{"absent", 9, false},
		{"bad", 0, true},
		{"bool", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, err := args.Float(tt.key, 9)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestArgs_Bool(t *testing.T) {
	args := Args{"on": true, "text": "false", "num": float64(1), "bad": "maybe"}

	v, err := args.Bool("on", false)
	require.NoError(t, err)
	assert.True(t, v)

	v, err = args.Bool("text", true)
	require.NoError(t, err)
	assert.False(t, v)

	v, err = args.Bool("num", false)
	require.NoError(t, err)
	assert.True(t, v)

	v, err = args.Bool("absent", true)
	require.NoError(t, err)
	assert.True(t, v)

	_, err = args.Bool("bad", false)
	assert.Error(t, err)
}

func TestArgs_IDAndString(t *testing.T) {
	args := Args{"float": float64(42), "text": "17", "empty": "", "mode": "animate"}

	id, ok := args.ID("float")
	assert.True(t, ok)
	assert.Equal(t, graphql.ID("42"), id)

	id, ok = args.ID("text")
	assert.True(t, ok)
	assert.Equal(t, graphql.ID("17"), id)

	_, ok = args.ID("empty")
	assert.False(t, ok)

	assert.Equal(t, "animate", args.String("mode", ""))
	assert.Equal(t, "42", args.String("float", ""))
	assert.Equal(t, "fallback", args.String("empty", "fallback"))
}

func TestArgs_FieldsKeepDefaults(t *testing.T) {
	args := Args{"scale": "2.8"}

	scale, crop := 2.5, true
	require.NoError(t, args.floatField("scale", &scale))
	require.NoError(t, args.boolField("doCrop", &crop))

	assert.Equal(t, 2.8, scale)
	assert.True(t, crop)
}

func TestArgs_OptionalFloat(t *testing.T) {
	args := Args{"set": 0.0, "blank": "", "bad": "wide"}

	v, err := args.optionalFloat("set")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Zero(t, *v)

	v, err = args.optionalFloat("blank")
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = args.optionalFloat("absent")
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = args.optionalFloat("bad")
	assert.Error(t, err)
}
