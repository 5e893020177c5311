package settings_test

import (
	"testing"

	"github.com/adscale/bq-bootstrap/pkg/settings"
	"github.com/stretchr/testify/assert"
)

func TestValueUnsetSentinel(t *testing.T) {
	var v settings.Value
	assert.False(t, v.IsSet())
	assert.Nil(t, v.Get())
}

func TestValueExplicitFalseIsSet(t *testing.T) {
	var v settings.Value
	v.Set(false)
	assert.True(t, v.IsSet(), "an explicit false is a valid set, not equivalent to unset")
	assert.Equal(t, false, v.Get())
}

func TestValueClear(t *testing.T) {
	var v settings.Value
	v.Set("bucket-a")
	assert.True(t, v.IsSet())
	v.Clear()
	assert.False(t, v.IsSet())
	assert.Nil(t, v.Get())
}

func TestValueSetOverwrites(t *testing.T) {
	var v settings.Value
	v.Set(1)
	v.Set(2)
	assert.Equal(t, 2, v.Get())
}
