package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePriority(t *testing.T) {
	assert.Equal(t, PriorityHigh, ParsePriority("HIGH"))
	assert.Equal(t, PriorityLow, ParsePriority("low"))
	assert.Equal(t, PriorityNone, ParsePriority(" high "))
	assert.Equal(t, PriorityNone, ParsePriority("urgent"))
	assert.False(t, Priority(" medium").Valid())
}

func TestSafeColor(t *testing.T) {
	assert.Equal(t, "#abc", SafeColor(" #abc "))
	assert.Equal(t, "#A1B2C3", SafeColor("#A1B2C3"))
	assert.Equal(t, DefaultColor, SafeColor("#abcd"))
	assert.Equal(t, DefaultColor, SafeColor("#aabbccdd"))
	assert.Equal(t, DefaultColor, SafeColor("#abg"))
	assert.Equal(t, DefaultColor, SafeColor(""))
	assert.Equal(t, DefaultColor, SafeColor("red"))
}
