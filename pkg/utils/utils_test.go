package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenUniqID(t *testing.T) {
	SetupIDWorker(1)

	a, b := GenUniqID(), GenUniqID()
	assert.NotEqual(t, a, b)
	assert.NotEmpty(t, GenRequestID())
}

func TestPreferredLanguage(t *testing.T) {
	assert.Equal(t, "zh-CN", PreferredLanguage("en;q=0.7,zh-CN,zh;q=0.9"))
	assert.Equal(t, "en-US", PreferredLanguage("en-US"))
	assert.Equal(t, "", PreferredLanguage(""))
	assert.Equal(t, "", PreferredLanguage(";;;=="))
}

func TestNormalizeWhitespace(t *testing.T) {
	assert.Equal(t, "a b c", NormalizeWhitespace("  a \n\t b   c "))
	assert.Equal(t, "", NormalizeWhitespace(" \n "))
}
