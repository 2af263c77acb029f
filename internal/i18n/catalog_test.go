package i18n

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCatalogFallsBackToEnglish(t *testing.T) {
	c := NewCatalog("xx")
	assert.Equal(t, "en", c.Language())
	assert.NotEqual(t, "ranking.initial", c.Get("ranking.initial"))
}

func TestUnknownKeyReturnsKey(t *testing.T) {
	c := NewCatalog("en")
	assert.Equal(t, "no.such.key", c.Get("no.such.key"))
}

func TestGetf(t *testing.T) {
	c := NewCatalog("en")
	msg := c.Getf("role.preamble", "alice", "stoic")
	assert.True(t, strings.Contains(msg, "alice"))
	assert.True(t, strings.Contains(msg, "stoic"))
}
