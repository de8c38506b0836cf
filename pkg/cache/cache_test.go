package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyLayout(t *testing.T) {
	assert.Equal(t, "banking:accounts:all", New(nil, "banking:").key("accounts", "all"))
	assert.Equal(t, "accounts:all", New(nil, "").key("accounts", "all"))
}
