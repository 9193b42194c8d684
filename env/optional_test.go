package env_test

import (
	"testing"
	"time"

	"github.com/ezex-io/podchannel/env"
	"github.com/stretchr/testify/assert"
)

func TestGetOptionalDurationUnset(t *testing.T) {
	t.Setenv("PODCHANNEL_TEST_CLOSE_WAIT", "")
	_, ok := env.GetOptionalDuration("PODCHANNEL_TEST_CLOSE_WAIT_NEVER_SET")
	assert.False(t, ok)
}

func TestGetOptionalDurationNullLiteral(t *testing.T) {
	t.Setenv("PODCHANNEL_TEST_CLOSE_WAIT", "null")
	_, ok := env.GetOptionalDuration("PODCHANNEL_TEST_CLOSE_WAIT")
	assert.False(t, ok)
}

func TestGetOptionalDurationParsed(t *testing.T) {
	t.Setenv("PODCHANNEL_TEST_CLOSE_WAIT", "30s")
	d, ok := env.GetOptionalDuration("PODCHANNEL_TEST_CLOSE_WAIT")
	assert.True(t, ok)
	assert.Equal(t, 30*time.Second, d)
}

func TestGetOptionalDurationPanicsOnMalformed(t *testing.T) {
	t.Setenv("PODCHANNEL_TEST_CLOSE_WAIT", "not-a-duration")
	assert.Panics(t, func() {
		env.GetOptionalDuration("PODCHANNEL_TEST_CLOSE_WAIT")
	})
}
