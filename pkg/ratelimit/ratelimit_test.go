package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAllowWithinQuota(t *testing.T) {
	now := time.Now()
	l := New(3, time.Minute, WithClock(func() time.Time { return now }))

	for i := 3; i > 0; i-- {
		d := l.Allow("client-a")
		assert.True(t, d.Allowed)
		assert.Equal(t, i-1, d.Remaining)
	}

	d := l.Allow("client-a")
	assert.False(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
	assert.Equal(t, now.Add(time.Minute), d.ResetAt)
}

func TestWindowReset(t *testing.T) {
	now := time.Now()
	l := New(1, time.Minute, WithClock(func() time.Time { return now }))

	assert.True(t, l.Allow("c").Allowed)
	assert.False(t, l.Allow("c").Allowed)

	now = now.Add(61 * time.Second)
	d := l.Allow("c")
	assert.True(t, d.Allowed)
	assert.Equal(t, now.Add(time.Minute), d.ResetAt)
}

func TestClientsAreIndependent(t *testing.T) {
	l := New(1, time.Minute)

	assert.True(t, l.Allow("a").Allowed)
	assert.False(t, l.Allow("a").Allowed)
	assert.True(t, l.Allow("b").Allowed)
}
