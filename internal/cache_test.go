package internal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemCache(t *testing.T) {
	m := NewMemCache(time.Minute)

	assert.False(t, m.GetMemcached("users"))
	m.SetMemcached("users")
	m.SetMemcached("orders")
	assert.True(t, m.GetMemcached("users"))

	m.DeleteMemcached("users")
	assert.False(t, m.GetMemcached("users"))
	assert.True(t, m.GetMemcached("orders"))

	m.FlushMemcached()
	assert.False(t, m.GetMemcached("orders"))
}

func TestMemCacheExpires(t *testing.T) {
	m := NewMemCache(20 * time.Millisecond)
	m.SetMemcached("users")
	assert.Eventually(t, func() bool { return !m.GetMemcached("users") }, time.Second, 5*time.Millisecond)
}

func TestMemCacheDisabled(t *testing.T) {
	m := NewMemCache(0)
	m.SetMemcached("users")
	assert.False(t, m.GetMemcached("users"))
	m.DeleteMemcached("users")
	m.FlushMemcached()
}
