package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFake_RunsInDeadlineOrder(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewFake(start)

	var order []string
	c.AfterFunc(2*time.Hour, func() { order = append(order, "2h") })
	c.AfterFunc(30*time.Minute, func() { order = append(order, "30m") })
	c.AfterFunc(24*time.Hour, func() { order = append(order, "24h") })

	c.Advance(3 * time.Hour)
	assert.Equal(t, []string{"30m", "2h"}, order)
	assert.Equal(t, 1, c.Pending())
	assert.Equal(t, start.Add(3*time.Hour), c.Now())

	c.Advance(24 * time.Hour)
	assert.Equal(t, []string{"30m", "2h", "24h"}, order)
	assert.Equal(t, 0, c.Pending())
}

func TestFake_Cancel(t *testing.T) {
	c := NewFake(time.Now())

	fired := false
	task := c.AfterFunc(time.Minute, func() { fired = true })

	assert.True(t, task.Cancel())
	assert.False(t, task.Cancel())

	c.Advance(time.Hour)
	assert.False(t, fired)
	assert.Equal(t, 0, c.Pending())
}

func TestFake_CancelAfterRun(t *testing.T) {
	c := NewFake(time.Now())
	task := c.AfterFunc(time.Second, func() {})

	c.Advance(time.Second)
	assert.False(t, task.Cancel())
}

func TestFake_CallbackSeesDeadlineTime(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewFake(start)

	var seen time.Time
	c.AfterFunc(time.Minute, func() { seen = c.Now() })
	c.Advance(time.Hour)

	assert.Equal(t, start.Add(time.Minute), seen)
}

func TestReal_Cancel(t *testing.T) {
	c := NewReal()
	task := c.AfterFunc(time.Hour, func() { t.Error("should not run") })
	assert.True(t, task.Cancel())
}
