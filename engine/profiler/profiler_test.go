package profiler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func TestTickReportsFramesAndLinksPerInterval(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	p := newProfiler(clock.now, time.Second)

	for i := range 59 {
		clock.t = clock.t.Add(10 * time.Millisecond)
		assert.False(t, p.Tick(i))
	}
	assert.Zero(t, p.Last())

	clock.t = time.Unix(2, 0)
	assert.True(t, p.Tick(5))
	assert.InDelta(t, 30.0, p.Last().FPS, 1e-9)
	assert.Equal(t, 5, p.Last().Links)

	clock.t = time.Unix(3, 0)
	assert.True(t, p.Tick(5))
	assert.Equal(t, 0, p.Last().Links)
	assert.InDelta(t, 1.0, p.Last().FPS, 1e-9)
}
