package testfixtures

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClock(t *testing.T) {
	t.Parallel()

	t.Run("defaults to reference time", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, ReferenceTime(), NewClock(time.Time{}).Now())
	})

	t.Run("advance and set", func(t *testing.T) {
		t.Parallel()

		start := time.Date(2024, time.March, 14, 9, 26, 0, 0, time.UTC)
		clock := NewClock(start)
		assert.Equal(t, start.Add(90*time.Minute), clock.Advance(90*time.Minute))

		clock.Set(start.Add(2 * time.Hour))
		assert.Equal(t, start.Add(2*time.Hour), clock.Now())
	})

	t.Run("now func follows the clock", func(t *testing.T) {
		t.Parallel()

		clock := NewClock(time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC))
		nowFn := clock.NowFunc()
		clock.Advance(time.Minute)
		assert.Equal(t, clock.Now(), nowFn())

		var nilClock *Clock
		assert.NotNil(t, nilClock.NowFunc())
	})
}

func TestIDGenerator(t *testing.T) {
	t.Parallel()

	gen := NewIDGenerator("flow")
	assert.Equal(t, "flow-1", gen.Next())
	assert.Equal(t, "flow-2", gen.Next())

	gen.Reset()
	assert.Equal(t, "flow-1", gen.NextFunc()())

	assert.Equal(t, "id-1", NewIDGenerator("").Next())
}
