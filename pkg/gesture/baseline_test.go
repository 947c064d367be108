package gesture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseline_LearnsConstant(t *testing.T) {
	b := NewBaseline(50, 0.9)

	for i := 0; i < 50; i++ {
		require.True(t, b.Observe(0.55, 0.25), "frame %d should be learned", i)
	}

	assert.True(t, b.Settled())
	assert.Equal(t, 0, b.Remaining())
	assert.InDelta(t, 0.55, b.Brow.Or(-1), 1e-12)
	assert.InDelta(t, 0.25, b.MAR.Or(-1), 1e-12)
}

func TestBaseline_FrozenAfterWarmup(t *testing.T) {
	b := NewBaseline(50, 0.9)
	for i := 0; i < 50; i++ {
		b.Observe(0.55, 0.25)
	}
	brow, mar := b.Brow, b.MAR

	for i := 0; i < 20; i++ {
		assert.False(t, b.Observe(0.9, 0.8), "observe after warm-up must report frozen")
	}

	assert.Equal(t, brow, b.Brow)
	assert.Equal(t, mar, b.MAR)
	assert.Equal(t, 50, b.Frames)
}

func TestBaseline_SlowAdaptation(t *testing.T) {
	b := NewBaseline(50, 0.9)

	b.Observe(0.50, 0.20)
	assert.Equal(t, 0.50, b.Brow.Or(-1), "first frame seeds the baseline")

	b.Observe(0.60, 0.30)
	// 0.50*0.9 + 0.60*0.1
	assert.InDelta(t, 0.51, b.Brow.Or(-1), 1e-12)
	assert.InDelta(t, 0.21, b.MAR.Or(-1), 1e-12)
	assert.Equal(t, 48, b.Remaining())
}

func TestBaseline_MovesTowardInputDuringWarmup(t *testing.T) {
	b := NewBaseline(50, 0.9)
	b.Observe(0.40, 0.20)

	prev := b.Brow.Or(-1)
	for i := 0; i < 49; i++ {
		b.Observe(0.60, 0.20)
		cur := b.Brow.Or(-1)
		assert.Greater(t, cur, prev, "baseline should approach the input monotonically")
		assert.Less(t, cur, 0.60)
		prev = cur
	}
}

func TestBaseline_ZeroWarmupNeverLearns(t *testing.T) {
	b := NewBaseline(0, 0.9)

	assert.False(t, b.Observe(0.5, 0.5))
	assert.False(t, b.Brow.IsSet())
	assert.True(t, b.Settled())
}
