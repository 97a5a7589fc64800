package ui

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTracker_SnapshotReflectsProgress(t *testing.T) {
	tr := NewTracker()

	tr.FileProgress(2, 10, "pkg/a.go")
	tr.ChunkProgress(5, 40)

	snap := tr.Snapshot()
	assert.Equal(t, 2, snap.FilesDone)
	assert.Equal(t, 10, snap.FilesTotal)
	assert.Equal(t, 5, snap.ChunksDone)
	assert.Equal(t, 40, snap.ChunksTotal)
	assert.Equal(t, "pkg/a.go", snap.CurrentFile)
	assert.Greater(t, snap.Elapsed.Nanoseconds(), int64(0))
}

func TestTracker_TotalsMayGrowDuringDiscovery(t *testing.T) {
	tr := NewTracker()

	tr.FileProgress(1, 1, "a.go")
	tr.FileProgress(2, 7, "b.go")

	snap := tr.Snapshot()
	assert.Equal(t, 7, snap.FilesTotal)
}

func TestTracker_ETAZeroBeforeAnyProgress(t *testing.T) {
	tr := NewTracker()
	assert.Zero(t, tr.Snapshot().ETA)
}

func TestTracker_ETAZeroWhenFinished(t *testing.T) {
	tr := NewTracker()
	tr.ChunkProgress(40, 40)
	assert.Zero(t, tr.Snapshot().ETA)
}

func TestTracker_ETAPositiveMidRun(t *testing.T) {
	tr := NewTracker()
	time.Sleep(time.Millisecond)
	tr.ChunkProgress(10, 100)

	snap := tr.Snapshot()
	assert.Greater(t, snap.ETA.Nanoseconds(), int64(0))
}

func TestTracker_SparklineHasRequestedWidth(t *testing.T) {
	tr := NewTracker()
	out := tr.Sparkline(20)
	assert.Len(t, []rune(out), 20)
}

func TestSparkline_EmptyRendersBlanks(t *testing.T) {
	s := NewSparkline(10)
	assert.Equal(t, "          ", s.Render(10))
}

func TestSparkline_ScalesToMax(t *testing.T) {
	s := NewSparkline(10)
	s.Add(1)
	s.Add(8)

	out := []rune(s.Render(4))
	assert.Len(t, out, 4)
	assert.Equal(t, ' ', out[0])
	assert.Equal(t, ' ', out[1])
	assert.Equal(t, '█', out[3], "largest sample fills the block")
}

func TestSparkline_RingEvictsOldest(t *testing.T) {
	s := NewSparkline(3)
	s.Add(100)
	s.Add(1)
	s.Add(2)
	s.Add(3) // evicts 100

	out := []rune(s.Render(3))
	assert.Equal(t, '█', out[2], "3 is now the max and renders full height")
}
