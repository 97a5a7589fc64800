package ui

import (
	"sync"
	"time"
)

// speedSampleInterval spaces throughput samples so per-batch jitter does
// not swamp the average.
const speedSampleInterval = 500 * time.Millisecond

// etaSmoothing weights new ETA estimates against the previous one.
const etaSmoothing = 0.3

// Tracker accumulates progress from indexer callbacks. Safe for
// concurrent use; the TUI reads snapshots on its render ticks.
type Tracker struct {
	mu    sync.Mutex
	start time.Time

	filesDone   int
	filesTotal  int
	chunksDone  int
	chunksTotal int
	currentFile string

	lastSample time.Time
	lastChunks int
	speed      float64
	avgSpeed   float64
	peakSpeed  float64
	samples    int
	spark      *Sparkline

	lastETA time.Duration
}

// Progress is a point-in-time view of the run.
type Progress struct {
	FilesDone   int
	FilesTotal  int
	ChunksDone  int
	ChunksTotal int
	CurrentFile string
	Elapsed     time.Duration
	Speed       float64 // chunks/sec, most recent sample
	AvgSpeed    float64
	PeakSpeed   float64
	ETA         time.Duration
}

// NewTracker returns a tracker with the clock started.
func NewTracker() *Tracker {
	now := time.Now()
	return &Tracker{
		start:      now,
		lastSample: now,
		spark:      NewSparkline(sparklineCapacity),
	}
}

// FileProgress records a finished file.
func (t *Tracker) FileProgress(done, total int, path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.filesDone = done
	t.filesTotal = total
	t.currentFile = path
}

// ChunkProgress records embedded chunks and samples throughput.
func (t *Tracker) ChunkProgress(done, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.chunksDone = done
	t.chunksTotal = total

	now := time.Now()
	elapsed := now.Sub(t.lastSample)
	if elapsed < speedSampleInterval {
		return
	}
	if delta := done - t.lastChunks; delta > 0 {
		speed := float64(delta) / elapsed.Seconds()
		t.speed = speed
		t.samples++
		if t.samples == 1 {
			t.avgSpeed = speed
		} else {
			t.avgSpeed = 0.2*speed + 0.8*t.avgSpeed
		}
		if speed > t.peakSpeed {
			t.peakSpeed = speed
		}
		t.spark.Add(speed)
	}
	t.lastChunks = done
	t.lastSample = now
}

// Snapshot returns the current progress view.
func (t *Tracker) Snapshot() Progress {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Progress{
		FilesDone:   t.filesDone,
		FilesTotal:  t.filesTotal,
		ChunksDone:  t.chunksDone,
		ChunksTotal: t.chunksTotal,
		CurrentFile: t.currentFile,
		Elapsed:     time.Since(t.start),
		Speed:       t.speed,
		AvgSpeed:    t.avgSpeed,
		PeakSpeed:   t.peakSpeed,
		ETA:         t.eta(),
	}
}

// Sparkline renders the throughput history at the given width.
func (t *Tracker) Sparkline(width int) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.spark.Render(width)
}

// eta estimates remaining time from whichever counter has a known
// total, smoothed so batch variance does not make it jump around.
// Caller holds the lock.
func (t *Tracker) eta() time.Duration {
	done, total := t.chunksDone, t.chunksTotal
	if total == 0 {
		done, total = t.filesDone, t.filesTotal
	}
	if done == 0 || total == 0 || done >= total {
		return 0
	}

	elapsed := time.Since(t.start)
	frac := float64(done) / float64(total)
	raw := time.Duration(float64(elapsed)/frac) - elapsed
	if raw < 0 {
		return 0
	}

	if t.lastETA == 0 {
		t.lastETA = raw
		return raw
	}
	smoothed := time.Duration(etaSmoothing*float64(raw) + (1-etaSmoothing)*float64(t.lastETA))
	t.lastETA = smoothed
	return smoothed
}
