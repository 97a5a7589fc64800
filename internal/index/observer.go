package index

// Observer receives progress during an index update. Discovery streams,
// so totals grow while the walk is still finding files; renderers must
// treat total as a moving target until the run completes.
//
// Callbacks arrive from worker goroutines and must be safe for
// concurrent use.
type Observer interface {
	// OnFileProgress reports that done of total discovered files have
	// finished, whatever the outcome; path names the file that just
	// completed.
	OnFileProgress(done, total int, path string)

	// OnChunkProgress reports embedding progress across the whole run,
	// updated after every batch.
	OnChunkProgress(done, total int)
}

// NopObserver discards all progress.
type NopObserver struct{}

func (NopObserver) OnFileProgress(int, int, string) {}
func (NopObserver) OnChunkProgress(int, int)        {}
