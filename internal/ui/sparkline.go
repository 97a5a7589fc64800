package ui

import "strings"

// sparklineCapacity is how many throughput samples the ring retains.
const sparklineCapacity = 120

// sparkChars maps eight height levels onto Unicode blocks.
var sparkChars = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline keeps a ring of samples and renders them as a block chart.
// Not safe for concurrent use; Tracker serializes access.
type Sparkline struct {
	samples []float64
	head    int
	count   int
}

// NewSparkline returns a sparkline retaining up to capacity samples.
func NewSparkline(capacity int) *Sparkline {
	if capacity <= 0 {
		capacity = sparklineCapacity
	}
	return &Sparkline{samples: make([]float64, capacity)}
}

// Add appends a sample, evicting the oldest once full.
func (s *Sparkline) Add(v float64) {
	s.samples[s.head] = v
	s.head = (s.head + 1) % len(s.samples)
	s.count++
}

// Render draws the most recent width samples, left-padded with spaces
// while the history is still short.
func (s *Sparkline) Render(width int) string {
	if width <= 0 {
		return ""
	}

	recent := s.recent(width)
	var max float64
	for _, v := range recent {
		if v > max {
			max = v
		}
	}

	var b strings.Builder
	b.Grow(width * 3)
	for i := 0; i < width-len(recent); i++ {
		b.WriteRune(' ')
	}
	for _, v := range recent {
		idx := 0
		if max > 0 {
			idx = int(v / max * float64(len(sparkChars)-1))
			if idx >= len(sparkChars) {
				idx = len(sparkChars) - 1
			}
		}
		b.WriteRune(sparkChars[idx])
	}
	return b.String()
}

// recent returns up to n samples, oldest first.
func (s *Sparkline) recent(n int) []float64 {
	have := s.count
	if have > len(s.samples) {
		have = len(s.samples)
	}
	if n > have {
		n = have
	}
	out := make([]float64, 0, n)
	for i := have - n; i < have; i++ {
		idx := i
		if s.count > len(s.samples) {
			idx = (s.head + i) % len(s.samples)
		}
		out = append(out, s.samples[idx])
	}
	return out
}
