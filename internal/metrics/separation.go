package metrics

import (
	"github.com/san-kum/dimersim/internal/dynamo"
)

// Separation is the mean of x2 - x1 over the run.
type Separation struct {
	name    string
	sum     float64
	samples int
}

func NewSeparation() *Separation {
	return &Separation{
		name: "separation",
	}
}

func (s *Separation) Name() string {
	return s.name
}

func (s *Separation) Observe(x dynamo.State, t float64) {
	if len(x) < 2 {
		return
	}
	s.sum += x[1] - x[0]
	s.samples++
}

func (s *Separation) Value() float64 {
	if s.samples == 0 {
		return 0
	}
	return s.sum / float64(s.samples)
}

func (s *Separation) Reset() {
	s.sum = 0
	s.samples = 0
}
