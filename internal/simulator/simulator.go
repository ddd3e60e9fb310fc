// Package simulator generates demo wearable readings. Nothing it produces is
// persisted.
package simulator

import (
	"context"
	"math"
	"math/rand"
	"strings"
	"time"

	"wellness/internal/domain"
)

// Kind names a simulated metric.
type Kind string

const (
	KindHeart Kind = "heart"
	KindSteps Kind = "steps"
	KindWater Kind = "water"
	KindSleep Kind = "sleep"
)

// Spec describes how a metric is sampled.
type Spec struct {
	Kind     Kind
	Unit     string
	Min      float64
	Span     float64
	Integer  bool
	Samples  int
	Interval time.Duration
}

var specs = map[Kind]Spec{
	KindHeart: {Kind: KindHeart, Unit: "bpm", Min: 68, Span: 10, Integer: true, Samples: 10, Interval: 800 * time.Millisecond},
	KindSteps: {Kind: KindSteps, Unit: "steps", Min: 500, Span: 2000, Integer: true, Samples: 4, Interval: 800 * time.Millisecond},
	KindWater: {Kind: KindWater, Unit: "L", Min: 0.2, Span: 0.6, Samples: 6, Interval: 800 * time.Millisecond},
	KindSleep: {Kind: KindSleep, Unit: "h", Min: 6, Span: 3, Samples: 7, Interval: 500 * time.Millisecond},
}

// Lookup returns the spec for a metric name.
func Lookup(name string) (Spec, error) {
	spec, ok := specs[Kind(strings.ToLower(strings.TrimSpace(name)))]
	if !ok {
		return Spec{}, domain.Invalid("metric", "unknown metric %q", name)
	}
	return spec, nil
}

// Sample is one reading plus the running statistics so far.
type Sample struct {
	Kind    Kind    `json:"kind"`
	Index   int     `json:"index"`
	Value   float64 `json:"value"`
	Unit    string  `json:"unit"`
	Total   float64 `json:"total"`
	Average float64 `json:"average"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Done    bool    `json:"done"`
	Demo    bool    `json:"demo"`
}

// FloatSource yields uniform floats in [0, 1).
type FloatSource interface {
	Float64() float64
}

type globalFloat struct{}

func (globalFloat) Float64() float64 { return rand.Float64() }

// Simulator emits a fixed number of readings on a ticker.
type Simulator struct {
	spec Spec
	rand FloatSource
}

// New builds a simulator. A nil source uses math/rand.
func New(spec Spec, src FloatSource) *Simulator {
	if src == nil {
		src = globalFloat{}
	}
	return &Simulator{spec: spec, rand: src}
}

// Spec returns the simulator's configuration.
func (s *Simulator) Spec() Spec { return s.spec }

// Next draws one reading.
func (s *Simulator) Next() float64 {
	v := s.spec.Min + s.rand.Float64()*s.spec.Span
	if s.spec.Integer {
		return math.Floor(v)
	}
	return round1(v)
}

// Run emits one sample per interval until the sample count is reached, ctx
// is done, or emit fails. Cancellation is not reported as an error.
func (s *Simulator) Run(ctx context.Context, emit func(Sample) error) error {
	ticker := time.NewTicker(s.spec.Interval)
	defer ticker.Stop()

	var st stats
	for i := 0; i < s.spec.Samples; i++ {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		if ctx.Err() != nil {
			return nil
		}
		v := s.Next()
		st.add(v)
		sample := Sample{
			Kind:    s.spec.Kind,
			Index:   i,
			Value:   v,
			Unit:    s.spec.Unit,
			Total:   round1(st.sum),
			Average: round1(st.sum / float64(st.n)),
			Min:     st.min,
			Max:     st.max,
			Done:    i == s.spec.Samples-1,
			Demo:    true,
		}
		if err := emit(sample); err != nil {
			return err
		}
	}
	return nil
}

type stats struct {
	n        int
	sum      float64
	min, max float64
}

func (s *stats) add(v float64) {
	if s.n == 0 || v < s.min {
		s.min = v
	}
	if s.n == 0 || v > s.max {
		s.max = v
	}
	s.n++
	s.sum += v
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
