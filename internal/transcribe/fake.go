package transcribe

import "context"

// Fake is an Engine for tests: returns canned segments or a canned error
// and records what it was asked to transcribe.
type Fake struct {
	Segments []Segment
	Err      error

	Calls       int
	LastSamples []float32
}

// NewFake returns a Fake engine producing the given segments or error.
func NewFake(segments []Segment, err error) *Fake {
	return &Fake{Segments: segments, Err: err}
}

func (f *Fake) Transcribe(_ context.Context, samples []float32) ([]Segment, error) {
	f.Calls++
	f.LastSamples = samples
	if f.Err != nil {
		return nil, f.Err
	}
	if len(samples) == 0 {
		return nil, ErrEmptyInput
	}
	return f.Segments, nil
}

func (f *Fake) Close() error { return nil }
