// Package audio owns microphone capture and the PCM transformations the
// transcription engine needs: channel downmix, sample-rate conversion, and
// WAV persistence of raw captures.
package audio

import "errors"

// Capture and resampler errors.
var (
	ErrNoCaptureDevice     = errors.New("no capture device available")
	ErrAlreadyRecording    = errors.New("already recording")
	ErrStartFailed         = errors.New("failed to start capture")
	ErrInvalidChannelCount = errors.New("invalid channel count")
	ErrEmptyInput          = errors.New("empty input")
)

// RawAudio is an accumulated capture buffer: interleaved 16-bit PCM at the
// device's native rate and channel count.
type RawAudio struct {
	Samples    []int16
	SampleRate uint32
	Channels   uint32
}

// Empty reports whether the buffer holds no samples.
func (r RawAudio) Empty() bool {
	return len(r.Samples) == 0
}

// Frames returns the number of whole frames in the buffer.
func (r RawAudio) Frames() int {
	if r.Channels == 0 {
		return 0
	}
	return len(r.Samples) / int(r.Channels)
}

// Duration returns the buffer length in seconds.
func (r RawAudio) Duration() float64 {
	if r.SampleRate == 0 {
		return 0
	}
	return float64(r.Frames()) / float64(r.SampleRate)
}
