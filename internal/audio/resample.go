package audio

import (
	"fmt"
	"math"
)

// DownmixToMono folds interleaved multi-channel 16-bit PCM into mono float
// samples in [-1.0, 1.0]. Channels are averaged per frame; the result is
// clamped so summing channels cannot push a sample out of range.
func DownmixToMono(raw RawAudio) ([]float32, error) {
	if raw.Channels == 0 {
		return nil, fmt.Errorf("audio: downmix: %w", ErrInvalidChannelCount)
	}

	frames := len(raw.Samples) / int(raw.Channels)
	mono := make([]float32, frames)

	div := float32(raw.Channels) * 32768.0
	for i := 0; i < frames; i++ {
		var acc int32
		for ch := 0; ch < int(raw.Channels); ch++ {
			acc += int32(raw.Samples[i*int(raw.Channels)+ch])
		}
		f := float32(acc) / div
		if f > 1.0 {
			f = 1.0
		}
		if f < -1.0 {
			f = -1.0
		}
		mono[i] = f
	}

	return mono, nil
}

// Resample converts mono float samples from one sample rate to another by
// linear interpolation. There is no anti-aliasing filter; downsampling wide-
// band audio will alias. Equal rates return the input unchanged.
func Resample(mono []float32, fromRate, toRate uint32) ([]float32, error) {
	if fromRate == toRate {
		return mono, nil
	}
	if len(mono) == 0 {
		return nil, fmt.Errorf("audio: resample: %w", ErrEmptyInput)
	}

	inFrames := len(mono)
	outFrames := int(float64(inFrames)*float64(toRate)/float64(fromRate) + 0.5)
	out := make([]float32, outFrames)

	ratio := float64(fromRate) / float64(toRate)
	for i := 0; i < outFrames; i++ {
		src := float64(i) * ratio
		idx := int(math.Floor(src))
		frac := src - float64(idx)

		v0 := mono[idx]
		v1 := v0
		if idx+1 < inFrames {
			v1 = mono[idx+1]
		}
		out[i] = float32(float64(v0)*(1.0-frac) + float64(v1)*frac)
	}

	return out, nil
}
