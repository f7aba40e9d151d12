package audio

import (
	"errors"
	"math"
	"testing"
)

func TestDownmixStereoCancellation(t *testing.T) {
	raw := RawAudio{
		Samples:    []int16{16384, -16384},
		SampleRate: 44100,
		Channels:   2,
	}
	mono, err := DownmixToMono(raw)
	if err != nil {
		t.Fatalf("DownmixToMono() error = %v", err)
	}
	if len(mono) != 1 {
		t.Fatalf("DownmixToMono() returned %d frames, want 1", len(mono))
	}
	if mono[0] != 0.0 {
		t.Errorf("mono[0] = %f, want 0.0", mono[0])
	}
}

func TestDownmixNearFullScale(t *testing.T) {
	raw := RawAudio{
		Samples:    []int16{32767, 32767},
		SampleRate: 44100,
		Channels:   2,
	}
	mono, err := DownmixToMono(raw)
	if err != nil {
		t.Fatalf("DownmixToMono() error = %v", err)
	}
	want := float32(65534) / 65536
	if math.Abs(float64(mono[0]-want)) > 1e-6 {
		t.Errorf("mono[0] = %f, want ~%f", mono[0], want)
	}
	if mono[0] > 1.0 {
		t.Errorf("mono[0] = %f, exceeds 1.0", mono[0])
	}
}

func TestDownmixClampsNegative(t *testing.T) {
	raw := RawAudio{
		Samples:    []int16{-32768, -32768},
		SampleRate: 44100,
		Channels:   2,
	}
	mono, err := DownmixToMono(raw)
	if err != nil {
		t.Fatalf("DownmixToMono() error = %v", err)
	}
	if mono[0] < -1.0 {
		t.Errorf("mono[0] = %f, below -1.0", mono[0])
	}
}

func TestDownmixMonoPassthrough(t *testing.T) {
	raw := RawAudio{
		Samples:    []int16{0, 16384, -32768},
		SampleRate: 16000,
		Channels:   1,
	}
	mono, err := DownmixToMono(raw)
	if err != nil {
		t.Fatalf("DownmixToMono() error = %v", err)
	}
	want := []float32{0, 0.5, -1.0}
	if len(mono) != len(want) {
		t.Fatalf("got %d frames, want %d", len(mono), len(want))
	}
	for i := range want {
		if mono[i] != want[i] {
			t.Errorf("mono[%d] = %f, want %f", i, mono[i], want[i])
		}
	}
}

func TestDownmixZeroChannels(t *testing.T) {
	raw := RawAudio{Samples: []int16{1, 2}, SampleRate: 44100, Channels: 0}
	_, err := DownmixToMono(raw)
	if err == nil {
		t.Fatal("DownmixToMono() with zero channels should fail")
	}
	if !errors.Is(err, ErrInvalidChannelCount) {
		t.Errorf("error = %v, want ErrInvalidChannelCount", err)
	}
}

func TestDownmixDropsTrailingPartialFrame(t *testing.T) {
	raw := RawAudio{
		Samples:    []int16{100, 200, 300},
		SampleRate: 44100,
		Channels:   2,
	}
	mono, err := DownmixToMono(raw)
	if err != nil {
		t.Fatalf("DownmixToMono() error = %v", err)
	}
	if len(mono) != 1 {
		t.Errorf("got %d frames, want 1 (partial frame dropped)", len(mono))
	}
}

func TestResampleIdentity(t *testing.T) {
	in := []float32{0.1, -0.2, 0.3, -0.4}
	out, err := Resample(in, 16000, 16000)
	if err != nil {
		t.Fatalf("Resample() error = %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("identity resample changed length: %d -> %d", len(in), len(out))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("out[%d] = %f, want %f", i, out[i], in[i])
		}
	}
}

func TestResampleDoublesLength(t *testing.T) {
	in := make([]float32, 100)
	out, err := Resample(in, 8000, 16000)
	if err != nil {
		t.Fatalf("Resample() error = %v", err)
	}
	if len(out) != 200 {
		t.Errorf("len(out) = %d, want 200", len(out))
	}
}

func TestResampleHalvesLength(t *testing.T) {
	in := make([]float32, 200)
	out, err := Resample(in, 32000, 16000)
	if err != nil {
		t.Fatalf("Resample() error = %v", err)
	}
	if len(out) != 100 {
		t.Errorf("len(out) = %d, want 100", len(out))
	}
}

func TestResampleInterpolates(t *testing.T) {
	// Upsampling a ramp by 2x puts interpolated midpoints between inputs.
	in := []float32{0.0, 1.0}
	out, err := Resample(in, 8000, 16000)
	if err != nil {
		t.Fatalf("Resample() error = %v", err)
	}
	if len(out) != 4 {
		t.Fatalf("len(out) = %d, want 4", len(out))
	}
	want := []float32{0.0, 0.5, 1.0, 1.0} // last holds the final sample
	for i := range want {
		if math.Abs(float64(out[i]-want[i])) > 1e-6 {
			t.Errorf("out[%d] = %f, want %f", i, out[i], want[i])
		}
	}
}

func TestResampleEmptyInput(t *testing.T) {
	_, err := Resample(nil, 44100, 16000)
	if err == nil {
		t.Fatal("Resample() of empty input should fail")
	}
	if !errors.Is(err, ErrEmptyInput) {
		t.Errorf("error = %v, want ErrEmptyInput", err)
	}
}

func TestResampleEmptyIdentityIsNotError(t *testing.T) {
	// Identity short-circuits before the empty check; nothing to convert.
	out, err := Resample(nil, 16000, 16000)
	if err != nil {
		t.Fatalf("Resample() error = %v", err)
	}
	if len(out) != 0 {
		t.Errorf("len(out) = %d, want 0", len(out))
	}
}
