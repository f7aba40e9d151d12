package audio

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/gen2brain/malgo"
)

// Recorder captures interleaved 16-bit PCM from a microphone into an
// internal buffer. One capture session may be active at a time.
type Recorder struct {
	ctx        *malgo.AllocatedContext
	sampleRate uint32
	channels   uint32

	mu        sync.Mutex
	device    *malgo.Device
	buf       []int16
	recording bool
}

// NewRecorder creates a new audio recorder. Call Close() when done.
func NewRecorder(sampleRate, channels uint32) (*Recorder, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("audio: initializing context: %w", err)
	}

	return &Recorder{
		ctx:        ctx,
		sampleRate: sampleRate,
		channels:   channels,
	}, nil
}

// Start begins a capture session. deviceName selects a capture device by
// case-insensitive substring match; an empty or unmatched name falls back to
// the system default (unmatched names are logged, not fatal).
func (r *Recorder) Start(deviceName string) error {
	r.mu.Lock()
	if r.recording {
		r.mu.Unlock()
		return fmt.Errorf("audio: %w", ErrAlreadyRecording)
	}
	r.buf = r.buf[:0] // reset buffer but keep capacity
	r.recording = true
	r.mu.Unlock()

	deviceCfg := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceCfg.Capture.Format = malgo.FormatS16
	deviceCfg.Capture.Channels = r.channels
	deviceCfg.SampleRate = r.sampleRate

	infos, err := r.ctx.Devices(malgo.Capture)
	if err != nil || len(infos) == 0 {
		r.abortStart()
		if err != nil {
			return fmt.Errorf("audio: %w: %v", ErrNoCaptureDevice, err)
		}
		return fmt.Errorf("audio: %w", ErrNoCaptureDevice)
	}

	if deviceName != "" {
		if id, ok := findDevice(infos, deviceName); ok {
			deviceCfg.Capture.DeviceID = id.Pointer()
		} else {
			slog.Warn("capture device not found, using default", "device", deviceName)
		}
	}

	callbacks := malgo.DeviceCallbacks{
		Data: r.onData,
	}

	device, err := malgo.InitDevice(r.ctx.Context, deviceCfg, callbacks)
	if err != nil {
		r.abortStart()
		return fmt.Errorf("audio: %w: initializing device: %v", ErrStartFailed, err)
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		r.abortStart()
		return fmt.Errorf("audio: %w: %v", ErrStartFailed, err)
	}

	r.mu.Lock()
	r.device = device
	r.mu.Unlock()

	return nil
}

// Stop ends the capture session and returns the accumulated buffer. The
// capture subsystem is flushed before this returns. Stopping an idle
// recorder returns a zero-value RawAudio (SampleRate 0); a session that
// captured nothing returns an empty buffer with the rate and channels set.
func (r *Recorder) Stop() RawAudio {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.recording {
		return RawAudio{}
	}

	if r.device != nil {
		r.device.Uninit()
		r.device = nil
	}
	r.recording = false

	samples := make([]int16, len(r.buf))
	copy(samples, r.buf)

	return RawAudio{
		Samples:    samples,
		SampleRate: r.sampleRate,
		Channels:   r.channels,
	}
}

// IsRecording returns whether the recorder is currently capturing audio.
func (r *Recorder) IsRecording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

// Close releases all audio resources.
func (r *Recorder) Close() error {
	r.mu.Lock()
	if r.device != nil {
		r.device.Uninit()
		r.device = nil
	}
	r.recording = false
	r.mu.Unlock()

	if r.ctx != nil {
		if err := r.ctx.Uninit(); err != nil {
			return fmt.Errorf("audio: uninitializing context: %w", err)
		}
		r.ctx.Free()
	}

	return nil
}

func (r *Recorder) abortStart() {
	r.mu.Lock()
	r.recording = false
	r.mu.Unlock()
}

// onData is the malgo callback invoked when audio data is available.
// pSample contains the captured frames as raw bytes (S16 little-endian).
func (r *Recorder) onData(_, pSample []byte, frameCount uint32) {
	sampleCount := frameCount * r.channels
	samples := bytesToInt16(pSample, sampleCount)

	r.mu.Lock()
	r.buf = append(r.buf, samples...)
	r.mu.Unlock()
}

// findDevice matches a device name case-insensitively, by substring.
func findDevice(infos []malgo.DeviceInfo, name string) (malgo.DeviceID, bool) {
	want := strings.ToLower(name)
	for _, info := range infos {
		if strings.Contains(strings.ToLower(info.Name()), want) {
			return info.ID, true
		}
	}
	return malgo.DeviceID{}, false
}

// bytesToInt16 converts raw bytes (little-endian int16) to an int16 slice.
func bytesToInt16(data []byte, sampleCount uint32) []int16 {
	samples := make([]int16, 0, sampleCount)
	for i := uint32(0); i < sampleCount; i++ {
		offset := i * 2
		if offset+2 > uint32(len(data)) {
			break
		}
		samples = append(samples, int16(binary.LittleEndian.Uint16(data[offset:offset+2])))
	}
	return samples
}
