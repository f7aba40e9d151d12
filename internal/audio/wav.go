package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WriteWAV persists a raw capture as a 16-bit PCM WAV file at its native
// rate and channel count. Resampling is never persisted.
func WriteWAV(path string, raw RawAudio) error {
	if raw.Empty() {
		return fmt.Errorf("audio: writing %q: %w", path, ErrEmptyInput)
	}
	if raw.Channels == 0 {
		return fmt.Errorf("audio: writing %q: %w", path, ErrInvalidChannelCount)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("audio: writing %q: %w", path, err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, int(raw.SampleRate), 16, int(raw.Channels), 1)
	buf := &gaudio.IntBuffer{
		Format: &gaudio.Format{
			NumChannels: int(raw.Channels),
			SampleRate:  int(raw.SampleRate),
		},
		Data:           make([]int, len(raw.Samples)),
		SourceBitDepth: 16,
	}
	for i, s := range raw.Samples {
		buf.Data[i] = int(s)
	}

	if err := enc.Write(buf); err != nil {
		enc.Close()
		return fmt.Errorf("audio: writing %q: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("audio: writing %q: %w", path, err)
	}
	return nil
}

// ReadWAV loads a 16-bit PCM WAV file back into a raw capture buffer.
func ReadWAV(path string) (RawAudio, error) {
	f, err := os.Open(path)
	if err != nil {
		return RawAudio{}, fmt.Errorf("audio: reading %q: %w", path, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return RawAudio{}, fmt.Errorf("audio: reading %q: %w", path, err)
	}
	if buf.Format == nil || buf.Format.NumChannels == 0 {
		return RawAudio{}, fmt.Errorf("audio: reading %q: %w", path, ErrInvalidChannelCount)
	}

	samples := make([]int16, len(buf.Data))
	for i, s := range buf.Data {
		samples[i] = int16(s)
	}

	return RawAudio{
		Samples:    samples,
		SampleRate: uint32(buf.Format.SampleRate),
		Channels:   uint32(buf.Format.NumChannels),
	}, nil
}

// wavHeader is the 44-byte canonical PCM WAV header.
type wavHeader struct {
	ChunkID       [4]byte
	ChunkSize     uint32
	Format        [4]byte
	Subchunk1ID   [4]byte
	Subchunk1Size uint32
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Subchunk2ID   [4]byte
	Subchunk2Size uint32
}

// EncodeWAV encodes a raw capture into an in-memory WAV byte slice, for
// callers that upload audio instead of writing it to disk.
func EncodeWAV(raw RawAudio) ([]byte, error) {
	if raw.Empty() {
		return nil, fmt.Errorf("audio: encoding wav: %w", ErrEmptyInput)
	}
	if raw.Channels == 0 {
		return nil, fmt.Errorf("audio: encoding wav: %w", ErrInvalidChannelCount)
	}

	const bitsPerSample = 16
	dataSize := uint32(len(raw.Samples) * 2)

	header := wavHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     36 + dataSize,
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1, // PCM
		NumChannels:   uint16(raw.Channels),
		SampleRate:    raw.SampleRate,
		ByteRate:      raw.SampleRate * raw.Channels * bitsPerSample / 8,
		BlockAlign:    uint16(raw.Channels) * bitsPerSample / 8,
		BitsPerSample: bitsPerSample,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: dataSize,
	}

	buf := bytes.NewBuffer(make([]byte, 0, 44+len(raw.Samples)*2))
	if err := binary.Write(buf, binary.LittleEndian, header); err != nil {
		return nil, fmt.Errorf("audio: encoding wav header: %w", err)
	}
	if err := binary.Write(buf, binary.LittleEndian, raw.Samples); err != nil {
		return nil, fmt.Errorf("audio: encoding wav data: %w", err)
	}

	return buf.Bytes(), nil
}
