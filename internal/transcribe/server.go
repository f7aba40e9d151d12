package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"voicenotes/internal/audio"
	"voicenotes/internal/config"
)

// Server transcribes against a whisper-server compatible HTTP endpoint:
// audio is uploaded as a 16-bit mono WAV in a multipart form, the response
// is OpenAI-style verbose JSON with a segments array.
type Server struct {
	endpoint string
	apiKey   string
	language string
	client   *http.Client
}

// NewServer creates the HTTP engine backend from config.
func NewServer(cfg *config.TranscribeConfig) *Server {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Server{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		language: cfg.Language,
		client:   &http.Client{Timeout: timeout},
	}
}

// serverResponse mirrors whisper-server's verbose_json output.
type serverResponse struct {
	Text     string `json:"text"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

// Transcribe uploads mono SampleRate samples and returns ordered segments.
func (s *Server) Transcribe(ctx context.Context, samples []float32) ([]Segment, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("transcribe: %w", ErrEmptyInput)
	}

	wavData, err := audio.EncodeWAV(audio.RawAudio{
		Samples:    float32ToPCM16(samples),
		SampleRate: SampleRate,
		Channels:   1,
	})
	if err != nil {
		return nil, fmt.Errorf("transcribe: encoding upload: %w", err)
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", "audio.wav")
	if err != nil {
		return nil, fmt.Errorf("transcribe: building request: %w", err)
	}
	if _, err := part.Write(wavData); err != nil {
		return nil, fmt.Errorf("transcribe: building request: %w", err)
	}
	writer.WriteField("response_format", "verbose_json")
	if s.language != "" {
		writer.WriteField("language", s.language)
	}
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("transcribe: building request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transcribe: %w: %v", ErrTranscriptionFailed, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("transcribe: %w: reading response: %v", ErrTranscriptionFailed, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("transcribe: %w: server returned %d: %s",
			ErrTranscriptionFailed, resp.StatusCode, bytes.TrimSpace(respBody))
	}

	var sResp serverResponse
	if err := json.Unmarshal(respBody, &sResp); err != nil {
		return nil, fmt.Errorf("transcribe: %w: parsing response: %v", ErrTranscriptionFailed, err)
	}

	segments := make([]Segment, 0, len(sResp.Segments))
	for _, seg := range sResp.Segments {
		segments = append(segments, Segment{Start: seg.Start, End: seg.End, Text: seg.Text})
	}
	if len(segments) == 0 && sResp.Text != "" {
		// Plain responses without segment timing still carry the text.
		segments = append(segments, Segment{Text: sResp.Text})
	}

	return segments, nil
}

// Close releases pooled connections.
func (s *Server) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

// float32ToPCM16 converts normalized samples to 16-bit PCM with clamping.
func float32ToPCM16(samples []float32) []int16 {
	out := make([]int16, len(samples))
	for i, f := range samples {
		if f > 1.0 {
			f = 1.0
		}
		if f < -1.0 {
			f = -1.0
		}
		out[i] = int16(f * 32767)
	}
	return out
}
