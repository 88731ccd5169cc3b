package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/interviewlab/analysis-engine/internal/observability"
	"github.com/interviewlab/analysis-engine/internal/resilience"
	"github.com/interviewlab/analysis-engine/internal/transcript"
)

// Endpoints are the base URLs of the analysis backends. An empty URL
// switches that capability off.
type Endpoints struct {
	Transcription string
	Diarization   string
	Commentary    string
	Pose          string
}

// BreakerConfig sizes the per-service circuit breakers.
type BreakerConfig struct {
	MaxFailures  int
	ResetTimeout time.Duration
}

// Remote talks JSON over HTTP to the analysis backends. Each backend
// gets its own circuit breaker; all calls run under the shared retry
// policy.
type Remote struct {
	client    *http.Client
	endpoints Endpoints
	retry     resilience.RetryConfig
	breakers  map[string]*resilience.CircuitBreaker
	logger    zerolog.Logger
}

// NewRemote builds the HTTP client set for the configured endpoints.
func NewRemote(endpoints Endpoints, timeout time.Duration, retry resilience.RetryConfig, breaker BreakerConfig) *Remote {
	r := &Remote{
		client:    &http.Client{Timeout: timeout},
		endpoints: endpoints,
		retry:     retry,
		breakers:  make(map[string]*resilience.CircuitBreaker),
		logger:    observability.GetLogger().With().Str("component", "services").Logger(),
	}
	for _, name := range []string{ServiceTranscription, ServiceDiarization, ServiceCommentary, ServicePose} {
		cb := resilience.NewCircuitBreaker(name, breaker.MaxFailures, breaker.ResetTimeout)
		cb.OnStateChange(func(name string, from, to resilience.CircuitState) {
			r.logger.Warn().
				Str("service", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state changed")
			observability.SetCircuitBreakerState(name, int(to))
		})
		r.breakers[name] = cb
	}
	return r
}

// call runs one guarded request: breaker outside, retry inside, with
// request metrics either way.
func (r *Remote) call(ctx context.Context, service string, fn func(ctx context.Context) error) error {
	start := time.Now()
	err := r.breakers[service].Call(func() error {
		return resilience.Retry(ctx, r.retry, fn, resilience.IsRetryable)
	})
	observability.RecordServiceRequest(service, err, time.Since(start))
	return err
}

// BreakerState exposes the named breaker's state for health payloads.
func (r *Remote) BreakerState(service string) resilience.CircuitState {
	return r.breakers[service].State()
}

// postJSON sends a JSON body and decodes a JSON response into out.
func (r *Remote) postJSON(ctx context.Context, url string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return resilience.NewRetryableError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		err := fmt.Errorf("%s: %s", resp.Status, string(body))
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return resilience.NewRetryableError(err)
		}
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// postFile uploads a file as multipart form data and decodes a JSON
// response into out.
func (r *Remote) postFile(ctx context.Context, url, path string, fields map[string]string, out any) error {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	fw, err := w.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return err
	}
	fd, err := os.Open(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(fw, fd); err != nil {
		fd.Close()
		return err
	}
	fd.Close()
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return err
		}
	}
	if err := w.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := r.client.Do(req)
	if err != nil {
		return resilience.NewRetryableError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		err := fmt.Errorf("%s: %s", resp.Status, string(respBody))
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return resilience.NewRetryableError(err)
		}
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// probe checks a backend's health endpoint. An unset URL reports the
// capability as cleanly absent.
func (r *Remote) probe(ctx context.Context, baseURL string) (bool, error) {
	if baseURL == "" {
		return false, nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health", nil)
	if err != nil {
		return false, err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("health probe: %s", resp.Status)
	}
	return true, nil
}

// --- Transcription ---

// HTTPTranscriber implements Transcriber against the transcription
// backend's /transcribe endpoint.
type HTTPTranscriber struct{ remote *Remote }

// NewHTTPTranscriber returns the transcription client.
func NewHTTPTranscriber(remote *Remote) *HTTPTranscriber {
	return &HTTPTranscriber{remote: remote}
}

func (t *HTTPTranscriber) Transcribe(ctx context.Context, audioPath, language string) (*TranscriptionResult, error) {
	url := t.remote.endpoints.Transcription
	if url == "" {
		return nil, ErrServiceUnavailable
	}

	var out TranscriptionResult
	err := t.remote.call(ctx, ServiceTranscription, func(ctx context.Context) error {
		return t.remote.postFile(ctx, url+"/transcribe", audioPath,
			map[string]string{"language": language}, &out)
	})
	if err != nil {
		return nil, fmt.Errorf("transcription: %w", err)
	}
	return &out, nil
}

func (t *HTTPTranscriber) Available(ctx context.Context) (bool, error) {
	return t.remote.probe(ctx, t.remote.endpoints.Transcription)
}

// --- Diarization ---

// HTTPDiarizer implements Diarizer against the diarization backend's
// /diarize endpoint.
type HTTPDiarizer struct{ remote *Remote }

// NewHTTPDiarizer returns the diarization client.
func NewHTTPDiarizer(remote *Remote) *HTTPDiarizer {
	return &HTTPDiarizer{remote: remote}
}

type diarizeResponse struct {
	Turns []transcript.Turn `json:"turns"`
}

func (d *HTTPDiarizer) Diarize(ctx context.Context, audioPath string, speakerHint int) ([]transcript.Turn, error) {
	url := d.remote.endpoints.Diarization
	if url == "" {
		return nil, ErrServiceUnavailable
	}

	var out diarizeResponse
	err := d.remote.call(ctx, ServiceDiarization, func(ctx context.Context) error {
		return d.remote.postFile(ctx, url+"/diarize", audioPath,
			map[string]string{"num_speakers": fmt.Sprint(speakerHint)}, &out)
	})
	if err != nil {
		return nil, fmt.Errorf("diarization: %w", err)
	}
	return out.Turns, nil
}

func (d *HTTPDiarizer) Available(ctx context.Context) (bool, error) {
	return d.remote.probe(ctx, d.remote.endpoints.Diarization)
}

// --- Pose scoring ---

// HTTPPoseSampler implements PoseSampler against the pose backend's
// /score endpoint.
type HTTPPoseSampler struct{ remote *Remote }

// NewHTTPPoseSampler returns the pose scoring client.
func NewHTTPPoseSampler(remote *Remote) *HTTPPoseSampler {
	return &HTTPPoseSampler{remote: remote}
}

type poseRequest struct {
	FrameJPEG []byte `json:"frame_jpeg"` // base64 via encoding/json
}

func (p *HTTPPoseSampler) ScoreFrame(ctx context.Context, frameJPEG []byte) (*PoseScore, error) {
	url := p.remote.endpoints.Pose
	if url == "" {
		return nil, ErrServiceUnavailable
	}

	var out PoseScore
	err := p.remote.call(ctx, ServicePose, func(ctx context.Context) error {
		return p.remote.postJSON(ctx, url+"/score", poseRequest{FrameJPEG: frameJPEG}, &out)
	})
	if err != nil {
		return nil, fmt.Errorf("pose: %w", err)
	}
	return &out, nil
}

func (p *HTTPPoseSampler) Available(ctx context.Context) (bool, error) {
	return p.remote.probe(ctx, p.remote.endpoints.Pose)
}
