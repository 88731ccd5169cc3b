// Package live manages in-progress interview sessions: it records the
// incoming media, accumulates audio for interim analysis, and finalizes
// the recording exactly once however the session ends.
package live

import (
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/interviewlab/analysis-engine/internal/audio"
	"github.com/interviewlab/analysis-engine/internal/config"
	"github.com/interviewlab/analysis-engine/internal/observability"
	"github.com/interviewlab/analysis-engine/internal/scoring"
	"github.com/interviewlab/analysis-engine/internal/session"
)

// ErrSessionClosed is returned for media arriving after Stop or Abort.
var ErrSessionClosed = errors.New("live session closed")

// InterimResult is the feedback emitted after each analysis trigger
// while the session is still running.
type InterimResult struct {
	Type      string             `json:"type"`
	SessionID string             `json:"session_id"`
	Features  scoring.FeatureSet `json:"features"`
	Axes      scoring.AxisScores `json:"dimensions"`
	Summary   scoring.Summary    `json:"summary"`
	Affect    scoring.Affect     `json:"affect"`
}

// Manager owns one live session: every audio chunk is written to the
// recorder in arrival order and buffered for interim analysis; video
// frames go straight to the recorder. Stop and Abort may both fire for
// the same session (explicit stop followed by the disconnect), so
// finalization is guarded to run once.
type Manager struct {
	cfg       config.Config
	sessionID string
	logger    zerolog.Logger
	metrics   *observability.SessionMetrics

	acc *audio.ChunkAccumulator
	rec *session.Recorder

	emit func(InterimResult)

	mu     sync.Mutex
	closed bool

	inflight sync.WaitGroup

	finalizeOnce sync.Once
	finalMeta    *session.Metadata
	finalErr     error
}

// NewManager creates a session manager recording under cfg.RecordingDir.
// emit receives interim analysis results; it may be called from analysis
// goroutines and must be safe for concurrent use.
func NewManager(cfg config.Config, sessionID string, emit func(InterimResult)) (*Manager, error) {
	rec, err := session.NewRecorder(cfg.RecordingDir, sessionID, cfg.SampleRate, cfg.VideoFPS)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		cfg:       cfg,
		sessionID: sessionID,
		logger:    observability.WithSession(sessionID).With().Str("component", "live").Logger(),
		metrics:   observability.NewSessionMetrics(sessionID),
		acc:       audio.NewChunkAccumulator(cfg.SampleRate, cfg.ChunkTriggerSeconds, cfg.OverlapTailSeconds),
		rec:       rec,
		emit:      emit,
	}
	m.metrics.RecordSessionStart()
	return m, nil
}

// SessionID returns the session identifier.
func (m *Manager) SessionID() string { return m.sessionID }

// IngestAudio records one PCM chunk and schedules an interim analysis
// when enough audio has accumulated.
func (m *Manager) IngestAudio(chunk []byte) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrSessionClosed
	}
	// Recorder write happens under the lock so chunks land in the WAV
	// in the same order they arrived.
	if err := m.rec.WriteAudio(chunk); err != nil {
		m.mu.Unlock()
		return err
	}
	m.acc.AddChunk(chunk)
	m.mu.Unlock()

	m.metrics.RecordAudioBytes("live", int64(len(chunk)))

	if buf, ok := m.acc.TryDrain(); ok {
		m.spawnAnalysis(buf)
	}
	return nil
}

// IngestFrame records one JPEG video frame.
func (m *Manager) IngestFrame(frameJPEG []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrSessionClosed
	}
	if err := m.rec.WriteFrame(frameJPEG); err != nil {
		return err
	}
	m.metrics.RecordFrameSampled()
	return nil
}

// Stop ends the session cleanly: the sub-threshold remainder gets a
// final interim analysis, in-flight analyses drain, and the recording
// is finalized. Safe to call alongside Abort.
func (m *Manager) Stop() (*session.Metadata, error) {
	if m.markClosed() {
		if buf := m.acc.Flush(); len(buf) > 0 {
			m.spawnAnalysis(buf)
		}
	}
	return m.shutdown()
}

// Abort ends the session after a client disconnect. No further triggers
// are consumed; analyses already running finish before finalization.
func (m *Manager) Abort() (*session.Metadata, error) {
	m.markClosed()
	return m.shutdown()
}

// markClosed flips the session closed, reporting whether this call was
// the one that closed it.
func (m *Manager) markClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return false
	}
	m.closed = true
	return true
}

func (m *Manager) shutdown() (*session.Metadata, error) {
	m.inflight.Wait()
	m.finalizeOnce.Do(func() {
		m.finalMeta, m.finalErr = m.rec.Finalize()
		m.metrics.RecordSessionEnd()
		if m.finalErr != nil {
			m.logger.Error().Err(m.finalErr).Msg("Recorder finalize failed")
		} else {
			m.logger.Info().
				Int("audio_bytes", m.finalMeta.AudioBytes).
				Int("frames", m.finalMeta.FrameCount).
				Msg("Session finalized")
		}
	})
	return m.finalMeta, m.finalErr
}

func (m *Manager) spawnAnalysis(buf []byte) {
	m.inflight.Add(1)
	go func() {
		defer m.inflight.Done()
		m.analyze(buf)
	}()
}

// analyze scores one drained buffer and emits the result.
func (m *Manager) analyze(buf []byte) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error().Interface("panic", r).Msg("Interim analysis panicked")
			m.metrics.RecordError("panic", "live")
		}
	}()

	samples := audio.DecodePCM16(buf)
	sigCfg := audio.SignalConfig{
		SampleRate: m.cfg.SampleRate,
		FrameSize:  m.cfg.FrameSize,
		HopSize:    m.cfg.HopSize,
	}
	pauseCfg := audio.PauseConfig{
		SampleRate:         m.cfg.SampleRate,
		FrameSize:          m.cfg.FrameSize,
		HopSize:            m.cfg.HopSize,
		SilenceThresholdDB: m.cfg.SilenceThresholdDB,
		MinPauseSeconds:    m.cfg.MinPauseSeconds,
	}

	features := scoring.BuildFeatureSet(
		audio.AnalyzeBuffer(samples, sigCfg),
		audio.SegmentPauses(samples, pauseCfg),
		0,
	)
	axes := scoring.Score(features)

	if m.emit != nil {
		m.emit(InterimResult{
			Type:      "interim",
			SessionID: m.sessionID,
			Features:  features,
			Axes:      axes,
			Summary:   scoring.Summarize(axes),
			Affect:    scoring.EstimateAffect(features),
		})
	}
}
