package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/interviewlab/analysis-engine/internal/audio"
	"github.com/interviewlab/analysis-engine/internal/config"
	"github.com/interviewlab/analysis-engine/internal/observability"
	"github.com/interviewlab/analysis-engine/internal/scoring"
	"github.com/interviewlab/analysis-engine/internal/services"
	"github.com/interviewlab/analysis-engine/internal/session"
	"github.com/interviewlab/analysis-engine/internal/transcript"
)

// Inputs identifies the recorded media for one session.
type Inputs struct {
	SessionID  string
	AudioPath  string
	FramesPath string // empty when the session had no video
}

// Orchestrator runs the post-session analysis pipeline. Analyze is a
// pure function of its inputs plus the backends' responses; it writes
// nothing and can be re-run safely.
type Orchestrator struct {
	cfg config.Config

	transcriber services.Transcriber
	diarizer    services.Diarizer
	commentator services.Commentator
	pose        services.PoseSampler

	pool   *Pool
	logger zerolog.Logger

	// Transcriptions are cached by audio content so re-running a
	// session does not re-bill the backend.
	transcriptionCache *services.ResultCache[*services.TranscriptionResult]
}

// NewOrchestrator wires the pipeline against the given backends.
func NewOrchestrator(cfg config.Config, transcriber services.Transcriber, diarizer services.Diarizer, commentator services.Commentator, pose services.PoseSampler) *Orchestrator {
	return &Orchestrator{
		cfg:                cfg,
		transcriber:        transcriber,
		diarizer:           diarizer,
		commentator:        commentator,
		pose:               pose,
		pool:               NewPool(cfg.WorkerPoolSize),
		logger:             observability.GetLogger().With().Str("component", "pipeline").Logger(),
		transcriptionCache: services.NewResultCache[*services.TranscriptionResult](),
	}
}

// Analyze runs the full pipeline and always returns a payload: fatal
// errors mark the session FAILED but keep everything produced so far.
func (o *Orchestrator) Analyze(ctx context.Context, in Inputs) (payload *Payload) {
	logger := o.logger.With().Str("session_id", in.SessionID).Logger()
	metrics := observability.NewSessionMetrics(in.SessionID)
	metrics.RecordSessionStart()
	defer metrics.RecordSessionEnd()

	payload = &Payload{
		SessionID: in.SessionID,
		Filename:  filepath.Base(in.AudioPath),
		State:     StatePending,
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("Pipeline stage panicked")
			metrics.RecordError("panic", "pipeline")
			payload.State = StateFailed
			payload.Error = fmt.Sprintf("internal failure: %v", r)
		}
	}()

	// Decode the recording first: everything downstream needs it.
	samples, sampleRate, err := audio.ReadWAV(in.AudioPath)
	if err != nil || len(samples) == 0 {
		reason := "no audio recorded"
		if err != nil {
			reason = err.Error()
			logger.Warn().Err(err).Msg("Audio unavailable, assembling degraded payload")
		}
		payload.Audio = AudioBlock{Available: false, Reason: reason}
		payload.Transcript = TranscriptBlock{Available: false, Reason: "audio unavailable"}
		payload.Video = VideoBlock{Available: false, Reason: "audio unavailable"}
		payload.State = StateDone
		return payload
	}

	payload.State = StateTranscribing
	metrics.RecordStageStart("transcribe")
	segments, roles, transcriptText := o.transcribe(ctx, observability.WithStage(logger, "transcribe"), in, payload)
	metrics.RecordStageEnd("transcribe", true)

	payload.State = StateExtractingFeatures
	metrics.RecordStageStart("extract")
	overall, perSpeaker := o.extractFeatures(samples, sampleRate, segments, transcriptText)
	metrics.RecordStageEnd("extract", true)

	payload.State = StateScoring
	metrics.RecordStageStart("score")
	payload.Audio = AudioBlock{
		Available:  true,
		Overall:    overall,
		PerSpeaker: o.scoreSpeakers(perSpeaker, roles),
	}
	profile := buildProfile(overall)
	payload.Profile = &profile

	if transcriptText != "" {
		commentary, err := o.commentator.Analyze(ctx, transcriptText, services.AcousticSummary{
			SpeakingRateCharsPerMinute: overall.SpeakingRateCharsPerMinute,
			AverageVolumeDB:            overall.VolumeMeanDB,
			PauseCount:                 overall.PauseCount,
			PitchVariance:              overall.PitchVariance,
		})
		if err != nil {
			logger.Warn().Err(err).Msg("Commentary unavailable")
			metrics.RecordError("commentary", "pipeline")
		} else {
			payload.Commentary = commentary
		}
	}
	metrics.RecordStageEnd("score", true)

	payload.State = StateVideoAnalyzing
	metrics.RecordStageStart("video")
	payload.Video = o.analyzeVideo(ctx, observability.WithStage(logger, "video"), metrics, in.FramesPath)
	metrics.RecordStageEnd("video", payload.Video.Available || payload.Video.Reason != "")

	payload.State = StateAssembling
	payload.State = StateDone
	return payload
}

// transcribe runs transcription and diarization, populating the
// payload's transcript block. Both backends are optional; their absence
// degrades the block instead of erroring.
func (o *Orchestrator) transcribe(ctx context.Context, logger zerolog.Logger, in Inputs, payload *Payload) (segments []transcript.Segment, roles map[string]string, text string) {
	// Key by audio content so identical recordings share one backend
	// call across sessions and re-runs.
	raw, readErr := os.ReadFile(in.AudioPath)
	if readErr != nil {
		raw = []byte(in.AudioPath)
	}
	result, err := o.transcriptionCache.GetOrCompute(
		services.CacheKey(raw, []byte(o.cfg.Language)),
		func() (*services.TranscriptionResult, error) {
			return o.transcriber.Transcribe(ctx, in.AudioPath, o.cfg.Language)
		},
	)
	if err != nil {
		logger.Warn().Err(err).Msg("Transcription unavailable")
		payload.Transcript = TranscriptBlock{Available: false, Reason: err.Error()}
		return nil, nil, ""
	}

	segments = result.Segments
	text = result.Text

	turns, err := o.diarizer.Diarize(ctx, in.AudioPath, 2)
	if err != nil {
		logger.Warn().Err(err).Msg("Diarization unavailable, all segments get the unknown speaker")
		segments = transcript.AssignSpeakers(segments, nil)
	} else {
		segments = transcript.AssignSpeakers(segments, turns)
		roles = transcript.ResolveRoles(turns, o.cfg.RoleStrategy)
		segments = transcript.ApplyRoles(segments, roles)
	}

	payload.Transcript = TranscriptBlock{
		Available: true,
		Text:      text,
		Language:  result.Language,
		Segments:  segments,
		Roles:     roles,
	}
	return segments, roles, text
}

// speakerInput collects one speaker's concatenated samples and
// transcribed text length before feature extraction.
type speakerInput struct {
	label   string
	samples []float64
	chars   int
}

// extractFeatures computes session-wide features plus a per-speaker
// breakdown. Speaker extraction fans out on the worker pool; each
// speaker's aggregation finishes before that speaker is scored.
func (o *Orchestrator) extractFeatures(samples []float64, sampleRate int, segments []transcript.Segment, text string) (scoring.FeatureSet, map[string]scoring.FeatureSet) {
	sigCfg := audio.SignalConfig{
		SampleRate: sampleRate,
		FrameSize:  o.cfg.FrameSize,
		HopSize:    o.cfg.HopSize,
	}
	pauseCfg := audio.PauseConfig{
		SampleRate:         sampleRate,
		FrameSize:          o.cfg.FrameSize,
		HopSize:            o.cfg.HopSize,
		SilenceThresholdDB: o.cfg.SilenceThresholdDB,
		MinPauseSeconds:    o.cfg.MinPauseSeconds,
	}

	overall := scoring.BuildFeatureSet(
		audio.AnalyzeBuffer(samples, sigCfg),
		audio.SegmentPauses(samples, pauseCfg),
		len([]rune(text)),
	)

	inputs := splitBySpeaker(samples, sampleRate, segments)
	if len(inputs) == 0 {
		return overall, nil
	}

	perSpeaker := make(map[string]scoring.FeatureSet, len(inputs))
	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, si := range inputs {
		si := si
		o.pool.Go(&wg, func() {
			fs := scoring.BuildFeatureSet(
				audio.AnalyzeBuffer(si.samples, sigCfg),
				audio.SegmentPauses(si.samples, pauseCfg),
				si.chars,
			)
			mu.Lock()
			perSpeaker[si.label] = fs
			mu.Unlock()
		})
	}
	wg.Wait()

	return overall, perSpeaker
}

// splitBySpeaker concatenates each labeled speaker's segment spans into
// one buffer. Unattributed segments are skipped.
func splitBySpeaker(samples []float64, sampleRate int, segments []transcript.Segment) []speakerInput {
	bySpeaker := map[string]*speakerInput{}
	var order []string

	for _, seg := range segments {
		if seg.Speaker == "" || seg.Speaker == transcript.SpeakerUnknown {
			continue
		}
		start := int(seg.Start * float64(sampleRate))
		end := int(seg.End * float64(sampleRate))
		if start < 0 {
			start = 0
		}
		if end > len(samples) {
			end = len(samples)
		}
		if start >= end {
			continue
		}

		si, ok := bySpeaker[seg.Speaker]
		if !ok {
			si = &speakerInput{label: seg.Speaker}
			bySpeaker[seg.Speaker] = si
			order = append(order, seg.Speaker)
		}
		si.samples = append(si.samples, samples[start:end]...)
		si.chars += len([]rune(seg.Text))
	}

	out := make([]speakerInput, 0, len(order))
	for _, label := range order {
		out = append(out, *bySpeaker[label])
	}
	return out
}

// scoreSpeakers builds each speaker's profile, keying the result by
// resolved role where one exists.
func (o *Orchestrator) scoreSpeakers(perSpeaker map[string]scoring.FeatureSet, roles map[string]string) map[string]SpeakerAudio {
	if len(perSpeaker) == 0 {
		return nil
	}

	out := make(map[string]SpeakerAudio, len(perSpeaker))
	for label, fs := range perSpeaker {
		key := label
		if role, ok := roles[label]; ok {
			key = role
		}
		out[key] = SpeakerAudio{
			Speaker:  label,
			Features: fs,
			Profile:  buildProfile(fs),
		}
	}
	return out
}

// analyzeVideo samples stored frames at the configured interval and
// fans them out to the pose backend through the worker pool.
func (o *Orchestrator) analyzeVideo(ctx context.Context, logger zerolog.Logger, metrics *observability.SessionMetrics, framesPath string) VideoBlock {
	if framesPath == "" {
		return VideoBlock{Available: false, Reason: "no video recorded"}
	}

	available, err := o.pose.Available(ctx)
	if err != nil || !available {
		reason := "pose scoring unavailable"
		if err != nil {
			reason = err.Error()
		}
		return VideoBlock{Available: false, Reason: reason}
	}

	frames, err := session.ReadFrames(framesPath)
	if err != nil {
		logger.Warn().Err(err).Msg("Frame sequence unreadable")
		return VideoBlock{Available: false, Reason: err.Error()}
	}
	if len(frames) == 0 {
		return VideoBlock{Available: false, Reason: "no frames recorded"}
	}

	sampled := sampleFrames(len(frames), o.cfg.VideoFPS, o.cfg.FrameSampleSeconds, o.cfg.MaxFrameSamples)

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		scores []FrameScore
	)
	for _, idx := range sampled {
		idx := idx
		o.pool.Go(&wg, func() {
			metrics.RecordFrameSampled()
			score, err := o.pose.ScoreFrame(ctx, frames[idx])
			if err != nil {
				logger.Debug().Err(err).Int("frame", idx).Msg("Frame scoring failed")
				return
			}
			mu.Lock()
			scores = append(scores, FrameScore{
				TimestampSeconds: float64(idx) / float64(o.cfg.VideoFPS),
				Score:            score.Score,
				Feedback:         score.Feedback,
			})
			mu.Unlock()
		})
	}
	wg.Wait()

	if len(scores) == 0 {
		return VideoBlock{Available: false, Reason: "all frame scoring failed"}
	}

	// Pool completion order is arbitrary; restore timeline order.
	sort.Slice(scores, func(i, j int) bool {
		return scores[i].TimestampSeconds < scores[j].TimestampSeconds
	})

	total := 0
	for _, s := range scores {
		total += s.Score
	}

	return VideoBlock{
		Available:    true,
		FrameScores:  scores,
		AverageScore: float64(total) / float64(len(scores)),
	}
}

// sampleFrames picks frame indices roughly every intervalSeconds,
// capped at maxSamples.
func sampleFrames(frameCount, fps int, intervalSeconds float64, maxSamples int) []int {
	if frameCount == 0 || fps <= 0 {
		return nil
	}
	step := int(intervalSeconds * float64(fps))
	if step < 1 {
		step = 1
	}

	var indices []int
	for i := 0; i < frameCount; i += step {
		indices = append(indices, i)
		if maxSamples > 0 && len(indices) == maxSamples {
			break
		}
	}
	return indices
}
