// Package session persists one interview session's raw media: the
// audio track as WAV and sampled video frames as a length-prefixed
// JPEG sequence, plus a metadata document describing both.
package session

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/interviewlab/analysis-engine/internal/audio"
)

// ErrRecorderFinalized is returned by writes after Finalize.
var ErrRecorderFinalized = errors.New("session recorder already finalized")

// File names inside a session directory.
const (
	AudioFileName    = "audio.wav"
	FramesFileName   = "frames.bin"
	MetadataFileName = "metadata.json"
)

const jpegQuality = 85

// Metadata describes a finalized session's stored media.
type Metadata struct {
	SessionID   string    `json:"session_id"`
	StartedAt   time.Time `json:"started_at"`
	EndedAt     time.Time `json:"ended_at"`
	AudioPath   string    `json:"audio_path"`
	FramesPath  string    `json:"frames_path,omitempty"`
	AudioBytes  int       `json:"audio_bytes"`
	SampleRate  int       `json:"sample_rate"`
	FrameCount  int       `json:"frame_count"`
	FrameFPS    int       `json:"frame_fps,omitempty"`
	FrameWidth  int       `json:"frame_width,omitempty"`
	FrameHeight int       `json:"frame_height,omitempty"`
}

// Recorder owns one session directory and its writers. Safe for use by
// one audio goroutine and one video goroutine; each write path locks.
type Recorder struct {
	mu sync.Mutex

	sessionID  string
	dir        string
	startedAt  time.Time
	fps        int
	sampleRate int

	wav    *audio.WAVWriter
	frames *os.File

	frameCount  int
	frameWidth  int
	frameHeight int

	finalized bool
	metadata  *Metadata
	finalErr  error
}

// NewRecorder creates the session directory and opens the audio writer.
// The frame sequence file is created lazily on the first frame.
func NewRecorder(baseDir, sessionID string, sampleRate, fps int) (*Recorder, error) {
	dir := filepath.Join(baseDir, sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating session dir: %w", err)
	}

	wav, err := audio.NewWAVWriter(filepath.Join(dir, AudioFileName), sampleRate)
	if err != nil {
		return nil, fmt.Errorf("opening audio writer: %w", err)
	}

	return &Recorder{
		sessionID:  sessionID,
		dir:        dir,
		startedAt:  time.Now().UTC(),
		fps:        fps,
		sampleRate: sampleRate,
		wav:        wav,
	}, nil
}

// Dir returns the session directory path.
func (r *Recorder) Dir() string { return r.dir }

// AudioPath returns the WAV file path.
func (r *Recorder) AudioPath() string { return filepath.Join(r.dir, AudioFileName) }

// WriteAudio appends raw PCM bytes to the session's audio track.
func (r *Recorder) WriteAudio(pcm []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.finalized {
		return ErrRecorderFinalized
	}
	_, err := r.wav.Write(pcm)
	return err
}

// WriteFrame appends one JPEG frame. The first frame fixes the
// canonical resolution; later frames at a different size are resized
// to match so downstream consumers see a uniform sequence.
func (r *Recorder) WriteFrame(frameJPEG []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.finalized {
		return ErrRecorderFinalized
	}

	img, err := jpeg.Decode(bytes.NewReader(frameJPEG))
	if err != nil {
		return fmt.Errorf("decoding frame: %w", err)
	}

	bounds := img.Bounds()
	if r.frameCount == 0 {
		r.frameWidth = bounds.Dx()
		r.frameHeight = bounds.Dy()

		f, err := os.Create(filepath.Join(r.dir, FramesFileName))
		if err != nil {
			return fmt.Errorf("creating frame file: %w", err)
		}
		r.frames = f
	} else if bounds.Dx() != r.frameWidth || bounds.Dy() != r.frameHeight {
		img = resizeNearest(img, r.frameWidth, r.frameHeight)
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
			return fmt.Errorf("re-encoding resized frame: %w", err)
		}
		frameJPEG = buf.Bytes()
	}

	var lenPrefix [4]byte
	binary.LittleEndian.PutUint32(lenPrefix[:], uint32(len(frameJPEG)))
	if _, err := r.frames.Write(lenPrefix[:]); err != nil {
		return err
	}
	if _, err := r.frames.Write(frameJPEG); err != nil {
		return err
	}

	r.frameCount++
	return nil
}

// Finalize closes the writers and writes metadata.json. Calling it
// again returns the same result without touching any file, including
// the error when the first attempt failed.
func (r *Recorder) Finalize() (*Metadata, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.finalized {
		return r.metadata, r.finalErr
	}
	r.finalized = true
	r.metadata, r.finalErr = r.finalizeLocked()
	return r.metadata, r.finalErr
}

func (r *Recorder) finalizeLocked() (*Metadata, error) {
	audioBytes := r.wav.BytesWritten()
	if err := r.wav.Close(); err != nil {
		return nil, fmt.Errorf("closing audio writer: %w", err)
	}

	meta := &Metadata{
		SessionID:  r.sessionID,
		StartedAt:  r.startedAt,
		EndedAt:    time.Now().UTC(),
		AudioPath:  filepath.Join(r.dir, AudioFileName),
		AudioBytes: audioBytes,
		SampleRate: r.sampleRate,
		FrameCount: r.frameCount,
	}

	if r.frames != nil {
		if err := r.frames.Close(); err != nil {
			return nil, fmt.Errorf("closing frame file: %w", err)
		}
		meta.FramesPath = filepath.Join(r.dir, FramesFileName)
		meta.FrameFPS = r.fps
		meta.FrameWidth = r.frameWidth
		meta.FrameHeight = r.frameHeight
	}

	payload, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(r.dir, MetadataFileName), payload, 0o644); err != nil {
		return nil, fmt.Errorf("writing metadata: %w", err)
	}

	return meta, nil
}

// resizeNearest scales img to w x h with nearest-neighbor sampling.
// Frame sizes only drift when a client renegotiates its camera, so
// quality is secondary to keeping the sequence uniform.
func resizeNearest(img image.Image, w, h int) image.Image {
	src := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		sy := src.Min.Y + y*src.Dy()/h
		for x := 0; x < w; x++ {
			sx := src.Min.X + x*src.Dx()/w
			dst.Set(x, y, img.At(sx, sy))
		}
	}
	return dst
}

// ReadFrames decodes a frame-sequence file back into individual JPEG
// byte slices. Used by the post-session pipeline to fan frames out to
// pose scoring.
func ReadFrames(path string) ([][]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var frames [][]byte
	for off := 0; off < len(data); {
		if off+4 > len(data) {
			return nil, fmt.Errorf("truncated frame header at offset %d", off)
		}
		n := int(binary.LittleEndian.Uint32(data[off : off+4]))
		off += 4
		if off+n > len(data) {
			return nil, fmt.Errorf("truncated frame at offset %d", off)
		}
		frames = append(frames, data[off:off+n])
		off += n
	}
	return frames, nil
}
