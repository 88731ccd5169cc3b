package session

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/interviewlab/analysis-engine/internal/audio"
)

func testJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestRecorder_AudioRoundTrip(t *testing.T) {
	rec, err := NewRecorder(t.TempDir(), "session-1", 16000, 15)
	if err != nil {
		t.Fatalf("NewRecorder failed: %v", err)
	}

	pcm := make([]byte, 16000*2) // 1s of silence
	if err := rec.WriteAudio(pcm); err != nil {
		t.Fatalf("WriteAudio failed: %v", err)
	}

	meta, err := rec.Finalize()
	if err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}
	if meta.AudioBytes != len(pcm) {
		t.Errorf("Expected %d audio bytes, got %d", len(pcm), meta.AudioBytes)
	}

	samples, rate, err := audio.ReadWAV(meta.AudioPath)
	if err != nil {
		t.Fatalf("Recorded WAV unreadable: %v", err)
	}
	if rate != 16000 || len(samples) != 16000 {
		t.Errorf("Expected 16000 samples at 16 kHz, got %d at %d", len(samples), rate)
	}
}

func TestRecorder_FinalizeTwiceReturnsSameMetadata(t *testing.T) {
	rec, err := NewRecorder(t.TempDir(), "session-2", 16000, 15)
	if err != nil {
		t.Fatal(err)
	}
	rec.WriteAudio(make([]byte, 3200))

	first, err := rec.Finalize()
	if err != nil {
		t.Fatalf("First Finalize failed: %v", err)
	}
	second, err := rec.Finalize()
	if err != nil {
		t.Fatalf("Second Finalize failed: %v", err)
	}

	if first != second {
		t.Error("Expected the same metadata pointer from repeated finalize")
	}
	if !reflect.DeepEqual(*first, *second) {
		t.Errorf("Metadata changed between finalizes: %+v vs %+v", first, second)
	}
}

func TestRecorder_WriteAfterFinalize(t *testing.T) {
	rec, err := NewRecorder(t.TempDir(), "session-3", 16000, 15)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := rec.Finalize(); err != nil {
		t.Fatal(err)
	}

	if err := rec.WriteAudio([]byte{0, 0}); !errors.Is(err, ErrRecorderFinalized) {
		t.Errorf("Expected ErrRecorderFinalized for audio write, got %v", err)
	}
	if err := rec.WriteFrame(testJPEG(t, 8, 8)); !errors.Is(err, ErrRecorderFinalized) {
		t.Errorf("Expected ErrRecorderFinalized for frame write, got %v", err)
	}
}

func TestRecorder_FrameSequence(t *testing.T) {
	rec, err := NewRecorder(t.TempDir(), "session-4", 16000, 15)
	if err != nil {
		t.Fatal(err)
	}

	if err := rec.WriteFrame(testJPEG(t, 32, 24)); err != nil {
		t.Fatalf("First frame failed: %v", err)
	}
	if err := rec.WriteFrame(testJPEG(t, 32, 24)); err != nil {
		t.Fatalf("Second frame failed: %v", err)
	}
	// A frame at a different size gets resized to the canonical one
	if err := rec.WriteFrame(testJPEG(t, 64, 48)); err != nil {
		t.Fatalf("Mismatched frame failed: %v", err)
	}

	meta, err := rec.Finalize()
	if err != nil {
		t.Fatal(err)
	}
	if meta.FrameCount != 3 {
		t.Errorf("Expected 3 frames, got %d", meta.FrameCount)
	}
	if meta.FrameWidth != 32 || meta.FrameHeight != 24 {
		t.Errorf("Expected canonical 32x24, got %dx%d", meta.FrameWidth, meta.FrameHeight)
	}

	frames, err := ReadFrames(meta.FramesPath)
	if err != nil {
		t.Fatalf("ReadFrames failed: %v", err)
	}
	if len(frames) != 3 {
		t.Fatalf("Expected 3 stored frames, got %d", len(frames))
	}
	for i, frame := range frames {
		img, err := jpeg.Decode(bytes.NewReader(frame))
		if err != nil {
			t.Fatalf("Frame %d not a valid JPEG: %v", i, err)
		}
		if img.Bounds().Dx() != 32 || img.Bounds().Dy() != 24 {
			t.Errorf("Frame %d not canonical size: %v", i, img.Bounds())
		}
	}
}

func TestRecorder_MetadataFileWritten(t *testing.T) {
	base := t.TempDir()
	rec, err := NewRecorder(base, "session-5", 16000, 15)
	if err != nil {
		t.Fatal(err)
	}
	meta, err := rec.Finalize()
	if err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(filepath.Join(base, "session-5", MetadataFileName)); err != nil {
		t.Errorf("Expected metadata file on disk: %v", err)
	}
	if meta.SessionID != "session-5" {
		t.Errorf("Unexpected session id %q", meta.SessionID)
	}
	// No frames written: video fields stay empty
	if meta.FramesPath != "" || meta.FrameCount != 0 {
		t.Errorf("Expected no video metadata, got %+v", meta)
	}
}

func TestReadFrames_Truncated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frames.bin")
	if err := os.WriteFile(path, []byte{0xFF, 0xFF, 0xFF, 0xFF, 0x01}, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadFrames(path); err == nil {
		t.Error("Expected error for truncated frame file")
	}
}

func TestRecorder_FinalizeFailureIsSticky(t *testing.T) {
	rec, err := NewRecorder(t.TempDir(), "doomed", 16000, 15)
	if err != nil {
		t.Fatal(err)
	}

	// Removing the session directory makes the metadata write fail
	if err := os.RemoveAll(rec.Dir()); err != nil {
		t.Fatal(err)
	}

	meta1, err1 := rec.Finalize()
	if err1 == nil {
		t.Fatal("Expected finalize to fail without a session directory")
	}
	if meta1 != nil {
		t.Fatalf("Expected nil metadata on failure, got %+v", meta1)
	}

	// Repeat calls report the same outcome instead of a silent nil, nil
	meta2, err2 := rec.Finalize()
	if meta2 != nil {
		t.Fatalf("Expected nil metadata on repeat, got %+v", meta2)
	}
	if err2 != err1 {
		t.Errorf("Expected the original finalize error, got %v", err2)
	}
}
