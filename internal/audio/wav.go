package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// ReadWAV decodes a PCM WAV file into normalized float64 samples and its
// sample rate. Stereo content is downmixed to mono. Only 16-bit PCM is
// supported, which covers everything the session recorder produces.
func ReadWAV(path string) ([]float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	var header [12]byte
	if _, err := io.ReadFull(f, header[:]); err != nil {
		return nil, 0, fmt.Errorf("reading RIFF header: %w", err)
	}
	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		return nil, 0, fmt.Errorf("not a WAV file: %s", path)
	}

	var (
		sampleRate    int
		channels      int
		bitsPerSample int
		data          []byte
	)

	for {
		var chunkHeader [8]byte
		if _, err := io.ReadFull(f, chunkHeader[:]); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				break
			}
			return nil, 0, fmt.Errorf("reading chunk header: %w", err)
		}
		chunkID := string(chunkHeader[0:4])
		chunkSize := binary.LittleEndian.Uint32(chunkHeader[4:8])

		switch chunkID {
		case "fmt ":
			fmtChunk := make([]byte, chunkSize)
			if _, err := io.ReadFull(f, fmtChunk); err != nil {
				return nil, 0, fmt.Errorf("reading fmt chunk: %w", err)
			}
			audioFormat := binary.LittleEndian.Uint16(fmtChunk[0:2])
			if audioFormat != 1 {
				return nil, 0, fmt.Errorf("unsupported WAV encoding %d (only PCM)", audioFormat)
			}
			channels = int(binary.LittleEndian.Uint16(fmtChunk[2:4]))
			sampleRate = int(binary.LittleEndian.Uint32(fmtChunk[4:8]))
			bitsPerSample = int(binary.LittleEndian.Uint16(fmtChunk[14:16]))
		case "data":
			data = make([]byte, chunkSize)
			if _, err := io.ReadFull(f, data); err != nil {
				return nil, 0, fmt.Errorf("reading data chunk: %w", err)
			}
		default:
			// Skip unknown chunks (LIST, fact, ...)
			if _, err := f.Seek(int64(chunkSize), io.SeekCurrent); err != nil {
				return nil, 0, err
			}
		}

		// Chunks are word-aligned
		if chunkSize%2 == 1 {
			if _, err := f.Seek(1, io.SeekCurrent); err != nil {
				return nil, 0, err
			}
		}
	}

	if sampleRate == 0 || data == nil {
		return nil, 0, fmt.Errorf("WAV file missing fmt or data chunk: %s", path)
	}
	if bitsPerSample != 16 {
		return nil, 0, fmt.Errorf("unsupported bit depth %d (only 16-bit PCM)", bitsPerSample)
	}

	samples := DecodePCM16(data)
	if channels == 2 {
		samples = DownmixStereo(samples)
	} else if channels > 2 {
		return nil, 0, fmt.Errorf("unsupported channel count %d", channels)
	}

	return samples, sampleRate, nil
}

// WAVWriter streams 16-bit mono PCM into a WAV container. The header is
// written with placeholder sizes and patched on Close.
type WAVWriter struct {
	f            *os.File
	sampleRate   int
	bytesWritten int
	closed       bool
}

// NewWAVWriter creates the output file and writes a provisional header.
func NewWAVWriter(path string, sampleRate int) (*WAVWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	w := &WAVWriter{f: f, sampleRate: sampleRate}
	if err := w.writeHeader(0); err != nil {
		f.Close()
		return nil, err
	}
	return w, nil
}

func (w *WAVWriter) writeHeader(dataLen int) error {
	var buf [44]byte
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+dataLen))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(buf[22:24], 1) // mono
	binary.LittleEndian.PutUint32(buf[24:28], uint32(w.sampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(w.sampleRate*BytesPerSample))
	binary.LittleEndian.PutUint16(buf[32:34], uint16(BytesPerSample))
	binary.LittleEndian.PutUint16(buf[34:36], 16)
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataLen))

	if _, err := w.f.WriteAt(buf[:], 0); err != nil {
		return err
	}
	return nil
}

// Write appends raw 16-bit PCM bytes to the data chunk.
func (w *WAVWriter) Write(pcm []byte) (int, error) {
	if w.closed {
		return 0, fmt.Errorf("write to closed WAV writer")
	}
	n, err := w.f.WriteAt(pcm, int64(44+w.bytesWritten))
	w.bytesWritten += n
	return n, err
}

// BytesWritten returns the number of PCM bytes written so far.
func (w *WAVWriter) BytesWritten() int {
	return w.bytesWritten
}

// Close patches the header with final sizes and closes the file.
// Safe to call more than once.
func (w *WAVWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if err := w.writeHeader(w.bytesWritten); err != nil {
		w.f.Close()
		return err
	}
	return w.f.Close()
}
