package audio

// BytesPerSample is the sample width used throughout the pipeline (16-bit PCM).
const BytesPerSample = 2

// DecodePCM16 converts little-endian 16-bit signed PCM bytes to float64
// samples normalized to [-1, 1]. A trailing odd byte is ignored.
func DecodePCM16(data []byte) []float64 {
	n := len(data) / BytesPerSample
	samples := make([]float64, n)
	for i := 0; i < n; i++ {
		s := int16(data[i*2]) | int16(data[i*2+1])<<8
		samples[i] = float64(s) / 32768.0
	}
	return samples
}

// EncodePCM16 converts float64 samples in [-1, 1] to little-endian 16-bit
// signed PCM bytes. Out-of-range values are clipped.
func EncodePCM16(samples []float64) []byte {
	data := make([]byte, len(samples)*BytesPerSample)
	for i, v := range samples {
		if v > 1.0 {
			v = 1.0
		} else if v < -1.0 {
			v = -1.0
		}
		s := int16(v * 32767.0)
		data[i*2] = byte(s)
		data[i*2+1] = byte(s >> 8)
	}
	return data
}

// DownmixStereo averages interleaved stereo samples into mono.
// Returns the input unchanged when the sample count is odd (already mono
// or malformed input).
func DownmixStereo(samples []float64) []float64 {
	if len(samples)%2 != 0 {
		return samples
	}
	mono := make([]float64, len(samples)/2)
	for i := range mono {
		mono[i] = (samples[i*2] + samples[i*2+1]) / 2.0
	}
	return mono
}

// Resample performs linear interpolation resampling between sample rates.
// Good enough for speech analysis; not intended for playback quality.
func Resample(samples []float64, inputRate, outputRate int) []float64 {
	if inputRate == outputRate || len(samples) == 0 {
		return samples
	}

	ratio := float64(outputRate) / float64(inputRate)
	outputLength := int(float64(len(samples)) * ratio)
	output := make([]float64, outputLength)

	for i := 0; i < outputLength; i++ {
		srcPos := float64(i) / ratio

		idx0 := int(srcPos)
		idx1 := idx0 + 1
		if idx1 >= len(samples) {
			idx1 = len(samples) - 1
		}

		fraction := srcPos - float64(idx0)
		output[i] = samples[idx0]*(1.0-fraction) + samples[idx1]*fraction
	}

	return output
}

// DurationSeconds derives the duration of a raw 16-bit mono PCM byte
// buffer at the given sample rate.
func DurationSeconds(byteLen, sampleRate int) float64 {
	if sampleRate <= 0 {
		return 0
	}
	return float64(byteLen/BytesPerSample) / float64(sampleRate)
}
