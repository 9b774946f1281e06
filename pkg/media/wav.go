package media

import (
	"fmt"
	"os"

	"github.com/go-audio/wav"
)

// ReadWavSamples decodes the WAV at path into float32 samples in [-1, 1]
// and returns them with the sample rate.
func ReadWavSamples(path string) ([]float32, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("%s is not a valid wav file", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("decoding %s: %w", path, err)
	}

	// Scale integer PCM to [-1, 1] by the source bit depth.
	scale := float32(int64(1) << (dec.BitDepth - 1))
	samples := make([]float32, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = float32(v) / scale
	}
	return samples, buf.Format.SampleRate, nil
}

// IsWav16kMono reports whether path is already a 16 kHz mono 16-bit WAV.
func IsWav16kMono(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return false
	}
	return dec.BitDepth == 16 && dec.NumChans == 1 && dec.SampleRate == 16000
}
