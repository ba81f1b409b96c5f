package audio

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/cwbudde/wav"
)

// ErrFormatMismatch is returned when a decoded WAV is not 16-bit PCM or does
// not match the requested sample rate.
var ErrFormatMismatch = errors.New("WAV format mismatch")

// DecodeWAV decodes a 16-bit PCM WAV file. wantRate, when positive, must
// match the file's sample rate.
func DecodeWAV(data []byte, wantRate int) (*Waveform, error) {
	if len(data) == 0 {
		return nil, errors.New("empty WAV input")
	}

	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return nil, errors.New("invalid WAV file")
	}

	if wantRate > 0 && int(dec.SampleRate) != wantRate {
		return nil, fmt.Errorf("%w: sample rate %d, want %d", ErrFormatMismatch, dec.SampleRate, wantRate)
	}

	if dec.BitDepth != BitDepth {
		return nil, fmt.Errorf("%w: bit depth %d, want %d", ErrFormatMismatch, dec.BitDepth, BitDepth)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("reading PCM data: %w", err)
	}

	scaled := make([]float64, len(buf.Data))
	for i, v := range buf.Data {
		scaled[i] = float64(v) * pcmScale
	}

	return &Waveform{
		Samples:    QuantizePCM16(scaled, QuantizeOptions{}),
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
	}, nil
}
