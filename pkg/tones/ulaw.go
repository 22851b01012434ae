package tones

import (
	"fmt"
	"io"

	"github.com/zaf/g711"
)

// ulawSampleRate is the telephony rate headerless .ul files are assumed to use.
const ulawSampleRate = 8000

func init() { //nolint:gochecknoinits
	registerCodec(ulawCodec{})
}

// ulawCodec writes headerless G.711 mu-law at 8kHz, one byte per sample, for phone system prompts.
type ulawCodec struct{}

func (ulawCodec) Name() string      { return "ulaw" }
func (ulawCodec) Extension() string { return ".ul" }

func (ulawCodec) Encode(w io.WriteSeeker, buf SampleBuffer, sampleRate int) error {
	if len(buf) == 0 {
		return ErrEmptyBuffer
	}

	pcm := buf
	if sampleRate != ulawSampleRate {
		resampled, err := resample(buf, sampleRate, ulawSampleRate)
		if err != nil {
			return err
		}

		pcm = resampled
	}

	encoded := make([]byte, len(pcm))
	for i, sample := range pcm {
		encoded[i] = g711.EncodeUlawFrame(sample)
	}

	if _, err := w.Write(encoded); err != nil {
		return fmt.Errorf("failed to write mu-law data: %w", err)
	}

	return nil
}

func (ulawCodec) Decode(r io.Reader) (SampleBuffer, int, error) {
	encoded, err := io.ReadAll(r)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read mu-law data: %w", err)
	}

	result := make(SampleBuffer, len(encoded))
	for i, b := range encoded {
		result[i] = g711.DecodeUlawFrame(b)
	}

	return result, ulawSampleRate, nil
}
