package tones

import (
	"fmt"
	"io"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/wav"
)

func init() { //nolint:gochecknoinits
	registerCodec(wavCodec{})
}

type wavCodec struct{}

func (wavCodec) Name() string      { return "wav" }
func (wavCodec) Extension() string { return ".wav" }

func (wavCodec) Encode(w io.WriteSeeker, buf SampleBuffer, sampleRate int) error {
	if len(buf) == 0 {
		return ErrEmptyBuffer
	}

	format := beep.Format{
		SampleRate:  beep.SampleRate(sampleRate),
		NumChannels: 1,
		Precision:   2,
	}

	if err := wav.Encode(w, streamerFor(buf), format); err != nil {
		return fmt.Errorf("failed to encode wav: %w", err)
	}

	return nil
}

func (wavCodec) Decode(r io.Reader) (SampleBuffer, int, error) {
	stream, format, err := wav.Decode(r)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to decode wav: %w", err)
	}
	defer stream.Close()

	buf, err := collectStream(stream)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read wav samples: %w", err)
	}

	return buf, int(format.SampleRate), nil
}
