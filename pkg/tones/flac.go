package tones

import (
	"errors"
	"fmt"
	"io"

	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
	"github.com/mewkiz/flac/meta"
)

const (
	flacBlockSize     = 4096
	flacBitsPerSample = 16
)

func init() { //nolint:gochecknoinits
	registerCodec(flacCodec{})
}

// flacCodec writes lossless FLAC. Blocks holding a single repeated value (silence, mostly) are stored as constant
// subframes; everything else is stored verbatim.
type flacCodec struct{}

func (flacCodec) Name() string      { return "flac" }
func (flacCodec) Extension() string { return ".flac" }

func (flacCodec) Encode(w io.WriteSeeker, buf SampleBuffer, sampleRate int) error {
	if len(buf) == 0 {
		return ErrEmptyBuffer
	}

	blockSize := min(len(buf), flacBlockSize)

	info := &meta.StreamInfo{
		BlockSizeMin:  uint16(blockSize),
		BlockSizeMax:  uint16(blockSize),
		SampleRate:    uint32(sampleRate),
		NChannels:     1,
		BitsPerSample: flacBitsPerSample,
		NSamples:      uint64(len(buf)),
	}

	// The encoder closes writers that implement io.Closer, and the caller owns w. Staying seekable lets Close go
	// back and fill in the STREAMINFO MD5.
	enc, err := flac.NewEncoder(struct{ io.WriteSeeker }{w}, info)
	if err != nil {
		return fmt.Errorf("failed to create flac encoder: %w", err)
	}

	for start := 0; start < len(buf); start += flacBlockSize {
		end := min(start+flacBlockSize, len(buf))

		if err := enc.WriteFrame(flacFrame(buf[start:end], sampleRate)); err != nil {
			enc.Close()
			return fmt.Errorf("failed to write flac frame at sample %d: %w", start, err)
		}
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to finish flac stream: %w", err)
	}

	return nil
}

func (flacCodec) Decode(r io.Reader) (SampleBuffer, int, error) {
	stream, err := flac.New(r)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read flac header: %w", err)
	}
	defer stream.Close()

	result := make(SampleBuffer, 0, stream.Info.NSamples)

	for {
		f, err := stream.ParseNext()
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return nil, 0, fmt.Errorf("failed to parse flac frame: %w", err)
		}

		if len(f.Subframes) == 0 {
			continue
		}

		for _, sample := range f.Subframes[0].Samples {
			result = append(result, int16(sample))
		}
	}

	return result, int(stream.Info.SampleRate), nil
}

func flacFrame(block SampleBuffer, sampleRate int) *frame.Frame {
	samples := make([]int32, len(block))
	constant := true

	for i, sample := range block {
		samples[i] = int32(sample)

		if sample != block[0] {
			constant = false
		}
	}

	pred := frame.PredVerbatim
	if constant {
		pred = frame.PredConstant
	}

	return &frame.Frame{
		Header: frame.Header{
			HasFixedBlockSize: true,
			BlockSize:         uint16(len(block)),
			SampleRate:        uint32(sampleRate),
			Channels:          frame.ChannelsMono,
			BitsPerSample:     flacBitsPerSample,
		},
		Subframes: []*frame.Subframe{
			{
				SubHeader: frame.SubHeader{Pred: pred},
				Samples:   samples,
				NSamples:  len(samples),
			},
		},
	}
}
