//go:build opus

package tones

import (
	"errors"
	"fmt"
	"io"

	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4/pkg/media/oggwriter"
	"gopkg.in/hraban/opus.v2"
)

const (
	opusSampleRate  = 48000
	opusFrameSize   = 960 // 20ms at 48kHz
	opusPayloadType = 111
	opusMaxPacket   = 4000
	opusBitrate     = 64000

	// oggwriter declares this much pre-skip in the OpusHead packet.
	opusPreSkip = 3840
)

func init() { //nolint:gochecknoinits
	registerCodec(opusCodec{})
}

// opusCodec writes Ogg/Opus. Opus only runs at a handful of rates, so input is resampled to 48kHz first and decoded
// audio comes back at 48kHz.
type opusCodec struct{}

func (opusCodec) Name() string      { return "opus" }
func (opusCodec) Extension() string { return ".opus" }

func (opusCodec) Encode(w io.WriteSeeker, buf SampleBuffer, sampleRate int) error {
	if len(buf) == 0 {
		return ErrEmptyBuffer
	}

	body := buf
	if sampleRate != opusSampleRate {
		resampled, err := resample(buf, sampleRate, opusSampleRate)
		if err != nil {
			return err
		}

		body = resampled
	}

	// Lead with silence that decoders drop as pre-skip, then pad the tail to whole frames plus one. Granule positions
	// mark the start of each packet, so the final frame is trimmed on decode.
	pcm := make(SampleBuffer, opusPreSkip, opusPreSkip+len(body)+2*opusFrameSize)
	pcm = append(pcm, body...)

	if rem := len(pcm) % opusFrameSize; rem != 0 {
		pcm = append(pcm, make(SampleBuffer, opusFrameSize-rem)...)
	}

	pcm = append(pcm, make(SampleBuffer, opusFrameSize)...)

	enc, err := opus.NewEncoder(opusSampleRate, 1, opus.AppAudio)
	if err != nil {
		return fmt.Errorf("failed to create opus encoder: %w", err)
	}

	if err := enc.SetBitrate(opusBitrate); err != nil {
		return fmt.Errorf("failed to set opus bitrate: %w", err)
	}

	// Only hand oggwriter a plain writer so it never closes or seeks the caller's file.
	ogg, err := oggwriter.NewWith(struct{ io.Writer }{w}, opusSampleRate, 1)
	if err != nil {
		return fmt.Errorf("failed to create ogg writer: %w", err)
	}

	data := make([]byte, opusMaxPacket)

	for frameIdx := 0; frameIdx*opusFrameSize < len(pcm); frameIdx++ {
		start := frameIdx * opusFrameSize

		n, err := enc.Encode(pcm[start:start+opusFrameSize], data)
		if err != nil {
			return fmt.Errorf("failed to encode opus frame %d: %w", frameIdx, err)
		}

		packet := &rtp.Packet{
			Header: rtp.Header{
				Version:        2,
				PayloadType:    opusPayloadType,
				SequenceNumber: uint16(frameIdx),
				Timestamp:      uint32(start),
			},
			Payload: append([]byte(nil), data[:n]...),
		}

		if err := ogg.WriteRTP(packet); err != nil {
			return fmt.Errorf("failed to write ogg page for frame %d: %w", frameIdx, err)
		}
	}

	if err := ogg.Close(); err != nil {
		return fmt.Errorf("failed to finish ogg stream: %w", err)
	}

	return nil
}

func (opusCodec) Decode(r io.Reader) (SampleBuffer, int, error) {
	stream, err := opus.NewStream(r)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open opus stream: %w", err)
	}
	defer stream.Close()

	var (
		result SampleBuffer
		pcm    = make([]int16, opusFrameSize*6)
	)

	for {
		n, err := stream.Read(pcm)
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return nil, 0, fmt.Errorf("failed to read opus stream: %w", err)
		}

		result = append(result, pcm[:n]...)
	}

	return result, opusSampleRate, nil
}
