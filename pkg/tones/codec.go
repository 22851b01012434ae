package tones

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
)

const (
	DefaultCodec = "flac"

	resampleQuality = 4
)

var (
	ErrEncoding     = errors.New("encoding error")
	ErrIO           = errors.New("i/o error")
	ErrEmptyBuffer  = errors.New("empty sample buffer")
	ErrUnknownCodec = errors.New("unknown codec")
)

// Codec turns a mono 16-bit SampleBuffer into an audio container and back.
type Codec interface {
	Name() string
	Extension() string
	Encode(w io.WriteSeeker, buf SampleBuffer, sampleRate int) error
	Decode(r io.Reader) (SampleBuffer, int, error)
}

//nolint:gochecknoglobals
var (
	codecMutex sync.RWMutex
	codecs     = map[string]Codec{}
)

func registerCodec(codec Codec) {
	codecMutex.Lock()
	defer codecMutex.Unlock()

	codecs[codec.Name()] = codec
}

// LookupCodec returns the registered codec called name.
func LookupCodec(name string) (Codec, error) {
	codecMutex.RLock()
	defer codecMutex.RUnlock()

	codec, ok := codecs[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %s)", ErrUnknownCodec, name, strings.Join(codecNamesLocked(), ", "))
	}

	return codec, nil
}

// CodecNames lists the registered codec names in sorted order.
func CodecNames() []string {
	codecMutex.RLock()
	defer codecMutex.RUnlock()

	return codecNamesLocked()
}

func codecNamesLocked() []string {
	names := make([]string, 0, len(codecs))
	for name := range codecs {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

func codecForExtension(ext string) (Codec, bool) {
	codecMutex.RLock()
	defer codecMutex.RUnlock()

	for _, codec := range codecs {
		if strings.EqualFold(codec.Extension(), ext) {
			return codec, true
		}
	}

	return nil, false
}

// EncodeAndWrite encodes buf with codec and writes it to outputPath, creating parent directories as needed. Any
// existing file at outputPath is replaced. Codec failures wrap ErrEncoding; filesystem failures wrap ErrIO.
func EncodeAndWrite(buf SampleBuffer, sampleRate int, outputPath string, codec Codec) error {
	if len(buf) == 0 {
		return fmt.Errorf("%w: %s: %w", ErrEncoding, outputPath, ErrEmptyBuffer)
	}

	if sampleRate <= 0 {
		return fmt.Errorf("%w: %s: invalid sample rate %d", ErrEncoding, outputPath, sampleRate)
	}

	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: failed to create output directory %q: %w", ErrIO, dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(outputPath)+".*")
	if err != nil {
		return fmt.Errorf("%w: failed to create temporary file in %q: %w", ErrIO, dir, err)
	}

	tmpName := tmp.Name()

	cleanup := func() {
		if err := os.Remove(tmpName); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Error("Failed to remove temporary file", "path", tmpName, "error", err)
		}
	}

	if err := codec.Encode(tmp, buf, sampleRate); err != nil {
		tmp.Close()
		cleanup()

		return fmt.Errorf("%w: %s: %w", ErrEncoding, outputPath, err)
	}

	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("%w: failed to finish writing %q: %w", ErrIO, outputPath, err)
	}

	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return fmt.Errorf("%w: failed to set permissions on %q: %w", ErrIO, outputPath, err)
	}

	if err := os.Rename(tmpName, outputPath); err != nil {
		cleanup()
		return fmt.Errorf("%w: failed to write %q: %w", ErrIO, outputPath, err)
	}

	slog.Debug("Wrote audio file", "path", outputPath, "codec", codec.Name(), "samples", len(buf))

	return nil
}

// Decode reads the audio file at path back into a mono SampleBuffer, choosing a decoder from the file extension.
// Multi-channel input keeps only the first channel.
func Decode(path string) (SampleBuffer, int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer file.Close()

	ext := filepath.Ext(path)

	if codec, ok := codecForExtension(ext); ok {
		buf, rate, err := codec.Decode(file)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to decode %q as %s: %w", path, codec.Name(), err)
		}

		return buf, rate, nil
	}

	stream, format, err := decodeStream(filepath.Base(path), file)
	if err != nil {
		return nil, 0, err
	}
	defer stream.Close()

	buf, err := collectStream(stream)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read samples from %q: %w", path, err)
	}

	return buf, int(format.SampleRate), nil
}

// decodeStream opens a beep stream for the given file name based on its extension.
func decodeStream(name string, reader io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error) {
	var (
		stream beep.StreamSeekCloser
		format beep.Format
		err    error
	)

	extension := strings.ToLower(filepath.Ext(name))

	switch extension {
	case ".flac":
		stream, format, err = flac.Decode(reader)
		if err != nil {
			return stream, format, fmt.Errorf("failed to decode file as flac: %w", err)
		}
	case ".mp3":
		stream, format, err = mp3.Decode(reader)
		if err != nil {
			return stream, format, fmt.Errorf("failed to decode file as mp3: %w", err)
		}
	case ".ogg":
		stream, format, err = vorbis.Decode(reader)
		if err != nil {
			return stream, format, fmt.Errorf("failed to decode file as ogg: %w", err)
		}
	case ".wav":
		stream, format, err = wav.Decode(reader)
		if err != nil {
			return stream, format, fmt.Errorf("failed to decode file as wav: %w", err)
		}
	default:
		return stream, format, fmt.Errorf("unknown file format/extension: %s", extension)
	}

	return stream, format, nil
}

// resample converts buf between sample rates with beep's resampler.
func resample(buf SampleBuffer, from, to int) (SampleBuffer, error) {
	resampler := beep.Resample(resampleQuality, beep.SampleRate(from), beep.SampleRate(to), streamerFor(buf))

	out, err := collectStream(resampler)
	if err != nil {
		return nil, fmt.Errorf("failed to resample from %dHz to %dHz: %w", from, to, err)
	}

	return out, nil
}

// collectStream drains stream into a SampleBuffer, keeping the left channel.
func collectStream(stream beep.Streamer) (SampleBuffer, error) {
	var (
		result SampleBuffer
		chunk  = make([][2]float64, 4096)
	)

	for {
		n, ok := stream.Stream(chunk)
		for _, frame := range chunk[:n] {
			result = append(result, floatToSample(frame[0]))
		}

		if !ok {
			break
		}
	}

	if err := stream.Err(); err != nil {
		return result, err
	}

	return result, nil
}

// streamerFor exposes buf as a beep.Streamer, duplicating the mono signal onto both channels.
func streamerFor(buf SampleBuffer) beep.Streamer {
	pos := 0

	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		if pos >= len(buf) {
			return 0, false
		}

		n := copy16(samples, buf[pos:])
		pos += n

		return n, true
	})
}

func copy16(dst [][2]float64, src SampleBuffer) int {
	n := min(len(dst), len(src))
	for i := range n {
		value := sampleToFloat(src[i])
		dst[i] = [2]float64{value, value}
	}

	return n
}

// sampleToFloat maps a sample into beep's [-1, 1] range. beep's 16-bit encoders truncate value*MaxSample towards
// zero, so the value is nudged half a step away from zero to land back on the original integer.
func sampleToFloat(sample int16) float64 {
	value := float64(sample)

	switch {
	case value > 0:
		value += 0.5
	case value < 0:
		value -= 0.5
	}

	return max(-1, min(1, value/MaxSample))
}

func floatToSample(value float64) int16 {
	return int16(max(-MaxSample, min(MaxSample, math.Round(value*MaxSample))))
}
