package tones_test

import (
	"crypto/md5"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/mewkiz/flac"
	"github.com/stretchr/testify/require"

	"github.com/cneill/devtools/pkg/tones"
)

func TestLookupCodec(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"flac", "wav", "ulaw", "FLAC"} {
		codec, err := tones.LookupCodec(name)
		require.NoError(t, err, name)
		require.NotNil(t, codec)
	}

	_, err := tones.LookupCodec("mp3")
	require.ErrorIs(t, err, tones.ErrUnknownCodec)

	require.Contains(t, tones.CodecNames(), "flac")
	require.Contains(t, tones.CodecNames(), "wav")
}

func TestEncodeAndWrite_LosslessRoundTrip(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"flac", "wav"} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			codec, err := tones.LookupCodec(name)
			require.NoError(t, err)

			// Longer than one FLAC block, with a trailing partial block and a run of silence.
			samples, err := tones.GenerateSamples(700, 0.3, 44100, 0.5)
			require.NoError(t, err)

			samples = append(samples, make(tones.SampleBuffer, 5000)...)
			samples = append(samples, tones.MaxSample, -tones.MaxSample, 1, -1)

			path := filepath.Join(t.TempDir(), "nested", "dir", "tone"+codec.Extension())
			require.NoError(t, tones.EncodeAndWrite(samples, 44100, path, codec))

			decoded, rate, err := tones.Decode(path)
			require.NoError(t, err)
			require.Equal(t, 44100, rate)

			if name == "flac" {
				require.Equal(t, samples, decoded)
				return
			}

			// beep converts through float64 on both sides of the wav codec.
			require.Len(t, decoded, len(samples))

			for i := range samples {
				require.InDelta(t, samples[i], decoded[i], 1, "sample %d", i)
			}
		})
	}
}

func TestEncodeAndWrite_Overwrites(t *testing.T) {
	t.Parallel()

	codec, err := tones.LookupCodec("flac")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "tone.flac")
	require.NoError(t, os.WriteFile(path, []byte("not audio"), 0o644))

	samples, err := tones.GenerateSamples(500, 0.05, 44100, 0.5)
	require.NoError(t, err)
	require.NoError(t, tones.EncodeAndWrite(samples, 44100, path, codec))

	decoded, _, err := tones.Decode(path)
	require.NoError(t, err)
	require.Equal(t, samples, decoded)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temporary files should not be left behind")
}

func TestEncodeAndWrite_DefaultCodecStreamInfo(t *testing.T) {
	t.Parallel()

	codec, err := tones.LookupCodec(tones.DefaultCodec)
	require.NoError(t, err)

	samples, err := tones.GenerateSamples(600, 0.2, 44100, 0.5)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "select"+codec.Extension())
	require.NoError(t, tones.EncodeAndWrite(samples, 44100, path, codec))

	stream, err := flac.ParseFile(path)
	require.NoError(t, err)

	defer stream.Close()

	raw := make([]byte, len(samples)*2)
	for i, sample := range samples {
		binary.LittleEndian.PutUint16(raw[i*2:], uint16(sample))
	}

	require.Equal(t, uint64(len(samples)), stream.Info.NSamples)
	require.Equal(t, md5.Sum(raw), stream.Info.MD5sum, "encoder fills in the STREAMINFO checksum")
}

func TestEncodeAndWrite_EmptyBuffer(t *testing.T) {
	t.Parallel()

	codec, err := tones.LookupCodec("wav")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "empty.wav")

	err = tones.EncodeAndWrite(tones.SampleBuffer{}, 44100, path, codec)
	require.ErrorIs(t, err, tones.ErrEncoding)
	require.ErrorIs(t, err, tones.ErrEmptyBuffer)

	_, statErr := os.Stat(path)
	require.ErrorIs(t, statErr, os.ErrNotExist)
}

func TestEncodeAndWrite_UnwritablePath(t *testing.T) {
	t.Parallel()

	codec, err := tones.LookupCodec("flac")
	require.NoError(t, err)

	// A regular file where a parent directory should be.
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	err = tones.EncodeAndWrite(tones.SampleBuffer{1, 2, 3}, 44100, filepath.Join(blocker, "tone.flac"), codec)
	require.ErrorIs(t, err, tones.ErrIO)
	require.NotErrorIs(t, err, tones.ErrEncoding)
}

func TestDecode_UnknownExtension(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "tone.xyz")
	require.NoError(t, os.WriteFile(path, []byte("data"), 0o644))

	_, _, err := tones.Decode(path)
	require.Error(t, err)
}

func TestUlaw_RoundTrip(t *testing.T) {
	t.Parallel()

	codec, err := tones.LookupCodec("ulaw")
	require.NoError(t, err)

	t.Run("native rate", func(t *testing.T) {
		t.Parallel()

		samples, err := tones.GenerateSamples(600, 0.2, 8000, 0.5)
		require.NoError(t, err)

		path := filepath.Join(t.TempDir(), "select.ul")
		require.NoError(t, tones.EncodeAndWrite(samples, 8000, path, codec))

		info, err := os.Stat(path)
		require.NoError(t, err)
		require.Equal(t, int64(len(samples)), info.Size(), "one byte per sample")

		decoded, rate, err := tones.Decode(path)
		require.NoError(t, err)
		require.Equal(t, 8000, rate)
		require.Len(t, decoded, len(samples))

		// Companding keeps loudness even though individual samples move.
		require.InEpsilon(t, samples.RMS(), decoded.RMS(), 0.05)
	})

	t.Run("resampled", func(t *testing.T) {
		t.Parallel()

		samples, err := tones.GenerateSamples(600, 0.2, 44100, 0.5)
		require.NoError(t, err)

		path := filepath.Join(t.TempDir(), "select.ul")
		require.NoError(t, tones.EncodeAndWrite(samples, 44100, path, codec))

		decoded, rate, err := tones.Decode(path)
		require.NoError(t, err)
		require.Equal(t, 8000, rate)
		require.InDelta(t, samples.Duration(44100), decoded.Duration(rate), float64(tones.VerifyTolerance))
	})
}
