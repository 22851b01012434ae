package tones

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
)

// VerifyTolerance is how far a decoded file's duration may drift from its ToneSpec before verification fails. It
// covers the frame padding added by block-based codecs.
const VerifyTolerance = 30 * time.Millisecond

//nolint:gochecknoglobals
var (
	nameColor    = color.New(color.Bold)
	savedColor   = color.New(color.FgGreen)
	failedColor  = color.New(color.FgRed)
	summaryColor = color.New(color.Faint)
)

type BatchConfig struct {
	OutputDir  string
	SampleRate int
	Amplitude  float64
	Codec      Codec
	Tones      []NamedTone

	// Verify decodes every written file and checks its duration against the tone.
	Verify bool
	// KeepGoing attempts every tone even after a failure. By default the first failure aborts the batch.
	KeepGoing bool

	// Out receives one progress line per step. Nil discards progress.
	Out io.Writer
}

// DefaultBatchConfig returns the fixed UI sound table written as FLAC to DefaultOutputDir.
func DefaultBatchConfig() (*BatchConfig, error) {
	codec, err := LookupCodec(DefaultCodec)
	if err != nil {
		return nil, err
	}

	return &BatchConfig{
		OutputDir:  DefaultOutputDir,
		SampleRate: DefaultSampleRate,
		Amplitude:  DefaultAmplitude,
		Codec:      codec,
		Tones:      DefaultTones(),
	}, nil
}

func (c *BatchConfig) OK() error {
	problems := []string{}

	if c.OutputDir == "" {
		problems = append(problems, "must supply output directory")
	}

	if c.SampleRate <= 0 {
		problems = append(problems, fmt.Sprintf("sample rate must be positive, got %d", c.SampleRate))
	}

	if c.Amplitude < 0 || c.Amplitude > 1 {
		problems = append(problems, fmt.Sprintf("amplitude must be within [0, 1], got %v", c.Amplitude))
	}

	if c.Codec == nil {
		problems = append(problems, "must supply codec")
	}

	if len(c.Tones) == 0 {
		problems = append(problems, "must supply at least one tone")
	}

	seen := map[string]struct{}{}

	for idx, tone := range c.Tones {
		switch {
		case tone.Name == "":
			problems = append(problems, fmt.Sprintf("tone %d has no name", idx))
		case strings.ContainsAny(tone.Name, `/\`) || tone.Name == "." || tone.Name == "..":
			problems = append(problems, fmt.Sprintf("tone name %q must be a plain file name", tone.Name))
		}

		if _, ok := seen[tone.Name]; ok {
			problems = append(problems, fmt.Sprintf("duplicate tone name %q", tone.Name))
		}

		seen[tone.Name] = struct{}{}

		if err := tone.OK(); err != nil {
			problems = append(problems, fmt.Sprintf("tone %q: %v", tone.Name, err))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("options error: %s", strings.Join(problems, "; "))
	}

	return nil
}

// OutputPath is where the tone called name is written.
func (c *BatchConfig) OutputPath(name string) string {
	return filepath.Join(c.OutputDir, name+c.Codec.Extension())
}

type Failure struct {
	Name string
	Err  error
}

type BatchResult struct {
	Written  []string
	Failures []Failure
}

// RunBatch generates and writes every tone in cfg.Tones, in order. Without KeepGoing, the first failure stops the
// batch and is returned. With KeepGoing, all failures are joined into the returned error once every tone has been
// attempted. The result is non-nil whenever the config was valid.
func RunBatch(ctx context.Context, cfg *BatchConfig) (*BatchResult, error) {
	if err := cfg.OK(); err != nil {
		return nil, fmt.Errorf("invalid batch config: %w", err)
	}

	out := cfg.Out
	if out == nil {
		out = io.Discard
	}

	result := &BatchResult{}
	errs := []error{}

	for _, tone := range cfg.Tones {
		if err := ctx.Err(); err != nil {
			errs = append(errs, fmt.Errorf("batch interrupted: %w", err))
			break
		}

		path, err := cfg.generate(out, tone)
		if err != nil {
			slog.Error("Failed to generate tone", "name", tone.Name, "error", err)
			fmt.Fprintf(out, "%s %s: %v\n", failedColor.Sprint("Failed:"), tone.Name, err)

			result.Failures = append(result.Failures, Failure{Name: tone.Name, Err: err})
			errs = append(errs, fmt.Errorf("tone %q: %w", tone.Name, err))

			if !cfg.KeepGoing {
				break
			}

			continue
		}

		result.Written = append(result.Written, path)
	}

	fmt.Fprintln(out, summaryColor.Sprintf("%d written, %d failed", len(result.Written), len(result.Failures)))

	return result, errors.Join(errs...)
}

func (c *BatchConfig) generate(out io.Writer, tone NamedTone) (string, error) {
	path := c.OutputPath(tone.Name)
	fileName := filepath.Base(path)

	fmt.Fprintf(out, "Generating %s: %gHz for %g seconds\n", nameColor.Sprint(fileName), tone.Frequency, tone.Duration)

	samples, err := GenerateSamples(tone.Frequency, tone.Duration, c.SampleRate, c.Amplitude)
	if err != nil {
		return "", err
	}

	if err := EncodeAndWrite(samples, c.SampleRate, path, c.Codec); err != nil {
		return "", err
	}

	if c.Verify {
		if err := verify(path, tone.ToneSpec); err != nil {
			return "", err
		}
	}

	fmt.Fprintf(out, "Saved: %s\n", savedColor.Sprint(path))
	slog.Info("Saved tone", "name", tone.Name, "path", path, "samples", len(samples))

	return path, nil
}

func verify(path string, spec ToneSpec) error {
	decoded, rate, err := Decode(path)
	if err != nil {
		return fmt.Errorf("verification failed: %w", err)
	}

	want := time.Duration(spec.Duration * float64(time.Second))
	got := decoded.Duration(rate)

	if diff := (got - want).Abs(); diff > VerifyTolerance {
		return fmt.Errorf("verification failed: %q plays for %s, expected %s", path, got, want)
	}

	slog.Debug("Verified tone", "path", path, "duration", got, "samples", len(decoded))

	return nil
}
