package tones

import (
	"errors"
	"fmt"
	"math"
	"time"
)

const (
	DefaultSampleRate = 44100
	DefaultAmplitude  = 0.5
	DefaultOutputDir  = "public/sounds"

	// MaxSample is the largest magnitude a generated sample may take. The negative side is clamped to -MaxSample
	// as well so that positive and negative peaks are symmetric.
	MaxSample = math.MaxInt16
)

var ErrInvalidTone = errors.New("invalid tone")

// ToneSpec describes a single synthesized tone.
type ToneSpec struct {
	Frequency float64 `toml:"frequency" yaml:"frequency"` // Hz
	Duration  float64 `toml:"duration" yaml:"duration"`   // seconds
}

func (t ToneSpec) OK() error {
	if t.Frequency <= 0 || math.IsNaN(t.Frequency) || math.IsInf(t.Frequency, 0) {
		return fmt.Errorf("%w: frequency must be positive, got %v", ErrInvalidTone, t.Frequency)
	}

	if t.Duration <= 0 || math.IsNaN(t.Duration) || math.IsInf(t.Duration, 0) {
		return fmt.Errorf("%w: duration must be positive, got %v", ErrInvalidTone, t.Duration)
	}

	return nil
}

// NamedTone ties a ToneSpec to the base name (without extension) of the file it is written to.
type NamedTone struct {
	Name     string `toml:"name" yaml:"name"`
	ToneSpec `yaml:",inline"`
}

// DefaultTones returns the UI sound table: select, add, change and save.
func DefaultTones() []NamedTone {
	return []NamedTone{
		{Name: "select", ToneSpec: ToneSpec{Frequency: 600, Duration: 0.2}},
		{Name: "add", ToneSpec: ToneSpec{Frequency: 700, Duration: 0.3}},
		{Name: "change", ToneSpec: ToneSpec{Frequency: 500, Duration: 0.25}},
		{Name: "save", ToneSpec: ToneSpec{Frequency: 800, Duration: 0.35}},
	}
}

// SampleBuffer holds mono, signed 16-bit PCM samples.
type SampleBuffer []int16

// Duration reports how long the buffer plays for at sampleRate.
func (s SampleBuffer) Duration(sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}

	return time.Duration(len(s)) * time.Second / time.Duration(sampleRate)
}

// RMS returns the root-mean-square amplitude of the buffer.
func (s SampleBuffer) RMS() float64 {
	if len(s) == 0 {
		return 0
	}

	var sum float64

	for _, sample := range s {
		sum += float64(sample) * float64(sample)
	}

	return math.Sqrt(sum / float64(len(s)))
}

// RMSDeviation returns the root-mean-square difference between s and other over their common length.
func (s SampleBuffer) RMSDeviation(other SampleBuffer) float64 {
	n := min(len(s), len(other))
	if n == 0 {
		return 0
	}

	var sum float64

	for i := range n {
		diff := float64(s[i]) - float64(other[i])
		sum += diff * diff
	}

	return math.Sqrt(sum / float64(n))
}

// NumSamples is the number of samples a tone of the given duration occupies at sampleRate.
func NumSamples(duration float64, sampleRate int) int {
	return int(math.Round(float64(sampleRate) * duration))
}

// GenerateSamples synthesizes a sine wave. Sample i is amplitude*MaxSample*sin(2π*frequency*i/sampleRate), rounded
// and clamped to [-MaxSample, MaxSample]. Frequencies at or above the Nyquist limit are not corrected and will alias.
func GenerateSamples(frequency, duration float64, sampleRate int, amplitude float64) (SampleBuffer, error) {
	if err := (ToneSpec{Frequency: frequency, Duration: duration}).OK(); err != nil {
		return nil, err
	}

	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate must be positive, got %d", ErrInvalidTone, sampleRate)
	}

	if amplitude < 0 || amplitude > 1 || math.IsNaN(amplitude) {
		return nil, fmt.Errorf("%w: amplitude must be within [0, 1], got %v", ErrInvalidTone, amplitude)
	}

	numSamples := NumSamples(duration, sampleRate)
	samples := make(SampleBuffer, numSamples)
	step := 2 * math.Pi * frequency / float64(sampleRate)
	scale := amplitude * MaxSample

	for i := range samples {
		value := math.Round(scale * math.Sin(step*float64(i)))
		samples[i] = int16(max(-MaxSample, min(MaxSample, value)))
	}

	return samples, nil
}
