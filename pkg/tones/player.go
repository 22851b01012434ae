package tones

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

var ErrSoundNotFound = errors.New("sound not found")

type Sound struct {
	Name   string
	Format beep.Format
	Buffer *beep.Buffer
}

// Player buffers decoded sounds and plays them through the default output device.
type Player struct {
	soundMutex sync.RWMutex
	soundMap   map[string]*Sound

	speakerOnce sync.Once
	speakerErr  error
}

func NewPlayer() *Player {
	return &Player{
		soundMap: map[string]*Sound{},
	}
}

// AddSound decodes the file at path and stores it under its base name.
func (p *Player) AddSound(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	name := filepath.Base(path)

	stream, format, err := decodeStream(name, file)
	if err != nil {
		file.Close()
		return fmt.Errorf("failed to get stream: %w", err)
	}

	buffer := beep.NewBuffer(format)
	buffer.Append(stream)

	if err := stream.Close(); err != nil {
		return fmt.Errorf("failed to close audio stream after buffering: %w", err)
	}

	p.soundMutex.Lock()
	p.soundMap[name] = &Sound{
		Name:   name,
		Format: format,
		Buffer: buffer,
	}
	p.soundMutex.Unlock()

	slog.Debug("Added sound", "name", name, "sample_rate", format.SampleRate)

	return nil
}

// AddDir adds every decodable file directly inside dir. Files that fail to decode are logged and skipped.
func (p *Player) AddDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to list sounds in %q: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		if err := p.AddSound(path); err != nil {
			slog.Error("Failed to add sound", "path", path, "error", err)
		}
	}

	return nil
}

// Names lists the loaded sounds in sorted order.
func (p *Player) Names() []string {
	p.soundMutex.RLock()
	defer p.soundMutex.RUnlock()

	return p.namesLocked()
}

func (p *Player) namesLocked() []string {
	names := make([]string, 0, len(p.soundMap))
	for name := range p.soundMap {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

// GetSound looks name up as a file name first, then as a file name without its extension ("select" finds
// "select.flac").
func (p *Player) GetSound(name string) (*Sound, error) {
	p.soundMutex.RLock()
	defer p.soundMutex.RUnlock()

	if sound, ok := p.soundMap[name]; ok {
		return sound, nil
	}

	for _, candidate := range p.namesLocked() {
		if strings.TrimSuffix(candidate, filepath.Ext(candidate)) == name {
			return p.soundMap[candidate], nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrSoundNotFound, name)
}

// PlaySound plays the named sound and blocks until it finishes or ctx is done. The speaker is initialised with the
// sample rate of the first sound played; later sounds at a different rate are resampled.
func (p *Player) PlaySound(ctx context.Context, name string) error {
	sound, err := p.GetSound(name)
	if err != nil {
		return err
	}

	if err := p.initSpeaker(sound.Format.SampleRate); err != nil {
		return err
	}

	done := make(chan struct{})

	var stream beep.Streamer = sound.Buffer.Streamer(0, sound.Buffer.Len())
	if rate := p.speakerRate(); rate != 0 && rate != sound.Format.SampleRate {
		stream = beep.Resample(resampleQuality, sound.Format.SampleRate, rate, stream)
	}

	ctrl := &beep.Ctrl{Streamer: beep.Seq(stream, beep.Callback(func() {
		close(done)
	}))}

	speaker.Play(ctrl)

	select {
	case <-ctx.Done():
		speaker.Lock()
		ctrl.Streamer = nil
		speaker.Unlock()

		return fmt.Errorf("context error: %w", ctx.Err())
	case <-done:
		return nil
	}
}

func (p *Player) Close() {
	p.soundMutex.Lock()
	defer p.soundMutex.Unlock()

	clear(p.soundMap)
}

//nolint:gochecknoglobals
var (
	speakerMutex    sync.Mutex
	initializedRate beep.SampleRate
)

func (p *Player) initSpeaker(rate beep.SampleRate) error {
	p.speakerOnce.Do(func() {
		speakerMutex.Lock()
		defer speakerMutex.Unlock()

		if initializedRate != 0 {
			return
		}

		if err := speaker.Init(rate, rate.N(time.Second/20)); err != nil {
			p.speakerErr = fmt.Errorf("failed to initialize speaker: %w", err)
			return
		}

		initializedRate = rate
	})

	return p.speakerErr
}

func (p *Player) speakerRate() beep.SampleRate {
	speakerMutex.Lock()
	defer speakerMutex.Unlock()

	return initializedRate
}
