package sequencer

import (
	"context"
	"math/rand/v2"
	"time"
)

// glyphs replace corrupted characters.
var glyphs = []rune("█▓▒░#@$%&!?*")

// GlitchConfig tunes the cosmetic corruption loop.
type GlitchConfig struct {
	Enabled     bool
	MinInterval time.Duration // Shortest wait between two glitch attempts
	MaxInterval time.Duration // Longest wait between two glitch attempts
	Chance      float64       // Probability that an attempt corrupts the screen
	Ratio       float64       // Fraction of characters replaced
	Flicker     time.Duration // How long the corruption stays visible
}

// DefaultGlitch returns the glitch settings used by New.
func DefaultGlitch() GlitchConfig {
	return GlitchConfig{
		Enabled:     true,
		MinInterval: 400 * time.Millisecond,
		MaxInterval: 1200 * time.Millisecond,
		Chance:      0.35,
		Ratio:       0.2,
		Flicker:     120 * time.Millisecond,
	}
}

// Corrupt replaces roughly ratio of the non-space runes of text with glyphs.
func Corrupt(rng *rand.Rand, text string, ratio float64) string {
	runes := []rune(text)
	for i, r := range runes {
		if r == ' ' {
			continue
		}
		if rng.Float64() < ratio {
			runes[i] = glyphs[rng.IntN(len(glyphs))]
		}
	}
	return string(runes)
}

func glitchLoop(ctx context.Context, cfg GlitchConfig, rng *rand.Rand, screen *buffer, emit func(string)) {
	for {
		wait := cfg.MinInterval
		if spread := cfg.MaxInterval - cfg.MinInterval; spread > 0 {
			wait += time.Duration(rng.Int64N(int64(spread)))
		}
		if wait <= 0 {
			wait = time.Millisecond
		}
		if !pause(ctx, wait) {
			return
		}

		if rng.Float64() >= cfg.Chance {
			continue
		}
		text := screen.get()
		if text == "" {
			continue
		}

		emit(Corrupt(rng, text, cfg.Ratio))
		if !pause(ctx, cfg.Flicker) {
			return
		}
		emit(screen.get())
	}
}

func pause(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
