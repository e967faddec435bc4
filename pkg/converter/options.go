package converter

import "go.uber.org/zap"

// Options holds the heuristic constants used during conversion.
// SlideGap and SlideSize are tuned against sampled charts only.
type Options struct {
	SlideGap       float64 // Max beat distance between ticks of one slide run
	SlideTolerance float64 // Added to SlideGap to absorb rounding
	SlideSize      float64 // Half-width given to grouped slide points
	NoteSize       float64 // Half-width given to taps
	DefaultBPM     float64 // Tempo when the source declares none
	FallbackBPM    float64 // Metadata tempo when a document has no positive bpm
	TicksPerBeat   int     // Assumed when #REQUEST does not say otherwise
}

// DefaultOptions returns the stock conversion constants
func DefaultOptions() Options {
	return Options{
		SlideGap:       0.25,
		SlideTolerance: 1e-6,
		SlideSize:      1.5,
		NoteSize:       1.5,
		DefaultBPM:     120.0,
		FallbackBPM:    180.0,
		TicksPerBeat:   480,
	}
}

// Option configures a Converter
type Option func(*Converter)

// WithOptions replaces the conversion constants
func WithOptions(opts Options) Option {
	return func(c *Converter) {
		c.opts = opts
	}
}

// WithLogger attaches a logger
func WithLogger(log *zap.Logger) Option {
	return func(c *Converter) {
		if log != nil {
			c.log = log.Named("converter")
		}
	}
}
