package audio

import (
	"fmt"
	"time"
)

// Reason classifies a quality failure. Quality failures are the only
// failures the pipeline retries against the same candidate.
type Reason string

const (
	ReasonTooShort       Reason = "too_short"
	ReasonTooMuchSilence Reason = "too_much_silence"
	ReasonStatic         Reason = "static"
)

// ValidationError reports which check failed and the measured value that
// tripped it.
type ValidationError struct {
	Reason       Reason
	Duration     time.Duration
	SilenceRatio float64
	CrossingRate float64
}

func (e *ValidationError) Error() string {
	switch e.Reason {
	case ReasonTooShort:
		return fmt.Sprintf("audio too short: %v", e.Duration)
	case ReasonTooMuchSilence:
		return fmt.Sprintf("audio mostly silent: silence ratio %.3f", e.SilenceRatio)
	case ReasonStatic:
		return fmt.Sprintf("audio looks like static: zero-crossing rate %.3f", e.CrossingRate)
	default:
		return "audio validation failed"
	}
}

// ReasonOf extracts the quality-failure reason from an error, or "" when the
// error is not a validation failure.
func ReasonOf(err error) Reason {
	if verr, ok := err.(*ValidationError); ok {
		return verr.Reason
	}
	return ""
}

// Validate decides whether a decoded buffer is actually speech. Checks run
// in order and short-circuit on first failure:
//
//  1. duration >= profile.MinDuration, else TooShort
//  2. silence ratio <= profile.MaxSilenceRatio, else TooMuchSilence
//  3. zero-crossing rate <= profile.StaticThreshold, else Static
//
// Pure function over the buffer and profile; thresholds are inclusive.
func Validate(buf *Buffer, profile Profile) error {
	duration := buf.Duration()
	if len(buf.Samples) == 0 || duration < profile.MinDuration {
		return &ValidationError{Reason: ReasonTooShort, Duration: duration}
	}

	total := len(buf.Samples)
	silent := 0
	crossings := 0
	prevSign := buf.Samples[0] < 0
	for i, s := range buf.Samples {
		// abs in int32: -s overflows int16 at the negative full-scale sample
		amp := int32(s)
		if amp < 0 {
			amp = -amp
		}
		if amp < int32(profile.SilenceAmplitude) {
			silent++
		}
		sign := buf.Samples[i] < 0
		if i > 0 && sign != prevSign {
			crossings++
		}
		prevSign = sign
	}

	silenceRatio := float64(silent) / float64(total)
	if silenceRatio > profile.MaxSilenceRatio {
		return &ValidationError{Reason: ReasonTooMuchSilence, Duration: duration, SilenceRatio: silenceRatio}
	}

	// Speech has a modest zero-crossing rate; broadband static crosses zero
	// on nearly every sample.
	crossingRate := float64(crossings) / float64(total-1)
	if crossingRate > profile.StaticThreshold {
		return &ValidationError{Reason: ReasonStatic, Duration: duration, SilenceRatio: silenceRatio, CrossingRate: crossingRate}
	}

	return nil
}
