package morse

import (
	"fmt"
	"time"
)

// parisUnitMillis is the length in milliseconds of one unit at 1 WPM.
// PARIS is 50 units long, so 60000ms / 50 units.
const parisUnitMillis = 1200

// Timing holds element durations for one keying speed
type Timing struct {
	Dot  time.Duration // tone length of a dot
	Dash time.Duration // tone length of a dash, always 3 dots
	Sym  time.Duration // silence between elements of a character
	Chr  time.Duration // silence between characters, extra gap included
	Wrd  time.Duration // silence between words, extra gap included
}

// unit returns the PARIS unit for a speed, truncated to whole milliseconds
func unit(wpm int) time.Duration {
	return time.Duration(parisUnitMillis/wpm) * time.Millisecond
}

// NewTiming derives standard timing for a speed.
// wpm must be positive; callers validate the supported range.
func NewTiming(wpm int, extraGap time.Duration) Timing {
	u := unit(wpm)
	return Timing{
		Dot:  u,
		Dash: u * 3,
		Sym:  u,
		Chr:  u*3 + extraGap,
		Wrd:  u*7 + extraGap,
	}
}

// NewFarnsworthTiming keys characters at charWPM and stretches the gaps
// between characters and words so the overall rate matches overallWPM.
func NewFarnsworthTiming(charWPM, overallWPM int, extraGap time.Duration) (Timing, error) {
	if charWPM <= 0 || overallWPM <= 0 {
		return Timing{}, fmt.Errorf("%w: character %d WPM, overall %d WPM", ErrInvalidSpeed, charWPM, overallWPM)
	}
	if charWPM <= overallWPM {
		return Timing{}, fmt.Errorf("%w: character speed %d must be greater than overall speed %d",
			ErrInvalidFarnsworth, charWPM, overallWPM)
	}

	charUnit := unit(charWPM)
	overallUnit := unit(overallWPM)

	// PARIS carries 7 units of inter-character and inter-word spacing
	extended := overallUnit*7 - charUnit*6

	return Timing{
		Dot:  charUnit,
		Dash: charUnit * 3,
		Sym:  charUnit,
		Chr:  charUnit*3 + extended + extraGap,
		Wrd:  charUnit*7 + extended*2 + extraGap,
	}, nil
}

// Samples converts a duration to a whole number of samples, truncating.
// Whole seconds and the remainder are scaled separately so long gaps
// cannot overflow.
func (t Timing) Samples(d time.Duration, sampleRate int) int {
	if d <= 0 || sampleRate <= 0 {
		return 0
	}
	rate := int64(sampleRate)
	whole := int64(d/time.Second) * rate
	frac := int64(d%time.Second) * rate / int64(time.Second)
	return int(whole + frac)
}

// String renders the timing in milliseconds, for logs
func (t Timing) String() string {
	return fmt.Sprintf("dot=%dms dash=%dms sym=%dms chr=%dms wrd=%dms",
		t.Dot.Milliseconds(), t.Dash.Milliseconds(), t.Sym.Milliseconds(),
		t.Chr.Milliseconds(), t.Wrd.Milliseconds())
}
