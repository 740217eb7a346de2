package display

import "github.com/sweeney/matrix-clock/internal/logic"

// Frame is one recorded Render call.
type Frame struct {
	Text string
	Mode logic.Mode
}

// Fake records rendered frames for test assertions.
type Fake struct {
	Frames []Frame
}

// NewFake creates a Fake renderer.
func NewFake() *Fake {
	return &Fake{}
}

// Render records the frame.
func (f *Fake) Render(text string, mode logic.Mode) {
	f.Frames = append(f.Frames, Frame{Text: text, Mode: mode})
}

// Last returns the most recent frame, or the zero Frame.
func (f *Fake) Last() Frame {
	if len(f.Frames) == 0 {
		return Frame{}
	}
	return f.Frames[len(f.Frames)-1]
}

// Reset clears recorded frames.
func (f *Fake) Reset() {
	f.Frames = nil
}
