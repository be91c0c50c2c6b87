package app

// Player plays the background music and interface sounds. Playback itself
// lives outside this package; the orchestrator only reports what happened.
type Player interface {
	// TogglePause pauses or resumes the music.
	TogglePause()
	// Confirm is cued when a choice is accepted.
	Confirm()
	// Cancel is cued when a screen is dismissed.
	Cancel()
	// Scroll is cued when a cursor moves.
	Scroll()
}

type nopPlayer struct{}

func (nopPlayer) TogglePause() {}
func (nopPlayer) Confirm()     {}
func (nopPlayer) Cancel()      {}
func (nopPlayer) Scroll()      {}
