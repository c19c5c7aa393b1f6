// Package tray provides a system tray menu for picking practice chords.
package tray

import (
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/fretwise/internal/chord"
)

// Tray represents the system tray application.
type Tray struct {
	chords   []chord.Definition
	onMode   func(practice bool)
	onTarget func(key string)
	onOpen   func()
	onQuit   func()
	practice bool
	target   string
	mu       sync.RWMutex

	// Menu items stored for later updates
	menuPractice *systray.MenuItem
	menuStatus   *systray.MenuItem
	menuTargets  map[string]*systray.MenuItem
}

// New creates a new Tray listing chords as practice targets. It starts in
// free play with no target.
func New(chords []chord.Definition) *Tray {
	return &Tray{
		chords:      chords,
		menuTargets: make(map[string]*systray.MenuItem),
	}
}

// OnMode sets the callback for switching between free play and practice.
func (t *Tray) OnMode(fn func(practice bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onMode = fn
}

// OnTarget sets the callback for picking a practice chord.
func (t *Tray) OnTarget(fn func(key string)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onTarget = fn
}

// OnOpen sets the callback for the open-in-browser menu item.
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("Fretwise")
	systray.SetTooltip("Fretwise Chord Trainer")

	t.mu.Lock()
	t.menuPractice = systray.AddMenuItemCheckbox("Practice mode", "Score against the target chord", t.practice)
	menuTarget := systray.AddMenuItem("Target", "Chord to practice")
	for _, d := range t.chords {
		t.menuTargets[d.Key] = menuTarget.AddSubMenuItemCheckbox(d.Name, d.Key, d.Key == t.target)
	}
	systray.AddSeparator()

	t.menuStatus = systray.AddMenuItem("No chord", "Last recognised chord or score")
	t.menuStatus.Disable()
	systray.AddSeparator()

	menuOpen := systray.AddMenuItem("Open in Browser...", "Open the live view")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Fretwise")
	items := t.menuTargets
	t.mu.Unlock()

	for key, item := range items {
		go func(key string, item *systray.MenuItem) {
			for range item.ClickedCh {
				t.handleTarget(key)
			}
		}(key, item)
	}

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuPractice.ClickedCh:
				t.handlePractice()
			case <-menuOpen.ClickedCh:
				t.handleOpen()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

// onExit is called when the system tray is about to exit.
func (t *Tray) onExit() {}

// handlePractice flips between free play and practice.
func (t *Tray) handlePractice() {
	t.mu.Lock()
	t.practice = !t.practice
	practice := t.practice

	if t.menuPractice != nil {
		if practice {
			t.menuPractice.Check()
		} else {
			t.menuPractice.Uncheck()
		}
	}

	callback := t.onMode
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(practice)
	}
}

// handleTarget makes key the only checked target.
func (t *Tray) handleTarget(key string) {
	t.mu.Lock()
	t.target = key
	for k, item := range t.menuTargets {
		if k == key {
			item.Check()
		} else {
			item.Uncheck()
		}
	}
	callback := t.onTarget
	t.mu.Unlock()

	if callback != nil {
		callback(key)
	}
}

// handleOpen handles the open-in-browser menu item click.
func (t *Tray) handleOpen() {
	t.mu.RLock()
	callback := t.onOpen
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetStatus updates the status line, e.g. the matched chord or the score.
func (t *Tray) SetStatus(text string) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuStatus != nil {
		if text == "" {
			t.menuStatus.SetTitle("No chord")
		} else {
			t.menuStatus.SetTitle(text)
		}
	}
}

// Practice reports whether practice mode is selected.
func (t *Tray) Practice() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.practice
}

// Target returns the selected chord key, or "" if none.
func (t *Tray) Target() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.target
}
