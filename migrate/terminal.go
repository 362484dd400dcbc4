package migrate

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/term"
)

// detectTerminal reports whether w is a terminal and its width in columns.
// Tests replace it to exercise the TTY path.
var detectTerminal = func(w io.Writer) (bool, int) {
	f, ok := w.(*os.File)
	if !ok {
		return false, 0
	}
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return false, 0
	}
	width := 120
	if cols, _, err := term.GetSize(fd); err == nil && cols > 0 {
		width = cols
	}
	return true, width
}

// phaseStatus draws "<Phase> (X.Xs)" right-aligned on a terminal while a
// migration runs. On anything else it stays silent.
type phaseStatus struct {
	out   io.Writer
	isTTY bool
	width int
	start time.Time

	mu    sync.Mutex
	phase string

	ticker   *time.Ticker
	done     chan struct{}
	stopOnce sync.Once
}

func newPhaseStatus(out io.Writer) *phaseStatus {
	isTTY, width := detectTerminal(out)
	s := &phaseStatus{
		out:   out,
		isTTY: isTTY,
		width: min(width, 120),
		start: time.Now(),
		phase: "Migrate",
		done:  make(chan struct{}),
	}
	if isTTY {
		s.ticker = time.NewTicker(100 * time.Millisecond)
		go s.loop()
	}
	return s
}

func (s *phaseStatus) loop() {
	for {
		select {
		case <-s.ticker.C:
			s.draw()
		case <-s.done:
			return
		}
	}
}

// SetPhase changes the label shown next to the timer.
func (s *phaseStatus) SetPhase(phase string) {
	s.mu.Lock()
	s.phase = phase
	s.mu.Unlock()
}

func (s *phaseStatus) text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fmt.Sprintf("%s (%.1fs)", s.phase, time.Since(s.start).Seconds())
}

func (s *phaseStatus) draw() {
	status := s.text()
	// hide cursor, jump to the right edge, back up, write, return, show cursor
	_, _ = fmt.Fprintf(s.out, "\x1B[?25l\x1B[%dG\x1B[%dD%s\r\x1B[?25h", s.width, len(status), status)
}

// Stop ends the updates and clears the status line. It may be called more than once.
func (s *phaseStatus) Stop() {
	s.stopOnce.Do(func() {
		if s.ticker != nil {
			s.ticker.Stop()
			close(s.done)
		}
		if s.isTTY {
			_, _ = fmt.Fprint(s.out, "\x1B[K")
		}
	})
}

// Elapsed returns the time since the status was created.
func (s *phaseStatus) Elapsed() time.Duration {
	return time.Since(s.start)
}

// IsTTY reports whether the status is drawn at all.
func (s *phaseStatus) IsTTY() bool {
	return s.isTTY
}
