package term

import (
	"errors"
	"io"
	"os"
	"sync"

	"github.com/creack/pty"

	"github.com/hawser-project/hawser-go/pkg/bridge"
)

// Surface is one PTY-backed terminal. The slave side is handed to the
// byte relay as its local endpoint; the master side belongs to the
// embedding UI for rendered output and key injection.
type Surface struct {
	master *os.File
	tty    *os.File

	mu   sync.Mutex
	cols int
	rows int

	closeOnce sync.Once
	closeErr  error
	onClose   func(*Surface)
}

func newSurface(cols, rows int) (*Surface, error) {
	master, tty, err := pty.Open()
	if err != nil {
		return nil, err
	}
	s := &Surface{master: master, tty: tty, cols: cols, rows: rows}
	if err := pty.Setsize(master, &pty.Winsize{
		Cols: uint16(cols),
		Rows: uint16(rows),
	}); err != nil {
		master.Close()
		tty.Close()
		return nil, err
	}
	return s, nil
}

// Endpoint returns the slave side of the PTY as the relay endpoint.
// The relay takes ownership of closing it.
func (s *Surface) Endpoint() bridge.Endpoint {
	return s.tty
}

// Output reads rendered terminal output, including echo produced by
// the line discipline.
func (s *Surface) Output() io.Reader {
	return s.master
}

// InjectKeys feeds keystrokes into the terminal as if typed. They
// surface on the endpoint side subject to the line discipline.
func (s *Surface) InjectKeys(keys string) error {
	_, err := s.master.WriteString(keys)
	return err
}

// Resize changes the terminal geometry in character cells.
func (s *Surface) Resize(cols, rows int) error {
	if err := pty.Setsize(s.master, &pty.Winsize{
		Cols: uint16(cols),
		Rows: uint16(rows),
	}); err != nil {
		return err
	}
	s.mu.Lock()
	s.cols, s.rows = cols, rows
	s.mu.Unlock()
	return nil
}

// Size returns the current geometry in character cells.
func (s *Surface) Size() (cols, rows int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cols, s.rows
}

// Close releases both sides of the PTY. Safe to call more than once;
// closing the endpoint through the relay first is also fine.
func (s *Surface) Close() error {
	s.closeOnce.Do(func() {
		merr := s.master.Close()
		terr := s.tty.Close()
		if merr != nil {
			s.closeErr = merr
		} else if terr != nil && !errors.Is(terr, os.ErrClosed) {
			s.closeErr = terr
		}
		if s.onClose != nil {
			s.onClose(s)
		}
	})
	return s.closeErr
}
