// Package player launches mpv on a resolved stream and tracks playback
// position over mpv's JSON IPC socket.
package player

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"time"

	"github.com/pkg/errors"

	"github.com/nautilus-cli/nautilus/internal/models"
	"github.com/nautilus-cli/nautilus/internal/util"
)

const (
	socketWaitAttempts = 30
	socketWaitStep     = 100 * time.Millisecond
	positionPollEvery  = time.Second
)

// Options shape one playback session.
type Options struct {
	// Binary is the player executable, "mpv" when empty.
	Binary string
	// Title shows in the player window and OSD.
	Title string
	// StartAt resumes playback at a "HH:MM:SS" position when set.
	StartAt string
	// Subtitles are sideloaded subtitle file URLs.
	Subtitles []string
	// ExtraArgs pass through to the player untouched.
	ExtraArgs []string
}

// Session is one running player process with its IPC socket.
type Session struct {
	cmd        *exec.Cmd
	socketPath string
	stderr     *bytes.Buffer

	// lastPosition is the most recent time-pos the poll loop observed.
	lastPosition time.Duration
}

// Launch starts the player on the stream and waits for its IPC socket to
// come up.
func Launch(stream models.Stream, opts Options) (*Session, error) {
	binary := opts.Binary
	if binary == "" {
		binary = "mpv"
	}
	if _, err := exec.LookPath(binary); err != nil {
		return nil, errors.Errorf("%s not found in PATH, install it from https://mpv.io/installation/", binary)
	}

	socketPath := newSocketPath()
	args := []string{
		"--no-terminal",
		"--quiet",
		fmt.Sprintf("--input-ipc-server=%s", socketPath),
	}
	if opts.Title != "" {
		args = append(args, fmt.Sprintf("--force-media-title=%s", opts.Title))
	}
	if opts.StartAt != "" && opts.StartAt != "00:00:00" {
		args = append(args, fmt.Sprintf("--start=%s", opts.StartAt))
	}
	for _, sub := range opts.Subtitles {
		args = append(args, fmt.Sprintf("--sub-file=%s", sub))
	}
	args = append(args, opts.ExtraArgs...)
	args = append(args, stream.URL)

	util.Debug("starting player", "binary", binary, "args", args)

	cmd := exec.Command(binary, args...)
	setProcessGroup(cmd)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, errors.Wrapf(err, "starting %s (stderr: %s)", binary, stderr.String())
	}

	session := &Session{cmd: cmd, socketPath: socketPath, stderr: &stderr}
	if err := session.waitForSocket(); err != nil {
		_ = cmd.Process.Kill()
		return nil, err
	}
	return session, nil
}

func newSocketPath() string {
	nonce := fmt.Sprintf("%x", time.Now().UnixNano())
	if runtime.GOOS == "windows" {
		return fmt.Sprintf(`\\.\pipe\nautilus_mpvsocket_%s`, nonce)
	}
	return fmt.Sprintf("%s/nautilus_mpvsocket_%s", os.TempDir(), nonce)
}

func (s *Session) waitForSocket() error {
	for i := 0; i < socketWaitAttempts; i++ {
		if socketExists(s.socketPath) {
			return nil
		}
		if s.cmd.ProcessState != nil && s.cmd.ProcessState.Exited() {
			return errors.Errorf("player exited before the IPC socket came up: %s", s.stderr.String())
		}
		time.Sleep(socketWaitStep)
	}
	return errors.New("timed out waiting for the player IPC socket")
}

// SocketPath returns the IPC socket path for sibling consumers, such as
// the presence updater.
func (s *Session) SocketPath() string {
	return s.socketPath
}

// Position returns the current playback position. mpv reports
// "property unavailable" during startup; that surfaces as an error and the
// caller keeps the last good value.
func (s *Session) Position() (time.Duration, error) {
	value, err := sendCommand(s.socketPath, []any{"get_property", "time-pos"})
	if err != nil {
		return 0, err
	}
	seconds, ok := value.(float64)
	if !ok {
		return 0, errors.Errorf("unexpected time-pos payload %T", value)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

// Duration returns the total stream duration as mpv sees it.
func (s *Session) Duration() (time.Duration, error) {
	value, err := sendCommand(s.socketPath, []any{"get_property", "duration"})
	if err != nil {
		return 0, err
	}
	seconds, ok := value.(float64)
	if !ok {
		return 0, errors.Errorf("unexpected duration payload %T", value)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

// Wait blocks until the player exits or the context is canceled, polling
// the playback position along the way. It returns the last observed
// position as "HH:MM:SS" for the history store.
func (s *Session) Wait(ctx context.Context) (string, error) {
	done := make(chan error, 1)
	go func() { done <- s.cmd.Wait() }()

	ticker := time.NewTicker(positionPollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.Quit()
			<-done
			return FormatPosition(s.lastPosition), ctx.Err()
		case <-done:
			// A non-zero exit after the user closes the window is normal.
			return FormatPosition(s.lastPosition), nil
		case <-ticker.C:
			if pos, err := s.Position(); err == nil && pos > 0 {
				s.lastPosition = pos
			}
		}
	}
}

// Quit asks the player to exit; the process is killed if it does not
// comply.
func (s *Session) Quit() {
	if _, err := sendCommand(s.socketPath, []any{"quit"}); err != nil {
		_ = s.cmd.Process.Kill()
	}
}

// FormatPosition renders a playback position as "HH:MM:SS".
func FormatPosition(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Seconds())
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}

// ParsePosition reads a "HH:MM:SS" position back into a duration.
func ParsePosition(s string) (time.Duration, error) {
	var h, m, sec int
	if _, err := fmt.Sscanf(s, "%d:%d:%d", &h, &m, &sec); err != nil {
		return 0, errors.Wrapf(err, "parsing position %q", s)
	}
	if m < 0 || m > 59 || sec < 0 || sec > 59 || h < 0 {
		return 0, errors.Errorf("position %q out of range", s)
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(sec)*time.Second, nil
}
