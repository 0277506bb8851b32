package alert

import (
	"context"
	"fmt"
	"os/exec"

	"wildwatch/internal/logger"
)

// Watchlist answers whether a label should trigger the local alert.
type Watchlist interface {
	IsWatchlisted(ctx context.Context, name string) (bool, error)
}

// Player starts playback of an audio clip and returns without waiting for it.
type Player interface {
	Play(clipPath string) error
}

// Sounder plays the alert clip for watchlisted labels.
type Sounder struct {
	watchlist Watchlist
	player    Player
	clipPath  string
	logger    *logger.Logger
}

// NewSounder creates a Sounder playing clipPath through player.
func NewSounder(watchlist Watchlist, player Player, clipPath string, logger *logger.Logger) *Sounder {
	return &Sounder{
		watchlist: watchlist,
		player:    player,
		clipPath:  clipPath,
		logger:    logger,
	}
}

// MaybeAlert checks the watchlist as it is now and starts playback when label
// is on it. It reports whether playback was started. Failures are logged.
func (s *Sounder) MaybeAlert(ctx context.Context, label string) bool {
	listed, err := s.watchlist.IsWatchlisted(ctx, label)
	if err != nil {
		s.logger.Error("Watchlist lookup for %s failed: %v", label, err)
		return false
	}
	if !listed {
		return false
	}

	if err := s.player.Play(s.clipPath); err != nil {
		s.logger.Error("Alert playback failed: %v", err)
		return false
	}
	s.logger.Warning("🔔 Unwanted animal detected: %s", label)
	return true
}

// ExecPlayer plays clips by launching an external command such as aplay.
type ExecPlayer struct {
	command string
	args    []string
	logger  *logger.Logger
}

// NewExecPlayer creates a player running "command args... clip".
func NewExecPlayer(command string, logger *logger.Logger, args ...string) *ExecPlayer {
	return &ExecPlayer{command: command, args: args, logger: logger}
}

// Play starts the player process and reaps it in the background.
// Overlapping calls play concurrently.
func (p *ExecPlayer) Play(clipPath string) error {
	args := append(append([]string(nil), p.args...), clipPath)
	cmd := exec.Command(p.command, args...)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", p.command, err)
	}

	go func() {
		if err := cmd.Wait(); err != nil {
			p.logger.Warning("%s exited with error: %v", p.command, err)
		}
	}()
	return nil
}
