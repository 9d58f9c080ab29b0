// Package control is the remote-callable surface of a menu fixture: publish,
// unpublish, quit, walk and popActivatedAction, with primitive argument types
// only.
package control

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const (
	DefaultService   = "com.canonical.test"
	DefaultPath      = "/com/canonical/test/menuscript"
	DefaultInterface = "com.canonical.test.menuscript"

	defaultCallTimeout = 10 * time.Second
)

// Method names as they appear on the wire.
const (
	MethodPublishMenu        = "publishMenu"
	MethodUnpublishMenu      = "unpublishMenu"
	MethodQuit               = "quit"
	MethodWalk               = "walk"
	MethodPopActivatedAction = "popActivatedAction"
)

// Session is what the surface drives.
type Session interface {
	Publish(ctx context.Context) error
	Unpublish(ctx context.Context) error
	Quit(ctx context.Context) error
	Walk(ctx context.Context, steps int) (int, error)
	PendingCount(ctx context.Context) (int, error)
	PopActivatedAction(ctx context.Context) (string, error)
}

type Surface struct {
	session Session
	log     *slog.Logger
	timeout time.Duration
}

func NewSurface(session Session, log *slog.Logger) *Surface {
	if log == nil {
		log = slog.Default()
	}
	return &Surface{
		session: session,
		log:     log.With("component", "control"),
		timeout: defaultCallTimeout,
	}
}

// WithTimeout bounds how long a remote call waits on the session.
func (s *Surface) WithTimeout(timeout time.Duration) *Surface {
	if timeout > 0 {
		s.timeout = timeout
	}
	return s
}

func (s *Surface) context(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, s.timeout)
}

func (s *Surface) PublishMenu(ctx context.Context) error {
	ctx, cancel := s.context(ctx)
	defer cancel()

	s.log.Debug("Remote call", "method", MethodPublishMenu)
	return s.report(MethodPublishMenu, s.session.Publish(ctx))
}

func (s *Surface) UnpublishMenu(ctx context.Context) error {
	ctx, cancel := s.context(ctx)
	defer cancel()

	s.log.Debug("Remote call", "method", MethodUnpublishMenu)
	return s.report(MethodUnpublishMenu, s.session.Unpublish(ctx))
}

func (s *Surface) Quit(ctx context.Context) error {
	ctx, cancel := s.context(ctx)
	defer cancel()

	s.log.Debug("Remote call", "method", MethodQuit)
	return s.report(MethodQuit, s.session.Quit(ctx))
}

// Walk replays steps operations; -1 replays everything left.
func (s *Surface) Walk(ctx context.Context, steps int32) error {
	ctx, cancel := s.context(ctx)
	defer cancel()

	s.log.Debug("Remote call", "method", MethodWalk, "steps", steps)
	applied, err := s.session.Walk(ctx, int(steps))
	if err == nil {
		s.log.Info("Walked menu script", "requested", steps, "applied", applied)
	}
	return s.report(MethodWalk, err)
}

func (s *Surface) PopActivatedAction(ctx context.Context) (string, error) {
	ctx, cancel := s.context(ctx)
	defer cancel()

	name, err := s.session.PopActivatedAction(ctx)
	return name, s.report(MethodPopActivatedAction, err)
}

// Pending reports how many operations are left to walk.
func (s *Surface) Pending(ctx context.Context) (int, error) {
	ctx, cancel := s.context(ctx)
	defer cancel()

	n, err := s.session.PendingCount(ctx)
	return n, s.report("pending", err)
}

func (s *Surface) report(method string, err error) error {
	if err == nil {
		return nil
	}
	s.log.Warn("Remote call failed", "method", method, "error", err)
	return fmt.Errorf("%s: %w", method, err)
}
