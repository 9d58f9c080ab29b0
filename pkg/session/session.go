// Package session runs an export session: it owns the live menu tree, the
// action registry and the replay queue, and publishes the tree and actions on
// a bus connection. All access goes through a single loop goroutine.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"menuscript/pkg/action"
	"menuscript/pkg/bus"
	"menuscript/pkg/errs"
	"menuscript/pkg/menu"
	"menuscript/pkg/script"
)

const (
	DefaultMenuService = "com.canonical.test.menu"
	DefaultMenuPath    = "/com/canonical/test/menuscript/menu"
)

type State string

const (
	StateUnpublished State = "unpublished"
	StatePublished   State = "published"
	StateStopped     State = "stopped"
)

// Recorder receives session metrics. All methods are called from the session
// loop.
type Recorder interface {
	OperationApplied(kind string)
	OperationFailed(kind, category string)
	ActionActivated(name string)
	Published()
	Unpublished()
	PendingOperations(n int)
}

type Options struct {
	MenuService string
	MenuPath    string
	Logger      *slog.Logger
	Metrics     Recorder
}

// Status is a point-in-time view of the session.
type Status struct {
	State              State    `json:"state"`
	MenuService        string   `json:"menu_service"`
	MenuPath           string   `json:"menu_path"`
	PendingOperations  int      `json:"pending_operations"`
	PendingActivations int      `json:"pending_activations"`
	Nodes              int      `json:"nodes"`
	Actions            []string `json:"actions"`
}

type Session struct {
	conn    bus.Connection
	opts    Options
	log     *slog.Logger
	metrics Recorder

	requests chan func()
	done     chan struct{}
	stopOnce sync.Once

	// Owned by the loop.
	queue         *script.Queue
	tree          *menu.Tree
	actions       *action.Registry
	nameHandle    bus.Handle
	menuHandle    bus.Handle
	actionsHandle bus.Handle
	published     bool
	stopping      bool

	subMu      sync.Mutex
	nextSubID  uint64
	menuSubs   map[uint64]func([]bus.MenuChange)
	actionSubs map[uint64]func(bus.ActionChange)
}

func New(conn bus.Connection, queue *script.Queue, opts Options) (*Session, error) {
	if conn == nil {
		return nil, errors.New("bus connection is required")
	}
	if queue == nil {
		queue = script.NewQueue()
	}
	if opts.MenuService == "" {
		opts.MenuService = DefaultMenuService
	}
	if opts.MenuPath == "" {
		opts.MenuPath = DefaultMenuPath
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = nopRecorder{}
	}

	s := &Session{
		conn:       conn,
		opts:       opts,
		log:        log.With("component", "session"),
		metrics:    metrics,
		requests:   make(chan func()),
		done:       make(chan struct{}),
		queue:      queue,
		menuSubs:   make(map[uint64]func([]bus.MenuChange)),
		actionSubs: make(map[uint64]func(bus.ActionChange)),
	}
	s.reset()
	return s, nil
}

// Run serves requests until Quit is called or ctx ends. The session is left
// unpublished either way.
func (s *Session) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.stop()

	s.metrics.PendingOperations(s.queue.Len())
	for {
		select {
		case <-ctx.Done():
			s.unpublish()
			return nil
		case fn := <-s.requests:
			fn()
			if s.stopping {
				return nil
			}
		}
	}
}

// Done is closed once the loop has exited.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) stop() {
	s.stopOnce.Do(func() { close(s.done) })
}

// do runs fn on the loop and waits for its result.
func (s *Session) do(ctx context.Context, fn func() error) error {
	if ctx == nil {
		ctx = context.Background()
	}

	result := make(chan error, 1)
	select {
	case s.requests <- func() { result <- fn() }:
	case <-s.done:
		return errs.New(errs.InvalidState, "session has stopped")
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Publish saves the queue, builds an empty menu and exports it. Publishing
// while published first unpublishes.
func (s *Session) Publish(ctx context.Context) error {
	return s.do(ctx, s.publish)
}

// Unpublish withdraws the menu and restores the saved queue. It is a no-op
// when nothing is published.
func (s *Session) Unpublish(ctx context.Context) error {
	return s.do(ctx, func() error {
		s.unpublish()
		return nil
	})
}

// Quit unpublishes and stops the loop.
func (s *Session) Quit(ctx context.Context) error {
	return s.do(ctx, func() error {
		s.unpublish()
		s.stopping = true
		s.log.Info("Session stopping")
		return nil
	})
}

// Walk applies the next steps operations; -1 applies all of them. It returns
// how many applied cleanly.
func (s *Session) Walk(ctx context.Context, steps int) (int, error) {
	var applied int
	err := s.do(ctx, func() error {
		var err error
		applied, err = s.walk(steps)
		return err
	})
	return applied, err
}

func (s *Session) PendingCount(ctx context.Context) (int, error) {
	var n int
	err := s.do(ctx, func() error {
		n = s.queue.Len()
		return nil
	})
	return n, err
}

// PopActivatedAction returns the oldest unread activation.
func (s *Session) PopActivatedAction(ctx context.Context) (string, error) {
	var name string
	err := s.do(ctx, func() error {
		var err error
		name, err = s.actions.PopActivatedAction()
		return err
	})
	return name, err
}

func (s *Session) Snapshot(ctx context.Context) (menu.Snapshot, error) {
	var snap menu.Snapshot
	err := s.do(ctx, func() error {
		snap = s.tree.Snapshot()
		return nil
	})
	return snap, err
}

func (s *Session) Status(ctx context.Context) (Status, error) {
	var status Status
	err := s.do(ctx, func() error {
		status = Status{
			State:              StateUnpublished,
			MenuService:        s.opts.MenuService,
			MenuPath:           s.opts.MenuPath,
			PendingOperations:  s.queue.Len(),
			PendingActivations: s.actions.PendingActivations(),
			Nodes:              s.tree.Size(),
			Actions:            s.actions.Names(),
		}
		if s.published {
			status.State = StatePublished
		}
		return nil
	})
	if errs.CategoryOf(err) == errs.InvalidState {
		return Status{State: StateStopped, MenuService: s.opts.MenuService, MenuPath: s.opts.MenuPath}, nil
	}
	return status, err
}

func (s *Session) publish() error {
	if s.published {
		s.log.Info("Menu already published, republishing")
		s.unpublish()
	}

	s.queue.Save()
	s.reset()

	nameHandle, err := s.conn.OwnName(s.opts.MenuService)
	if err != nil {
		return fmt.Errorf("own %s: %w", s.opts.MenuService, err)
	}

	menuHandle, err := s.conn.ExportMenu(s.opts.MenuPath, menuModel{s: s})
	if err != nil {
		s.releaseName(nameHandle)
		return fmt.Errorf("export menu at %s: %w", s.opts.MenuPath, err)
	}

	actionsHandle, err := s.conn.ExportActions(s.opts.MenuPath, actionGroup{s: s})
	if err != nil {
		if unexportErr := s.conn.UnexportMenu(menuHandle); unexportErr != nil {
			s.log.Warn("Failed to unexport menu", "error", unexportErr)
		}
		s.releaseName(nameHandle)
		return fmt.Errorf("export actions at %s: %w", s.opts.MenuPath, err)
	}

	s.nameHandle = nameHandle
	s.menuHandle = menuHandle
	s.actionsHandle = actionsHandle
	s.published = true
	s.metrics.Published()
	s.log.Info("Menu published", "service", s.opts.MenuService, "path", s.opts.MenuPath, "pending", s.queue.Len())
	return nil
}

func (s *Session) unpublish() {
	if !s.published {
		return
	}

	if err := s.conn.UnexportMenu(s.menuHandle); err != nil {
		s.log.Warn("Failed to unexport menu", "error", err)
	}
	if err := s.conn.UnexportActions(s.actionsHandle); err != nil {
		s.log.Warn("Failed to unexport actions", "error", err)
	}
	s.releaseName(s.nameHandle)

	s.nameHandle, s.menuHandle, s.actionsHandle = "", "", ""
	s.published = false
	s.queue.Restore()
	s.metrics.Unpublished()
	s.metrics.PendingOperations(s.queue.Len())
	s.log.Info("Menu unpublished", "pending", s.queue.Len())
}

func (s *Session) releaseName(h bus.Handle) {
	if err := s.conn.ReleaseName(h); err != nil {
		s.log.Warn("Failed to release name", "service", s.opts.MenuService, "error", err)
	}
}

func (s *Session) walk(steps int) (int, error) {
	if !s.published {
		return 0, errs.New(errs.InvalidState, "menu is not published")
	}
	if steps < -1 {
		s.log.Warn("Ignoring walk with negative step count", "steps", steps)
		return 0, nil
	}

	target := script.Target{Tree: s.tree, Actions: s.actions, Log: s.log}
	pending := s.queue.Pending()
	applied, err := s.queue.StepN(target, steps)
	for _, op := range pending[:applied] {
		s.metrics.OperationApplied(op.Kind.String())
		s.log.Debug("Applied operation", "operation", op.String())
	}
	s.metrics.PendingOperations(s.queue.Len())

	if err != nil {
		failed := pending[applied]
		s.metrics.OperationFailed(failed.Kind.String(), errs.CategoryOf(err))
		s.log.Error("Operation failed", "operation", failed.String(), "error", err)
		return applied, fmt.Errorf("%s: %w", failed, err)
	}
	return applied, nil
}

// reset installs a fresh tree and registry. Unread activations survive.
func (s *Session) reset() {
	var carried []action.Activation
	if s.actions != nil {
		carried = s.actions.DrainActivations()
	}

	s.tree = menu.NewTree()
	s.actions = action.NewRegistry()
	s.actions.CarryActivations(carried)

	s.tree.Observe(s.onMenuChange)
	s.actions.Observe(s.onActionChange)
	s.actions.OnActivate(func(a action.Activation) {
		s.metrics.ActionActivated(a.Name)
		s.log.Info("Action activated", "action", a.Name)
	})
}

type nopRecorder struct{}

func (nopRecorder) OperationApplied(string) {}
func (nopRecorder) OperationFailed(string, string) {}
func (nopRecorder) ActionActivated(string) {}
func (nopRecorder) Published() {}
func (nopRecorder) Unpublished() {}
func (nopRecorder) PendingOperations(int) {}
