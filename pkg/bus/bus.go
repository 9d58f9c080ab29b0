package bus

import (
	"sync"

	"github.com/google/uuid"

	"menuscript/pkg/errs"
)

const defaultBufferSize = 100

type objectKind int

const (
	objectMenu objectKind = iota
	objectActions
)

type exported struct {
	kind        objectKind
	path        string
	menu        MenuModel
	actions     ActionGroup
	unsubscribe func()
}

// MessageBus is an in-process Connection. Exported objects can be looked up
// by path, and every name, export and change is published as an Event.
type MessageBus struct {
	names   map[string]Handle
	owners  map[Handle]string
	objects map[Handle]*exported

	eventSubscribers      map[uint64]chan Event
	nextEventSubscriberID uint64

	done      chan struct{}
	closeOnce sync.Once

	mu sync.RWMutex
}

var _ Connection = (*MessageBus)(nil)

func NewMessageBus() *MessageBus {
	return &MessageBus{
		names:            make(map[string]Handle),
		owners:           make(map[Handle]string),
		objects:          make(map[Handle]*exported),
		eventSubscribers: make(map[uint64]chan Event),
		done:             make(chan struct{}),
	}
}

func newHandle() Handle {
	return Handle(uuid.NewString())
}

func (mb *MessageBus) closed() bool {
	select {
	case <-mb.done:
		return true
	default:
		return false
	}
}

// OwnName claims a well-known name. A name already owned is reported as
// unavailable, matching a DO_NOT_QUEUE request on a real bus.
func (mb *MessageBus) OwnName(name string) (Handle, error) {
	mb.mu.Lock()
	if mb.closed() {
		mb.mu.Unlock()
		return "", errs.New(errs.Unavailable, "bus is closed")
	}
	if _, taken := mb.names[name]; taken {
		mb.mu.Unlock()
		return "", errs.Newf(errs.Unavailable, "name %s is already owned", name)
	}

	h := newHandle()
	mb.names[name] = h
	mb.owners[h] = name
	mb.mu.Unlock()

	mb.publish(Event{Type: EventNameAcquired, Name: name, Handle: h})
	return h, nil
}

func (mb *MessageBus) ReleaseName(h Handle) error {
	mb.mu.Lock()
	name, ok := mb.owners[h]
	if !ok {
		mb.mu.Unlock()
		return errs.Newf(errs.NotFound, "no name owned by handle %s", h)
	}
	delete(mb.owners, h)
	delete(mb.names, name)
	mb.mu.Unlock()

	mb.publish(Event{Type: EventNameReleased, Name: name, Handle: h})
	return nil
}

// HasName reports whether name is currently owned.
func (mb *MessageBus) HasName(name string) bool {
	mb.mu.RLock()
	defer mb.mu.RUnlock()
	_, ok := mb.names[name]
	return ok
}

func (mb *MessageBus) ExportMenu(path string, model MenuModel) (Handle, error) {
	h, err := mb.export(&exported{kind: objectMenu, path: path, menu: model})
	if err != nil {
		return "", err
	}

	unsubscribe := model.SubscribeMenus(func(changes []MenuChange) {
		mb.publish(Event{Type: EventMenuChanged, Path: path, Handle: h, MenuChanges: changes})
	})
	mb.setUnsubscribe(h, unsubscribe)

	mb.publish(Event{Type: EventMenuExported, Path: path, Handle: h})
	return h, nil
}

func (mb *MessageBus) UnexportMenu(h Handle) error {
	obj, err := mb.unexport(h, objectMenu)
	if err != nil {
		return err
	}
	mb.publish(Event{Type: EventMenuUnexported, Path: obj.path, Handle: h})
	return nil
}

func (mb *MessageBus) ExportActions(path string, group ActionGroup) (Handle, error) {
	h, err := mb.export(&exported{kind: objectActions, path: path, actions: group})
	if err != nil {
		return "", err
	}

	unsubscribe := group.SubscribeActions(func(change ActionChange) {
		c := change
		mb.publish(Event{Type: EventActionsChanged, Path: path, Handle: h, ActionChange: &c})
	})
	mb.setUnsubscribe(h, unsubscribe)

	mb.publish(Event{Type: EventActionsExported, Path: path, Handle: h})
	return h, nil
}

func (mb *MessageBus) UnexportActions(h Handle) error {
	obj, err := mb.unexport(h, objectActions)
	if err != nil {
		return err
	}
	mb.publish(Event{Type: EventActionsUnexported, Path: obj.path, Handle: h})
	return nil
}

// Menu returns the menu model exported at path.
func (mb *MessageBus) Menu(path string) (MenuModel, bool) {
	obj, ok := mb.lookup(path, objectMenu)
	if !ok {
		return nil, false
	}
	return obj.menu, true
}

// Actions returns the action group exported at path.
func (mb *MessageBus) Actions(path string) (ActionGroup, bool) {
	obj, ok := mb.lookup(path, objectActions)
	if !ok {
		return nil, false
	}
	return obj.actions, true
}

func (mb *MessageBus) export(obj *exported) (Handle, error) {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	if mb.closed() {
		return "", errs.New(errs.Unavailable, "bus is closed")
	}
	for _, existing := range mb.objects {
		if existing.path == obj.path && existing.kind == obj.kind {
			return "", errs.Newf(errs.DuplicateName, "an object is already exported at %s", obj.path)
		}
	}

	h := newHandle()
	mb.objects[h] = obj
	return h, nil
}

func (mb *MessageBus) setUnsubscribe(h Handle, fn func()) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	if obj, ok := mb.objects[h]; ok {
		obj.unsubscribe = fn
		return
	}
	// Unexported before the subscription landed.
	if fn != nil {
		fn()
	}
}

func (mb *MessageBus) unexport(h Handle, kind objectKind) (*exported, error) {
	mb.mu.Lock()
	obj, ok := mb.objects[h]
	if !ok || obj.kind != kind {
		mb.mu.Unlock()
		return nil, errs.Newf(errs.NotFound, "nothing exported under handle %s", h)
	}
	delete(mb.objects, h)
	mb.mu.Unlock()

	if obj.unsubscribe != nil {
		obj.unsubscribe()
	}
	return obj, nil
}

func (mb *MessageBus) lookup(path string, kind objectKind) (*exported, bool) {
	mb.mu.RLock()
	defer mb.mu.RUnlock()
	for _, obj := range mb.objects {
		if obj.path == path && obj.kind == kind {
			return obj, true
		}
	}
	return nil, false
}

func (mb *MessageBus) Close() {
	mb.closeOnce.Do(func() {
		close(mb.done)

		mb.mu.Lock()
		objects := mb.objects
		mb.objects = make(map[Handle]*exported)
		for id, ch := range mb.eventSubscribers {
			close(ch)
			delete(mb.eventSubscribers, id)
		}
		mb.mu.Unlock()

		for _, obj := range objects {
			if obj.unsubscribe != nil {
				obj.unsubscribe()
			}
		}
	})
}
