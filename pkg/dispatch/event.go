package dispatch

import (
	"context"

	"github.com/matzehuels/revgraph/pkg/selection"
)

// Event is a user interface event delivered to the event loop.
type Event interface {
	isEvent()
}

// ClickEvent is a left click on a node. Multi is set when the multi-select
// modifier is held.
type ClickEvent struct {
	ID    string
	Multi bool
}

// MenuEvent is a right click on a node. Reply receives the computed menu on
// the loop goroutine; it must not block.
type MenuEvent struct {
	ID    string
	Reply func(selection.Menu)
}

// ChooseEvent picks an action from a menu previously returned for a
// MenuEvent.
type ChooseEvent struct {
	Menu   selection.Menu
	Action selection.Action
}

// KeyEvent is a keyboard shortcut such as KeyDelete or KeyEscape.
type KeyEvent struct {
	Key string
}

// FocusEvent reports keyboard focus entering (In) or leaving the viewer.
type FocusEvent struct {
	In bool
}

func (ClickEvent) isEvent()  {}
func (MenuEvent) isEvent()   {}
func (ChooseEvent) isEvent() {}
func (KeyEvent) isEvent()    {}
func (FocusEvent) isEvent()  {}

// Handle applies ev. Only a ChooseEvent can fail: the error from
// [Dispatcher.OnChoose] is returned so a front end can report it.
func (d *Dispatcher) Handle(ctx context.Context, ev Event) error {
	switch e := ev.(type) {
	case ClickEvent:
		d.OnClick(ctx, e.ID, e.Multi)
	case MenuEvent:
		m, ok := d.OnMenu(ctx, e.ID)
		if ok && e.Reply != nil {
			e.Reply(m)
		}
	case ChooseEvent:
		return d.OnChoose(ctx, e.Menu, e.Action)
	case KeyEvent:
		d.OnKey(ctx, e.Key)
	case FocusEvent:
		d.OnFocus(e.In)
	}
	return nil
}
