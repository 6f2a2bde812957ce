package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/revgraph/pkg/canvas"
	"github.com/matzehuels/revgraph/pkg/dispatch"
	"github.com/matzehuels/revgraph/pkg/selection"
)

// headerLines is the number of rows above the node list.
const headerLines = 3

// lineMsg carries one input line from the reader goroutine.
type lineMsg string

// oversizedLineMsg reports an input line discarded for exceeding limit.
type oversizedLineMsg struct{ size, limit int }

// inputClosedMsg reports the end of the input stream.
type inputClosedMsg struct{ err error }

// =============================================================================
// ViewerModel - Interactive graph canvas
// =============================================================================

// ViewerModel is the bubbletea model of the interactive viewer. Input lines
// and terminal events both arrive through Update, so the dispatcher is only
// ever driven from the program's event loop.
type ViewerModel struct {
	ctx    context.Context
	d      *dispatch.Dispatcher
	canvas *canvas.Canvas

	Cursor int
	Height int
	// gen is the canvas generation the cursor belongs to.
	gen int

	// Menu is the open context menu, if any.
	Menu       *selection.Menu
	MenuCursor int

	// Status is the last error shown to the user.
	Status string
	// Err is the input stream error that ended the program.
	Err error
}

// NewViewerModel creates a viewer over cv driven by d.
func NewViewerModel(ctx context.Context, d *dispatch.Dispatcher, cv *canvas.Canvas) ViewerModel {
	return ViewerModel{ctx: ctx, d: d, canvas: cv, Height: 15}
}

func (m ViewerModel) Init() tea.Cmd {
	return nil
}

func (m ViewerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case lineMsg:
		if err := m.d.OnLine(m.ctx, string(msg)); err != nil {
			m.Status = err.Error()
		} else {
			m.Status = ""
		}
		m.syncGeneration()
	case oversizedLineMsg:
		m.Status = m.d.OnOversized(m.ctx, msg.size, msg.limit).Error()
	case inputClosedMsg:
		m.Err = msg.err
		return m, tea.Quit
	case tea.FocusMsg:
		m.d.Handle(m.ctx, dispatch.FocusEvent{In: true})
	case tea.BlurMsg:
		m.d.Handle(m.ctx, dispatch.FocusEvent{In: false})
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-headerLines-2, 3)
		m.canvas.ScrollTo(m.Cursor, m.Height)
	case tea.MouseMsg:
		return m.updateMouse(msg)
	case tea.KeyMsg:
		if m.Menu != nil {
			return m.updateMenu(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

// syncGeneration resets the cursor and closes the menu when a new graph was
// drawn underneath them. A menu whose selection changed is closed too.
func (m *ViewerModel) syncGeneration() {
	if g := m.canvas.Generation(); g != m.gen {
		m.gen = g
		m.Cursor = 0
		m.Menu = nil
	}
	if m.Menu != nil && !m.d.Controller().MenuValid(*m.Menu) {
		m.Menu = nil
	}
}

func (m ViewerModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	n := len(m.canvas.Nodes())
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.Cursor > 0 {
			m.Cursor--
		}
	case "down", "j":
		if m.Cursor < n-1 {
			m.Cursor++
		}
	case "enter":
		m.click(m.Cursor, false)
	case " ":
		m.click(m.Cursor, true)
	case "m", "right":
		m.openMenu(m.Cursor)
	case "delete", "backspace", "x":
		m.d.Handle(m.ctx, dispatch.KeyEvent{Key: dispatch.KeyDelete})
	case "esc":
		m.d.Handle(m.ctx, dispatch.KeyEvent{Key: dispatch.KeyEscape})
	}
	m.canvas.ScrollTo(m.Cursor, m.Height)
	return m, nil
}

func (m ViewerModel) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.MenuCursor > 0 {
			m.MenuCursor--
		}
	case "down", "j":
		if m.MenuCursor < len(m.Menu.Actions)-1 {
			m.MenuCursor++
		}
	case "enter":
		err := m.d.Handle(m.ctx, dispatch.ChooseEvent{Menu: *m.Menu, Action: m.Menu.Actions[m.MenuCursor]})
		if err != nil {
			m.Status = err.Error()
		}
		m.Menu = nil
	case "esc", "q", "left":
		m.Menu = nil
	}
	return m, nil
}

func (m ViewerModel) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Action != tea.MouseActionPress || m.Menu != nil {
		return m, nil
	}
	row := msg.Y - headerLines
	if row < 0 || row >= m.Height {
		return m, nil
	}
	index := m.canvas.View().Offset + row
	if _, ok := m.canvas.NodeAt(index); !ok {
		return m, nil
	}

	m.Cursor = index
	switch msg.Button {
	case tea.MouseButtonLeft:
		m.click(index, msg.Ctrl || msg.Shift)
	case tea.MouseButtonRight:
		m.openMenu(index)
	}
	return m, nil
}

func (m *ViewerModel) click(index int, multi bool) {
	node, ok := m.canvas.NodeAt(index)
	if !ok {
		return
	}
	m.d.Handle(m.ctx, dispatch.ClickEvent{ID: node.ID, Multi: multi})
}

func (m *ViewerModel) openMenu(index int) {
	node, ok := m.canvas.NodeAt(index)
	if !ok {
		return
	}
	m.d.Handle(m.ctx, dispatch.MenuEvent{ID: node.ID, Reply: func(menu selection.Menu) {
		m.Menu = &menu
		m.MenuCursor = 0
	}})
}

func (m ViewerModel) View() string {
	var b strings.Builder

	flow := m.d.Controller().Current()
	if flow == "" {
		flow = "waiting for graph"
	}
	b.WriteString(StyleTitle.Render("Revisions") + " " + StyleHighlight.Render(flow))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("↑/↓ move  ⏎ select  space toggle  m menu  x delete  esc clear  q quit"))
	b.WriteString("\n\n")

	nodes := m.canvas.Nodes()
	start := m.canvas.View().Offset
	end := min(start+m.Height, len(nodes))
	for i := start; i < end; i++ {
		b.WriteString(m.renderNode(i, nodes[i]))
		b.WriteString("\n")
	}

	if m.Menu != nil {
		b.WriteString(m.renderMenu())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(formatStats(len(nodes), len(m.canvas.Edges()), len(m.canvas.Highlighted())))
	if m.Status != "" {
		b.WriteString("  " + StyleWarning.Render(m.Status))
	}
	return b.String()
}

func (m ViewerModel) renderNode(i int, n canvas.Node) string {
	cursor := "  "
	if i == m.Cursor {
		cursor = styleCursor.Render(iconCursor) + " "
	}

	mark, style := iconNode, styleNode
	if n.Selected {
		mark, style = iconSelected, styleSelected
	}
	if selection.SnapshotID(n.ID).IsHead() && !n.Selected {
		style = styleHead
	}

	label := n.Label
	if label != n.ID {
		label = fmt.Sprintf("%s %s", n.Label, StyleDim.Render("("+n.ID+")"))
	}
	return cursor + style.Render(mark+" ") + style.Render(label)
}

func (m ViewerModel) renderMenu() string {
	lines := make([]string, len(m.Menu.Actions))
	for i, a := range m.Menu.Actions {
		if i == m.MenuCursor {
			lines[i] = styleMenuActive.Render(iconCursor + " " + a.Label())
		} else {
			lines[i] = styleMenuItem.Render("  " + a.Label())
		}
	}
	return styleMenu.Render(strings.Join(lines, "\n"))
}
