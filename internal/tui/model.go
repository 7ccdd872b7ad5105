package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"ragchat/internal/chat"
	"ragchat/internal/domain"
)

const sidebarWidth = 26

// Model is the Bubble Tea model for the multi-session chat UI.
type Model struct {
	svc      *chat.Service
	input    textinput.Model
	viewport viewport.Model
	overview string
	status   string
	ready    bool
	width    int
}

// New creates the chat UI around the service. overview is a short corpus
// description shown under the header.
func New(svc *chat.Service, overview string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question (exit to quit)"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		svc:      svc,
		input:    ti,
		viewport: vp,
		overview: overview,
		status:   "Ready. ctrl+n new chat, ctrl+j/ctrl+k switch, ctrl+x delete.",
	}
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		_, fh := chatBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header+overview, spacer, input frame, status
		vh := msg.Height - reserved - fh
		if vh < 3 {
			vh = 3
		}
		vw := msg.Width - sidebarWidth - 4
		if vw < 20 {
			vw = 20
		}
		m.viewport.Width = vw
		m.viewport.Height = vh
		m.refresh()
		return m, nil
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD:
			return m, tea.Quit
		case tea.KeyCtrlN:
			s := m.svc.Sessions().NewSession(context.Background())
			m.status = fmt.Sprintf("Started %q", s.Name)
			m.refresh()
			return m, nil
		case tea.KeyCtrlJ:
			m.cycle(1)
			return m, nil
		case tea.KeyCtrlK:
			m.cycle(-1)
			return m, nil
		case tea.KeyCtrlX:
			active := m.svc.Sessions().Active()
			m.svc.Sessions().Delete(context.Background(), active.ID)
			m.status = fmt.Sprintf("Deleted %q", active.Name)
			m.refresh()
			return m, nil
		case tea.KeyEnter:
			return m.submit()
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	q := strings.TrimSpace(m.input.Value())
	if q == "" {
		return m, nil
	}
	if low := strings.ToLower(q); low == "exit" || low == "quit" {
		return m, tea.Quit
	}
	m.input.SetValue("")
	active := m.svc.Sessions().Active()
	m.status = "Thinking..."
	// Synchronous by design: one turn is processed to completion before
	// the next is accepted.
	if _, err := m.svc.HandleUserTurn(context.Background(), active.ID, q); err != nil {
		m.status = "Error: " + err.Error()
		return m, nil
	}
	m.status = "Ready."
	m.refresh()
	m.viewport.GotoBottom()
	return m, nil
}

func (m *Model) cycle(dir int) {
	mgr := m.svc.Sessions()
	listed := mgr.List()
	if len(listed) == 0 {
		return
	}
	active := mgr.Active()
	cur := -1
	for i, s := range listed {
		if s.ID == active.ID {
			cur = i
			break
		}
	}
	next := (cur + dir + len(listed)) % len(listed)
	if cur == -1 {
		next = 0
	}
	if err := mgr.Select(listed[next].ID); err == nil {
		m.status = fmt.Sprintf("Switched to %q", listed[next].Name)
		m.refresh()
	}
}

func (m *Model) refresh() {
	m.viewport.SetContent(renderTurns(m.svc.Sessions().Active()))
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("ragchat")
	overview := overviewStyle.Render(m.overview)
	sidebar := sidebarStyle.Render(m.renderSidebar())
	chatBox := chatBoxStyle.Render(m.viewport.View())
	body := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, chatBox)
	input := queryBoxStyle.Width(m.width - 2).Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + overview + "\n" + body + "\n" + input + "\n" + status
}

func (m Model) renderSidebar() string {
	mgr := m.svc.Sessions()
	active := mgr.Active()
	var b strings.Builder
	b.WriteString(sidebarTitleStyle.Render("Chats"))
	b.WriteString("\n")
	listed := mgr.List()
	if len(listed) == 0 && active.Empty() {
		b.WriteString(dimStyle.Render("(no chats yet)"))
		return b.String()
	}
	if active.Empty() {
		b.WriteString(activeItemStyle.Render("* "+active.Name) + "\n")
	}
	for _, s := range listed {
		label := truncate(s.Name, sidebarWidth-4)
		if s.ID == active.ID {
			b.WriteString(activeItemStyle.Render("* "+label) + "\n")
		} else {
			b.WriteString("  " + label + "\n")
		}
	}
	return b.String()
}

func renderTurns(s domain.ChatSession) string {
	if s.Empty() {
		return dimStyle.Render("Ask your documents anything.")
	}
	var b strings.Builder
	for i, turn := range s.Turns {
		if i > 0 {
			b.WriteString("\n\n")
		}
		switch turn.Role {
		case domain.RoleUser:
			b.WriteString(userStyle.Render("You: ") + turn.Content)
		default:
			b.WriteString(assistantStyle.Render("Assistant: ") + turn.Content)
		}
	}
	return b.String()
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}

var (
	headerStyle       = lipgloss.NewStyle().Bold(true)
	overviewStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	chatBoxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	sidebarStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1).Width(sidebarWidth)
	sidebarTitleStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	activeItemStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	userStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	assistantStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	dimStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)
