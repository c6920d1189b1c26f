package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	demoTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	agentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	demoHelpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type demoModel struct {
	updates <-chan progressMsg
	bars    []progress.Model
	done    []int
	total   int
	closed  bool
}

type drainedMsg struct{}

func newDemoModel(agents, rounds int, updates <-chan progressMsg) *demoModel {
	bars := make([]progress.Model, agents)
	for i := range bars {
		bars[i] = progress.New(progress.WithDefaultGradient())
	}
	return &demoModel{
		updates: updates,
		bars:    bars,
		done:    make([]int, agents),
		total:   rounds,
	}
}

func (m *demoModel) nextUpdate() tea.Msg {
	msg, ok := <-m.updates
	if !ok {
		return drainedMsg{}
	}
	return msg
}

func (m *demoModel) Init() tea.Cmd {
	return m.nextUpdate
}

func (m *demoModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
		return m, nil

	case progressMsg:
		if msg.agent >= 0 && msg.agent < len(m.done) {
			m.done[msg.agent] = msg.done
		}
		return m, m.nextUpdate

	case drainedMsg:
		m.closed = true
		return m, tea.Quit

	case progress.FrameMsg:
		var cmds []tea.Cmd
		for i := range m.bars {
			bar, cmd := m.bars[i].Update(msg)
			m.bars[i] = bar.(progress.Model)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)
	}
	return m, nil
}

func (m *demoModel) View() string {
	var b strings.Builder

	b.WriteString(demoTitleStyle.Render("shmem-demo"))
	b.WriteString("\n\n")

	for i, bar := range m.bars {
		label := agentStyle.Render(fmt.Sprintf("agent %d", i))
		ratio := float64(m.done[i]) / float64(m.total)
		b.WriteString(fmt.Sprintf("%s  %s %d/%d\n", label, bar.ViewAs(ratio), m.done[i], m.total))
	}

	b.WriteString("\n")
	if m.closed {
		b.WriteString(demoHelpStyle.Render("all agents finished"))
	} else {
		b.WriteString(demoHelpStyle.Render("q to quit"))
	}
	return b.String()
}

func runTUI(agents, rounds int, updates <-chan progressMsg) error {
	p := tea.NewProgram(newDemoModel(agents, rounds, updates))
	if _, err := p.Run(); err != nil {
		return err
	}
	// The program may have quit before the agents finished; keep draining so
	// they never block on the updates channel.
	for range updates {
	}
	return nil
}
