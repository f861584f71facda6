package main

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/threadware/collapse-engine/internal/engine"
	"github.com/threadware/collapse-engine/pkg/state"
	"github.com/threadware/collapse-engine/pkg/turn"
)

const (
	AgentName       = "Simulation-Core"
	PlaceHolderText = "Describe your action, or enter a choice number..."
)

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config         *ConsoleConfig
	client         *http.Client
	snapshot       *engine.Snapshot
	choices        []string
	transcriptView viewport.Model
	metaView       viewport.Model
	textarea       textarea.Model
	ready          bool
	width          int
	height         int
	err            error
	loading        bool

	// Ephemeral banners from the latest turn
	memoryBanner  string
	harvestBanner string
	hintLine      string
	copiedNotice  bool

	// Quit confirmation state
	showQuitModal bool

	// Progress bar state
	progressTick int
}

type turnResultMsg struct {
	result *turn.Result
	err    error
}

type snapshotMsg struct {
	snapshot *engine.Snapshot
	err      error
}

type hintMsg struct {
	hint string
	err  error
}

type bannerExpiredMsg struct{ kind string }

type progressTickMsg struct{}

var (
	transcriptPanelStyle = lipgloss.NewStyle().
				PaddingTop(2).
				PaddingBottom(1).
				PaddingLeft(3).
				PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	coreStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	collapseStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	bannerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220")). // gold
			Bold(true)

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("111")). // pale blue
			Italic(true)

	choiceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")) // purple

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	separatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey
)

func NewConsoleUI(cfg *ConsoleConfig, client *http.Client, snap *engine.Snapshot) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 1000
	ta.SetWidth(50)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	transcriptVp := viewport.New(50, 20)
	transcriptVp.MouseWheelEnabled = true

	metaVp := viewport.New(20, 20)

	return ConsoleUI{
		config:         cfg,
		client:         client,
		snapshot:       snap,
		choices:        snap.Choices,
		textarea:       ta,
		transcriptView: transcriptVp,
		metaView:       metaVp,
		ready:          false,
	}
}

// clampGauge keeps a display value inside [0, max]. The record itself can
// carry values outside the range; only the rendering clamps.
func clampGauge(value, max int) int {
	if value < 0 {
		return 0
	}
	if max > 0 && value > max {
		return max
	}
	return value
}

func gaugeLine(label string, value, max, width int) string {
	display := clampGauge(value, max)
	filled := 0
	if max > 0 {
		filled = display * width / max
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return fmt.Sprintf("%-10s %s %d/%d", label, bar, display, max)
}

func (m *ConsoleUI) writeMetadata() {
	gs := m.snapshot.State
	var content strings.Builder
	content.WriteString(titleStyle.Render("ATTUNEMENT") + "\n\n")

	content.WriteString("Session:\n")
	content.WriteString(gs.ID.String()[:8] + "...")
	if m.copiedNotice {
		content.WriteString(" (copied)")
	}
	content.WriteString("\n\n")

	content.WriteString(gaugeLine("Integrity", gs.Integrity, gs.MaxIntegrity, 10) + "\n")
	content.WriteString(gaugeLine("Will", gs.Will, gs.MaxWill, 10) + "\n\n")

	content.WriteString(fmt.Sprintf("Weirdness: %d\n", clampGauge(gs.WeirdnessSignature, 100)))
	content.WriteString(fmt.Sprintf("Threads:   %d\n", gs.ThreadCount))
	content.WriteString(fmt.Sprintf("Concept:   %d\n", gs.ConceptionLevel))
	content.WriteString(fmt.Sprintf("Status:    %s\n\n", gs.Status))

	if gs.CurrentQuest != "" {
		content.WriteString("Quest:\n")
		content.WriteString(wordwrap.String(gs.CurrentQuest, m.metaView.Width-2) + "\n\n")
	}

	if enemy := gs.CurrentEnemy(); enemy != nil {
		content.WriteString(errorStyle.Render("THREAT") + "\n")
		content.WriteString(fmt.Sprintf("%s (%s)\n", enemy.Name, enemy.Type))
		content.WriteString(gaugeLine("", enemy.Integrity, enemy.MaxIntegrity, 10) + "\n\n")
	}

	if len(gs.Stash) > 0 {
		content.WriteString("Stash:\n")
		for _, entry := range gs.Stash {
			content.WriteString("• " + entry.Display() + "\n")
		}
		content.WriteString("\n")
	}

	content.WriteString("Commands:\n")
	content.WriteString("• Enter: Act\n")
	content.WriteString("• 1-9: Pick choice\n")
	content.WriteString("• Ctrl+H: Hint\n")
	content.WriteString("• Ctrl+Y: Copy session ID\n")
	content.WriteString("• Ctrl+C: Quit\n")

	m.metaView.SetContent(content.String())
}

// writeTranscript rebuilds the transcript panel for the current width.
func (m *ConsoleUI) writeTranscript() {
	width := m.transcriptView.Width - 6

	var content strings.Builder
	content.WriteString(titleStyle.Render("ATTUNEMENT COLLAPSE") + "\n\n")
	content.WriteString("The Salt-Field hums. A loose thread waits.\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", max(width-6, 1))) + "\n\n")

	for _, entry := range m.snapshot.State.History {
		switch entry.Role {
		case state.RoleAI:
			if strings.HasPrefix(entry.Text, engine.CollapsePreamble) {
				content.WriteString(collapseStyle.Render(wordwrap.String(entry.Text, width)) + "\n\n")
				continue
			}
			prefix := AgentName + ": "
			content.WriteString(coreStyle.Render(prefix) + wordwrap.String(entry.Text, width-len(prefix)) + "\n\n")
		case state.RoleUser:
			content.WriteString(userStyle.Render("You: ") + wordwrap.String(entry.Text, width-5) + "\n\n")
		}
	}

	if m.memoryBanner != "" {
		content.WriteString(bannerStyle.Render("◈ RECOGNIZED: "+m.memoryBanner) + "\n\n")
	}
	if m.harvestBanner != "" {
		content.WriteString(bannerStyle.Render("◈ HARVEST: "+m.harvestBanner) + "\n\n")
	}
	if m.hintLine != "" {
		content.WriteString(hintStyle.Render(wordwrap.String("Hint: "+m.hintLine, width)) + "\n\n")
	}

	if len(m.choices) > 0 && !m.loading {
		for i, choice := range m.choices {
			content.WriteString(choiceStyle.Render(fmt.Sprintf("  %d) %s", i+1, choice)) + "\n")
		}
		content.WriteString("\n")
	}

	if m.loading {
		content.WriteString(m.renderProgressBar())
	}

	m.transcriptView.SetContent(content.String())
	m.transcriptView.GotoBottom()
}

func (m *ConsoleUI) renderProgressBar() string {
	frames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	frame := frames[m.progressTick%len(frames)]
	return loadingStyle.Render(frame + " The weave reconfigures...")
}

func progressTick() tea.Cmd {
	return tea.Tick(120*time.Millisecond, func(time.Time) tea.Msg {
		return progressTickMsg{}
	})
}

func bannerTimer(kind string, d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return bannerExpiredMsg{kind: kind}
	})
}

func (m ConsoleUI) Init() tea.Cmd {
	return textarea.Blink
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.transcriptView, vpCmd = m.transcriptView.Update(msg)
		return m, vpCmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		transcriptWidth := int(float64(m.width)*0.72) - 4
		metaWidth := m.width - transcriptWidth - 6

		m.transcriptView.Width = transcriptWidth - 2
		m.transcriptView.Height = m.height - 7
		m.metaView.Width = metaWidth - 2
		m.metaView.Height = m.height - 4
		m.textarea.SetWidth(transcriptWidth - 4)

		m.ready = true
		m.writeTranscript()
		m.writeMetadata()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil

		case tea.KeyCtrlH:
			if m.loading {
				return m, nil
			}
			return m, m.requestHint()

		case tea.KeyCtrlY:
			if err := clipboard.WriteAll(m.snapshot.State.ID.String()); err == nil {
				m.copiedNotice = true
				m.writeMetadata()
			}
			return m, nil

		case tea.KeyEnter:
			if m.loading {
				return m, nil
			}

			input := strings.TrimSpace(m.textarea.Value())
			if input == "" {
				return m, nil
			}

			// A bare number picks the matching choice
			if n, err := strconv.Atoi(input); err == nil && n >= 1 && n <= len(m.choices) {
				input = m.choices[n-1]
			}

			m.textarea.Reset()
			m.loading = true
			m.progressTick = 0
			m.hintLine = ""

			if !turn.IsSystemAction(input) {
				m.snapshot.State.History = append(m.snapshot.State.History, state.HistoryEntry{
					Role: state.RoleUser,
					Text: input,
				})
			}
			m.writeTranscript()

			return m, tea.Batch(m.sendAction(input), progressTick())
		}

	case turnResultMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			m.writeTranscript()
			currentContent := m.transcriptView.View()
			errorMsg := errorStyle.Render("Error: "+msg.err.Error()) + "\n\n"
			m.transcriptView.SetContent(currentContent + errorMsg)
			return m, nil
		}

		m.snapshot.State = msg.result.State
		m.choices = msg.result.Choices

		var cmds []tea.Cmd
		if msg.result.MemoryReferenced != "" {
			m.memoryBanner = msg.result.MemoryReferenced
			cmds = append(cmds, bannerTimer("memory", 6*time.Second))
		}
		if msg.result.HarvestResults != nil {
			m.harvestBanner = fmt.Sprintf("%s (novelty %d) %s",
				msg.result.HarvestResults.Rarity,
				msg.result.HarvestResults.NoveltyScore,
				msg.result.HarvestResults.Comment)
			cmds = append(cmds, bannerTimer("harvest", 8*time.Second))
		}

		m.writeTranscript()
		m.writeMetadata()
		cmds = append(cmds, m.refreshSnapshot())
		return m, tea.Batch(cmds...)

	case snapshotMsg:
		if msg.err == nil && msg.snapshot != nil {
			m.snapshot = msg.snapshot
			m.writeMetadata()
		}

	case hintMsg:
		if msg.err != nil {
			m.hintLine = engine.HintFailureFallback
		} else {
			m.hintLine = msg.hint
		}
		m.writeTranscript()

	case bannerExpiredMsg:
		switch msg.kind {
		case "memory":
			m.memoryBanner = ""
		case "harvest":
			m.harvestBanner = ""
		}
		m.writeTranscript()

	case progressTickMsg:
		if m.loading {
			m.progressTick++
			m.writeTranscript()
			return m, progressTick()
		}
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.transcriptView, vpCmd = m.transcriptView.Update(msg)
	m.metaView, mvCmd = m.metaView.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, mvCmd)
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "y", "Y", "enter":
			return m, tea.Quit
		case "n", "N", "esc":
			m.showQuitModal = false
			return m, nil
		}
	}
	return m, nil
}

func (m ConsoleUI) sendAction(action string) tea.Cmd {
	return func() tea.Msg {
		result, err := submitTurn(m.client, m.config.APIBaseURL, m.snapshot.State.ID, action)
		return turnResultMsg{result: result, err: err}
	}
}

func (m ConsoleUI) requestHint() tea.Cmd {
	return func() tea.Msg {
		hint, err := fetchHint(m.client, m.config.APIBaseURL, m.snapshot.State.ID)
		return hintMsg{hint: hint, err: err}
	}
}

func (m ConsoleUI) refreshSnapshot() tea.Cmd {
	return func() tea.Msg {
		snap, err := getSession(m.client, m.config.APIBaseURL, m.snapshot.State.ID)
		return snapshotMsg{snapshot: snap, err: err}
	}
}

func (m ConsoleUI) View() string {
	if !m.ready {
		return "Initializing..."
	}

	if m.showQuitModal {
		modal := modalStyle.Render("Abandon the weave?\n\n  y) Yes   n) No")
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal)
	}

	left := transcriptPanelStyle.Render(
		m.transcriptView.View() + "\n" + m.textarea.View(),
	)
	right := metaPanelStyle.Render(m.metaView.View())

	return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}
