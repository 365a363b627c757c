package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"
	"github.com/raphaelgruber/journeys/internal/models"
	"github.com/raphaelgruber/journeys/internal/service"
)

const pollInterval = time.Second

// Theme holds the color scheme for the progress display.
type Theme struct {
	Status     lipgloss.Color
	Success    lipgloss.Color
	Error      lipgloss.Color
	Hint       lipgloss.Color
	ProgressBg lipgloss.Color
}

var defaultTheme = Theme{
	Status:     lipgloss.Color("#5FAFD7"), // light blue
	Success:    lipgloss.Color("#00D787"), // green
	Error:      lipgloss.Color("#FF005F"), // red
	Hint:       lipgloss.Color("#6C6C6C"), // dim gray
	ProgressBg: lipgloss.Color("#3A3A3A"), // dark gray
}

func (t Theme) statusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status)
}

func (t Theme) completedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

// journeyFetcher is the part of the client the watcher polls.
type journeyFetcher interface {
	GetJourney(ctx context.Context, id string) (*service.JourneyDetail, error)
}

type tickMsg time.Time

type journeyUpdateMsg struct {
	journey *service.JourneyDetail
	err     error
}

// watchModel is the bubbletea model that follows a journey through the
// pipeline until it is ready or failed.
type watchModel struct {
	fetcher   journeyFetcher
	journeyID string
	journey   *service.JourneyDetail
	progress  progress.Model
	theme     Theme
	done      bool
	quitting  bool
	err       error
}

func newWatchModel(f journeyFetcher, journeyID string) watchModel {
	prog := progress.New(
		progress.WithDefaultBlend(),
		progress.WithWidth(40),
	)

	return watchModel{
		fetcher:   f,
		journeyID: journeyID,
		progress:  prog,
		theme:     defaultTheme,
	}
}

func (m watchModel) Init() tea.Cmd {
	return tea.Batch(
		m.fetchJourney(),
		m.progress.Init(),
	)
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		}

	case tickMsg:
		return m, m.fetchJourney()

	case journeyUpdateMsg:
		if msg.err != nil {
			m.err = fmt.Errorf("failed to fetch journey: %w", msg.err)
			m.done = true
			return m, tea.Quit
		}

		m.journey = msg.journey

		switch m.journey.Status {
		case models.JourneyReady:
			m.done = true
			return m, tea.Quit
		case models.JourneyFailed:
			m.done = true
			m.err = journeyFailure(m.journey.Journey)
			return m, tea.Quit
		}

		return m, tickCmd()

	case progress.FrameMsg:
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m watchModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

func (m watchModel) renderContent() string {
	if m.done {
		return m.finalView()
	}

	if m.journey == nil {
		return "Loading journey...\n"
	}

	step := m.journey.Status.Step()
	status := m.theme.statusStyle().Render(fmt.Sprintf("[%s]", m.journey.Status))
	bar := m.progress.ViewAs(float64(step) / 4)
	counts := fmt.Sprintf("step %d/4", step)
	hint := m.theme.hintStyle().Render("Press Ctrl+C to keep building in background")

	return fmt.Sprintf("%s %s %s\n%s\n", status, bar, counts, hint)
}

func (m watchModel) finalView() string {
	if m.quitting {
		msg := fmt.Sprintf("\nJourney %s keeps building in background.\nUse 'journeys journey get %s' to check on it.\n",
			m.journeyID, m.journeyID)
		return m.theme.hintStyle().Render(msg)
	}

	if m.err != nil {
		return m.theme.errorStyle().Render(fmt.Sprintf("\n✗ %s\n", m.err))
	}

	var b strings.Builder
	b.WriteString(m.theme.completedStyle().Render("✓ Journey ready") + "\n\n")
	if m.journey != nil {
		writeJourney(&b, m.journey)
	}
	return b.String()
}

// fetchJourney runs in a command so Update never blocks on the network.
func (m watchModel) fetchJourney() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		j, err := m.fetcher.GetJourney(ctx, m.journeyID)
		return journeyUpdateMsg{journey: j, err: err}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func journeyFailure(j *models.Journey) error {
	if j.Error != "" {
		return fmt.Errorf("journey failed while %s: %s", j.FailedStage, j.Error)
	}
	return fmt.Errorf("journey failed while %s", j.FailedStage)
}

// runWatchTUI shows the interactive progress UI for a journey.
// Returns nil when ready or on Ctrl+C (the pipeline keeps running), and an
// error when the journey failed.
func runWatchTUI(f journeyFetcher, journeyID string) error {
	p := tea.NewProgram(newWatchModel(f, journeyID))

	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("progress UI error: %w", err)
	}

	if m, ok := finalModel.(watchModel); ok {
		if m.quitting {
			return nil
		}
		if m.err != nil {
			return m.err
		}
	}
	return nil
}

// pollJourney is the non-interactive watcher: it prints each status change
// and returns once the journey is ready or failed.
func pollJourney(ctx context.Context, f journeyFetcher, journeyID string, out io.Writer, interval time.Duration) error {
	var last models.JourneyStatus
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		j, err := f.GetJourney(ctx, journeyID)
		if err != nil {
			return fmt.Errorf("get journey: %w", err)
		}
		if j.Status != last {
			fmt.Fprintf(out, "[%s] step %d/4\n", j.Status, j.Status.Step())
			last = j.Status
		}
		switch j.Status {
		case models.JourneyReady:
			writeJourney(out, j)
			return nil
		case models.JourneyFailed:
			return journeyFailure(j.Journey)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
