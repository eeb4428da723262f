package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docrag/internal/core/domain"
)

// Rows taken by everything except the transcript: header, input box,
// status bar and the transcript border.
const chromeHeight = 1 + 3 + 1 + 2

// entry is one item in the transcript.
type entry struct {
	question string
	response *domain.QueryResponse
	err      error
	note     string
	pending  bool
}

// App is the console application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles
	keymap *keymap.KeyMap

	input      *input.QuestionInput
	transcript viewport.Model
	statusBar  *status.Bar

	entries []entry
	busy    bool

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a console for the user named in ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:      ports,
		ctx:        context.Background(),
		styles:     s,
		keymap:     km,
		input:      input.NewQuestionInput(s),
		transcript: viewport.New(80, 10),
		statusBar:  status.NewBar(s, km, ports.UserID),
	}, nil
}

// WithContext sets the context for the app.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.input.Init(),
		tea.SetWindowTitle("docrag console"),
		a.loadStatus(),
	)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.resize(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case messages.AnswerReceived:
		a.busy = false
		a.completePending(msg)
		if msg.Err != nil {
			a.statusBar.SetState(status.StateError)
			a.statusBar.SetMessage(msg.Err.Error())
		} else {
			a.statusBar.SetState(status.StateReady)
		}
		a.refresh()
		return a, nil

	case messages.RebuildCompleted:
		a.busy = false
		if msg.Err != nil {
			a.statusBar.SetState(status.StateError)
			a.statusBar.SetMessage(msg.Err.Error())
			a.entries = append(a.entries, entry{err: fmt.Errorf("rebuild: %w", msg.Err)})
			a.refresh()
			return a, nil
		}
		a.statusBar.SetState(status.StateReady)
		a.entries = append(a.entries, entry{note: rebuildNote(msg.Stats)})
		a.refresh()
		return a, a.loadStatus()

	case messages.StatusLoaded:
		if msg.Err == nil && msg.Status != nil {
			a.statusBar.SetIndex(msg.Status.HasIndex, msg.Status.IndexedDocuments)
		}
		return a, nil

	case messages.ErrorOccurred:
		a.busy = false
		a.statusBar.SetState(status.StateError)
		a.statusBar.SetMessage(msg.Err.Error())
		return a, nil
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	switch {
	case keymap.Matches(key, a.keymap.Quit):
		return a, tea.Quit

	case keymap.Matches(key, a.keymap.Ask):
		question := strings.TrimSpace(a.input.Value())
		if question == "" || a.busy {
			return a, nil
		}
		a.busy = true
		a.input.Reset()
		a.entries = append(a.entries, entry{question: question, pending: true})
		a.statusBar.SetState(status.StateThinking)
		a.refresh()
		return a, a.ask(question)

	case keymap.Matches(key, a.keymap.Rebuild):
		if a.busy {
			return a, nil
		}
		if a.ports.Index == nil {
			a.entries = append(a.entries, entry{note: "Rebuild is not available in this session."})
			a.refresh()
			return a, nil
		}
		a.busy = true
		a.statusBar.SetState(status.StateRebuilding)
		return a, a.rebuild()

	case keymap.Matches(key, a.keymap.Clear):
		a.entries = nil
		a.refresh()
		return a, nil

	case keymap.Matches(key, a.keymap.ScrollUp):
		a.transcript.SetYOffset(a.transcript.YOffset - a.transcript.Height)
		return a, nil

	case keymap.Matches(key, a.keymap.ScrollDown):
		a.transcript.SetYOffset(a.transcript.YOffset + a.transcript.Height)
		return a, nil
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Loading..."
	}

	header := a.styles.Title.Render("docrag console")
	body := a.styles.Transcript.Render(a.transcript.View())

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		body,
		a.input.View(),
		a.statusBar.View(),
	)
}

func (a *App) resize(width, height int) {
	a.width = width
	a.height = height
	a.ready = true

	a.transcript.Width = max(width-4, 10)
	a.transcript.Height = max(height-chromeHeight, 3)
	a.input.SetWidth(width)
	a.statusBar.SetWidth(width)
	a.refresh()
}

// refresh re-renders the transcript and scrolls to the newest entry.
func (a *App) refresh() {
	a.transcript.SetContent(a.renderTranscript())
	a.transcript.GotoBottom()
}

func (a *App) renderTranscript() string {
	if len(a.entries) == 0 {
		return a.styles.Muted.Render("Type a question and press enter.")
	}

	wrap := max(a.transcript.Width, 10)
	var b strings.Builder
	for i, e := range a.entries {
		if i > 0 {
			b.WriteString("\n\n")
		}
		if e.note != "" {
			b.WriteString(a.styles.Success.Width(wrap).Render(e.note))
			continue
		}
		if e.question != "" {
			b.WriteString(a.styles.Question.Width(wrap).Render("> " + e.question))
			b.WriteString("\n")
		}

		switch {
		case e.pending:
			b.WriteString(a.styles.Muted.Render("thinking..."))
		case e.err != nil:
			b.WriteString(a.styles.Error.Width(wrap).Render("Error: " + e.err.Error()))
		case e.response != nil:
			b.WriteString(a.renderResponse(e.response, wrap))
		}
	}
	return b.String()
}

func (a *App) renderResponse(resp *domain.QueryResponse, wrap int) string {
	style := a.styles.Answer
	if isFixedAnswer(resp.Answer) {
		style = a.styles.FixedAnswer
	}

	lines := []string{style.Width(wrap).Render(resp.Answer)}
	for i, src := range resp.Sources {
		lines = append(lines, fmt.Sprintf("  %s %s",
			a.styles.Source.Render(fmt.Sprintf("[%d] %s", i+1, src.Filename)),
			a.styles.Score.Render(fmt.Sprintf("(%.1f)", src.SimilarityScore)),
		))
	}
	lines = append(lines, a.styles.Muted.Render(fmt.Sprintf("  %.2fs", resp.ProcessingTime)))
	return strings.Join(lines, "\n")
}

// completePending attaches a result to the oldest unanswered question.
func (a *App) completePending(msg messages.AnswerReceived) {
	for i := range a.entries {
		if a.entries[i].pending && a.entries[i].question == msg.Query {
			a.entries[i].pending = false
			a.entries[i].response = msg.Response
			a.entries[i].err = msg.Err
			return
		}
	}
}

func (a *App) ask(question string) tea.Cmd {
	ctx := a.ctx
	timeout := a.ports.QueryTimeout
	query := a.ports.Query
	userID := a.ports.UserID

	return func() tea.Msg {
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		resp, err := query.ProcessQuery(ctx, userID, question)
		return messages.AnswerReceived{Query: question, Response: resp, Err: err}
	}
}

func (a *App) rebuild() tea.Cmd {
	ctx := a.ctx
	index := a.ports.Index
	userID := a.ports.UserID

	return func() tea.Msg {
		stats, err := index.Rebuild(ctx, userID)
		return messages.RebuildCompleted{Stats: stats, Err: err}
	}
}

func (a *App) loadStatus() tea.Cmd {
	if a.ports.Index == nil {
		return nil
	}
	ctx := a.ctx
	index := a.ports.Index
	userID := a.ports.UserID

	return func() tea.Msg {
		st, err := index.Status(ctx, userID)
		return messages.StatusLoaded{Status: st, Err: err}
	}
}

func rebuildNote(stats *domain.RebuildStats) string {
	if stats == nil {
		return "Index rebuilt."
	}
	note := fmt.Sprintf("Index rebuilt: %d documents indexed, %d newly embedded",
		stats.TotalIndexed, stats.DocumentsEmbedded)
	if stats.EmbedFailures > 0 {
		note += fmt.Sprintf(", %d failed", stats.EmbedFailures)
	}
	return note + "."
}

func isFixedAnswer(answer string) bool {
	return answer == domain.AnswerNotIndexed || answer == domain.AnswerNoRelevant
}

// Entries returns the number of transcript entries.
func (a *App) Entries() int {
	return len(a.entries)
}

// Busy reports whether a question or rebuild is in flight.
func (a *App) Busy() bool {
	return a.busy
}
