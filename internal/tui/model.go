package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"

	"riskadvisor/internal/config"
	"riskadvisor/internal/domain"
	"riskadvisor/internal/present"
	"riskadvisor/internal/repository"
	"riskadvisor/internal/service"
)

type sideTab int

const (
	sideAgents sideTab = iota
	sideHistory
	sideDocuments
	sideTabCount
)

func (t sideTab) String() string {
	switch t {
	case sideHistory:
		return "History"
	case sideDocuments:
		return "Documents"
	}
	return "Agents"
}

// Options configura el panel.
type Options struct {
	// ExportDir es donde /export escribe los archivos; vacio es el directorio actual.
	ExportDir string
	// MarkdownStyle es el estilo de glamour: "auto", "dark", "light" o "notty".
	MarkdownStyle string
	App           config.AppConfig
	Logger        *zap.Logger
}

// Services son los stores que el panel observa y modifica.
type Services struct {
	Chat     *service.ChatService
	Agents   *service.AgentService
	Docs     *service.DocumentSearchService
	// Identity es opcional; si esta, el header muestra empresa y usuario.
	Identity repository.IdentityRepository
}

// Mensajes que llegan desde las suscripciones a los stores.
type (
	messagesMsg        []domain.Message
	historyMsg         []domain.QueryHistoryEntry
	loadingMsg         bool
	agentsMsg          map[string]domain.AgentStatus
	agentsShownMsg     bool
	docsMsg            service.DocumentSearchState
	suggestionsMsg     []string
	identityMsg        repository.Identity
	// identityChangedMsg viene del storage; identityMsg de una lectura puntual.
	identityChangedMsg repository.Identity
)

// resultMsg cierra un comando asincrono. detail reemplaza la salida visible si no esta vacio.
type resultMsg struct {
	status string
	detail string
	err    error
}

type subscriptions struct {
	messages    <-chan []domain.Message
	history     <-chan []domain.QueryHistoryEntry
	loading     <-chan bool
	agents      <-chan map[string]domain.AgentStatus
	agentsShown <-chan bool
	docs        <-chan service.DocumentSearchState
	suggestions <-chan []string
	identity    <-chan repository.Identity
}

// Model es el modelo bubbletea del panel.
type Model struct {
	ctx    context.Context
	svc    Services
	opts   Options
	logger *zap.Logger
	theme  theme
	keys   keyMap
	subs   subscriptions

	width  int
	height int
	ready  bool

	timeline viewport.Model
	sidebar  viewport.Model
	input    textinput.Model
	spinner  spinner.Model

	markdown      *glamour.TermRenderer
	markdownWidth int

	messages      []domain.Message
	history       []domain.QueryHistoryEntry
	loading       bool
	agentStatus   map[string]domain.AgentStatus
	agentsVisible bool
	docState      service.DocumentSearchState
	suggestions   []string
	identity      repository.Identity

	side        sideTab
	historyTab  service.HistoryTab
	historyTerm string
	detail      string
	status      string
	statusErr   bool
	table       *present.DataTable
	tableOf     string
}

// NewModel se suscribe a los stores con ctx; cancelarlo cierra las suscripciones.
func NewModel(ctx context.Context, svc Services, opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MarkdownStyle == "" {
		opts.MarkdownStyle = "auto"
	}

	input := textinput.New()
	input.Prompt = "❯ "
	input.CharLimit = 2000
	input.Placeholder = "Ask about risk, claims or policies. /help lists commands."
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = newTheme().accent

	m := Model{
		ctx:           ctx,
		svc:           svc,
		opts:          opts,
		logger:        logger,
		theme:         newTheme(),
		keys:          defaultKeys,
		timeline:      viewport.New(0, 0),
		sidebar:       viewport.New(0, 0),
		input:         input,
		spinner:       sp,
		agentStatus:   map[string]domain.AgentStatus{},
		agentsVisible: opts.App.UI.ShowAgentStatus,
		historyTab:    service.TabAll,
		status:        "connecting...",
	}
	if svc.Chat != nil {
		m.subs.messages = svc.Chat.Messages.Subscribe(ctx)
		m.subs.history = svc.Chat.History.Subscribe(ctx)
		m.subs.loading = svc.Chat.Loading.Subscribe(ctx)
		m.subs.suggestions = svc.Chat.Suggestions.Subscribe(ctx)
	}
	if svc.Agents != nil {
		m.subs.agents = svc.Agents.Status.Subscribe(ctx)
		m.subs.agentsShown = svc.Agents.Visible.Subscribe(ctx)
	}
	if svc.Docs != nil {
		m.subs.docs = svc.Docs.State.Subscribe(ctx)
	}
	if svc.Identity != nil {
		m.subs.identity = svc.Identity.Watch(ctx)
	}
	return m
}

// listen espera el proximo valor de una suscripcion. Un canal nil o cerrado no produce mensaje.
func listen[T any](ch <-chan T, wrap func(T) tea.Msg) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		v, ok := <-ch
		if !ok {
			return nil
		}
		return wrap(v)
	}
}

func (m Model) listenMessages() tea.Cmd {
	return listen(m.subs.messages, func(v []domain.Message) tea.Msg { return messagesMsg(v) })
}

func (m Model) listenHistory() tea.Cmd {
	return listen(m.subs.history, func(v []domain.QueryHistoryEntry) tea.Msg { return historyMsg(v) })
}

func (m Model) listenLoading() tea.Cmd {
	return listen(m.subs.loading, func(v bool) tea.Msg { return loadingMsg(v) })
}

func (m Model) listenAgents() tea.Cmd {
	return listen(m.subs.agents, func(v map[string]domain.AgentStatus) tea.Msg { return agentsMsg(v) })
}

func (m Model) listenAgentsShown() tea.Cmd {
	return listen(m.subs.agentsShown, func(v bool) tea.Msg { return agentsShownMsg(v) })
}

func (m Model) listenDocs() tea.Cmd {
	return listen(m.subs.docs, func(v service.DocumentSearchState) tea.Msg { return docsMsg(v) })
}

func (m Model) listenSuggestions() tea.Cmd {
	return listen(m.subs.suggestions, func(v []string) tea.Msg { return suggestionsMsg(v) })
}

func (m Model) listenIdentity() tea.Cmd {
	return listen(m.subs.identity, func(v repository.Identity) tea.Msg { return identityChangedMsg(v) })
}

// loadIdentityCmd lee la identidad actual para el header.
func (m Model) loadIdentityCmd() tea.Cmd {
	repo, ctx := m.svc.Identity, m.ctx
	if repo == nil {
		return nil
	}
	return func() tea.Msg {
		identity, err := repo.Load(ctx)
		if err != nil {
			return resultMsg{status: "identity unavailable", err: err}
		}
		return identityMsg(identity)
	}
}

// Init arranca las suscripciones y la carga inicial.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
		m.listenMessages(),
		m.listenHistory(),
		m.listenLoading(),
		m.listenAgents(),
		m.listenAgentsShown(),
		m.listenDocs(),
		m.listenSuggestions(),
		m.listenIdentity(),
		m.loadIdentityCmd(),
		m.loadCmd(),
	)
}

// loadCmd trae el historial, saluda si la conversacion quedo vacia y pide el estado de agentes.
func (m Model) loadCmd() tea.Cmd {
	chat, agents := m.svc.Chat, m.svc.Agents
	ctx := m.ctx
	return func() tea.Msg {
		var loadErr error
		if chat != nil {
			loadErr = chat.RefreshData(ctx)
			chat.AddWelcomeMessage()
		}
		if agents != nil && agents.Visible.Get() {
			_ = agents.Refresh(ctx)
		}
		if loadErr != nil {
			return resultMsg{status: "history unavailable", err: loadErr}
		}
		return resultMsg{status: "ready"}
	}
}

// Update implementa tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.ready = true
		m.layout()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.NextTab):
			m.side = (m.side + 1) % sideTabCount
			m.refreshSidebar()
			return m, nil
		case key.Matches(msg, m.keys.PageUp):
			m.timeline.LineUp(maxInt(1, m.timeline.Height/2))
			return m, nil
		case key.Matches(msg, m.keys.PageDown):
			m.timeline.LineDown(maxInt(1, m.timeline.Height/2))
			return m, nil
		case key.Matches(msg, m.keys.Dismiss):
			m.detail = ""
			m.layout()
			return m, nil
		case key.Matches(msg, m.keys.Submit):
			raw := strings.TrimSpace(m.input.Value())
			if raw == "" {
				return m, nil
			}
			m.input.SetValue("")
			cmd := m.submit(raw)
			return m, cmd
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case messagesMsg:
		m.messages = msg
		m.refreshTimeline()
		cmds = append(cmds, m.listenMessages())

	case historyMsg:
		m.history = msg
		m.refreshSidebar()
		cmds = append(cmds, m.listenHistory())

	case loadingMsg:
		m.loading = bool(msg)
		cmds = append(cmds, m.listenLoading())

	case agentsMsg:
		m.agentStatus = msg
		m.refreshSidebar()
		cmds = append(cmds, m.listenAgents())

	case agentsShownMsg:
		m.agentsVisible = bool(msg)
		m.refreshSidebar()
		cmds = append(cmds, m.listenAgentsShown())

	case docsMsg:
		m.docState = service.DocumentSearchState(msg)
		m.refreshSidebar()
		cmds = append(cmds, m.listenDocs())

	case suggestionsMsg:
		m.suggestions = msg
		cmds = append(cmds, m.listenSuggestions())

	case identityMsg:
		m.identity = repository.Identity(msg)

	case identityChangedMsg:
		m.identity = repository.Identity(msg)
		m.status = "identity: " + m.identity.CompanyNumber + " / " + m.identity.UserID
		m.statusErr = false
		cmds = append(cmds, m.listenIdentity())

	case resultMsg:
		m.applyResult(msg)

	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) applyResult(msg resultMsg) {
	if msg.err != nil {
		m.logger.Warn("command failed", zap.String("operation", "tui_command"), zap.Error(msg.err))
		m.status = msg.status
		if m.status == "" {
			m.status = msg.err.Error()
		} else {
			m.status += ": " + msg.err.Error()
		}
		m.statusErr = true
	} else {
		m.status = msg.status
		m.statusErr = false
	}
	if msg.detail != "" {
		m.detail = msg.detail
		m.layout()
	}
}

// layout recalcula tamaños y vuelve a dibujar ambos paneles.
func (m *Model) layout() {
	if !m.ready {
		return
	}
	contentWidth := maxInt(40, m.width-2)
	sideWidth := 0
	if m.width >= 100 {
		sideWidth = contentWidth / 3
	}
	mainWidth := contentWidth - sideWidth

	detailHeight := 0
	if m.detail != "" {
		detailHeight = minInt(strings.Count(m.detail, "\n")+2, m.height/2)
	}
	bodyHeight := maxInt(5, m.height-5-detailHeight)

	m.timeline.Width = maxInt(20, mainWidth-2)
	m.timeline.Height = bodyHeight
	m.sidebar.Width = maxInt(20, sideWidth-4)
	m.sidebar.Height = maxInt(3, bodyHeight-2)
	m.input.Width = maxInt(20, contentWidth-4)

	if m.markdownWidth != m.timeline.Width {
		m.markdown = nil
	}
	m.refreshTimeline()
	m.refreshSidebar()
}

func (m *Model) refreshTimeline() {
	if !m.ready {
		return
	}
	m.timeline.SetContent(m.renderTimeline())
	m.timeline.GotoBottom()
}

func (m *Model) refreshSidebar() {
	if !m.ready {
		return
	}
	m.sidebar.SetContent(m.renderSidebar())
}

// renderMarkdown usa glamour; si falla devuelve el texto tal cual.
func (m *Model) renderMarkdown(text string) string {
	if m.markdown == nil {
		width := maxInt(20, m.timeline.Width-4)
		style := glamour.WithAutoStyle()
		if m.opts.MarkdownStyle != "auto" {
			style = glamour.WithStandardStyle(m.opts.MarkdownStyle)
		}
		renderer, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(width))
		if err != nil {
			m.logger.Debug("markdown renderer unavailable", zap.String("operation", "render_markdown"), zap.Error(err))
			return text
		}
		m.markdown = renderer
		m.markdownWidth = m.timeline.Width
	}
	out, err := m.markdown.Render(text)
	if err != nil {
		return text
	}
	return strings.Trim(out, "\n")
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
