package tui

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"riskadvisor/internal/chart"
	"riskadvisor/internal/domain"
	"riskadvisor/internal/export"
	"riskadvisor/internal/present"
	"riskadvisor/internal/repository"
	"riskadvisor/internal/service"
)

var (
	errNoAnswer = errors.New("no assistant answer yet")
	errNoData   = errors.New("no tabular data in the conversation")
	errNoSQL    = errors.New("last answer has no SQL")
	errUsage    = errors.New("invalid arguments")
)

const helpText = `Commands
  /bookmark [id]          toggle bookmark on the last answer (or id)
  /export csv|json|pdf    export the last data set to a file
  /chart [type]           chart preview of the last data set
  /table [filter]         table view of the last data set
  /sort <column>          sort the table (repeat to reverse)
  /page next|prev|<n>     move through table pages
  /sql                    show the SQL of the last answer
  /docs <query>           search the document collections
  /collections            list document collections
  /history [tab] [term]   tabs: all, bookmarked, agents, suggestions
  /suggest [text]         query suggestions
  /use <n>                send suggestion n
  /feedback <1-5> [text]  rate the last answer
  /agents                 show or hide agent status
  /insights               backend insights
  /schema                 backend data schema
  /stats                  backend usage stats
  /analytics [timeframe]  query analytics (default 7d)
  /bookmarks              bookmarks saved in the backend
  /vectorize <path> [col] index a backend-readable file into a collection
  /rmdoc <id> [col]       delete a document from a collection
  /identity [company] [user]  show or change the request identity
  /save                   save the whole conversation as exported by the backend
  /clear                  clear the conversation
  /refresh                reload history and agent status
  /quit                   exit`

type command struct {
	name string
	args []string
	rest string
}

// parseCommand separa "/nombre arg1 arg2"; rest es todo lo posterior al nombre.
func parseCommand(raw string) (command, bool) {
	if !strings.HasPrefix(raw, "/") {
		return command{}, false
	}
	fields := strings.Fields(raw[1:])
	if len(fields) == 0 {
		return command{}, false
	}
	cmd := command{name: strings.ToLower(fields[0]), args: fields[1:]}
	cmd.rest = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw[1:]), fields[0]))
	return cmd, true
}

// submit procesa una linea del input: pregunta al backend o comando local.
func (m *Model) submit(raw string) tea.Cmd {
	cmd, ok := parseCommand(raw)
	if !ok {
		return m.ask(raw)
	}

	switch cmd.name {
	case "help", "?":
		m.setDetail(helpText)
	case "quit", "exit":
		return tea.Quit
	case "bookmark":
		return m.bookmarkCmd(cmd.args)
	case "export":
		return m.exportCmd(cmd.args)
	case "chart":
		m.showChart(cmd.args)
	case "table":
		m.showTable(cmd.rest)
	case "sort":
		m.sortTable(cmd.rest)
	case "page":
		m.pageTable(cmd.args)
	case "sql":
		m.showSQL()
	case "docs":
		m.side = sideDocuments
		m.refreshSidebar()
		return m.docsCmd(cmd.rest)
	case "collections":
		return m.collectionsCmd()
	case "history":
		m.showHistory(cmd.args)
	case "suggest":
		return m.suggestCmd(cmd.rest)
	case "use":
		return m.useSuggestion(cmd.args)
	case "feedback":
		return m.feedbackCmd(cmd.args)
	case "agents":
		return m.toggleAgentsCmd()
	case "insights":
		return m.rawCmd("insights", m.svc.Chat.Insights)
	case "schema":
		return m.rawCmd("schema", m.svc.Chat.Schema)
	case "stats":
		return m.rawCmd("stats", m.svc.Chat.Stats)
	case "bookmarks":
		return m.rawCmd("bookmarks", m.svc.Chat.Bookmarks)
	case "analytics":
		chat, timeframe := m.svc.Chat, strings.Join(cmd.args, " ")
		return m.rawCmd("analytics", func(ctx context.Context) (json.RawMessage, error) {
			return chat.QueryAnalytics(ctx, timeframe)
		})
	case "vectorize":
		return m.vectorizeCmd(cmd.args)
	case "rmdoc":
		return m.deleteDocumentCmd(cmd.args)
	case "identity":
		return m.identityCmd(cmd.args)
	case "save":
		return m.saveConversationCmd()
	case "clear":
		return m.clearCmd()
	case "refresh":
		m.status = "refreshing..."
		m.statusErr = false
		return m.loadCmd()
	default:
		m.fail(fmt.Errorf("unknown command /%s, try /help", cmd.name))
	}
	return nil
}

func (m *Model) ask(question string) tea.Cmd {
	if m.svc.Chat == nil {
		m.fail(service.ErrChatNotConfigured)
		return nil
	}
	if m.loading {
		m.fail(service.ErrQueryInFlight)
		return nil
	}
	m.loading = true
	m.status = "thinking..."
	m.statusErr = false
	chat, ctx := m.svc.Chat, m.ctx
	return func() tea.Msg {
		reply, err := chat.SendQuery(ctx, question)
		if err != nil {
			return resultMsg{status: "query failed", err: err}
		}
		status := "answered"
		if t := present.FormatProcessingTime(reply.ProcessingTimeMS); t != "" {
			status += " in " + t
		}
		return resultMsg{status: status}
	}
}

func (m *Model) setDetail(text string) {
	m.detail = text
	m.layout()
}

func (m *Model) fail(err error) {
	m.applyResult(resultMsg{err: err})
}

func (m *Model) lastAnswer() (domain.Message, bool) {
	for i := len(m.messages) - 1; i >= 0; i-- {
		msg := m.messages[i]
		if !msg.IsUser && msg.ID != service.WelcomeMessageID {
			return msg, true
		}
	}
	return domain.Message{}, false
}

func (m *Model) lastData() (domain.Message, bool) {
	for i := len(m.messages) - 1; i >= 0; i-- {
		if msg := m.messages[i]; !msg.IsUser && msg.HasData() {
			return msg, true
		}
	}
	return domain.Message{}, false
}

func (m *Model) bookmarkCmd(args []string) tea.Cmd {
	id := ""
	if len(args) > 0 {
		id = args[0]
	} else if msg, ok := m.lastAnswer(); ok {
		id = msg.ID
	}
	if id == "" {
		m.fail(errNoAnswer)
		return nil
	}
	chat, ctx := m.svc.Chat, m.ctx
	return func() tea.Msg {
		on, err := chat.ToggleBookmark(ctx, id)
		if errors.Is(err, service.ErrMessageNotFound) {
			return resultMsg{status: "bookmark", err: err}
		}
		status := "bookmark removed"
		if on {
			status = "bookmarked"
		}
		if err != nil {
			return resultMsg{status: status + " locally", err: err}
		}
		return resultMsg{status: status}
	}
}

func (m *Model) exportCmd(args []string) tea.Cmd {
	if len(args) != 1 {
		m.fail(fmt.Errorf("%w: /export csv|json|pdf", errUsage))
		return nil
	}
	format, err := export.ParseFormat(args[0])
	if err != nil {
		m.fail(err)
		return nil
	}
	msg, ok := m.lastData()
	if !ok {
		m.fail(errNoData)
		return nil
	}
	path := filepath.Join(m.opts.ExportDir, export.TimestampedFilename(format, time.Now()))
	return func() tea.Msg {
		if err := writeExport(path, format, msg.Data); err != nil {
			return resultMsg{status: "export failed", err: err}
		}
		return resultMsg{status: "exported " + path}
	}
}

func writeExport(path string, format export.Format, ds *domain.Dataset) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	if err := export.Write(f, format, ds); err != nil {
		f.Close()
		_ = os.Remove(path)
		return err
	}
	return f.Close()
}

func (m *Model) showChart(args []string) {
	msg, ok := m.lastData()
	if !ok {
		m.fail(errNoData)
		return
	}
	var override domain.ChartType
	if len(args) > 0 {
		override = chart.NormalizeType(strings.Join(args, " "))
	}
	cfg := chart.Resolve(msg.Data, msg.VisualizationHint(), override)
	m.setDetail(chart.RenderText(cfg, maxInt(40, m.width-4)))
	m.status = fmt.Sprintf("%s chart, %d rows", cfg.Type, len(cfg.Data))
	m.statusErr = false
}

func (m *Model) ensureTable() bool {
	msg, ok := m.lastData()
	if !ok {
		m.fail(errNoData)
		return false
	}
	if m.table == nil || m.tableOf != msg.ID {
		m.table = present.NewDataTable(msg.Data)
		m.tableOf = msg.ID
	}
	return true
}

func (m *Model) renderTableDetail() {
	m.setDetail(m.table.Render(maxInt(40, m.width-4)))
	m.status = fmt.Sprintf("page %d/%d, %d rows", m.table.Page()+1, m.table.PageCount(), m.table.Len())
	m.statusErr = false
}

func (m *Model) showTable(filter string) {
	if !m.ensureTable() {
		return
	}
	m.table.Filter(filter)
	m.renderTableDetail()
}

func (m *Model) sortTable(col string) {
	if !m.ensureTable() {
		return
	}
	m.table.SortBy(col)
	m.renderTableDetail()
}

func (m *Model) pageTable(args []string) {
	if !m.ensureTable() {
		return
	}
	if len(args) == 0 {
		m.fail(fmt.Errorf("%w: /page next|prev|<n>", errUsage))
		return
	}
	switch args[0] {
	case "next":
		m.table.NextPage()
	case "prev":
		m.table.PrevPage()
	default:
		n, err := strconv.Atoi(args[0])
		if err != nil {
			m.fail(fmt.Errorf("%w: page must be a number", errUsage))
			return
		}
		m.table.SetPage(n - 1)
	}
	m.renderTableDetail()
}

func (m *Model) showSQL() {
	msg, ok := m.lastAnswer()
	if !ok {
		m.fail(errNoAnswer)
		return
	}
	if strings.TrimSpace(msg.SQLQuery) == "" {
		m.fail(errNoSQL)
		return
	}
	m.setDetail(present.HighlightSQL(present.FormatSQL(msg.SQLQuery)))
}

func (m *Model) showHistory(args []string) {
	m.side = sideHistory
	m.historyTab = service.TabAll
	m.historyTerm = ""
	if len(args) > 0 {
		if tab := service.ParseHistoryTab(args[0]); tab != service.TabAll || strings.EqualFold(args[0], string(service.TabAll)) {
			m.historyTab = tab
			args = args[1:]
		}
	}
	m.historyTerm = strings.Join(args, " ")
	m.refreshSidebar()
	m.status = "history: " + string(m.historyTab)
	m.statusErr = false
}

func (m *Model) docsCmd(query string) tea.Cmd {
	if m.svc.Docs == nil {
		m.fail(service.ErrChatNotConfigured)
		return nil
	}
	docs, ctx := m.svc.Docs, m.ctx
	collection := m.docState.Collection
	return func() tea.Msg {
		results, ran, err := docs.LiveSearch(ctx, query, collection)
		if !ran {
			return resultMsg{status: "type at least 3 characters to search"}
		}
		if err != nil {
			return resultMsg{status: "document search failed", err: err}
		}
		return resultMsg{status: fmt.Sprintf("%d documents found", len(results))}
	}
}

func (m *Model) collectionsCmd() tea.Cmd {
	if m.svc.Docs == nil {
		m.fail(service.ErrChatNotConfigured)
		return nil
	}
	docs, ctx := m.svc.Docs, m.ctx
	return func() tea.Msg {
		collections, err := docs.LoadCollections(ctx, true)
		if err != nil {
			return resultMsg{status: "collections unavailable", err: err}
		}
		var b strings.Builder
		b.WriteString("Collections\n")
		for _, name := range sortedKeys(collections) {
			info := collections[name]
			fmt.Fprintf(&b, "  %-20s %d documents", name, info.DocumentCount)
			if info.Description != "" {
				b.WriteString("  " + info.Description)
			}
			b.WriteString("\n")
		}
		return resultMsg{status: fmt.Sprintf("%d collections", len(collections)), detail: strings.TrimRight(b.String(), "\n")}
	}
}

func (m *Model) suggestCmd(partial string) tea.Cmd {
	chat, ctx := m.svc.Chat, m.ctx
	return func() tea.Msg {
		list := chat.QuerySuggestions(ctx, partial, 5)
		var b strings.Builder
		b.WriteString("Suggestions\n")
		for i, s := range list {
			fmt.Fprintf(&b, "  %d. %s\n", i+1, s)
		}
		return resultMsg{status: "use /use <n> to send one", detail: strings.TrimRight(b.String(), "\n")}
	}
}

func (m *Model) useSuggestion(args []string) tea.Cmd {
	if len(args) != 1 {
		m.fail(fmt.Errorf("%w: /use <n>", errUsage))
		return nil
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 || n > len(m.suggestions) {
		m.fail(fmt.Errorf("%w: suggestion out of range", errUsage))
		return nil
	}
	return m.ask(m.suggestions[n-1])
}

func (m *Model) feedbackCmd(args []string) tea.Cmd {
	if len(args) == 0 {
		m.fail(fmt.Errorf("%w: /feedback <1-5> [comment]", errUsage))
		return nil
	}
	rating, err := strconv.Atoi(args[0])
	if err != nil {
		m.fail(service.ErrInvalidRating)
		return nil
	}
	msg, ok := m.lastAnswer()
	if !ok {
		m.fail(errNoAnswer)
		return nil
	}
	comment := strings.Join(args[1:], " ")
	chat, ctx := m.svc.Chat, m.ctx
	return func() tea.Msg {
		if err := chat.SubmitFeedback(ctx, msg.ID, rating, comment); err != nil {
			return resultMsg{status: "feedback failed", err: err}
		}
		return resultMsg{status: "thanks for the feedback"}
	}
}

func (m *Model) toggleAgentsCmd() tea.Cmd {
	if m.svc.Agents == nil {
		m.fail(service.ErrChatNotConfigured)
		return nil
	}
	m.side = sideAgents
	agents, ctx := m.svc.Agents, m.ctx
	return func() tea.Msg {
		if agents.ToggleVisible(ctx) {
			return resultMsg{status: "agent status shown"}
		}
		return resultMsg{status: "agent status hidden"}
	}
}

// rawCmd muestra con sangria el JSON que devuelve fetch.
func (m *Model) rawCmd(status string, fetch func(context.Context) (json.RawMessage, error)) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		raw, err := fetch(ctx)
		if err != nil {
			return resultMsg{status: status + " unavailable", err: err}
		}
		return resultMsg{status: status, detail: indentJSON(raw)}
	}
}

func indentJSON(raw json.RawMessage) string {
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, raw, "", "  "); err != nil {
		return string(raw)
	}
	return pretty.String()
}

func (m *Model) vectorizeCmd(args []string) tea.Cmd {
	if len(args) == 0 || len(args) > 2 {
		m.fail(fmt.Errorf("%w: /vectorize <path> [collection]", errUsage))
		return nil
	}
	if m.svc.Docs == nil {
		m.fail(service.ErrChatNotConfigured)
		return nil
	}
	path, collection := args[0], m.docState.Collection
	if len(args) == 2 {
		collection = args[1]
	}
	if collection == "" {
		collection = domain.DefaultCollection
	}
	docs, ctx := m.svc.Docs, m.ctx
	return func() tea.Msg {
		raw, err := docs.Vectorize(ctx, path, collection, map[string]any{"source": "riskadvisor-cli"})
		if err != nil {
			return resultMsg{status: "vectorize failed", err: err}
		}
		return resultMsg{status: "vectorized " + path + " into " + collection, detail: indentJSON(raw)}
	}
}

func (m *Model) deleteDocumentCmd(args []string) tea.Cmd {
	if len(args) == 0 || len(args) > 2 {
		m.fail(fmt.Errorf("%w: /rmdoc <id> [collection]", errUsage))
		return nil
	}
	if m.svc.Docs == nil {
		m.fail(service.ErrChatNotConfigured)
		return nil
	}
	id, collection := args[0], m.docState.Collection
	if len(args) == 2 {
		collection = args[1]
	}
	if collection == "" {
		collection = domain.DefaultCollection
	}
	docs, ctx := m.svc.Docs, m.ctx
	return func() tea.Msg {
		if err := docs.Delete(ctx, id, collection); err != nil {
			return resultMsg{status: "delete failed", err: err}
		}
		return resultMsg{status: "deleted " + id + " from " + collection}
	}
}

// identityCmd sin argumentos muestra la identidad; con argumentos la guarda y
// el header se actualiza por la suscripcion al storage.
func (m *Model) identityCmd(args []string) tea.Cmd {
	if m.svc.Identity == nil {
		m.fail(service.ErrChatNotConfigured)
		return nil
	}
	if len(args) > 2 {
		m.fail(fmt.Errorf("%w: /identity [company] [user]", errUsage))
		return nil
	}
	repo, ctx := m.svc.Identity, m.ctx
	if len(args) == 0 {
		return m.loadIdentityCmd()
	}
	next := repository.Identity{CompanyNumber: args[0]}
	if len(args) == 2 {
		next.UserID = args[1]
	}
	return func() tea.Msg {
		if err := repo.Save(ctx, next); err != nil {
			return resultMsg{status: "identity not saved", err: err}
		}
		return resultMsg{status: "identity saved"}
	}
}

func (m *Model) saveConversationCmd() tea.Cmd {
	chat, ctx := m.svc.Chat, m.ctx
	path := filepath.Join(m.opts.ExportDir, fmt.Sprintf("conversation_%s.json", time.Now().UTC().Format("20060102_150405")))
	return func() tea.Msg {
		body, err := chat.ExportConversation(ctx)
		if err != nil {
			return resultMsg{status: "save failed", err: err}
		}
		if err := os.WriteFile(path, body, 0o644); err != nil {
			return resultMsg{status: "save failed", err: err}
		}
		return resultMsg{status: "saved " + path}
	}
}

func (m *Model) clearCmd() tea.Cmd {
	chat, ctx := m.svc.Chat, m.ctx
	m.table, m.tableOf, m.detail = nil, "", ""
	return func() tea.Msg {
		if err := chat.ClearConversation(ctx); err != nil {
			return resultMsg{status: "clear failed", err: err}
		}
		chat.AddWelcomeMessage()
		return resultMsg{status: "conversation cleared"}
	}
}
