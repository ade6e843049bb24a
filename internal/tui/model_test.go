package tui

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"riskadvisor/internal/backend"
	"riskadvisor/internal/config"
	"riskadvisor/internal/domain"
	"riskadvisor/internal/repository"
	"riskadvisor/internal/service"
)

func testModel(t *testing.T, client backend.Client) (Model, *service.ChatService) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	app := config.DefaultAppConfig()
	chat := service.NewChatService(client, app, 50, nil)
	svc := Services{
		Chat:   chat,
		Agents: service.NewAgentService(client, true, nil),
		Docs:   service.NewDocumentSearchService(client, nil),
	}
	model := NewModel(ctx, svc, Options{ExportDir: t.TempDir(), MarkdownStyle: "notty", App: app})
	updated, _ := model.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return updated.(Model), chat
}

func dataMessage() domain.Message {
	ds := domain.NewDataset([]string{"state", "tiv"}, []domain.Row{
		{"state": "TX", "tiv": 10.0},
		{"state": "CA", "tiv": 20.0},
	})
	return domain.Message{ID: "q-1", Content: "TIV by state", Type: domain.MessageTypeData, Data: ds}
}

func TestParseCommand(t *testing.T) {
	cmd, ok := parseCommand("/history  bookmarked   wind  damage")
	if !ok || cmd.name != "history" || len(cmd.args) != 3 || cmd.rest != "bookmarked   wind  damage" {
		t.Fatalf("unexpected command %+v", cmd)
	}
	if _, ok := parseCommand("what is our exposure?"); ok {
		t.Fatalf("plain text must not parse as command")
	}
	if _, ok := parseCommand("/"); ok {
		t.Fatalf("bare slash must not parse as command")
	}
}

func TestListen(t *testing.T) {
	ch := make(chan bool, 1)
	ch <- true
	msg := listen(ch, func(v bool) tea.Msg { return loadingMsg(v) })()
	if got, ok := msg.(loadingMsg); !ok || !bool(got) {
		t.Fatalf("expected loadingMsg(true), got %#v", msg)
	}
	close(ch)
	if msg := listen(ch, func(v bool) tea.Msg { return loadingMsg(v) })(); msg != nil {
		t.Fatalf("expected nil after close, got %#v", msg)
	}
	if listen[bool](nil, nil) != nil {
		t.Fatalf("expected nil command for nil channel")
	}
}

func TestModel_AskSendsQueryAndRejectsWhileLoading(t *testing.T) {
	mock := &backend.MockClient{}
	model, chat := testModel(t, mock)

	cmd := model.submit("show exposure by state")
	if cmd == nil {
		t.Fatalf("expected a query command")
	}
	if again := model.submit("another question"); again != nil {
		t.Fatalf("expected second question to be rejected while loading")
	}
	if !model.statusErr {
		t.Fatalf("expected in-flight status error")
	}

	result, ok := cmd().(resultMsg)
	if !ok || result.err != nil {
		t.Fatalf("unexpected result %#v", result)
	}
	if mock.CallCount("process_query") != 1 {
		t.Fatalf("expected one backend query, got %d", mock.CallCount("process_query"))
	}
	if n := len(chat.CurrentMessages()); n != 2 {
		t.Fatalf("expected user and assistant messages, got %d", n)
	}
}

func TestModel_ChartTableAndSQL(t *testing.T) {
	model, _ := testModel(t, &backend.MockClient{})
	updated, _ := model.Update(messagesMsg{{ID: "u-1", Content: "TIV by state", IsUser: true}, dataMessage()})
	model = updated.(Model)

	model.submit("/chart pie")
	if !strings.Contains(model.detail, "[pie]") || model.statusErr {
		t.Fatalf("expected pie chart preview, got status %q detail:\n%s", model.status, model.detail)
	}

	model.submit("/table ca")
	if model.table == nil || model.table.Len() != 1 {
		t.Fatalf("expected filtered table with one row")
	}

	model.submit("/sql")
	if !model.statusErr {
		t.Fatalf("expected error for answer without sql")
	}

	model.submit("/nope")
	if !model.statusErr || !strings.Contains(model.status, "unknown command") {
		t.Fatalf("unexpected status %q", model.status)
	}
}

func TestModel_ExportWritesFile(t *testing.T) {
	model, _ := testModel(t, &backend.MockClient{})
	updated, _ := model.Update(messagesMsg{dataMessage()})
	model = updated.(Model)

	cmd := model.submit("/export csv")
	if cmd == nil {
		t.Fatalf("expected export command")
	}
	result := cmd().(resultMsg)
	if result.err != nil {
		t.Fatalf("export failed: %v", result.err)
	}
	path := strings.TrimPrefix(result.status, "exported ")
	body, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if string(body) != "state,tiv\nTX,10\nCA,20" {
		t.Fatalf("unexpected csv %q", body)
	}

	if model.submit("/export xlsx") != nil || !model.statusErr {
		t.Fatalf("expected unknown format to fail without command")
	}
}

func TestModel_HistoryCommandAndView(t *testing.T) {
	model, _ := testModel(t, &backend.MockClient{})
	model.submit("/history bookmarked wind")
	if model.side != sideHistory || model.historyTab != service.TabBookmarked || model.historyTerm != "wind" {
		t.Fatalf("unexpected history state %v %q %q", model.side, model.historyTab, model.historyTerm)
	}

	updated, _ := model.Update(historyMsg{{ID: "h1", Query: "wind exposure", IsBookmarked: true}})
	model = updated.(Model)
	view := model.View()
	if !strings.Contains(view, "Risk Advisor") || !strings.Contains(view, "wind exposure") {
		t.Fatalf("unexpected view:\n%s", view)
	}
}

func TestModel_BackendReadCommandsShowJSON(t *testing.T) {
	mock := &backend.MockClient{RawResponse: json.RawMessage(`{"tables":["policies"]}`)}
	model, _ := testModel(t, mock)

	for _, line := range []string{"/schema", "/stats", "/bookmarks", "/analytics 30d"} {
		cmd := model.submit(line)
		if cmd == nil {
			t.Fatalf("%s: expected command", line)
		}
		result, ok := cmd().(resultMsg)
		if !ok || result.err != nil {
			t.Fatalf("%s: unexpected result %+v", line, result)
		}
		if !strings.Contains(result.detail, `"policies"`) {
			t.Fatalf("%s: expected indented JSON, got %q", line, result.detail)
		}
	}
	if mock.CallCount("query_analytics") != 1 || mock.CallCount("schema") != 1 {
		t.Fatalf("unexpected calls %v", mock.Calls)
	}
}

func TestModel_VectorizeAndDeleteDocumentCommands(t *testing.T) {
	var vectorized, deleted string
	mock := &backend.MockClient{
		VectorizeFn: func(_ context.Context, path, collection string, _ map[string]any) (json.RawMessage, error) {
			vectorized = path + "@" + collection
			return json.RawMessage(`{"success":true}`), nil
		},
		DeleteDocumentFn: func(_ context.Context, id, collection string) error {
			deleted = id + "@" + collection
			return nil
		},
	}
	model, _ := testModel(t, mock)

	if model.submit("/vectorize") != nil || !model.statusErr {
		t.Fatalf("expected usage error without path")
	}
	result := model.submit("/vectorize /data/codes.pdf claims")().(resultMsg)
	if result.err != nil || vectorized != "/data/codes.pdf@claims" {
		t.Fatalf("unexpected vectorize %+v %q", result, vectorized)
	}
	result = model.submit("/rmdoc doc-3")().(resultMsg)
	if result.err != nil || deleted != "doc-3@"+domain.DefaultCollection {
		t.Fatalf("unexpected delete %+v %q", result, deleted)
	}
}

func TestModel_IdentityWatchUpdatesHeader(t *testing.T) {
	store, err := repository.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	repo := repository.NewIdentityRepository(store)
	if err := repo.Save(context.Background(), repository.Identity{CompanyNumber: "CN1", UserID: "u1"}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	mock := &backend.MockClient{}
	model := NewModel(ctx, Services{Chat: service.NewChatService(mock, config.DefaultAppConfig(), 50, nil), Identity: repo}, Options{MarkdownStyle: "notty"})
	updated, _ := model.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	model = updated.(Model)

	save := model.submit("/identity CN2")
	if result := save().(resultMsg); result.err != nil {
		t.Fatalf("save identity: %v", result.err)
	}
	msg := model.listenIdentity()()
	changed, ok := msg.(identityChangedMsg)
	if !ok {
		t.Fatalf("expected identityChangedMsg, got %#v", msg)
	}
	updated, _ = model.Update(changed)
	model = updated.(Model)
	if !strings.Contains(model.headerText(), "CN2/u1") {
		t.Fatalf("expected header with new identity, got %q", model.headerText())
	}
}
