package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"riskadvisor/internal/domain"
	"riskadvisor/internal/present"
	"riskadvisor/internal/service"
)

// View implementa tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading Risk Advisor..."
	}

	header := m.theme.header.Width(m.width).Render(m.headerText())
	body := m.timeline.View()
	if m.sidebar.Width > 0 && m.width >= 100 {
		side := m.theme.panel.Width(m.sidebar.Width).Render(m.sideTabs() + "\n" + m.sidebar.View())
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, " ", side)
	}

	parts := []string{header, body}
	if m.detail != "" {
		parts = append(parts, m.theme.detail.Width(m.width).Render(m.detail))
	}
	parts = append(parts, m.input.View(), m.footer())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) headerText() string {
	title := "Risk Advisor"
	if m.opts.App.Features.AgenticMode {
		title += " · agentic"
	}
	if m.agentsVisible && len(m.agentStatus) > 0 {
		title += fmt.Sprintf(" · agents %d/%d active", activeAgents(m.agentStatus), len(m.agentStatus))
	}
	if m.identity.UserID != "" {
		title += " · " + m.identity.CompanyNumber + "/" + m.identity.UserID
	}
	return title
}

func (m Model) footer() string {
	status := m.theme.status.Render(m.status)
	if m.statusErr {
		status = m.theme.statusErr.Render(m.status)
	}
	if m.loading {
		status = m.spinner.View() + " " + status
	}
	return status + m.theme.dim.Render("  ·  tab panel · pgup/pgdn scroll · /help")
}

func (m Model) sideTabs() string {
	labels := make([]string, 0, sideTabCount)
	for t := sideTab(0); t < sideTabCount; t++ {
		style := m.theme.tab
		if t == m.side {
			style = m.theme.activeTab
		}
		labels = append(labels, style.Render(t.String()))
	}
	return strings.Join(labels, "  ")
}

func (m *Model) renderTimeline() string {
	if len(m.messages) == 0 {
		return m.theme.dim.Render("No messages yet. Ask a question to get started.")
	}
	blocks := make([]string, 0, len(m.messages))
	for _, msg := range m.messages {
		blocks = append(blocks, m.renderMessage(msg))
	}
	return strings.Join(blocks, "\n\n")
}

func (m *Model) renderMessage(msg domain.Message) string {
	stamp := m.theme.dim.Render(msg.Timestamp.Local().Format("15:04"))
	if msg.IsUser {
		return m.theme.user.Render("You") + " " + stamp + "\n" + msg.Content
	}

	var b strings.Builder
	label := m.theme.assistant.Render("Risk Advisor")
	if msg.Type == domain.MessageTypeError {
		label = m.theme.errorText.Render("Error")
	}
	b.WriteString(label + " " + stamp)
	if msg.IsBookmarked {
		b.WriteString(" " + m.theme.accent.Render("★"))
	}
	if m.opts.App.UI.ShowConfidenceScores && msg.Confidence != nil && *msg.Confidence > 0 && msg.ID != service.WelcomeMessageID {
		b.WriteString(" " + confidenceStyle(present.ConfidenceColor(msg.Confidence)).
			Render(present.ConfidenceText(msg.Confidence)+" "+present.ConfidencePercent(*msg.Confidence)))
	}
	if t := present.FormatProcessingTime(msg.ProcessingTimeMS); t != "" {
		b.WriteString(" " + m.theme.dim.Render(t))
	}
	b.WriteString("\n")

	if msg.Type == domain.MessageTypeError {
		b.WriteString(m.theme.errorText.Render(msg.Content))
	} else {
		b.WriteString(m.renderMarkdown(msg.Content))
	}

	if agents := present.SuccessfulAgents(msg); len(agents) > 0 {
		names := make([]string, 0, len(agents))
		for _, a := range agents {
			names = append(names, present.AgentIcon(a)+" "+present.FormatAgentName(a))
		}
		b.WriteString("\n" + m.theme.dim.Render("agents: "+strings.Join(names, ", ")))
	}
	var extras []string
	if msg.HasData() {
		extras = append(extras, fmt.Sprintf("%d rows /table /chart /export", msg.Data.Len()))
	} else if msg.Data != nil && !msg.Data.IsTabular() {
		extras = append(extras, "data: "+present.Truncate(string(msg.Data.Raw), 80))
	}
	if msg.SQLQuery != "" {
		extras = append(extras, "/sql")
	}
	if msg.HasVisualization() {
		for _, v := range msg.AgentVisualizations() {
			extras = append(extras, "figure: "+v.Title)
		}
	}
	if len(extras) > 0 {
		b.WriteString("\n" + m.theme.dim.Render(strings.Join(extras, " · ")))
	}
	if len(msg.Suggestions) > 0 && msg.Type == domain.MessageTypeError {
		b.WriteString("\n" + m.theme.dim.Render("• "+strings.Join(msg.Suggestions, "\n• ")))
	}
	return b.String()
}

func (m *Model) renderSidebar() string {
	switch m.side {
	case sideHistory:
		return m.renderHistory()
	case sideDocuments:
		return m.renderDocuments()
	}
	return m.renderAgents()
}

func (m *Model) renderAgents() string {
	if !m.agentsVisible {
		return m.theme.dim.Render("Agent status hidden. /agents to show.")
	}
	if len(m.agentStatus) == 0 {
		return m.theme.dim.Render("No agent status yet.")
	}
	var b strings.Builder
	for _, name := range sortedKeys(m.agentStatus) {
		a := m.agentStatus[name]
		dot := m.theme.statusErr.Render("●")
		if a.IsActive {
			dot = m.theme.status.Render("●")
		}
		display := a.Name
		if display == "" {
			display = present.FormatAgentName(name)
		}
		fmt.Fprintf(&b, "%s %s %s\n", dot, present.AgentIcon(display), display)
		if a.Description != "" {
			b.WriteString(m.theme.dim.Render("  "+present.Truncate(a.Description, 60)) + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m *Model) renderHistory() string {
	view := service.FilterHistory(m.history, m.historyTab, m.historyTerm)
	var b strings.Builder
	fmt.Fprintf(&b, "%s · %d recent · %d ★ · %d agentic\n",
		m.theme.panelTitle.Render(string(view.Tab)), view.RecentCount, view.BookmarkedCount, view.AgentCount)
	if view.Tab == service.TabSuggestions {
		for _, s := range view.Suggestions {
			b.WriteString("• " + s + "\n")
		}
		return strings.TrimRight(b.String(), "\n")
	}
	if len(view.Entries) == 0 {
		b.WriteString(m.theme.dim.Render(view.EmptyMessage))
		return b.String()
	}
	for _, h := range view.Entries {
		mark := " "
		if h.IsBookmarked {
			mark = m.theme.accent.Render("★")
		}
		fmt.Fprintf(&b, "%s %s %s\n", mark, present.Truncate(h.Query, 48), m.theme.dim.Render(h.Timestamp.Local().Format("Jan 2 15:04")))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m *Model) renderDocuments() string {
	st := m.docState
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", m.theme.panelTitle.Render("collection"), st.Collection)
	switch {
	case st.Searching:
		b.WriteString(m.spinner.View() + " searching " + st.Query)
	case !st.HasSearched:
		b.WriteString(m.theme.dim.Render("/docs <query> to search documents."))
	case len(st.Results) == 0:
		b.WriteString(m.theme.dim.Render("No documents found for " + st.Query))
	default:
		for _, r := range st.Results {
			fmt.Fprintf(&b, "%s %s\n%s\n", m.theme.accent.Render(present.ConfidencePercent(r.SimilarityScore)), r.Source, service.Preview(r.Content))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func activeAgents(status map[string]domain.AgentStatus) int {
	n := 0
	for _, a := range status {
		if a.IsActive {
			n++
		}
	}
	return n
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
