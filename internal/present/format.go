package present

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"riskadvisor/internal/domain"
)

// Bandas de confianza.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// ConfidenceText traduce un score [0,1] a una etiqueta. Sin score o cero es Unknown.
func ConfidenceText(score *float64) string {
	if score == nil || *score == 0 {
		return "Unknown"
	}
	switch s := *score; {
	case s >= 0.9:
		return "Very High"
	case s >= 0.8:
		return "High"
	case s >= 0.6:
		return "Medium"
	case s >= 0.4:
		return "Low"
	}
	return "Very Low"
}

// ConfidenceColor devuelve el color hex de la banda.
func ConfidenceColor(score *float64) string {
	if score == nil || *score == 0 {
		return "#666666"
	}
	switch ConfidenceLevel(*score) {
	case ConfidenceHigh:
		return "#4caf50"
	case ConfidenceMedium:
		return "#ff9800"
	}
	return "#f44336"
}

func ConfidenceLevel(score float64) string {
	switch {
	case score >= 0.8:
		return ConfidenceHigh
	case score >= 0.6:
		return ConfidenceMedium
	}
	return ConfidenceLow
}

// ConfidencePercent formatea 0.873 como "87%".
func ConfidencePercent(score float64) string {
	return fmt.Sprintf("%.0f%%", score*100)
}

// FormatProcessingTime muestra ms por debajo del segundo y segundos con un decimal.
func FormatProcessingTime(ms *float64) string {
	if ms == nil || *ms == 0 {
		return ""
	}
	if *ms < 1000 {
		return strconv.FormatFloat(*ms, 'f', -1, 64) + "ms"
	}
	return fmt.Sprintf("%.1fs", *ms/1000)
}

var nonSlug = regexp.MustCompile(`[^a-z-]`)

// FormatAgentName pasa risk_advisor a "Risk Advisor".
func FormatAgentName(name string) string {
	runes := []rune(strings.ReplaceAll(name, "_", " "))
	for i, r := range runes {
		if i == 0 || !isWordRune(runes[i-1]) {
			runes[i] = unicode.ToUpper(r)
		}
	}
	return string(runes)
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

var agentIcons = map[string]string{
	"query":                 "🗄",
	"enhanced query agent":  "🗄",
	"risk_advisor":          "🛡",
	"risk advisor":          "🛡",
	"knowledge":             "🎓",
	"knowledge agent":       "🎓",
	"visualization":         "📊",
	"visualization agent":   "📊",
	"search":                "🔍",
	"document search agent": "🔍",
	"web":                   "🌐",
	"external web agent":    "🌐",
	"orchestrator":          "🧭",
}

// AgentIcon acepta tanto la clave del agente como su nombre visible.
func AgentIcon(name string) string {
	if icon, ok := agentIcons[strings.ToLower(strings.TrimSpace(name))]; ok {
		return icon
	}
	return "🤖"
}

// AgentSlug es el identificador en kebab case que usa el gateway para clases de estilo.
func AgentSlug(name string) string {
	lower := strings.ToLower(strings.Join(strings.Fields(strings.ReplaceAll(name, "_", " ")), "-"))
	return "agent-" + nonSlug.ReplaceAllString(lower, "")
}

// SuccessfulAgents lista, ordenados, los agentes con success=true.
func SuccessfulAgents(msg domain.Message) []string {
	out := make([]string, 0, len(msg.AgentResponses))
	for name, resp := range msg.AgentResponses {
		if resp.Success {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// AgentCount usa agent_responses y si no hay, metadata.agents_used.
func AgentCount(msg domain.Message) int {
	if len(msg.AgentResponses) > 0 {
		return len(msg.AgentResponses)
	}
	if used, ok := msg.Metadata["agents_used"].([]any); ok {
		return len(used)
	}
	return 0
}

// AgentContribution resume en una linea lo que aporto un agente.
func AgentContribution(resp domain.AgentResponse) string {
	if len(resp.Data) == 0 || string(resp.Data) == "null" {
		return "No specific contribution data available."
	}
	var data map[string]any
	_ = json.Unmarshal(resp.Data, &data)

	name := strings.ToLower(resp.AgentName)
	switch {
	case strings.Contains(name, "risk"):
		if score, ok := domain.Float(data["risk_score"]); ok && score != 0 {
			recs, _ := data["recommendations"].([]any)
			return fmt.Sprintf("Risk Score: %s/100. %d recommendations provided.", domain.Text(data["risk_score"]), len(recs))
		}
		return "Risk analysis completed with recommendations."
	case strings.Contains(name, "knowledge"):
		if answer, ok := data["answer"].(string); ok && answer != "" {
			return Truncate(answer, 150) + "..."
		}
		return "Expert knowledge and guidance provided."
	case strings.Contains(name, "search"):
		if n, ok := domain.Float(data["total_results"]); ok && n != 0 {
			return fmt.Sprintf("Found %s relevant documents from knowledge base.", domain.Text(data["total_results"]))
		}
		return "Document search completed."
	case strings.Contains(name, "web"):
		if n, ok := domain.Float(data["total_sources"]); ok && n != 0 {
			return fmt.Sprintf("Researched %s external sources for current information.", domain.Text(data["total_sources"]))
		}
		return "External research completed."
	}
	return "Analysis completed successfully."
}

// Truncate corta a n runas sin agregar sufijo.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
