package telegram

import (
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/kitbuilder587/morvo/internal/domain"
)

// лимит длины сообщения в telegram
const maxMessageLen = 4096

// FormatChatResponse: Content уже содержит верхние пункты, ниже дописываем только остальные
func FormatChatResponse(resp *domain.ChatResponse) string {
	var sb strings.Builder
	sb.WriteString(html.EscapeString(resp.Content))

	if extra := missingFrom(resp.Content, resp.Insights); len(extra) > 0 {
		sb.WriteString("\n\n<b>More insights</b>\n")
		for _, s := range extra {
			sb.WriteString("• " + html.EscapeString(s) + "\n")
		}
	}

	if extra := missingFrom(resp.Content, resp.Recommendations); len(extra) > 0 {
		sb.WriteString("\n<b>More recommendations</b>\n")
		for i, s := range extra {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, html.EscapeString(s))
		}
	}

	if resp.RecommendedNextAction != "" {
		sb.WriteString("\n<b>Next step:</b> " + html.EscapeString(resp.RecommendedNextAction) + "\n")
	}

	if len(resp.CulturalAdaptations) > 0 {
		sb.WriteString("\n<i>" + html.EscapeString(strings.Join(resp.CulturalAdaptations, " · ")) + "</i>\n")
	}

	if len(resp.FailedSpecialists) > 0 {
		sb.WriteString("\n<i>Partial answer: " + html.EscapeString(strings.Join(resp.FailedSpecialists, ", ")) + " unavailable</i>")
	}

	return strings.TrimRight(sb.String(), "\n")
}

func missingFrom(content string, items []string) []string {
	var out []string
	for _, s := range items {
		if !strings.Contains(content, s) {
			out = append(out, s)
		}
	}
	return out
}

func FormatProfile(p *domain.CulturalProfile) string {
	var sb strings.Builder
	sb.WriteString("<b>Your profile</b>\n\n")
	fmt.Fprintf(&sb, "Language: %s\n", orDash(p.PreferredLanguage))
	fmt.Fprintf(&sb, "Style: %s\n", orDash(p.Directness))
	fmt.Fprintf(&sb, "Formal address: %s\n", flagText(p.FormalAddress))
	fmt.Fprintf(&sb, "Calendar awareness: %s\n", flagText(p.CalendarAwareness))
	if p.Region != "" {
		fmt.Fprintf(&sb, "Region: %s\n", html.EscapeString(p.Region))
	}
	if len(p.Taboos) > 0 {
		fmt.Fprintf(&sb, "Avoid: %s\n", html.EscapeString(strings.Join(p.Taboos, ", ")))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func orDash(s string) string {
	if s == "" {
		return "not set"
	}
	return html.EscapeString(s)
}

func flagText(v *bool) string {
	switch {
	case v == nil:
		return "not set"
	case *v:
		return "on"
	default:
		return "off"
	}
}

func SplitMessage(text string, maxLen int) []string {
	if len(text) <= maxLen {
		return []string{text}
	}

	var messages []string
	for len(text) > 0 {
		if len(text) <= maxLen {
			messages = append(messages, text)
			break
		}

		splitPoint := findSafeSplitPoint(text, maxLen)
		if splitPoint <= 0 || splitPoint > len(text) {
			splitPoint = runeBoundary(text, maxLen)
		}

		messages = append(messages, text[:splitPoint])
		text = text[splitPoint:]
	}

	return messages
}

func findSafeSplitPoint(text string, maxLen int) int {
	// ищем пробел или перевод строки, не ломая HTML-теги
	for i := maxLen - 1; i > maxLen/2; i-- {
		if i >= len(text) {
			continue
		}
		if isInsideHTMLTag(text, i) {
			continue
		}

		if text[i] == '\n' || text[i] == ' ' {
			return i + 1
		}
	}

	// внутри тега - ищем конец
	if maxLen < len(text) && isInsideHTMLTag(text, maxLen) {
		for i := maxLen; i < len(text); i++ {
			if text[i] == '>' {
				return i + 1
			}
		}
	}

	for i := maxLen - 1; i > 0; i-- {
		if text[i] == ' ' || text[i] == '\n' {
			return i + 1
		}
	}

	return runeBoundary(text, maxLen)
}

// runeBoundary сдвигает позицию назад на начало руны: арабский текст многобайтовый
func runeBoundary(text string, pos int) int {
	if pos >= len(text) {
		return len(text)
	}
	for pos > 0 && !utf8.RuneStart(text[pos]) {
		pos--
	}
	if pos == 0 {
		_, size := utf8.DecodeRuneInString(text)
		return size
	}
	return pos
}

func isInsideHTMLTag(text string, pos int) bool {
	if pos >= len(text) || pos < 0 {
		return false
	}
	for i := pos; i >= 0; i-- {
		if text[i] == '>' {
			return false
		}
		if text[i] == '<' {
			return true
		}
	}
	return false
}
