package telegram

import (
	"fmt"
	"strings"
	"time"

	"golang-news-dashboard/internal/entity"
)

const maxSummaryLen = 600

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

// FormatRecommendationAlert formats a newly published recommendation as a
// Markdown Telegram message.
func FormatRecommendationAlert(a entity.Article) string {
	var sb strings.Builder

	var icon string
	switch a.Recommendation {
	case entity.RecommendationBuy:
		icon = "🟢"
	case entity.RecommendationSell:
		icon = "🔴"
	default:
		icon = "⚪"
	}

	sb.WriteString(fmt.Sprintf("%s *%s* %s\n", icon, a.Recommendation, markdownEscaper.Replace(instrumentLabel(a))))
	sb.WriteString(fmt.Sprintf("🎯 *Confidence:* %d%%\n", a.ConfidenceScore))
	sb.WriteString(fmt.Sprintf("📰 *%s*\n", markdownEscaper.Replace(a.Title)))

	if summary := strings.TrimSpace(a.Summary); summary != "" {
		if len([]rune(summary)) > maxSummaryLen {
			summary = string([]rune(summary)[:maxSummaryLen]) + "…"
		}
		sb.WriteString(fmt.Sprintf("💬 %s\n", markdownEscaper.Replace(summary)))
	}

	if t := a.DisplayTime(); !t.IsZero() {
		sb.WriteString(fmt.Sprintf("🕒 %s\n", t.UTC().Format(time.RFC1123)))
	}
	if a.SourceURL != "" {
		sb.WriteString(fmt.Sprintf("🔗 [Source](%s)\n", a.SourceURL))
	}

	return sb.String()
}

func instrumentLabel(a entity.Article) string {
	switch {
	case a.InstrumentName != "" && a.InstrumentType != "":
		return fmt.Sprintf("%s (%s)", a.InstrumentName, a.InstrumentType)
	case a.InstrumentName != "":
		return a.InstrumentName
	default:
		return a.InstrumentType
	}
}
