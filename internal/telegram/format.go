package telegram

import (
	"fmt"
	"html"
	"strings"

	"github.com/suspectuso/blum-farmer/internal/farmer"
)

// FormatStatus renders account snapshots as an HTML message
func FormatStatus(statuses []farmer.AccountStatus) string {
	if len(statuses) == 0 {
		return "No accounts loaded."
	}

	lines := []string{"<b>🌾 Farming status</b>"}
	for _, s := range statuses {
		marker := "▫️"
		if s.Active {
			marker = "▶️"
		}

		lines = append(lines, "", fmt.Sprintf("%s <b>Account %d</b> · %s", marker, s.AccountID, s.State))
		if s.UpdatedAt.IsZero() {
			lines = append(lines, "<i>no data yet</i>")
		} else {
			lines = append(lines, fmt.Sprintf("Balance: <b>%.2f</b> · farm: <b>%.2f</b>", s.AvailableBalance, s.FarmBalance))
			if !s.EndTime.IsZero() {
				lines = append(lines, "Next claim: <code>"+farmer.FormatClaimTime(s.EndTime)+"</code>")
			}
		}
		if s.LastError != "" {
			lines = append(lines, "⚠️ <code>"+html.EscapeString(s.LastError)+"</code>")
		}
	}

	return strings.Join(lines, "\n")
}
