package notifier

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"time"

	"github.com/suspectuso/blum-farmer/internal/blum"
	"github.com/suspectuso/blum-farmer/internal/farmer"
)

const sendTimeout = 15 * time.Second

// Sender delivers an HTML message
type Sender interface {
	SendNotification(ctx context.Context, text string) error
}

// Notifier turns farmer events into messages
type Notifier struct {
	sender Sender
	log    *slog.Logger
}

// New creates a new Notifier
func New(sender Sender, log *slog.Logger) *Notifier {
	return &Notifier{
		sender: sender,
		log:    log,
	}
}

// CycleRestarted reports a claimed and restarted farming cycle
func (n *Notifier) CycleRestarted(ctx context.Context, ev farmer.CycleEvent) {
	n.send(ctx, formatCycleMessage(ev))
}

// AccountStopped reports an account whose session cannot be recovered
func (n *Notifier) AccountStopped(ctx context.Context, accountID int, reason error) {
	n.send(ctx, formatStoppedMessage(accountID, reason))
}

func (n *Notifier) send(ctx context.Context, text string) {
	// the farmer context may already be cancelled when it stops
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sendTimeout)
	defer cancel()

	if err := n.sender.SendNotification(ctx, text); err != nil {
		n.log.Error("send notification", "error", err)
	}
}

func formatCycleMessage(ev farmer.CycleEvent) string {
	text := fmt.Sprintf(
		"✅ <b>Reward claimed</b> · account %d\n\n"+
			"Farmed: <b>%s</b>\n"+
			"Balance before claim: <b>%s</b>",
		ev.ClaimedAccount, formatNumber(ev.FarmBalance), formatNumber(ev.AvailableBalance),
	)

	if ev.StartedAccount != ev.ClaimedAccount {
		text += fmt.Sprintf("\n\n🔁 Farming started on account %d", ev.StartedAccount)
	} else {
		text += "\n\n🌱 New farming cycle started"
	}
	return text
}

func formatStoppedMessage(accountID int, reason error) string {
	text := fmt.Sprintf("🛑 <b>Farming stopped</b> · account %d", accountID)
	if kind := blum.Kind(reason); kind != "" {
		text += fmt.Sprintf("\n\nReason: <code>%s</code>", kind)
	}
	if reason != nil {
		text += "\n<i>" + html.EscapeString(reason.Error()) + "</i>"
	}
	return text
}

func formatNumber(num float64) string {
	abs := num
	if abs < 0 {
		abs = -abs
	}

	switch {
	case abs >= 1_000_000_000:
		return fmt.Sprintf("%.2fB", num/1_000_000_000)
	case abs >= 1_000_000:
		return fmt.Sprintf("%.2fM", num/1_000_000)
	case abs >= 1_000:
		return fmt.Sprintf("%.2fK", num/1_000)
	default:
		return fmt.Sprintf("%.2f", num)
	}
}
