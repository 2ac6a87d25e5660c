package telegram

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/Manjussha/allocheck/internal/db"
	"github.com/Manjussha/allocheck/internal/estimator"
	"github.com/Manjussha/allocheck/internal/history"
	"github.com/Manjussha/allocheck/internal/report"
	"github.com/Manjussha/allocheck/internal/telemetry"
)

// Evaluator runs a check.
type Evaluator interface {
	Evaluate(ctx context.Context, address string) (*estimator.Estimate, error)
}

// HistoryReader is the read side of the check history.
type HistoryReader interface {
	Recent(ctx context.Context, n int) ([]db.Check, error)
	Stats(ctx context.Context, since time.Time) (*history.Stats, error)
}

// CommandHandler handles Telegram bot commands.
type CommandHandler struct {
	evaluator Evaluator
	history   HistoryReader
}

// NewCommandHandler creates a CommandHandler. history may be nil.
func NewCommandHandler(evaluator Evaluator, hist HistoryReader) *CommandHandler {
	return &CommandHandler{evaluator: evaluator, history: hist}
}

// Respond returns the reply text for a command. admin unlocks /stats and /recent.
func (h *CommandHandler) Respond(ctx context.Context, command, args string, admin bool) string {
	switch command {
	case "check":
		return h.handleCheck(ctx, args)
	case "stats":
		if !admin {
			return "This command is only available to the admin chat."
		}
		return h.handleStats(ctx)
	case "recent":
		if !admin {
			return "This command is only available to the admin chat."
		}
		return h.handleRecent(ctx)
	case "help", "start":
		return helpText(admin)
	default:
		return "Unknown command. Use /help for a list of commands."
	}
}

func (h *CommandHandler) handleCheck(ctx context.Context, args string) string {
	address := strings.TrimSpace(args)
	if address == "" {
		return "Usage: /check <0x address>"
	}
	est, err := h.evaluator.Evaluate(estimator.WithSource(ctx, estimator.SourceTelegram), address)
	if errors.Is(err, telemetry.ErrInvalidAddress) {
		return "❌ " + telemetry.UserMessage(err)
	}
	if err != nil {
		log.Printf("telegram: check %s: %v", address, err)
		return "Failed to run the check. Please try again."
	}
	return report.Estimate(est, true)
}

func (h *CommandHandler) handleStats(ctx context.Context) string {
	if h.history == nil {
		return "History is disabled."
	}
	st, err := h.history.Stats(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		log.Printf("telegram: stats: %v", err)
		return "Error fetching stats."
	}
	return report.Stats(st)
}

func (h *CommandHandler) handleRecent(ctx context.Context) string {
	if h.history == nil {
		return "History is disabled."
	}
	checks, err := h.history.Recent(ctx, 10)
	if err != nil {
		log.Printf("telegram: recent: %v", err)
		return "Error fetching recent checks."
	}

	var sb strings.Builder
	sb.WriteString("*Recent Checks*\n\n")
	if len(checks) == 0 {
		sb.WriteString("_No checks yet._")
	}
	for _, c := range checks {
		sb.WriteString(fmt.Sprintf("`%s` %s tokens, tier %d (%s)\n",
			report.ShortAddress(c.Address), humanize.Comma(int64(c.EstimatedTokens)), c.Tier, c.Source))
	}
	return sb.String()
}

func helpText(admin bool) string {
	help := `*Allocation Checker*

/check <address> — Estimate an allocation
/help — This help`
	if admin {
		help += `
/stats — Checks in the last 24h
/recent — Last 10 checks`
	}
	return help
}
