// Package report renders estimates and stats as human-readable text for Telegram and the terminal.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/Manjussha/allocheck/internal/estimator"
	"github.com/Manjussha/allocheck/internal/history"
)

// Estimate renders a multi-line summary. markdown wraps headings for Telegram.
func Estimate(est *estimator.Estimate, markdown bool) string {
	bold := func(s string) string {
		if markdown {
			return "*" + s + "*"
		}
		return s
	}
	a := est.Allocation
	tm := est.Telemetry

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n", bold(a.TierLabel))
	fmt.Fprintf(&sb, "%s estimated tokens\n", bold(humanize.Comma(int64(a.EstimatedTokens))))
	for _, v := range est.Valuations {
		fmt.Fprintf(&sb, "  @ $%.2f: $%s\n", v.PriceUSD, humanize.Comma(int64(v.ValueUSD)))
	}
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Task score:     %s (%d transactions)\n", humanize.Comma(int64(tm.TaskScore)), tm.TransactionCount)
	fmt.Fprintf(&sb, "Hardware:       tier %d, %s\n", tm.HardwareTier, tm.HardwareLabel)
	fmt.Fprintf(&sb, "First activity: %d days ago\n", tm.FirstActivityDaysAgo)
	fmt.Fprintf(&sb, "Uptime:         %d%%\n", tm.UptimePercent)
	sb.WriteString("\n")
	sb.WriteString(bold("Breakdown") + "\n")
	fmt.Fprintf(&sb, "  Base:           %s\n", humanize.Comma(int64(a.Breakdown.Base)))
	fmt.Fprintf(&sb, "  Hardware bonus: +%s\n", humanize.Comma(int64(a.Breakdown.HardwareBonus)))
	fmt.Fprintf(&sb, "  Early bonus:    +%s\n", humanize.Comma(int64(a.Breakdown.EarlyBonus)))
	fmt.Fprintf(&sb, "  Uptime bonus:   +%s\n", humanize.Comma(int64(a.Breakdown.UptimeBonus)))
	sb.WriteString("\n")
	sb.WriteString(est.Disclaimer)
	return sb.String()
}

const sinceLayout = "2 Jan 2006 15:04 MST"

// Stats renders a digest of aggregated checks.
func Stats(st *history.Stats) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "*Checks since %s*\n\n", st.Since.UTC().Format(sinceLayout))
	fmt.Fprintf(&sb, "Total: %s (%s unique addresses)\n",
		humanize.Comma(int64(st.Total)), humanize.Comma(int64(st.UniqueAddresses)))
	if st.Total == 0 {
		return sb.String()
	}
	fmt.Fprintf(&sb, "Average: %s tokens, max %s\n\n",
		humanize.Comma(int64(st.AverageTokens)), humanize.Comma(int64(st.MaxTokens)))

	tiers := make([]int, 0, len(st.ByTier))
	for t := range st.ByTier {
		tiers = append(tiers, t)
	}
	sort.Ints(tiers)
	for _, t := range tiers {
		fmt.Fprintf(&sb, "Tier %d: %s\n", t, humanize.Comma(int64(st.ByTier[t])))
	}
	return sb.String()
}

// ShortAddress abbreviates 0x1234…abcd style.
func ShortAddress(addr string) string {
	if len(addr) <= 12 {
		return addr
	}
	return addr[:6] + "…" + addr[len(addr)-4:]
}
