// Package console holds the terminal-facing helpers for the allocheck binary:
// the startup banner, dashboard URLs, the interactive address prompt and
// ANSI tier colouring.
package console

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/Manjussha/allocheck/internal/allocation"
)

const (
	ansiReset  = "\033[0m"
	ansiCyan   = "\033[36m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiRed    = "\033[31m"
	ansiBold   = "\033[1m"
)

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// ── Banner ────────────────────────────────────────────────────────────────────

// Banner writes the boxed startup banner.
func Banner(w io.Writer, version string, color bool) {
	const width = 56
	fmt.Fprintln(w)
	fmt.Fprintln(w, paint(ansiCyan, "╔"+strings.Repeat("═", width)+"╗", color))
	bannerLine(w, "", width, color)
	bannerLine(w, "  allocheck "+version, width, color)
	bannerLine(w, "  Airdrop Allocation Estimator", width, color)
	bannerLine(w, "", width, color)
	fmt.Fprintln(w, paint(ansiCyan, "╚"+strings.Repeat("═", width)+"╝", color))
}

func bannerLine(w io.Writer, text string, width int, color bool) {
	pad := width - len([]rune(text))
	if pad < 0 {
		pad = 0
	}
	fmt.Fprintln(w, paint(ansiCyan, "║", color)+text+strings.Repeat(" ", pad)+paint(ansiCyan, "║", color))
}

// ── Dashboard URLs ────────────────────────────────────────────────────────────

// DashboardURLs lists http URLs for every non-loopback IPv4 interface, then localhost.
func DashboardURLs(port string) []string {
	var urls []string
	if ifaces, err := net.Interfaces(); err == nil {
		for _, iface := range ifaces {
			if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
				continue
			}
			addrs, _ := iface.Addrs()
			for _, addr := range addrs {
				var ip net.IP
				switch v := addr.(type) {
				case *net.IPNet:
					ip = v.IP
				case *net.IPAddr:
					ip = v.IP
				}
				if ip4 := ip.To4(); ip4 != nil && !ip4.IsLoopback() {
					urls = append(urls, fmt.Sprintf("http://%s:%s", ip4, port))
				}
			}
		}
	}
	return append(urls, fmt.Sprintf("http://localhost:%s", port))
}

// PrintDashboardURLs writes the API base URLs under the banner.
func PrintDashboardURLs(w io.Writer, port string) {
	urls := DashboardURLs(port)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  API → %s\n", urls[0])
	for _, u := range urls[1:] {
		fmt.Fprintf(w, "        %s\n", u)
	}
	fmt.Fprintln(w)
}

// ── Prompt ────────────────────────────────────────────────────────────────────

// PromptAddress asks for a wallet address and returns the trimmed answer.
func PromptAddress(r *bufio.Reader, w io.Writer) (string, error) {
	fmt.Fprint(w, "  Wallet address (0x…): ")
	line, err := r.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("console.PromptAddress: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// ── Colour ────────────────────────────────────────────────────────────────────

// TierColor paints text in the colour of tier.
func TierColor(tier allocation.Tier, text string, color bool) string {
	switch tier {
	case allocation.TierElite:
		return paint(ansiBold+ansiGreen, text, color)
	case allocation.TierHigh:
		return paint(ansiGreen, text, color)
	case allocation.TierMidHigh, allocation.TierMid:
		return paint(ansiYellow, text, color)
	default:
		return paint(ansiRed, text, color)
	}
}

func paint(ansi, text string, color bool) string {
	if !color {
		return text
	}
	return ansi + text + ansiReset
}
