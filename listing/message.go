package listing

import (
	"fmt"
	"strings"
	"time"

	"github.com/hovsthvost89-eng/crypto-bot/exchange"
)

const messageLimit = 10

// FormatListingsMessage renders the listings of the retention window as Markdown chat text.
func (w *Watcher) FormatListingsMessage() string {
	recent := w.RecentListings(w.retention)
	window := humanizeWindow(w.retention)

	var b strings.Builder
	if len(recent) == 0 {
		fmt.Fprintf(&b, "🆕 *New listings*\n\n😴 No new listings of tracked coins in the last %s.\n\n", window)
		b.WriteString("💡 Listings are checked continuously.")
		return b.String()
	}

	fmt.Fprintf(&b, "🆕 *New listings (%s)*\n\n", window)
	fmt.Fprintf(&b, "🎉 Found %d new listings:\n\n", len(recent))

	now := w.now()
	for i, event := range recent {
		if i == messageLimit {
			break
		}
		fmt.Fprintf(&b, "%d. ⚫ *%s*\n", i+1, event.Symbol)
		fmt.Fprintf(&b, "   🏢 Exchange: %s\n", strings.ToUpper(string(event.Exchange)))
		fmt.Fprintf(&b, "   ⏰ %s\n\n", TimeAgo(now, event.Timestamp))
	}
	if len(recent) > messageLimit {
		fmt.Fprintf(&b, "📋 And %d more listings...\n\n", len(recent)-messageLimit)
	}

	b.WriteString("🔄 *Tracking:*\n")
	fmt.Fprintf(&b, "• Checked every %s\n", humanizeWindow(w.interval))
	fmt.Fprintf(&b, "• %d exchanges monitored\n", len(w.listers))
	fmt.Fprintf(&b, "• Focus on %s", joinAssets(w.tracked))
	return b.String()
}

// TimeAgo renders the age of t relative to now in the coarsest whole unit.
func TimeAgo(now, t time.Time) string {
	diff := now.Sub(t)
	minutes := int(diff / time.Minute)
	hours := minutes / 60
	days := hours / 24
	switch {
	case days > 0:
		return fmt.Sprintf("%dd ago", days)
	case hours > 0:
		return fmt.Sprintf("%dh ago", hours)
	case minutes > 0:
		return fmt.Sprintf("%d min ago", minutes)
	}
	return "just now"
}

func humanizeWindow(d time.Duration) string {
	switch {
	case d%(time.Hour) == 0:
		return fmt.Sprintf("%dh", int(d/time.Hour))
	case d%(time.Minute) == 0:
		return fmt.Sprintf("%d min", int(d/time.Minute))
	}
	return d.String()
}

func joinAssets(assets []exchange.Asset) string {
	names := make([]string, len(assets))
	for i, asset := range assets {
		names[i] = string(asset)
	}
	return strings.Join(names, "/")
}
