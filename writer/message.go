package writer

import (
	"fmt"
	"strings"
	"time"

	"github.com/hovsthvost89-eng/crypto-bot/exchange"
	"github.com/hovsthvost89-eng/crypto-bot/scanner"
	"github.com/olekukonko/tablewriter"
)

// Chat messages use Telegram Markdown.

const noData = "🚧 No data"

var assetEmojis = map[exchange.Asset]string{
	exchange.BTC:  "₿",
	exchange.ETH:  "🔷",
	exchange.TRX:  "🔴",
	exchange.TON:  "🔵",
	exchange.USDC: "🟢",
	exchange.BNB:  "🟡",
	exchange.SOL:  "🟣",
	exchange.XRP:  "🔶",
	exchange.ADA:  "❤️",
}

func assetEmoji(asset exchange.Asset) string {
	if emoji, ok := assetEmojis[asset]; ok {
		return emoji
	}
	return "💰"
}

func changeIcon(changePct float64) string {
	switch {
	case changePct > 0:
		return "🟢"
	case changePct < 0:
		return "🔴"
	}
	return "🟡"
}

// FormatCompactStats averages price and change of every asset over the exchanges that quoted it.
func FormatCompactStats(rows []*exchange.TickerSnapshot) string {
	if len(rows) == 0 {
		return noData
	}

	type summary struct {
		priceSum  float64
		changeSum float64
		quotes    int
		changes   int
	}
	var order []exchange.Asset
	byAsset := make(map[exchange.Asset]*summary)
	for _, row := range rows {
		s, ok := byAsset[row.Asset]
		if !ok {
			s = &summary{}
			byAsset[row.Asset] = s
			order = append(order, row.Asset)
		}
		if !row.OK() {
			continue
		}
		s.quotes++
		s.priceSum += *row.Price
		if row.ChangePct24h != nil {
			s.changeSum += *row.ChangePct24h
			s.changes++
		}
	}

	var b strings.Builder
	b.WriteString("📈 *Summary*\n\n")
	quoted := 0
	for _, asset := range order {
		s := byAsset[asset]
		if s.quotes == 0 {
			continue
		}
		quoted++
		avgPrice := s.priceSum / float64(s.quotes)
		change := Placeholder
		icon := changeIcon(0)
		if s.changes > 0 {
			avgChange := s.changeSum / float64(s.changes)
			change = formatChange(avgChange)
			icon = changeIcon(avgChange)
		}
		fmt.Fprintf(&b, "%s *%s*: %s USDT %s%s (%d/%d)\n", assetEmoji(asset), asset, formatPrice(avgPrice),
			icon, change, s.quotes, countAsset(rows, asset))
	}
	if quoted == 0 {
		return noData
	}
	return b.String()
}

func countAsset(rows []*exchange.TickerSnapshot, asset exchange.Asset) int {
	n := 0
	for _, row := range rows {
		if row.Asset == asset {
			n++
		}
	}
	return n
}

// FormatTableStats renders every row in a monospaced block.
func FormatTableStats(rows []*exchange.TickerSnapshot, updatedAt time.Time) string {
	if len(rows) == 0 {
		return noData
	}

	var table strings.Builder
	tw := newTable(&table)
	tw.SetHeader([]string{"Exchange", "Asset", "Price", "24h"})
	tw.SetBorder(false)
	tw.SetHeaderLine(true)
	tw.SetColumnSeparator("|")
	tw.SetCenterSeparator("+")
	tw.SetAlignment(tablewriter.ALIGN_RIGHT)
	for _, row := range rows {
		tw.Append([]string{string(row.Exchange), string(row.Asset), FormatPrice(row.Price), FormatChange(row.ChangePct24h)})
	}
	tw.Render()

	var b strings.Builder
	b.WriteString("📋 *Quotes*\n\n```\n")
	b.WriteString(table.String())
	b.WriteString("```\n")
	fmt.Fprintf(&b, "🔄 Updated: %s UTC", updatedAt.UTC().Format("15:04:05"))
	return b.String()
}

func FormatLoadingMessage(exchanges []exchange.Exchange, assets []exchange.Asset) string {
	names := make([]string, len(exchanges))
	for i, name := range exchanges {
		names[i] = strings.ToUpper(string(name))
	}
	coins := make([]string, len(assets))
	for i, asset := range assets {
		coins[i] = assetEmoji(asset) + " " + string(asset)
	}

	var b strings.Builder
	b.WriteString("⏳ *Loading...*\n\n")
	fmt.Fprintf(&b, "🔄 Asking %d exchanges about %d coins\n", len(exchanges), len(assets))
	fmt.Fprintf(&b, "🏢 %s\n", strings.Join(names, ", "))
	fmt.Fprintf(&b, "%s", strings.Join(coins, ", "))
	return b.String()
}

func FormatError(reason string) string {
	return "❌ *Failed to load data*\n\n🚨 " + reason
}

func moonIcon(changePct float64) string {
	switch {
	case changePct >= 50:
		return "🚀🚀🚀"
	case changePct >= 30:
		return "🚀🚀"
	case changePct >= 20:
		return "🚀"
	case changePct >= 10:
		return "📈"
	}
	return "↗️"
}

func FormatMooners(coins []scanner.CoinSummary, minGrowth float64) string {
	growth := trimZeros(fmt.Sprintf("%.2f", minGrowth))
	if len(coins) == 0 {
		return fmt.Sprintf("🚀 *Mooners (+%s%% in 24h)*\n\n😴 No coins are up more than %s%% right now.\n\n"+
			"💡 Try again later or lower the threshold.", growth, growth)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🚀 *Mooners (+%s%% in 24h)*\n\n", growth)
	fmt.Fprintf(&b, "🎯 Found %d rising coins:\n\n", len(coins))
	for i, coin := range coins {
		fmt.Fprintf(&b, "%d. ⚫ *%s* %s\n", i+1, coin.Symbol, moonIcon(coin.ChangePct))
		fmt.Fprintf(&b, "   🏢 %s\n", strings.ToUpper(string(coin.Exchange)))
		fmt.Fprintf(&b, "   💰 Price: $%s\n", formatPrice(coin.Price))
		fmt.Fprintf(&b, "   📈 24h: %s\n", formatChange(coin.ChangePct))
		if coin.Volume > 0 {
			fmt.Fprintf(&b, "   📊 Volume: %s\n", formatVolume(coin.Volume))
		}
		b.WriteString("\n")
	}
	b.WriteString("⚠️ *Risks:* high volatility, sharp corrections are common.")
	return b.String()
}

func FormatNewCoins(coins []scanner.CoinSummary) string {
	if len(coins) == 0 {
		return "🆕 *Small caps*\n\n😴 No small caps found right now.\n\n💡 Try again later."
	}

	var b strings.Builder
	b.WriteString("🆕 *Small caps*\n\n")
	fmt.Fprintf(&b, "🎆 Found %d candidates:\n\n", len(coins))
	for i, coin := range coins {
		fmt.Fprintf(&b, "%d. ⚫ *%s* %s\n", i+1, coin.Symbol, changeIcon(coin.ChangePct))
		fmt.Fprintf(&b, "   🏢 %s\n", strings.ToUpper(string(coin.Exchange)))
		fmt.Fprintf(&b, "   💰 Price: $%s\n", formatPrice(coin.Price))
		fmt.Fprintf(&b, "   📈 Change: %s\n", formatChange(coin.ChangePct))
		fmt.Fprintf(&b, "   📊 Volume: %s\n\n", formatVolume(coin.Volume))
	}
	b.WriteString("⚠️ *Note:* small caps are volatile, do your own research.")
	return b.String()
}

// FormatProbe reports a single-exchange health check.
func FormatProbe(results []*exchange.ProbeResult) string {
	if len(results) == 0 {
		return noData
	}
	var b strings.Builder
	fmt.Fprintf(&b, "⚡ *%s*\n\n", strings.ToUpper(string(results[0].Exchange)))
	ok := 0
	for _, r := range results {
		status := "✅"
		var detail string
		switch {
		case r.Snapshot == nil:
			status = "❌"
			detail = exchange.NoteLoadError
		case r.Success:
			ok++
			detail = FormatPrice(r.Snapshot.Price)
		default:
			status = "❌"
			detail = r.Snapshot.Note
		}
		fmt.Fprintf(&b, "%s %s: %s (%d ms)\n", status, r.Asset, detail, r.Duration.Milliseconds())
	}
	fmt.Fprintf(&b, "\n%d/%d assets answered", ok, len(results))
	return b.String()
}
