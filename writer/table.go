package writer

import (
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/gosuri/uilive"
	"github.com/hovsthvost89-eng/crypto-bot/config"
	"github.com/hovsthvost89-eng/crypto-bot/exchange"
	"github.com/mattn/go-colorable"
	"github.com/olekukonko/tablewriter"
)

// Placeholder renders a missing number.
const Placeholder = "—"

var faint = color.New(color.Faint).SprintFunc()

type tableWriter struct {
	*uilive.Writer
	table   *tablewriter.Table
	columns []string
}

// Set up ascii table writer
func NewTableWriter(columns []string) *tableWriter {
	w := uilive.New()
	w.Out = colorable.NewColorableStdout() // For Windows
	return newTableWriter(w, columns)
}

func newTableWriter(w *uilive.Writer, columns []string) *tableWriter {
	tw := &tableWriter{Writer: w, columns: columns}
	tw.table = newTable(tw.Writer)
	formattedHeaders := make([]string, len(columns))
	for i, hdr := range columns {
		formattedHeaders[i] = color.YellowString(hdr)
	}
	tw.table.SetHeader(formattedHeaders)
	tw.table.SetRowLine(true)
	tw.table.SetCenterSeparator(faint("-"))
	tw.table.SetColumnSeparator(faint("|"))
	tw.table.SetRowSeparator(faint("-"))
	return tw
}

func newTable(out io.Writer) *tablewriter.Table {
	table := tablewriter.NewWriter(out)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	return table
}

func highlightChange(changePct *float64) string {
	if changePct == nil {
		return faint(Placeholder)
	}
	changeText := strconv.FormatFloat(*changePct, 'f', 2, 64)
	if *changePct == 0 {
		changeText = faint("0")
	} else if *changePct > 0 {
		changeText = color.GreenString(changeText)
	} else {
		changeText = color.RedString(changeText)
	}
	return changeText
}

// Row renders one snapshot into the requested columns, unknown columns render empty.
func Row(sp *exchange.TickerSnapshot, columns []string) []string {
	row := make([]string, 0, len(columns))
	for _, hdr := range columns {
		switch strings.ToLower(hdr) {
		case strings.ToLower(config.ColumnExchange):
			row = append(row, strings.ToUpper(string(sp.Exchange)))
		case strings.ToLower(config.ColumnAsset):
			row = append(row, string(sp.Asset))
		case strings.ToLower(config.ColumnPrice):
			row = append(row, FormatPrice(sp.Price))
		case strings.ToLower(config.ColumnChange24hPct):
			row = append(row, highlightChange(sp.ChangePct24h))
		case strings.ToLower(config.ColumnHigh24h):
			row = append(row, FormatPrice(sp.High24h))
		case strings.ToLower(config.ColumnLow24h):
			row = append(row, FormatPrice(sp.Low24h))
		case strings.ToLower(config.ColumnVolume24h):
			row = append(row, FormatVolume(sp.Volume24h))
		case strings.ToLower(config.ColumnSymbol):
			row = append(row, sp.SymbolUsed)
		case strings.ToLower(config.ColumnNote):
			row = append(row, faint(sp.Note))
		default:
			row = append(row, "")
		}
	}
	return row
}

func (tw *tableWriter) Render(snapshots []*exchange.TickerSnapshot) {
	tw.table.ClearRows()
	// Fill in data
	for _, sp := range snapshots {
		tw.table.Append(Row(sp, tw.columns))
	}

	tw.table.Render()
	tw.Flush()
}
