package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"llm-crypto-trader/internal/ledger"
	"llm-crypto-trader/internal/store"
	"llm-crypto-trader/internal/types"
)

var statusTrades int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the persisted portfolio and the most recent decisions",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().IntVarP(&statusTrades, "trades", "n", 10, "number of recent decisions to show")
}

var (
	titleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#7C3AED"))

	headerStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#3B82F6")).
		Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)

	gainStyle  = cellStyle.Foreground(lipgloss.Color("#10B981"))
	lossStyle  = cellStyle.Foreground(lipgloss.Color("#EF4444"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
)

func runStatus(cmd *cobra.Command, _ []string) error {
	cfg, err := store.LoadConfig(configPath, configEnv)
	if err != nil {
		return err
	}
	st, err := ledger.ReadStatus(cfg.Ledger.Path)
	if err != nil {
		return fmt.Errorf("read %s: %w", cfg.Ledger.Path, err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderStatus(st, cfg.Trader.QuoteCurrency, statusTrades))
	return nil
}

// renderStatus formats the state as a positions table followed by the last n
// trade records, newest last.
func renderStatus(st *types.PortfolioState, quote string, n int) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("Portfolio %s  total %.0f %s", st.Timestamp, st.TotalAssets, quote)))
	b.WriteString("\n")

	currencies := make([]string, 0, len(st.Positions))
	for ccy := range st.Positions {
		currencies = append(currencies, ccy)
	}
	sort.Slice(currencies, func(i, j int) bool {
		return st.Positions[currencies[i]].Value > st.Positions[currencies[j]].Value
	})

	returns := make([]float64, len(currencies))
	positions := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("CURRENCY", "BALANCE", "VALUE", "AVG PRICE", "RETURN %")
	for i, ccy := range currencies {
		p := st.Positions[ccy]
		returns[i] = p.ReturnRate
		positions.Row(ccy,
			fmt.Sprintf("%.8g", p.Balance),
			fmt.Sprintf("%.0f", p.Value),
			fmt.Sprintf("%.0f", p.AvgBuyPrice),
			fmt.Sprintf("%+.2f", p.ReturnRate),
		)
	}
	positions.StyleFunc(func(row, col int) lipgloss.Style {
		switch {
		case row == table.HeaderRow:
			return headerStyle
		case col == 4 && returns[row] > 0:
			return gainStyle
		case col == 4 && returns[row] < 0:
			return lossStyle
		}
		return cellStyle
	})
	b.WriteString(positions.Render())
	b.WriteString("\n")

	trades := st.RecentTrades
	if n > 0 && len(trades) > n {
		trades = trades[len(trades)-n:]
	}
	if len(trades) == 0 {
		b.WriteString(mutedStyle.Render("no recorded decisions"))
		return b.String()
	}

	history := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("TIME", "INSTRUMENT", "DECISION", "CONF", "EXEC", "REASON").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, t := range trades {
		exec := "-"
		if t.Executed {
			exec = fmt.Sprintf("%.0f", t.Amount)
		} else if t.Error != "" {
			exec = "error"
		}
		history.Row(t.Timestamp, t.Instrument, strings.ToUpper(t.Decision),
			fmt.Sprintf("%.2f", t.Confidence), exec, types.DescribeReason(t.ReasonCode))
	}
	b.WriteString(history.Render())
	return b.String()
}
