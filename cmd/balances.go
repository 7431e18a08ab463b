package cmd

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/theirongolddev/finview/internal/cli"
	"github.com/theirongolddev/finview/internal/model"

	"github.com/spf13/cobra"
)

var balancesCmd = &cobra.Command{
	Use:   "balances",
	Short: "Account balances (checking, savings, cash)",
	Args:  cobra.NoArgs,
	RunE:  runBalances,
}

var balancesSetCmd = &cobra.Command{
	Use:   "set <checking|savings|cash> <amount>",
	Short: "Set a balance",
	Args:  cobra.ExactArgs(2),
	RunE:  runBalancesSet,
}

func init() {
	balancesCmd.AddCommand(balancesSetCmd)
	rootCmd.AddCommand(balancesCmd)
}

func runBalances(cmd *cobra.Command, _ []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, cancel := commandContext(cmd)
	defer cancel()

	bs, err := e.loader.Balances(ctx)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(balancesTable(bs)))
	return nil
}

func balancesTable(bs []model.Balance) cli.Table {
	rows := make([][]string, 0, len(bs)+1)
	for _, b := range bs {
		change := ""
		if c := b.Change(); c != 0 {
			change = cli.ColorAmount(c, cli.FormatSigned(c))
		}
		rows = append(rows, []string{titleWord(b.Name), cli.FormatMoney(b.Amount), change})
	}
	if len(rows) == 0 {
		rows = append(rows, []string{cli.Muted("no balances"), "", ""})
	} else {
		rows = append(rows, []string{"---"}, []string{"Total", cli.FormatMoney(model.TotalBalance(bs)), ""})
	}
	return cli.Table{
		Title:   "BALANCES",
		Headers: []string{"Account", "Balance", "Change"},
		Rows:    rows,
	}
}

func runBalancesSet(cmd *cobra.Command, args []string) error {
	name := strings.ToLower(strings.TrimSpace(args[0]))
	if !model.ValidBalanceName(name) {
		return fmt.Errorf("unknown balance %q (want %s)", args[0], strings.Join(model.BalanceNames, ", "))
	}
	amount, err := parseBalance(args[1])
	if err != nil {
		return err
	}

	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, cancel := commandContext(cmd)
	defer cancel()

	if err := e.loader.UpdateBalance(ctx, name, amount); err != nil {
		return err
	}
	fmt.Printf("  %s balance set to %s\n", titleWord(name), cli.FormatMoney(amount))
	return nil
}

// parseBalance accepts any finite amount; overdrawn accounts go negative.
func parseBalance(s string) (float64, error) {
	s = strings.NewReplacer("$", "", ",", "").Replace(strings.TrimSpace(s))
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	return v, nil
}

func titleWord(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
