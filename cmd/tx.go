package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/theirongolddev/finview/internal/calendar"
	"github.com/theirongolddev/finview/internal/cli"
	"github.com/theirongolddev/finview/internal/model"
	"github.com/theirongolddev/finview/internal/pipeline"

	"github.com/spf13/cobra"
)

var (
	txMerchant  string
	txCategory  string
	txAmount    string
	txIncome    bool
	txExpense   bool
	txDate      string
	txNewDate   string
	txRecurring bool
)

var txCmd = &cobra.Command{
	Use:   "tx",
	Short: "Add, edit or delete a transaction",
}

var txAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a transaction",
	Args:  cobra.NoArgs,
	RunE:  runTxAdd,
}

var txEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Change a transaction (--date locates it)",
	Args:  cobra.ExactArgs(1),
	RunE:  runTxEdit,
}

var txDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a transaction (--date locates it)",
	Args:  cobra.ExactArgs(1),
	RunE:  runTxDelete,
}

func init() {
	txAddCmd.Flags().StringVarP(&txMerchant, "merchant", "m", "", "Merchant or description")
	txAddCmd.Flags().StringVarP(&txCategory, "category", "c", "", "Category")
	txAddCmd.Flags().StringVarP(&txAmount, "amount", "a", "", "Amount, e.g. 12.50")
	txAddCmd.Flags().BoolVar(&txIncome, "income", false, "Record as income (default is an expense)")
	txAddCmd.Flags().StringVar(&txDate, "date", "", "Date (YYYY-MM-DD), defaults to today")
	txAddCmd.Flags().BoolVar(&txRecurring, "recurring", false, "Mark as recurring")
	_ = txAddCmd.MarkFlagRequired("merchant")
	_ = txAddCmd.MarkFlagRequired("amount")

	txEditCmd.Flags().StringVarP(&txMerchant, "merchant", "m", "", "New merchant or description")
	txEditCmd.Flags().StringVarP(&txCategory, "category", "c", "", "New category")
	txEditCmd.Flags().StringVarP(&txAmount, "amount", "a", "", "New amount; the sign is kept unless --income or --expense is given")
	txEditCmd.Flags().BoolVar(&txIncome, "income", false, "Make it income")
	txEditCmd.Flags().BoolVar(&txExpense, "expense", false, "Make it an expense")
	txEditCmd.Flags().StringVar(&txDate, "date", "", "Current date of the transaction (YYYY-MM-DD)")
	txEditCmd.Flags().StringVar(&txNewDate, "new-date", "", "Move the transaction to this date")
	txEditCmd.Flags().BoolVar(&txRecurring, "recurring", false, "Mark as recurring (use --recurring=false to clear)")
	txEditCmd.MarkFlagsMutuallyExclusive("income", "expense")
	_ = txEditCmd.MarkFlagRequired("date")

	txDeleteCmd.Flags().StringVar(&txDate, "date", "", "Date of the transaction (YYYY-MM-DD)")
	_ = txDeleteCmd.MarkFlagRequired("date")

	txCmd.AddCommand(txAddCmd, txEditCmd, txDeleteCmd)
	rootCmd.AddCommand(txCmd)
}

func runTxAdd(cmd *cobra.Command, _ []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	amount, err := parseAmount(txAmount)
	if err != nil {
		return err
	}
	if !txIncome {
		amount = -amount
	}

	now := e.loader.Now()
	date := calendar.StartOfDay(now)
	if txDate != "" {
		if date, err = parseDate(txDate, now.Location()); err != nil {
			return err
		}
	}

	tx := pipeline.NewTransaction(strings.TrimSpace(txMerchant), strings.TrimSpace(txCategory), amount, date, e.cfg.General.Currency)
	tx.IsRecurring = txRecurring

	ctx, cancel := commandContext(cmd)
	defer cancel()

	saved, err := e.loader.AddTransaction(ctx, tx)
	if err != nil {
		return err
	}
	fmt.Printf("  Added %s %s on %s (id %s)\n",
		saved.Label(), cli.ColorAmount(saved.Amount, cli.FormatSigned(saved.Amount)), saved.DateKey(), saved.ID)
	return nil
}

func runTxEdit(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, cancel := commandContext(cmd)
	defer cancel()

	prev, err := findTransaction(ctx, e, args[0], txDate)
	if err != nil {
		return err
	}

	tx := prev
	flags := cmd.Flags()
	if flags.Changed("merchant") {
		tx.MerchantName = strings.TrimSpace(txMerchant)
	}
	if flags.Changed("category") {
		tx.Category = strings.TrimSpace(txCategory)
	}
	if flags.Changed("amount") {
		amount, err := parseAmount(txAmount)
		if err != nil {
			return err
		}
		if prev.IsExpense() {
			amount = -amount
		}
		tx.Amount = amount
	}
	switch {
	case txIncome && tx.Amount < 0, txExpense && tx.Amount > 0:
		tx.Amount = -tx.Amount
	}
	if flags.Changed("new-date") {
		d, err := parseDate(txNewDate, e.loader.Now().Location())
		if err != nil {
			return err
		}
		tx.Date = d.Format(model.DateLayout)
	}
	if flags.Changed("recurring") {
		tx.IsRecurring = txRecurring
	}

	if tx == prev {
		fmt.Println("  Nothing to change.")
		return nil
	}
	if err := e.loader.UpdateTransaction(ctx, prev, tx); err != nil {
		return err
	}
	fmt.Printf("  Updated %s %s on %s\n", tx.Label(), cli.ColorAmount(tx.Amount, cli.FormatSigned(tx.Amount)), tx.DateKey())
	return nil
}

func runTxDelete(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, cancel := commandContext(cmd)
	defer cancel()

	tx, err := findTransaction(ctx, e, args[0], txDate)
	if err != nil {
		return err
	}
	if err := e.loader.DeleteTransaction(ctx, tx); err != nil {
		return err
	}
	fmt.Printf("  Deleted %s %s on %s\n", tx.Label(), cli.FormatSigned(tx.Amount), tx.DateKey())
	return nil
}

// findTransaction looks id up among the backend's transactions on date.
// An id prefix is accepted when it is unambiguous.
func findTransaction(ctx context.Context, e *appEnv, id, date string) (model.Transaction, error) {
	day, err := parseDate(date, e.loader.Now().Location())
	if err != nil {
		return model.Transaction{}, err
	}
	res, err := e.loader.LoadRange(ctx, day, day, true)
	if err != nil {
		return model.Transaction{}, err
	}

	var matches []model.Transaction
	for _, tx := range res.Transactions {
		if tx.ID == id {
			return tx, nil
		}
		if strings.HasPrefix(tx.ID, id) {
			matches = append(matches, tx)
		}
	}
	switch len(matches) {
	case 0:
		return model.Transaction{}, fmt.Errorf("no transaction %q on %s", id, date)
	case 1:
		return matches[0], nil
	}
	return model.Transaction{}, fmt.Errorf("id %q matches %d transactions on %s", id, len(matches), date)
}

func parseAmount(s string) (float64, error) {
	s = strings.NewReplacer("$", "", ",", "").Replace(strings.TrimSpace(s))
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	if v <= 0 {
		return 0, errors.New("amount must be greater than zero")
	}
	return v, nil
}

func parseDate(s string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(model.DateLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD)", s)
	}
	return d, nil
}
