package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"duobudget/internal/budget"
	"duobudget/internal/config"
	"duobudget/internal/services"
)

func (c *cli) carryoverCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "carryover",
		Short: "Inspect and move unspent child allowances",
	}
	cmd.AddCommand(c.carryoverShowCmd(), c.carryoverApplyCmd(), c.carryoverRolloverCmd())
	return cmd
}

func (c *cli) carryoverShowCmd() *cobra.Command {
	var (
		userID uint
		month  string
	)
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print what a child's month would carry into the next one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			period, err := budget.ParsePeriod(month)
			if err != nil {
				return err
			}
			return c.withDB(func(_ *config.Config, db *gorm.DB) error {
				amount, err := services.NewChildBudgetService(db).CalculateCarryover(userID, period)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "user %d %s carryover %s\n", userID, period, amount.StringFixed(2))
				return nil
			})
		},
	}
	cmd.Flags().UintVar(&userID, "user", 0, "child user ID")
	cmd.Flags().StringVar(&month, "month", "", "month to inspect (YYYY-MM)")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("month")
	return cmd
}

func (c *cli) carryoverApplyCmd() *cobra.Command {
	var (
		userID       uint
		from, to     string
		amountString string
	)
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Write an explicit carryover amount into a month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fromPeriod, err := budget.ParsePeriod(from)
			if err != nil {
				return err
			}
			toPeriod, err := budget.ParsePeriod(to)
			if err != nil {
				return err
			}
			amount, err := decimal.NewFromString(amountString)
			if err != nil {
				return fmt.Errorf("invalid amount %q", amountString)
			}
			return c.withDB(func(_ *config.Config, db *gorm.DB) error {
				target, err := services.NewChildBudgetService(db).ApplyCarryover(userID, fromPeriod, toPeriod, amount)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "user %d %s carryover set to %s (version %d)\n",
					userID, toPeriod, target.CarryoverAmount.StringFixed(2), target.Version)
				return nil
			})
		},
	}
	cmd.Flags().UintVar(&userID, "user", 0, "child user ID")
	cmd.Flags().StringVar(&from, "from", "", "source month (YYYY-MM)")
	cmd.Flags().StringVar(&to, "to", "", "target month (YYYY-MM)")
	cmd.Flags().StringVar(&amountString, "amount", "", "amount to carry")
	for _, name := range []string{"user", "from", "to", "amount"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func (c *cli) carryoverRolloverCmd() *cobra.Command {
	var (
		userID uint
		month  string
	)
	cmd := &cobra.Command{
		Use:   "rollover",
		Short: "Close a month for every child (or one) and carry the rest forward",
		Long: `Computes each child's unspent allowance for --month and writes it as the
following month's carryover. Defaults to the previous calendar month.
Exits non-zero when any child could not be rolled over.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withDB(func(cfg *config.Config, db *gorm.DB) error {
				from := budget.PeriodOf(cfg.Now()).Previous()
				if month != "" {
					p, err := budget.ParsePeriod(month)
					if err != nil {
						return err
					}
					from = p
				}

				var target *uint
				if cmd.Flags().Changed("user") {
					target = &userID
				}

				outcomes, err := services.RolloverChildren(
					services.NewUserService(db), services.NewChildBudgetService(db), target, from)
				if err != nil {
					return err
				}
				return printRollovers(cmd, from, outcomes)
			})
		},
	}
	cmd.Flags().UintVar(&userID, "user", 0, "only roll over this child")
	cmd.Flags().StringVar(&month, "month", "", "month to close (YYYY-MM, default previous month)")
	return cmd
}

func printRollovers(cmd *cobra.Command, from budget.Period, outcomes []services.RolloverOutcome) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "USER\tFROM\tTO\tAMOUNT\tSTATUS")

	failed := 0
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
			fmt.Fprintf(w, "%d\t%s\t%s\t-\t%v\n", o.UserID, from, from.Next(), o.Err)
			continue
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\tok\n", o.UserID, o.Rollover.From, o.Rollover.To, o.Rollover.Amount.StringFixed(2))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d rollovers failed", failed, len(outcomes))
	}
	return nil
}
