package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"veledger/core"
)

func (c *cli) escrowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "escrow",
		Short: "Inspect the lock ledger",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "params",
		Short: "Show lock ledger parameters and totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withLedger(func(l *core.Ledger) error {
				p, err := l.EscrowParams()
				if err != nil {
					return err
				}
				text := fmt.Sprintf(`%s (%s)
  Locked token:       %s
  Custody:            %s
  Owner:              %s
  Penalty collector:  %s
  Distributor:        %s
  Lock days:          %d-%d
  Min locked amount:  %s
  Penalty rate:       %d/%d
  Total locked:       %s
  Total power:        %s
`, p.Name, p.Symbol, p.LockedToken, p.Custody, p.Owner, p.PenaltyCollector, p.Distributor,
					p.MinDays, p.MaxDays, p.MinLockedAmount, p.EarlyWithdrawPenaltyRate, p.Precision, p.TotalLocked, p.TotalSupply)
				return c.print(map[string]any{
					"name":                     p.Name,
					"symbol":                   p.Symbol,
					"decimals":                 p.Decimals,
					"lockedToken":              p.LockedToken,
					"custody":                  p.Custody,
					"owner":                    p.Owner,
					"penaltyCollector":         p.PenaltyCollector,
					"multiFeeDistribution":     p.Distributor,
					"minDays":                  p.MinDays,
					"maxDays":                  p.MaxDays,
					"precision":                p.Precision,
					"minLockedAmount":          p.MinLockedAmount.String(),
					"earlyWithdrawPenaltyRate": p.EarlyWithdrawPenaltyRate,
					"totalLocked":              p.TotalLocked.String(),
					"totalSupply":              p.TotalSupply.String(),
				}, text)
			})
		},
	})
	return cmd
}

func (c *cli) adminCommand() *cobra.Command {
	var from string
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Owner-only parameter changes",
	}
	cmd.PersistentFlags().StringVar(&from, "from", "owner", "calling account")

	setCollector := &cobra.Command{
		Use:   "set-penalty-collector <address>",
		Short: "Change the recipient of emergency withdraw penalties",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withLedger(func(l *core.Ledger) error {
				caller, err := resolveAddress(l, from)
				if err != nil {
					return err
				}
				collector, err := resolveAddress(l, args[0])
				if err != nil {
					return err
				}
				if err := l.SetPenaltyCollector(caller, collector); err != nil {
					return err
				}
				return c.print(map[string]any{"penaltyCollector": collector}, fmt.Sprintf("Penalty collector set to %s\n", collector))
			})
		},
	}

	setMinAmount := &cobra.Command{
		Use:   "set-min-amount <amount>",
		Short: "Change the minimum amount accepted by lock create and increase-amount",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withLedger(func(l *core.Ledger) error {
				caller, err := resolveAddress(l, from)
				if err != nil {
					return err
				}
				amount, err := parseAmount(args[0])
				if err != nil {
					return err
				}
				if err := l.SetMinLockedAmount(caller, amount); err != nil {
					return err
				}
				return c.print(map[string]any{"minLockedAmount": amount.String()}, fmt.Sprintf("Minimum locked amount set to %s\n", amount))
			})
		},
	}

	var rate uint64
	setRate := &cobra.Command{
		Use:   "set-penalty-rate",
		Short: "Change the early withdraw penalty rate (out of 100000)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withLedger(func(l *core.Ledger) error {
				caller, err := resolveAddress(l, from)
				if err != nil {
					return err
				}
				if err := l.SetEarlyWithdrawPenaltyRate(caller, rate); err != nil {
					return err
				}
				return c.print(map[string]any{"earlyWithdrawPenaltyRate": rate}, fmt.Sprintf("Penalty rate set to %d\n", rate))
			})
		},
	}
	setRate.Flags().Uint64Var(&rate, "rate", 0, "penalty rate out of 100000")
	_ = setRate.MarkFlagRequired("rate")

	cmd.AddCommand(setCollector, setMinAmount, setRate)
	return cmd
}
