package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"veledger/core"
	"veledger/crypto"
)

func (c *cli) lockCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lock",
		Short: "Create and manage locks",
	}
	cmd.AddCommand(
		c.lockCreateCommand(),
		c.lockIncreaseAmountCommand(),
		c.lockIncreaseTimeCommand(),
		c.lockReleaseCommand("withdraw", "Withdraw an expired lock", (*core.Ledger).Withdraw),
		c.lockReleaseCommand("emergency-withdraw", "Withdraw a lock early, paying the penalty", (*core.Ledger).EmergencyWithdraw),
		c.lockInfoCommand(),
	)
	return cmd
}

func (c *cli) lockCreateCommand() *cobra.Command {
	var from, amount string
	var days uint64
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Lock tokens for a number of days",
		Long:  "Lock tokens for a number of days. The account must first approve the escrow for the amount.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withLedger(func(l *core.Ledger) error {
				caller, err := resolveAddress(l, from)
				if err != nil {
					return err
				}
				amt, err := parseAmount(amount)
				if err != nil {
					return err
				}
				if err := l.CreateLock(caller, amt, days); err != nil {
					return err
				}
				return c.showLock(l, caller)
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "locking account")
	cmd.Flags().StringVar(&amount, "amount", "", "amount in base units")
	cmd.Flags().Uint64Var(&days, "days", 0, "lock duration in days")
	return cmd
}

func (c *cli) lockIncreaseAmountCommand() *cobra.Command {
	var from, amount string
	cmd := &cobra.Command{
		Use:   "increase-amount",
		Short: "Add tokens to an unexpired lock",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withLedger(func(l *core.Ledger) error {
				caller, err := resolveAddress(l, from)
				if err != nil {
					return err
				}
				amt, err := parseAmount(amount)
				if err != nil {
					return err
				}
				if err := l.IncreaseAmount(caller, amt); err != nil {
					return err
				}
				return c.showLock(l, caller)
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "lock owner")
	cmd.Flags().StringVar(&amount, "amount", "", "amount in base units")
	return cmd
}

func (c *cli) lockIncreaseTimeCommand() *cobra.Command {
	var from string
	var days uint64
	cmd := &cobra.Command{
		Use:   "increase-time",
		Short: "Extend the unlock time of an unexpired lock",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withLedger(func(l *core.Ledger) error {
				caller, err := resolveAddress(l, from)
				if err != nil {
					return err
				}
				if err := l.IncreaseUnlockTime(caller, days); err != nil {
					return err
				}
				return c.showLock(l, caller)
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "lock owner")
	cmd.Flags().Uint64Var(&days, "days", 0, "days to add to the unlock time")
	return cmd
}

func (c *cli) lockReleaseCommand(use, short string, release func(*core.Ledger, crypto.Address) error) *cobra.Command {
	var from string
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withLedger(func(l *core.Ledger) error {
				caller, err := resolveAddress(l, from)
				if err != nil {
					return err
				}
				before, err := l.BalanceOf(l.LockedToken(), caller)
				if err != nil {
					return err
				}
				if err := release(l, caller); err != nil {
					return err
				}
				after, err := l.BalanceOf(l.LockedToken(), caller)
				if err != nil {
					return err
				}
				received := after.Sub(after, before)
				return c.print(map[string]any{"account": caller, "received": received.String()},
					fmt.Sprintf("Released lock of %s, received %s\n", caller, received))
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "lock owner")
	return cmd
}

func (c *cli) lockInfoCommand() *cobra.Command {
	var account string
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show an account's lock",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withLedger(func(l *core.Ledger) error {
				addr, err := resolveAddress(l, account)
				if err != nil {
					return err
				}
				return c.showLock(l, addr)
			})
		},
	}
	cmd.Flags().StringVar(&account, "account", "", "account address")
	return cmd
}

func (c *cli) showLock(l *core.Ledger, addr crypto.Address) error {
	lock, err := l.Lock(addr)
	if err != nil {
		return err
	}
	if !lock.Active() {
		return c.print(map[string]any{"account": addr, "active": false}, fmt.Sprintf("%s has no lock\n", addr))
	}
	text := fmt.Sprintf("Lock of %s\n  Amount: %s\n  Power:  %s\n  Start:  %s\n  End:    %s\n",
		addr, lock.Amount, lock.Power, formatUnix(lock.Start), formatUnix(lock.End))
	return c.print(map[string]any{
		"account": addr,
		"active":  true,
		"amount":  lock.Amount.String(),
		"power":   lock.Power.String(),
		"start":   lock.Start,
		"end":     lock.End,
	}, text)
}

func formatUnix(ts uint64) string {
	return time.Unix(int64(ts), 0).UTC().Format(time.RFC3339)
}
