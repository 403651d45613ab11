package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"veledger/core"
	"veledger/crypto"
	"veledger/native/multifee"
)

func (c *cli) rewardsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rewards",
		Short: "Manage reward tokens and claims",
	}
	cmd.AddCommand(
		c.rewardsAddCommand(),
		c.rewardsFundCommand(),
		c.rewardsClaimCommand(),
		c.rewardsClaimableCommand(),
		c.rewardsTokensCommand(),
		c.rewardsDataCommand(),
		c.rewardsTickCommand(),
	)
	return cmd
}

func (c *cli) rewardsAddCommand() *cobra.Command {
	var from, token string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a reward token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withLedger(func(l *core.Ledger) error {
				caller, err := resolveAddress(l, from)
				if err != nil {
					return err
				}
				tokenAddr, err := resolveToken(token)
				if err != nil {
					return err
				}
				if err := l.AddReward(caller, tokenAddr); err != nil {
					return err
				}
				return c.print(map[string]any{"token": tokenAddr}, fmt.Sprintf("Added reward token %s\n", tokenAddr))
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "owner", "calling account")
	cmd.Flags().StringVar(&token, "token", "", "token address or symbol")
	return cmd
}

func (c *cli) rewardsFundCommand() *cobra.Command {
	var from, token, amount string
	cmd := &cobra.Command{
		Use:   "fund",
		Short: "Transfer reward tokens into the distributor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withLedger(func(l *core.Ledger) error {
				funder, err := resolveAddress(l, from)
				if err != nil {
					return err
				}
				tokenAddr, err := resolveToken(token)
				if err != nil {
					return err
				}
				amt, err := parseAmount(amount)
				if err != nil {
					return err
				}
				if err := l.FundRewards(funder, tokenAddr, amt); err != nil {
					return err
				}
				return c.print(map[string]any{"token": tokenAddr, "amount": amt.String()},
					fmt.Sprintf("Funded %s of %s; it streams from the next settlement\n", amt, tokenAddr))
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "owner", "funding account")
	cmd.Flags().StringVar(&token, "token", "", "token address or symbol")
	cmd.Flags().StringVar(&amount, "amount", "", "amount in base units")
	return cmd
}

func (c *cli) rewardsClaimCommand() *cobra.Command {
	var from, receiver string
	var tokens []string
	cmd := &cobra.Command{
		Use:   "claim",
		Short: "Claim accrued rewards",
		Long:  "Claim accrued rewards. Without --tokens every registered reward token is claimed.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withLedger(func(l *core.Ledger) error {
				caller, err := resolveAddress(l, from)
				if err != nil {
					return err
				}
				to := crypto.ZeroAddress
				if strings.TrimSpace(receiver) != "" {
					if to, err = resolveAddress(l, receiver); err != nil {
						return err
					}
				}
				selected, err := c.selectTokens(l, tokens)
				if err != nil {
					return err
				}
				paid, err := l.GetReward(caller, selected, to)
				if err != nil {
					return err
				}
				return c.printClaimables(caller, paid, "Paid")
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "claiming account")
	cmd.Flags().StringVar(&receiver, "receiver", "", "recipient of the rewards (defaults to --from)")
	cmd.Flags().StringSliceVar(&tokens, "tokens", nil, "reward tokens to claim")
	return cmd
}

func (c *cli) rewardsClaimableCommand() *cobra.Command {
	var account string
	cmd := &cobra.Command{
		Use:   "claimable",
		Short: "Show rewards an account could claim now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withLedger(func(l *core.Ledger) error {
				addr, err := resolveAddress(l, account)
				if err != nil {
					return err
				}
				claimable, err := l.ClaimableRewards(addr)
				if err != nil {
					return err
				}
				return c.printClaimables(addr, claimable, "Claimable")
			})
		},
	}
	cmd.Flags().StringVar(&account, "account", "", "account address")
	return cmd
}

func (c *cli) rewardsTokensCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tokens",
		Short: "List reward tokens in registration order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withLedger(func(l *core.Ledger) error {
				tokens, err := l.GetRewardTokens()
				if err != nil {
					return err
				}
				var b strings.Builder
				for i, token := range tokens {
					fmt.Fprintf(&b, "%d. %s\n", i, token)
				}
				return c.print(map[string]any{"tokens": tokens}, b.String())
			})
		},
	}
}

func (c *cli) rewardsDataCommand() *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "data",
		Short: "Show a reward token's accumulator",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withLedger(func(l *core.Ledger) error {
				tokenAddr, err := resolveToken(token)
				if err != nil {
					return err
				}
				data, err := l.RewardData(tokenAddr)
				if err != nil {
					return err
				}
				text := fmt.Sprintf("Reward %s\n  Last update:      %s\n  Reward per share: %s\n  Rate:             %s\n  Period finish:    %s\n  Balance:          %s\n",
					tokenAddr, formatUnix(data.LastUpdateTime), data.RewardPerShareStored, data.RewardRate, formatUnix(data.PeriodFinish), data.Balance)
				return c.print(map[string]any{
					"token":                tokenAddr,
					"lastUpdateTime":       data.LastUpdateTime,
					"rewardPerTokenStored": data.RewardPerShareStored.String(),
					"rewardRate":           data.RewardRate.String(),
					"periodFinish":         data.PeriodFinish,
					"balance":              data.Balance.String(),
				}, text)
			})
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "token address or symbol")
	return cmd
}

func (c *cli) rewardsTickCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tick",
		Short: "Settle every accumulator and notify newly funded rewards",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withLedger(func(l *core.Ledger) error {
				if err := l.Checkpoint(); err != nil {
					return err
				}
				return c.print(map[string]any{"settled": true}, "Reward accumulators settled\n")
			})
		},
	}
}

func (c *cli) selectTokens(l *core.Ledger, values []string) ([]crypto.Address, error) {
	if len(values) == 0 {
		return l.GetRewardTokens()
	}
	out := make([]crypto.Address, 0, len(values))
	for _, value := range values {
		token, err := resolveToken(value)
		if err != nil {
			return nil, err
		}
		out = append(out, token)
	}
	return out, nil
}

func (c *cli) printClaimables(addr crypto.Address, items []multifee.Claimable, label string) error {
	type entry struct {
		Token  crypto.Address `json:"token"`
		Amount string         `json:"amount"`
	}
	entries := make([]entry, 0, len(items))
	var b strings.Builder
	fmt.Fprintf(&b, "%s rewards for %s\n", label, addr)
	for _, item := range items {
		entries = append(entries, entry{Token: item.Token, Amount: item.Amount.String()})
		fmt.Fprintf(&b, "  %s: %s\n", item.Token, item.Amount)
	}
	return c.print(map[string]any{"account": addr, "rewards": entries}, b.String())
}
