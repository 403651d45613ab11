package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"veledger/core"
	"veledger/native/bank"
)

func (c *cli) tokenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage fungible tokens",
	}
	cmd.AddCommand(c.tokenRegisterCommand(), c.tokenMintCommand(), c.tokenTransferCommand(), c.tokenApproveCommand(), c.tokenBalanceCommand())
	return cmd
}

func (c *cli) tokenRegisterCommand() *cobra.Command {
	var (
		symbol   string
		decimals uint8
		minter   string
	)
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withLedger(func(l *core.Ledger) error {
				minterAddr, err := resolveAddress(l, minter)
				if err != nil {
					return err
				}
				token := &bank.Token{
					Address:  bank.TokenAddress(symbol),
					Symbol:   symbol,
					Decimals: decimals,
					Minter:   minterAddr,
				}
				if err := l.RegisterToken(token); err != nil {
					return err
				}
				return c.print(map[string]any{"token": token.Address, "symbol": bank.NormalizeSymbol(symbol)},
					fmt.Sprintf("Registered %s at %s\n", bank.NormalizeSymbol(symbol), token.Address))
			})
		},
	}
	cmd.Flags().StringVar(&symbol, "symbol", "", "token ticker")
	cmd.Flags().Uint8Var(&decimals, "decimals", bank.DefaultDecimals, "token decimals")
	cmd.Flags().StringVar(&minter, "minter", "owner", "account allowed to mint")
	_ = cmd.MarkFlagRequired("symbol")
	return cmd
}

func (c *cli) tokenMintCommand() *cobra.Command {
	var token, from, to, amount string
	cmd := &cobra.Command{
		Use:   "mint",
		Short: "Mint new supply to an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withLedger(func(l *core.Ledger) error {
				tokenAddr, err := resolveToken(token)
				if err != nil {
					return err
				}
				caller, err := resolveAddress(l, from)
				if err != nil {
					return err
				}
				recipient, err := resolveAddress(l, to)
				if err != nil {
					return err
				}
				amt, err := parseAmount(amount)
				if err != nil {
					return err
				}
				if err := l.Mint(caller, tokenAddr, recipient, amt); err != nil {
					return err
				}
				return c.print(map[string]any{"token": tokenAddr, "to": recipient, "amount": amt.String()},
					fmt.Sprintf("Minted %s to %s\n", amt, recipient))
			})
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "token address or symbol")
	cmd.Flags().StringVar(&from, "from", "owner", "minting account")
	cmd.Flags().StringVar(&to, "to", "", "recipient")
	cmd.Flags().StringVar(&amount, "amount", "", "amount in base units (supports 1000e18 shorthand)")
	return cmd
}

func (c *cli) tokenTransferCommand() *cobra.Command {
	var token, from, to, amount string
	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Transfer tokens between accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withLedger(func(l *core.Ledger) error {
				tokenAddr, err := resolveToken(token)
				if err != nil {
					return err
				}
				sender, err := resolveAddress(l, from)
				if err != nil {
					return err
				}
				recipient, err := resolveAddress(l, to)
				if err != nil {
					return err
				}
				amt, err := parseAmount(amount)
				if err != nil {
					return err
				}
				if err := l.Transfer(tokenAddr, sender, recipient, amt); err != nil {
					return err
				}
				return c.print(map[string]any{"token": tokenAddr, "from": sender, "to": recipient, "amount": amt.String()},
					fmt.Sprintf("Transferred %s from %s to %s\n", amt, sender, recipient))
			})
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "token address or symbol")
	cmd.Flags().StringVar(&from, "from", "", "sender")
	cmd.Flags().StringVar(&to, "to", "", "recipient")
	cmd.Flags().StringVar(&amount, "amount", "", "amount in base units")
	return cmd
}

func (c *cli) tokenApproveCommand() *cobra.Command {
	var token, from, spender, amount string
	cmd := &cobra.Command{
		Use:   "approve",
		Short: "Set a spender allowance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withLedger(func(l *core.Ledger) error {
				tokenAddr, err := resolveToken(token)
				if err != nil {
					return err
				}
				owner, err := resolveAddress(l, from)
				if err != nil {
					return err
				}
				spenderAddr, err := resolveAddress(l, spender)
				if err != nil {
					return err
				}
				amt, err := parseAmount(amount)
				if err != nil {
					return err
				}
				if err := l.Approve(tokenAddr, owner, spenderAddr, amt); err != nil {
					return err
				}
				return c.print(map[string]any{"token": tokenAddr, "owner": owner, "spender": spenderAddr, "amount": amt.String()},
					fmt.Sprintf("Approved %s to spend %s of %s's tokens\n", spenderAddr, amt, owner))
			})
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "token address or symbol")
	cmd.Flags().StringVar(&from, "from", "", "token owner")
	cmd.Flags().StringVar(&spender, "spender", "escrow", "spender address or alias")
	cmd.Flags().StringVar(&amount, "amount", "", "allowance in base units")
	return cmd
}

func (c *cli) tokenBalanceCommand() *cobra.Command {
	var token, account string
	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Show an account balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withLedger(func(l *core.Ledger) error {
				tokenAddr, err := resolveToken(token)
				if err != nil {
					return err
				}
				addr, err := resolveAddress(l, account)
				if err != nil {
					return err
				}
				meta, err := l.Token(tokenAddr)
				if err != nil {
					return err
				}
				balance, err := l.BalanceOf(tokenAddr, addr)
				if err != nil {
					return err
				}
				return c.print(map[string]any{"token": tokenAddr, "symbol": meta.Symbol, "account": addr, "balance": balance.String()},
					fmt.Sprintf("%s %s\n", balance, meta.Symbol))
			})
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "token address or symbol")
	cmd.Flags().StringVar(&account, "account", "", "account address or alias")
	return cmd
}
