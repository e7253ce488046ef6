package main

import (
	"github.com/Klingon-tech/metaverse-nft/internal/rpc"
	"github.com/spf13/cobra"
)

// ── sale ────────────────────────────────────────────────────────────────

func saleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sale",
		Short: "Public sale switch and base price",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "state",
			Short: "Show whether the sale is active and its base price",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return call("sale_getState", rpc.CollectionParam{Collection: global.Collection})
			},
		},
		&cobra.Command{
			Use:   "flip",
			Short: "Toggle the sale (operator only)",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				caller, err := from()
				if err != nil {
					return err
				}
				return call("sale_flip", rpc.FromParam{Collection: global.Collection, From: caller})
			},
		},
		&cobra.Command{
			Use:   "set-price <amount>",
			Short: "Set the base price in base units (operator only)",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				caller, err := from()
				if err != nil {
					return err
				}
				return call("sale_setBasePrice", rpc.SetBasePriceParam{
					Collection: global.Collection,
					From:       caller,
					Price:      args[0],
				})
			},
		},
	)
	return cmd
}

// ── vault ───────────────────────────────────────────────────────────────

func vaultCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vault",
		Short: "Collected mint proceeds",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "info",
			Short: "Show the vault balance and fund manager",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return call("vault_getInfo", rpc.CollectionParam{Collection: global.Collection})
			},
		},
		&cobra.Command{
			Use:   "set-manager <address>",
			Short: "Change the fund manager (operator only)",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				caller, err := from()
				if err != nil {
					return err
				}
				return call("vault_setFundManager", rpc.SetFundManagerParam{
					Collection: global.Collection,
					From:       caller,
					Manager:    args[0],
				})
			},
		},
		&cobra.Command{
			Use:   "withdraw",
			Short: "Pay the whole balance to the fund manager (manager only)",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				caller, err := from()
				if err != nil {
					return err
				}
				return call("vault_withdraw", rpc.FromParam{Collection: global.Collection, From: caller})
			},
		},
	)
	return cmd
}

// ── ledger ──────────────────────────────────────────────────────────────

func ledgerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Account balances credited by withdrawals",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "balance <address>",
		Short: "Show an account's ledger balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return call("ledger_getBalance", rpc.AddressParam{Address: args[0]})
		},
	})
	return cmd
}
