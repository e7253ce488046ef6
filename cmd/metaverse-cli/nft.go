package main

import (
	"fmt"
	"strconv"

	"github.com/Klingon-tech/metaverse-nft/internal/engine"
	"github.com/Klingon-tech/metaverse-nft/internal/royalty"
	"github.com/Klingon-tech/metaverse-nft/internal/rpc"
	"github.com/Klingon-tech/metaverse-nft/pkg/types"
	"github.com/spf13/cobra"
)

func nftCommands() []*cobra.Command {
	return []*cobra.Command{
		infoCmd(),
		{
			Use:   "collections",
			Short: "List the collections served by the node",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return call("nft_listCollections", nil)
			},
		},
		{
			Use:   "owner-of <id>",
			Short: "Show the owner of an issued id",
			Args:  cobra.ExactArgs(1),
			RunE:  tokenCall("nft_ownerOf"),
		},
		{
			Use:   "exists <id>",
			Short: "Report whether an id has been issued",
			Args:  cobra.ExactArgs(1),
			RunE:  tokenCall("nft_exists"),
		},
		{
			Use:   "token-uri <id>",
			Short: "Show the metadata URI of an issued id",
			Args:  cobra.ExactArgs(1),
			RunE:  tokenCall("nft_tokenURI"),
		},
		{
			Use:   "balance <owner>",
			Short: "Count the ids held by an owner",
			Args:  cobra.ExactArgs(1),
			RunE:  ownerCall("nft_balanceOf"),
		},
		{
			Use:   "tokens <owner>",
			Short: "List the ids held by an owner",
			Args:  cobra.ExactArgs(1),
			RunE:  ownerCall("nft_tokensOf"),
		},
		{
			Use:   "supply",
			Short: "Show the number of issued ids",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return call("nft_totalSupply", rpc.CollectionParam{Collection: global.Collection})
			},
		},
		{
			Use:   "royalty-info <id> <sale-price>",
			Short: "Quote the royalty owed on a sale",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := types.ParseTokenID(args[0])
				if err != nil {
					return err
				}
				return call("nft_royaltyInfo", rpc.RoyaltyInfoParam{
					Collection: global.Collection,
					ID:         id,
					SalePrice:  args[1],
				})
			},
		},
		{
			Use:   "default-royalty",
			Short: "Show the collection-wide royalty",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return call("nft_defaultRoyalty", rpc.CollectionParam{Collection: global.Collection})
			},
		},
		mintCmd(),
		{
			Use:   "batch-mint <owner> <id>...",
			Short: "Issue several ids to one owner (operator only)",
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				caller, err := from()
				if err != nil {
					return err
				}
				ids := make([]types.TokenID, 0, len(args)-1)
				for _, s := range args[1:] {
					id, err := types.ParseTokenID(s)
					if err != nil {
						return err
					}
					ids = append(ids, id)
				}
				return call("nft_batchMint", rpc.BatchMintParam{
					Collection: global.Collection,
					From:       caller,
					Owner:      args[0],
					IDs:        ids,
				})
			},
		},
		{
			Use:   "set-base-uri <uri>",
			Short: "Replace the base metadata URI (operator only)",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				caller, err := from()
				if err != nil {
					return err
				}
				return call("nft_setBaseTokenURI", rpc.SetBaseURIParam{
					Collection: global.Collection,
					From:       caller,
					URI:        args[0],
				})
			},
		},
		{
			Use:   "set-token-uri <id> <uri>",
			Short: "Override the metadata URI of one id (operator only)",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				caller, err := from()
				if err != nil {
					return err
				}
				id, err := types.ParseTokenID(args[0])
				if err != nil {
					return err
				}
				return call("nft_setTokenURI", rpc.SetTokenURIParam{
					Collection: global.Collection,
					From:       caller,
					ID:         id,
					URI:        args[1],
				})
			},
		},
		{
			Use:   "set-default-royalty <recipient> <bps>",
			Short: "Set the collection-wide royalty (operator only)",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				caller, err := from()
				if err != nil {
					return err
				}
				bps, err := parseBps(args[1])
				if err != nil {
					return err
				}
				return call("nft_setDefaultRoyalty", rpc.SetDefaultRoyaltyParam{
					Collection: global.Collection,
					From:       caller,
					Recipient:  args[0],
					Bps:        bps,
				})
			},
		},
		{
			Use:   "set-token-royalty <id> <recipient> <bps>",
			Short: "Set the royalty of one id (operator only)",
			Args:  cobra.ExactArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				caller, err := from()
				if err != nil {
					return err
				}
				id, err := types.ParseTokenID(args[0])
				if err != nil {
					return err
				}
				bps, err := parseBps(args[2])
				if err != nil {
					return err
				}
				return call("nft_setTokenRoyalty", rpc.SetTokenRoyaltyParam{
					Collection: global.Collection,
					From:       caller,
					ID:         id,
					Recipient:  args[1],
					Bps:        bps,
				})
			},
		},
		{
			Use:   "reset-token-royalty <id>",
			Short: "Drop the royalty override of one id (operator only)",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				caller, err := from()
				if err != nil {
					return err
				}
				id, err := types.ParseTokenID(args[0])
				if err != nil {
					return err
				}
				return call("nft_resetTokenRoyalty", rpc.ResetTokenRoyaltyParam{
					Collection: global.Collection,
					From:       caller,
					ID:         id,
				})
			},
		},
	}
}

func infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show collection details",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := client()
			params := rpc.CollectionParam{Collection: global.Collection}

			var info engine.Info
			if err := c.Call("nft_getInfo", params, &info); err != nil {
				return fmt.Errorf("nft_getInfo: %w", err)
			}
			var supply rpc.SupplyResult
			if err := c.Call("nft_totalSupply", params, &supply); err != nil {
				return fmt.Errorf("nft_totalSupply: %w", err)
			}
			var sale engine.SaleState
			if err := c.Call("sale_getState", params, &sale); err != nil {
				return fmt.Errorf("sale_getState: %w", err)
			}

			fmt.Printf("Collection: %s\n", info.Address)
			fmt.Printf("Name:       %s (%s)\n", info.Name, info.Symbol)
			fmt.Printf("Base:       %s\n", info.BaseRegistry)
			fmt.Printf("Operator:   %s\n", info.Operator)
			fmt.Printf("Supply:     %d\n", supply.TotalSupply)
			fmt.Printf("Sale:       active=%t price=%s\n", sale.Active, sale.BasePrice)
			fmt.Printf("Policy:     gate_mint=%t royalty_require_issued=%t require_base_token=%t\n",
				info.Policy.GateMint, info.Policy.RoyaltyRequiresIssued, info.Policy.RequireBaseToken)
			return nil
		},
	}
}

func mintCmd() *cobra.Command {
	var payment string
	cmd := &cobra.Command{
		Use:   "mint <id>",
		Short: "Issue an id to --from",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := from()
			if err != nil {
				return err
			}
			id, err := types.ParseTokenID(args[0])
			if err != nil {
				return err
			}
			return call("nft_mint", rpc.MintParam{
				Collection: global.Collection,
				From:       caller,
				ID:         id,
				Payment:    payment,
			})
		},
	}
	cmd.Flags().StringVar(&payment, "payment", "", "Attached payment in base units (decimal or 0x-hex)")
	return cmd
}

func tokenCall(method string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		id, err := types.ParseTokenID(args[0])
		if err != nil {
			return err
		}
		return call(method, rpc.TokenParam{Collection: global.Collection, ID: id})
	}
}

func ownerCall(method string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		return call(method, rpc.OwnerParam{Collection: global.Collection, Owner: args[0]})
	}
}

func parseBps(s string) (uint16, error) {
	v, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid bps %q: %w", s, err)
	}
	if v > royalty.FeeDenominator {
		return 0, fmt.Errorf("%w: %d", royalty.ErrInvalidRoyaltyCut, v)
	}
	return uint16(v), nil
}
