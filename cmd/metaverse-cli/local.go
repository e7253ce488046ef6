package main

import (
	"fmt"

	"github.com/Klingon-tech/metaverse-nft/config"
	"github.com/Klingon-tech/metaverse-nft/internal/deploy"
	"github.com/Klingon-tech/metaverse-nft/internal/engine"
	klog "github.com/Klingon-tech/metaverse-nft/internal/log"
	"github.com/Klingon-tech/metaverse-nft/internal/signer"
	"github.com/Klingon-tech/metaverse-nft/internal/storage"
	"github.com/Klingon-tech/metaverse-nft/pkg/types"
	"github.com/spf13/cobra"
)

// ── deploy ──────────────────────────────────────────────────────────────

func deployCmd() *cobra.Command {
	var name, symbol string
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy a collection into the local datadir (node must be stopped)",
		Long: `Deploy writes a new collection into <datadir>/<network>/db and records
its address under the deployments directory. On hardhat a mock base
collection is deployed first and five ids are minted to the deployer.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := klog.Init("warn", false, ""); err != nil {
				return err
			}
			caller, err := from()
			if err != nil {
				return err
			}
			deployer, err := types.ParseAddress(caller)
			if err != nil {
				return err
			}

			cfg := nodeConfig()
			if err := config.EnsureDataDirs(cfg); err != nil {
				return err
			}
			db, err := storage.NewBadger(cfg.DBDir())
			if err != nil {
				return fmt.Errorf("open database at %s: %w", cfg.DBDir(), err)
			}
			defer db.Close()

			res, err := deploy.Run(engine.NewHost(db, nil, nil), deploy.Options{
				Network:  cfg.Network,
				Deployer: deployer,
				Name:     name,
				Symbol:   symbol,
				OutDir:   cfg.DeploymentsDir(),
			})
			if err != nil {
				return err
			}
			fmt.Printf("Deployment record: %s\n", res.Path)
			return printJSON(res.Record)
		},
	}
	cmd.Flags().StringVar(&name, "name", config.DefaultEngineName, "Collection name")
	cmd.Flags().StringVar(&symbol, "symbol", config.DefaultEngineSymbol, "Collection symbol")
	return cmd
}

// ── signers ─────────────────────────────────────────────────────────────

func signersCmd() *cobra.Command {
	var (
		count    int
		mnemonic string
	)
	cmd := &cobra.Command{
		Use:   "signers",
		Short: "List the accounts derived from a mnemonic",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if mnemonic == "" {
				mnemonic = profile().Mnemonic
			}
			if mnemonic == "" {
				return fmt.Errorf("--mnemonic is required on %s", global.Network)
			}
			accounts, err := signer.Accounts(mnemonic, "", count)
			if err != nil {
				return err
			}
			for _, a := range accounts {
				a.Key().Zero()
				fmt.Printf("%3d  %s\n", a.Index, a.Address)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 10, "Number of accounts")
	cmd.Flags().StringVar(&mnemonic, "mnemonic", "", "Mnemonic (default: the network's dev mnemonic)")
	return cmd
}

// ── keystore ────────────────────────────────────────────────────────────

func openKeystore() (*signer.Keystore, error) {
	return signer.NewKeystore(nodeConfig().KeystoreDir())
}

func keystoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keystore",
		Short: "Encrypted operator mnemonics",
	}

	var importMnemonic string
	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a keystore from a new or imported mnemonic",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mnemonic := importMnemonic
			if mnemonic == "" {
				m, err := signer.GenerateMnemonic()
				if err != nil {
					return fmt.Errorf("generate mnemonic: %w", err)
				}
				mnemonic = m
				fmt.Println("Mnemonic (write this down!):")
				fmt.Printf("  %s\n\n", mnemonic)
			} else if !signer.ValidateMnemonic(mnemonic) {
				return fmt.Errorf("invalid mnemonic")
			}

			password, err := readPassword("Enter password: ")
			if err != nil {
				return fmt.Errorf("read password: %w", err)
			}
			confirm, err := readPassword("Confirm password: ")
			if err != nil {
				return fmt.Errorf("read password: %w", err)
			}
			if string(password) != string(confirm) {
				return fmt.Errorf("passwords do not match")
			}

			ks, err := openKeystore()
			if err != nil {
				return err
			}
			addr, err := ks.Create(args[0], mnemonic, password, signer.DefaultKDF())
			if err != nil {
				return err
			}
			fmt.Printf("Keystore created: %s\n", args[0])
			fmt.Printf("Address: %s\n", addr)
			return nil
		},
	}
	create.Flags().StringVar(&importMnemonic, "mnemonic", "", "Import this mnemonic instead of generating one")

	list := &cobra.Command{
		Use:   "list",
		Short: "List keystores and their first account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ks, err := openKeystore()
			if err != nil {
				return err
			}
			names, err := ks.List()
			if err != nil {
				return err
			}
			if len(names) == 0 {
				fmt.Println("No keystores.")
				return nil
			}
			for _, name := range names {
				addr, err := ks.Address(name)
				if err != nil {
					return err
				}
				fmt.Printf("%-20s %s\n", name, addr)
			}
			return nil
		},
	}

	del := &cobra.Command{
		Use:   "delete <name>",
		Short: "Remove a keystore",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ks, err := openKeystore()
			if err != nil {
				return err
			}
			return ks.Delete(args[0])
		},
	}

	cmd.AddCommand(create, list, del)
	return cmd
}
