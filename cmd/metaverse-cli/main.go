// metaverse-cli is a command-line client for interacting with a metaversed
// node.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"syscall"

	"github.com/Klingon-tech/metaverse-nft/config"
	"github.com/Klingon-tech/metaverse-nft/internal/rpcclient"
	"github.com/Klingon-tech/metaverse-nft/internal/signer"
	"github.com/Klingon-tech/metaverse-nft/pkg/types"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// globalFlags apply to every command.
type globalFlags struct {
	RPC        string
	DataDir    string
	Network    string
	Collection string
	From       string
	Account    uint32
}

var global globalFlags

var rootCmd = &cobra.Command{
	Use:   "metaverse-cli",
	Short: "Command-line client for metaversed",
	Long: `metaverse-cli talks to a metaversed node over JSON-RPC.

Mutating commands act as --from. On the hardhat network --from defaults
to the dev mnemonic account selected by --account.

Examples:
  metaverse-cli info
  metaverse-cli mint 3
  metaverse-cli --network rinkeby --collection 0x... owner-of 3`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if _, err := config.LookupNetwork(config.NetworkType(global.Network)); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&global.RPC, "rpc", "", "RPC endpoint (default: http://127.0.0.1:<network port>)")
	pf.StringVar(&global.DataDir, "datadir", config.DefaultDataDir(), "Data directory")
	pf.StringVar(&global.Network, "network", string(config.Hardhat), "Network: hardhat or rinkeby")
	pf.StringVar(&global.Collection, "collection", "", "Collection address (default: the node's primary)")
	pf.StringVar(&global.From, "from", "", "Calling account for mutations")
	pf.Uint32Var(&global.Account, "account", 0, "Dev mnemonic account index used when --from is empty")

	rootCmd.AddCommand(nftCommands()...)
	rootCmd.AddCommand(saleCmd(), vaultCmd(), ledgerCmd())
	rootCmd.AddCommand(deployCmd(), signersCmd(), keystoreCmd())
}

// ── Helpers ─────────────────────────────────────────────────────────────

func profile() config.NetworkProfile {
	p, _ := config.LookupNetwork(config.NetworkType(global.Network))
	return p
}

func client() *rpcclient.Client {
	url := global.RPC
	if url == "" {
		url = fmt.Sprintf("http://127.0.0.1:%d", profile().RPCPort)
	}
	return rpcclient.New(url)
}

// nodeConfig returns the node layout for the selected network and datadir.
func nodeConfig() *config.Config {
	cfg := config.DefaultFor(config.NetworkType(global.Network))
	cfg.DataDir = global.DataDir
	return cfg
}

// from resolves the calling account.
func from() (string, error) {
	if global.From != "" {
		if _, err := types.ParseAddress(global.From); err != nil {
			return "", fmt.Errorf("--from: %w", err)
		}
		return global.From, nil
	}
	p := profile()
	if p.Mnemonic == "" {
		return "", fmt.Errorf("--from is required on %s", global.Network)
	}
	s, err := signer.Account(p.Mnemonic, "", global.Account)
	if err != nil {
		return "", err
	}
	s.Key().Zero()
	return s.Address.String(), nil
}

// call invokes method and prints the result as indented JSON.
func call(method string, params interface{}) error {
	var raw json.RawMessage
	if err := client().Call(method, params, &raw); err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	if len(raw) == 0 {
		return nil
	}
	return printJSON(raw)
}

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func readPassword(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr) // newline after hidden input
	if err != nil {
		return nil, err
	}
	return password, nil
}
