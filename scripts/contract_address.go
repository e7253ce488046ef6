// contract_address.go prints the addresses a deployer's next deployments
// will receive.
// Usage: go run scripts/contract_address.go <deployer> [first-nonce] [count]
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/Klingon-tech/metaverse-nft/pkg/crypto"
	"github.com/Klingon-tech/metaverse-nft/pkg/types"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: contract_address <deployer> [first-nonce] [count]")
		os.Exit(1)
	}
	deployer, err := types.ParseAddress(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	first, count := uint64(0), uint64(2)
	if len(os.Args) > 2 {
		if first, err = strconv.ParseUint(os.Args[2], 10, 64); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
	if len(os.Args) > 3 {
		if count, err = strconv.ParseUint(os.Args[3], 10, 64); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
	for nonce := first; nonce < first+count; nonce++ {
		fmt.Printf("nonce=%d address=%s\n", nonce, crypto.ContractAddress(deployer, nonce))
	}
}
