// Package crypto provides the hashing and key primitives used to derive
// account and contract addresses.
package crypto

import (
	"encoding/binary"

	"github.com/Klingon-tech/metaverse-nft/pkg/types"
	"github.com/zeebo/blake3"
)

// contractDomain separates contract address derivation from account
// address derivation.
var contractDomain = []byte("metaverse-nft/contract")

// HashSize is the length of a digest in bytes.
const HashSize = 32

// Hash computes a BLAKE3-256 hash of the input data.
func Hash(data []byte) [HashSize]byte {
	return blake3.Sum256(data)
}

// AddressFromPubKey derives an account address from a compressed public key.
// Address = BLAKE3(compressed_pubkey)[:20].
func AddressFromPubKey(pubKey []byte) types.Address {
	h := Hash(pubKey)
	var addr types.Address
	copy(addr[:], h[:types.AddressSize])
	return addr
}

// ContractAddress derives the address of the nonce-th contract deployed by
// deployer. Address = BLAKE3(domain || deployer || nonce_be64)[:20].
func ContractAddress(deployer types.Address, nonce uint64) types.Address {
	buf := make([]byte, 0, len(contractDomain)+types.AddressSize+8)
	buf = append(buf, contractDomain...)
	buf = append(buf, deployer[:]...)
	buf = binary.BigEndian.AppendUint64(buf, nonce)
	h := Hash(buf)
	var addr types.Address
	copy(addr[:], h[:types.AddressSize])
	return addr
}
