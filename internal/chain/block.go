package chain

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"golang.org/x/crypto/blake2b"
)

// Block is an immutable view of a historical block: its header and the
// ordered list of raw encoded extrinsics. State at the block is read through
// a Reader obtained from the client, never stored here.
type Block struct {
	Hash       common.Hash
	Number     uint64
	Header     *Header
	Extrinsics []hexutil.Bytes
}

// ExtrinsicHash is the chain's extrinsic identity: blake2b-256 over the raw
// encoded extrinsic bytes, rendered as 0x-prefixed hex.
func ExtrinsicHash(extrinsic []byte) string {
	sum := blake2b.Sum256(extrinsic)
	return hexutil.Encode(sum[:])
}

// FindExtrinsic returns the index of the extrinsic whose hash matches the
// given transaction hash. Both sides render as lowercase 0x-prefixed hex, so
// a plain string comparison suffices. The second return is false when no
// extrinsic matches.
func (b *Block) FindExtrinsic(txHash common.Hash) (int, bool) {
	target := txHash.Hex()
	for i, extrinsic := range b.Extrinsics {
		if ExtrinsicHash(extrinsic) == target {
			return i, true
		}
	}
	return 0, false
}
