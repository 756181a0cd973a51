package chain

import (
	"math/big"

	"github.com/centrifuge/go-substrate-rpc-api/v4/scale"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Digest holds the header's digest items as the raw SCALE-encoded bytes the
// node reports them in; they are passed through unchanged.
type Digest struct {
	Logs []hexutil.Bytes `json:"logs"`
}

// Header is a block header as returned by chain_getHeader.
type Header struct {
	ParentHash     common.Hash    `json:"parentHash"`
	Number         hexutil.Uint64 `json:"number"`
	StateRoot      common.Hash    `json:"stateRoot"`
	ExtrinsicsRoot common.Hash    `json:"extrinsicsRoot"`
	Digest         Digest         `json:"digest"`
}

// Encode produces the SCALE form expected by Core_initialize_block: fixed
// hashes, compact block number, and the digest as a vector of raw items.
func (h Header) Encode(encoder scale.Encoder) error {
	if err := encoder.Write(h.ParentHash[:]); err != nil {
		return err
	}
	if err := encoder.EncodeUintCompact(*new(big.Int).SetUint64(uint64(h.Number))); err != nil {
		return err
	}
	if err := encoder.Write(h.StateRoot[:]); err != nil {
		return err
	}
	if err := encoder.Write(h.ExtrinsicsRoot[:]); err != nil {
		return err
	}
	if err := encoder.EncodeUintCompact(*big.NewInt(int64(len(h.Digest.Logs)))); err != nil {
		return err
	}
	for _, item := range h.Digest.Logs {
		if err := encoder.Write(item); err != nil {
			return err
		}
	}
	return nil
}
