package tracer

import (
	"fmt"
	"math/big"

	"github.com/centrifuge/go-substrate-rpc-api/v4/types"
	"github.com/centrifuge/go-substrate-rpc-api/v4/types/codec"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// noneAccessList is Option<Vec<AccessListItem>>::None. The tracing entry
// point is always invoked without an access list.
const noneAccessList = "0x00"

// ParseAddress decodes a 0x-prefixed 20 byte hex address.
func ParseAddress(s string) (Address, error) {
	var a Address
	raw, err := hexutil.Decode(s)
	if err != nil {
		return a, fmt.Errorf("invalid address %q: %v", s, err)
	}
	if len(raw) != len(a) {
		return a, fmt.Errorf("invalid address %q: expected %d bytes, got %d", s, len(a), len(raw))
	}
	copy(a[:], raw)
	return a, nil
}

// EncodeTraceCallArgs builds the hex-encoded argument list for the tracing
// entry point: from, to, input, value (128 bit balance), gas limit, storage
// limit and an empty access list, each SCALE encoded separately.
func EncodeTraceCallArgs(from Address, to Address, input []byte, value *big.Int, gasLimit uint64, storageLimit uint32) ([]string, error) {
	if value.Sign() < 0 || value.BitLen() > 128 {
		return nil, fmt.Errorf("transaction value %s does not fit the chain's 128 bit balance", value)
	}

	args := make([]string, 0, 7)
	for _, arg := range []interface{}{from, to, input, types.NewU128(*value), gasLimit, storageLimit} {
		encoded, err := codec.EncodeToHex(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to encode trace call argument: %v", err)
		}
		args = append(args, encoded)
	}
	return append(args, noneAccessList), nil
}
