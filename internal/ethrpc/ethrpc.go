package ethrpc

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	gethRpc "github.com/ethereum/go-ethereum/rpc"
	"github.com/rs/zerolog"
	"github.com/tracelabs/evmtracer/internal/log"
)

// Transaction is the subset of eth_getTransactionByHash the replay pipeline
// needs. To and BlockHash are pointers because the endpoint reports null for
// contract creations and pending transactions respectively.
type Transaction struct {
	Hash      common.Hash     `json:"hash"`
	From      common.Address  `json:"from"`
	To        *common.Address `json:"to"`
	Value     *hexutil.Big    `json:"value"`
	Gas       hexutil.Uint64  `json:"gas"`
	Input     hexutil.Bytes   `json:"input"`
	BlockHash *common.Hash    `json:"blockHash"`
}

// Client looks up transactions on the chain's eth-compatible RPC endpoint.
type Client struct {
	rpc    *gethRpc.Client
	url    string
	logger zerolog.Logger
}

func NewClient(url string) (*Client, error) {
	if url == "" {
		return nil, fmt.Errorf("eth RPC url is not set")
	}
	rpcClient, err := gethRpc.Dial(url)
	if err != nil {
		return nil, err
	}
	return &Client{
		rpc:    rpcClient,
		url:    url,
		logger: log.NewLogger("ethrpc"),
	}, nil
}

func (c *Client) Close() {
	c.rpc.Close()
}

func (c *Client) GetURL() string {
	return c.url
}

// TransactionByHash fetches the target transaction. An error payload from the
// endpoint, an unknown hash, or a transaction that is not yet included in a
// block all fail the lookup.
func (c *Client) TransactionByHash(ctx context.Context, txHash common.Hash) (*Transaction, error) {
	var tx *Transaction
	if err := c.rpc.CallContext(ctx, &tx, "eth_getTransactionByHash", txHash); err != nil {
		return nil, fmt.Errorf("failed to fetch transaction %s: %v", txHash.Hex(), err)
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction %s not found", txHash.Hex())
	}
	if tx.BlockHash == nil {
		return nil, fmt.Errorf("transaction %s is not included in a block yet", txHash.Hex())
	}
	c.logger.Debug().Str("txHash", txHash.Hex()).Str("blockHash", tx.BlockHash.Hex()).Msg("Located transaction")
	return tx, nil
}
