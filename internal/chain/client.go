package chain

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	gethRpc "github.com/ethereum/go-ethereum/rpc"
	"github.com/rs/zerolog"
	"github.com/tracelabs/evmtracer/internal/log"
	"github.com/tracelabs/evmtracer/internal/metrics"
	"github.com/tracelabs/evmtracer/internal/state"
)

// wellKnownCodeKey is the storage key of the runtime binary (":code").
const wellKnownCodeKey = "0x3a636f6465"

type rawBlock struct {
	Block struct {
		Header     Header          `json:"header"`
		Extrinsics []hexutil.Bytes `json:"extrinsics"`
	} `json:"block"`
}

// Client provides read access to a chain node over its JSON-RPC endpoint:
// blocks and headers by hash, and storage reads pinned to a block hash.
type Client struct {
	rpc    *gethRpc.Client
	url    string
	cache  *Cache
	logger zerolog.Logger
}

func NewClient(url string, cache *Cache) (*Client, error) {
	if url == "" {
		return nil, fmt.Errorf("chain RPC url is not set")
	}
	rpcClient, err := gethRpc.Dial(url)
	if err != nil {
		return nil, err
	}
	return &Client{
		rpc:    rpcClient,
		url:    url,
		cache:  cache,
		logger: log.NewLogger("chain"),
	}, nil
}

func (c *Client) Close() {
	c.rpc.Close()
}

func (c *Client) GetURL() string {
	return c.url
}

func (c *Client) GetHeader(ctx context.Context, hash common.Hash) (*Header, error) {
	var header *Header
	if err := c.rpc.CallContext(ctx, &header, "chain_getHeader", hash); err != nil {
		return nil, fmt.Errorf("failed to fetch header %s: %v", hash.Hex(), err)
	}
	if header == nil {
		return nil, fmt.Errorf("header %s not found", hash.Hex())
	}
	return header, nil
}

// BlockByHash resolves a block, including its extrinsics, by hash.
func (c *Client) BlockByHash(ctx context.Context, hash common.Hash) (*Block, error) {
	var raw *rawBlock
	if err := c.rpc.CallContext(ctx, &raw, "chain_getBlock", hash); err != nil {
		return nil, fmt.Errorf("failed to fetch block %s: %v", hash.Hex(), err)
	}
	if raw == nil {
		return nil, fmt.Errorf("block %s not found", hash.Hex())
	}

	block := &Block{
		Hash:       hash,
		Number:     uint64(raw.Block.Header.Number),
		Header:     &raw.Block.Header,
		Extrinsics: raw.Block.Extrinsics,
	}
	c.logger.Debug().Str("hash", hash.Hex()).Uint64("number", block.Number).Int("extrinsics", len(block.Extrinsics)).Msg("Resolved block")
	return block, nil
}

// GetStorage reads a storage key pinned at a block hash. It returns nil when
// the key is not set. Reads are served from the cache when one is configured,
// which is sound because storage at a block hash never changes.
func (c *Client) GetStorage(ctx context.Context, key string, at common.Hash) (*string, error) {
	cacheKey := append(at.Bytes(), []byte(key)...)
	if c.cache != nil {
		if value, ok := c.cache.Get(cacheKey); ok {
			metrics.CachedStorageReads.Inc()
			return value, nil
		}
	}

	var value *string
	if err := c.rpc.CallContext(ctx, &value, "state_getStorageAt", key, at); err != nil {
		return nil, fmt.Errorf("failed to read storage %s at %s: %v", key, at.Hex(), err)
	}
	metrics.RemoteStorageReads.Inc()

	if c.cache != nil {
		if err := c.cache.Set(cacheKey, value); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to cache storage read")
		}
	}
	return value, nil
}

// GetRuntimeCode returns the hex-encoded runtime binary stored at the block.
func (c *Client) GetRuntimeCode(ctx context.Context, at common.Hash) (string, error) {
	code, err := c.GetStorage(ctx, wellKnownCodeKey, at)
	if err != nil {
		return "", err
	}
	if code == nil {
		return "", fmt.Errorf("no runtime code found at block %s", at.Hex())
	}
	return *code, nil
}

// StorageAt returns a state.Reader over the chain's storage pinned at the
// given block hash.
func (c *Client) StorageAt(at common.Hash) state.Reader {
	return &remoteStorage{client: c, at: at}
}

type remoteStorage struct {
	client *Client
	at     common.Hash
}

func (r *remoteStorage) Get(ctx context.Context, key string) (*string, error) {
	return r.client.GetStorage(ctx, key, r.at)
}
