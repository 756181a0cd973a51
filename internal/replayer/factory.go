package replayer

import (
	"fmt"
	"os"

	config "github.com/tracelabs/evmtracer/configs"
	"github.com/tracelabs/evmtracer/internal/chain"
	"github.com/tracelabs/evmtracer/internal/ethrpc"
	"github.com/tracelabs/evmtracer/internal/executor"
)

// NewSessionFromConfig wires a session from the global configuration. The
// tracing runtime is loaded before any endpoint is dialed so a missing wasm
// fails fast. The returned cleanup closes all connections.
func NewSessionFromConfig(cache *chain.Cache) (*Session, func(), error) {
	wasmPath := config.Cfg.Runtime.WasmPath
	if wasmPath == "" {
		return nil, nil, fmt.Errorf("runtime.wasmPath is not configured; a tracing-capable runtime build is required")
	}
	wasm, err := os.ReadFile(wasmPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read tracing runtime %s: %v", wasmPath, err)
	}

	ethClient, err := ethrpc.NewClient(config.Cfg.RPC.Eth.URL)
	if err != nil {
		return nil, nil, err
	}
	chainClient, err := chain.NewClient(config.Cfg.RPC.Chain.URL, cache)
	if err != nil {
		ethClient.Close()
		return nil, nil, err
	}
	execClient, err := executor.NewWSClient(config.Cfg.Executor.URL)
	if err != nil {
		ethClient.Close()
		chainClient.Close()
		return nil, nil, err
	}

	cleanup := func() {
		ethClient.Close()
		chainClient.Close()
		execClient.Close()
	}

	session, err := NewSession(ethClient, chainClient, execClient, wasm, config.Cfg.Output.Dir)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return session, cleanup, nil
}
