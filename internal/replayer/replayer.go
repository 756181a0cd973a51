package replayer

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"time"

	"github.com/centrifuge/go-substrate-rpc-api/v4/types/codec"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/rs/zerolog"
	"github.com/tracelabs/evmtracer/internal/chain"
	"github.com/tracelabs/evmtracer/internal/ethrpc"
	"github.com/tracelabs/evmtracer/internal/executor"
	"github.com/tracelabs/evmtracer/internal/limits"
	"github.com/tracelabs/evmtracer/internal/log"
	"github.com/tracelabs/evmtracer/internal/metrics"
	"github.com/tracelabs/evmtracer/internal/state"
	"github.com/tracelabs/evmtracer/internal/tracer"
)

// Runtime entry points invoked during replay.
const (
	entryInitializeBlock = "Core_initialize_block"
	entryApplyExtrinsic  = "BlockBuilder_apply_extrinsic"
	entryTraceCall       = "EVMRuntimeRPCApi_trace_call"
)

type sessionState string

const (
	stateInit      sessionState = "init"
	stateLocated   sessionState = "located"
	stateForked    sessionState = "forked"
	stateReplaying sessionState = "replaying"
	stateTraced    sessionState = "traced"
	stateEmitted   sessionState = "emitted"
	stateFailed    sessionState = "failed"
)

// TxLookup locates the target transaction on the eth-compatible endpoint.
type TxLookup interface {
	TransactionByHash(ctx context.Context, txHash common.Hash) (*ethrpc.Transaction, error)
}

// ChainReader resolves blocks and pinned storage on the chain endpoint.
type ChainReader interface {
	BlockByHash(ctx context.Context, hash common.Hash) (*chain.Block, error)
	StorageAt(at common.Hash) state.Reader
}

// Session replays a historical block up to a target transaction and produces
// its call trace. A session is single-use and strictly sequential: every
// runtime invocation depends on the cumulative state of all prior ones.
type Session struct {
	txLookup TxLookup
	chain    ChainReader
	executor executor.Executor
	wasm     string
	outDir   string
	logger   zerolog.Logger
	state    sessionState
}

// NewSession validates the configuration and prepares a session. The tracing
// runtime is mandatory: production runtimes do not expose the tracing entry
// points, so its absence is a configuration error surfaced before any network
// or replay work begins.
func NewSession(txLookup TxLookup, chainReader ChainReader, exec executor.Executor, tracingWasm []byte, outDir string) (*Session, error) {
	if len(tracingWasm) == 0 {
		return nil, fmt.Errorf("a tracing-capable runtime wasm is required but was not supplied")
	}
	if outDir == "" {
		outDir = "."
	}
	return &Session{
		txLookup: txLookup,
		chain:    chainReader,
		executor: exec,
		wasm:     hexutil.Encode(tracingWasm),
		outDir:   outDir,
		logger:   log.NewLogger("replayer"),
		state:    stateInit,
	}, nil
}

func (s *Session) transition(next sessionState) {
	s.logger.Debug().Str("from", string(s.state)).Str("to", string(next)).Msg("Session transition")
	s.state = next
}

// Run executes the full pipeline for one transaction and returns the path of
// the emitted trace artifact. Any failure aborts the whole session; there are
// no retries and no partial results.
func (s *Session) Run(ctx context.Context, txHash common.Hash) (string, error) {
	start := time.Now()
	path, err := s.run(ctx, txHash)
	metrics.SessionDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		s.transition(stateFailed)
		metrics.FailedSessions.Inc()
		return "", err
	}
	metrics.CompletedSessions.Inc()
	return path, nil
}

func (s *Session) run(ctx context.Context, txHash common.Hash) (string, error) {
	tx, err := s.txLookup.TransactionByHash(ctx, txHash)
	if err != nil {
		return "", err
	}
	if tx.To == nil {
		return "", fmt.Errorf("transaction %s is a contract creation, only calls can be traced", txHash.Hex())
	}
	s.transition(stateLocated)

	block, err := s.chain.BlockByHash(ctx, *tx.BlockHash)
	if err != nil {
		return "", err
	}
	parent, err := s.chain.BlockByHash(ctx, block.Header.ParentHash)
	if err != nil {
		return "", err
	}
	// the replay head is the parent: everything past it is rebuilt from the
	// overlay stack, one layer per applied invocation
	stack := state.NewStack(s.chain.StorageAt(parent.Hash))
	s.transition(stateForked)
	s.logger.Info().
		Str("txHash", txHash.Hex()).
		Str("block", block.Hash.Hex()).
		Uint64("number", block.Number).
		Str("parent", parent.Hash.Hex()).
		Msg("Forked at parent block")

	// locate the target before invoking anything: a transaction missing from
	// its claimed block aborts the session with zero runtime work
	targetIndex, found := block.FindExtrinsic(txHash)
	if !found {
		return "", fmt.Errorf("transaction %s not found in block %s", txHash.Hex(), block.Hash.Hex())
	}
	s.transition(stateReplaying)

	encodedHeader, err := codec.EncodeToHex(*block.Header)
	if err != nil {
		return "", fmt.Errorf("failed to encode block header: %v", err)
	}
	if err := s.runAndApply(ctx, stack, entryInitializeBlock, []string{encodedHeader}); err != nil {
		return "", err
	}

	// extrinsics strictly before the target, in original block order; later
	// diffs depend on earlier ones
	for i := 0; i < targetIndex; i++ {
		if err := s.runAndApply(ctx, stack, entryApplyExtrinsic, []string{block.Extrinsics[i].String()}); err != nil {
			return "", err
		}
		metrics.ReplayedExtrinsics.Inc()
	}
	s.logger.Info().Int("extrinsics", targetIndex).Msg("Replayed extrinsics before target")

	gasLimit, storageLimit := limits.Derive(uint64(tx.Gas))
	value := new(big.Int)
	if tx.Value != nil {
		value = tx.Value.ToInt()
	}
	args, err := tracer.EncodeTraceCallArgs(tracer.Address(tx.From), tracer.Address(*tx.To), tx.Input, value, gasLimit, storageLimit)
	if err != nil {
		return "", err
	}

	result, err := s.executor.RunTask(ctx, executor.Task{Wasm: s.wasm, EntryPoint: entryTraceCall, Args: args}, stack)
	if err != nil {
		return "", err
	}
	if result.Error != "" {
		return "", fmt.Errorf("%s failed: %s", entryTraceCall, result.Error)
	}
	// the trace call's diff is discarded, only its return value matters
	s.transition(stateTraced)

	raw, err := hexutil.Decode(result.Result)
	if err != nil {
		return "", fmt.Errorf("malformed trace call return value: %v", err)
	}
	var outcome tracer.Outcome
	if err := codec.Decode(raw, &outcome); err != nil {
		return "", fmt.Errorf("failed to decode trace outcome: %v", err)
	}
	if !outcome.OK {
		return "", fmt.Errorf("trace call was rejected by the runtime: %s", outcome.Err.Message())
	}

	path, err := s.emit(txHash, outcome.Traces)
	if err != nil {
		return "", err
	}
	s.transition(stateEmitted)
	s.logger.Info().Str("path", path).Msg("Trace written")
	return path, nil
}

// runAndApply invokes one runtime entry point and installs its storage diff
// as exactly one new overlay layer. A failed invocation applies nothing.
func (s *Session) runAndApply(ctx context.Context, stack *state.Stack, entryPoint string, args []string) error {
	result, err := s.executor.RunTask(ctx, executor.Task{Wasm: s.wasm, EntryPoint: entryPoint, Args: args}, stack)
	if err != nil {
		return err
	}
	if result.Error != "" {
		return fmt.Errorf("%s failed: %s", entryPoint, result.Error)
	}
	stack.Push()
	stack.SetAll(result.StorageDiff)
	return nil
}

func (s *Session) emit(txHash common.Hash, traces []tracer.CallTrace) (string, error) {
	data, err := json.MarshalIndent(traces, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize trace: %v", err)
	}
	path := filepath.Join(s.outDir, fmt.Sprintf("trace-%s.json", txHash.Hex()))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write trace artifact: %v", err)
	}
	return path, nil
}
