package replayer

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/centrifuge/go-substrate-rpc-api/v4/types/codec"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tracelabs/evmtracer/internal/chain"
	"github.com/tracelabs/evmtracer/internal/ethrpc"
	"github.com/tracelabs/evmtracer/internal/executor"
	"github.com/tracelabs/evmtracer/internal/state"
	"github.com/tracelabs/evmtracer/internal/tracer"
)

type stubTxLookup struct {
	tx  *ethrpc.Transaction
	err error
}

func (s *stubTxLookup) TransactionByHash(_ context.Context, _ common.Hash) (*ethrpc.Transaction, error) {
	return s.tx, s.err
}

type stubChain struct {
	blocks map[common.Hash]*chain.Block
	base   state.Reader
}

func (s *stubChain) BlockByHash(_ context.Context, hash common.Hash) (*chain.Block, error) {
	if block, ok := s.blocks[hash]; ok {
		return block, nil
	}
	return nil, fmt.Errorf("block %s not found", hash.Hex())
}

func (s *stubChain) StorageAt(_ common.Hash) state.Reader {
	return s.base
}

// stubExecutor is a synthetic runtime: each task is delegated to a handler
// that can inspect the state view the caller passed in.
type stubExecutor struct {
	calls   []executor.Task
	handler func(task executor.Task, view state.Reader) (*executor.TaskResult, error)
}

func (s *stubExecutor) RunTask(_ context.Context, task executor.Task, view state.Reader) (*executor.TaskResult, error) {
	s.calls = append(s.calls, task)
	return s.handler(task, view)
}

const counterKey = "0xc0c0"

// counterRuntime simulates a runtime where every applied extrinsic increments
// a counter set by the previous one, making out-of-order replay observable.
func counterRuntime(t *testing.T, traceResult string) func(executor.Task, state.Reader) (*executor.TaskResult, error) {
	return func(task executor.Task, view state.Reader) (*executor.TaskResult, error) {
		current, err := view.Get(context.Background(), counterKey)
		require.NoError(t, err)

		switch task.EntryPoint {
		case entryInitializeBlock:
			require.Nil(t, current, "block must be initialized against the untouched parent state")
			zero := "0"
			return &executor.TaskResult{StorageDiff: state.Diff{counterKey: &zero}}, nil
		case entryApplyExtrinsic:
			require.NotNil(t, current, "extrinsics must run after block initialization")
			parsed, err := strconv.Atoi(*current)
			require.NoError(t, err)
			next := strconv.Itoa(parsed + 1)
			return &executor.TaskResult{StorageDiff: state.Diff{counterKey: &next}}, nil
		case entryTraceCall:
			// both preceding extrinsics must have been applied, in order
			require.NotNil(t, current)
			require.Equal(t, "2", *current)
			ignored := "0xff"
			return &executor.TaskResult{
				Result: traceResult,
				// must be discarded by the caller
				StorageDiff: state.Diff{counterKey: &ignored},
			}, nil
		default:
			t.Fatalf("unexpected entry point %s", task.EntryPoint)
			return nil, nil
		}
	}
}

type fixture struct {
	txHash   common.Hash
	block    *chain.Block
	parent   *chain.Block
	txLookup *stubTxLookup
	chain    *stubChain
}

// newFixture builds a block [A, B, C] whose target transaction is C with the
// reported gas of the end-to-end scenario.
func newFixture() *fixture {
	extrinsics := []hexutil.Bytes{{0x0a}, {0x0b}, {0x0c}}
	parentHash := common.HexToHash("0x1111111111111111111111111111111111111111111111111111111111111111")
	blockHash := common.HexToHash("0x2222222222222222222222222222222222222222222222222222222222222222")

	parent := &chain.Block{
		Hash:   parentHash,
		Number: 99,
		Header: &chain.Header{Number: hexutil.Uint64(99)},
	}
	block := &chain.Block{
		Hash:       blockHash,
		Number:     100,
		Header:     &chain.Header{ParentHash: parentHash, Number: hexutil.Uint64(100)},
		Extrinsics: extrinsics,
	}

	txHash := common.HexToHash(chain.ExtrinsicHash(extrinsics[2]))
	to := common.HexToAddress("0x2222222222222222222222222222222222222222")
	tx := &ethrpc.Transaction{
		Hash:      txHash,
		From:      common.HexToAddress("0x1111111111111111111111111111111111111111"),
		To:        &to,
		Value:     (*hexutil.Big)(hexutil.MustDecodeBig("0x3e8")),
		Gas:       hexutil.Uint64(123456),
		Input:     hexutil.Bytes{0xde, 0xad, 0xbe, 0xef},
		BlockHash: &blockHash,
	}

	return &fixture{
		txHash:   txHash,
		block:    block,
		parent:   parent,
		txLookup: &stubTxLookup{tx: tx},
		chain: &stubChain{
			blocks: map[common.Hash]*chain.Block{blockHash: block, parentHash: parent},
			base:   state.Memory{},
		},
	}
}

func encodeOutcome(t *testing.T, outcome tracer.Outcome) string {
	encoded, err := codec.Encode(outcome)
	require.NoError(t, err)
	return hexutil.Encode(encoded)
}

func successOutcome(t *testing.T) string {
	child := tracer.CallTrace{
		CallType: tracer.CallTypeStaticCall,
		From:     tracer.Address{0x22},
		To:       tracer.Address{0x33},
		Input:    tracer.HexBytes{},
		Gas:      10_000,
		GasUsed:  400,
		Depth:    1,
		Calls:    []tracer.CallTrace{},
	}
	top := tracer.CallTrace{
		CallType: tracer.CallTypeCall,
		From:     tracer.Address{0x11},
		To:       tracer.Address{0x22},
		Input:    tracer.HexBytes{0xde, 0xad, 0xbe, 0xef},
		Gas:      7_020_000,
		GasUsed:  53_218,
		Depth:    0,
		Calls:    []tracer.CallTrace{child},
	}
	return encodeOutcome(t, tracer.Outcome{OK: true, Traces: []tracer.CallTrace{top}})
}

func TestSessionReplaysAndEmitsTrace(t *testing.T) {
	fix := newFixture()
	exec := &stubExecutor{handler: counterRuntime(t, successOutcome(t))}

	outDir := t.TempDir()
	session, err := NewSession(fix.txLookup, fix.chain, exec, []byte{0x00, 0x61, 0x73, 0x6d}, outDir)
	require.NoError(t, err)

	path, err := session.Run(context.Background(), fix.txHash)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(outDir, fmt.Sprintf("trace-%s.json", fix.txHash.Hex())), path)

	// init block, extrinsics A and B (never C), then the trace call
	require.Len(t, exec.calls, 4)
	assert.Equal(t, entryInitializeBlock, exec.calls[0].EntryPoint)
	assert.Equal(t, entryApplyExtrinsic, exec.calls[1].EntryPoint)
	assert.Equal(t, entryApplyExtrinsic, exec.calls[2].EntryPoint)
	assert.Equal(t, entryTraceCall, exec.calls[3].EntryPoint)

	// the header is passed SCALE-encoded, the extrinsics verbatim in order
	encodedHeader, err := codec.EncodeToHex(*fix.block.Header)
	require.NoError(t, err)
	assert.Equal(t, []string{encodedHeader}, exec.calls[0].Args)
	assert.Equal(t, []string{"0x0a"}, exec.calls[1].Args)
	assert.Equal(t, []string{"0x0b"}, exec.calls[2].Args)

	// limit pair derived from gas=123456: 234*30000 and 2^21 (56 clamped)
	traceArgs := exec.calls[3].Args
	require.Len(t, traceArgs, 7)
	assert.Equal(t, "0x201b6b0000000000", traceArgs[4])
	assert.Equal(t, "0x00002000", traceArgs[5])
	assert.Equal(t, "0x00", traceArgs[6])

	// the emitted artifact preserves the nested structure and ordering
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var emitted []map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &emitted))
	require.Len(t, emitted, 1)
	assert.Equal(t, "CALL", emitted[0]["callType"])
	children := emitted[0]["calls"].([]interface{})
	require.Len(t, children, 1)
	assert.Equal(t, "STATICCALL", children[0].(map[string]interface{})["callType"])
}

func TestSessionRequiresTracingRuntime(t *testing.T) {
	fix := newFixture()
	_, err := NewSession(fix.txLookup, fix.chain, &stubExecutor{}, nil, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tracing-capable runtime")
}

func TestSessionFailsWhenTransactionNotInBlock(t *testing.T) {
	fix := newFixture()
	// the block claims the transaction but no extrinsic hashes to it
	fix.block.Extrinsics = []hexutil.Bytes{{0x0a}, {0x0b}}
	exec := &stubExecutor{handler: counterRuntime(t, successOutcome(t))}

	session, err := NewSession(fix.txLookup, fix.chain, exec, []byte{0x01}, t.TempDir())
	require.NoError(t, err)

	_, err = session.Run(context.Background(), fix.txHash)
	require.Error(t, err)
	assert.Contains(t, err.Error(), fix.txHash.Hex())
	assert.Contains(t, err.Error(), "not found in block")
	// no runtime invocation may happen for a transaction that is not present
	assert.Empty(t, exec.calls)
}

func TestSessionFailsWhenBlockMissing(t *testing.T) {
	fix := newFixture()
	delete(fix.chain.blocks, *fix.txLookup.tx.BlockHash)

	session, err := NewSession(fix.txLookup, fix.chain, &stubExecutor{}, []byte{0x01}, t.TempDir())
	require.NoError(t, err)

	_, err = session.Run(context.Background(), fix.txHash)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSessionFailsWhenParentMissing(t *testing.T) {
	fix := newFixture()
	delete(fix.chain.blocks, fix.parent.Hash)

	session, err := NewSession(fix.txLookup, fix.chain, &stubExecutor{}, []byte{0x01}, t.TempDir())
	require.NoError(t, err)

	_, err = session.Run(context.Background(), fix.txHash)
	require.Error(t, err)
	assert.Contains(t, err.Error(), fix.parent.Hash.Hex())
}

func TestSessionAbortsOnRuntimeError(t *testing.T) {
	fix := newFixture()
	exec := &stubExecutor{handler: func(task executor.Task, _ state.Reader) (*executor.TaskResult, error) {
		if task.EntryPoint == entryApplyExtrinsic {
			return &executor.TaskResult{Error: "Transaction validity error"}, nil
		}
		zero := "0"
		return &executor.TaskResult{StorageDiff: state.Diff{counterKey: &zero}}, nil
	}}

	session, err := NewSession(fix.txLookup, fix.chain, exec, []byte{0x01}, t.TempDir())
	require.NoError(t, err)

	_, err = session.Run(context.Background(), fix.txHash)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Transaction validity error")
	// the failed invocation is the last one, nothing runs after it
	assert.Equal(t, entryApplyExtrinsic, exec.calls[len(exec.calls)-1].EntryPoint)
}

func TestSessionWritesNothingOnFailureOutcome(t *testing.T) {
	fix := newFixture()
	failure := encodeOutcome(t, tracer.Outcome{OK: false, Err: tracer.DispatchError{Variant: 3, ModuleIndex: 180}})
	exec := &stubExecutor{handler: counterRuntime(t, failure)}

	outDir := t.TempDir()
	session, err := NewSession(fix.txLookup, fix.chain, exec, []byte{0x01}, outDir)
	require.NoError(t, err)

	_, err = session.Run(context.Background(), fix.txHash)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rejected by the runtime")

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "no artifact may be written for a failed trace")
}

func TestSessionRejectsContractCreation(t *testing.T) {
	fix := newFixture()
	fix.txLookup.tx.To = nil

	session, err := NewSession(fix.txLookup, fix.chain, &stubExecutor{}, []byte{0x01}, t.TempDir())
	require.NoError(t, err)

	_, err = session.Run(context.Background(), fix.txHash)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "contract creation")
}
