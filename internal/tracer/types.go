package tracer

import (
	"encoding/json"
	"fmt"

	"github.com/centrifuge/go-substrate-rpc-api/v4/scale"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
)

// CallType is the kind of EVM call frame recorded by the tracing runtime.
type CallType byte

const (
	CallTypeCall CallType = iota
	CallTypeCallCode
	CallTypeStaticCall
	CallTypeDelegateCall
	CallTypeCreate
	CallTypeSuicide
)

var callTypeNames = []string{"CALL", "CALLCODE", "STATICCALL", "DELEGATECALL", "CREATE", "SUICIDE"}

func (c CallType) String() string {
	if int(c) < len(callTypeNames) {
		return callTypeNames[c]
	}
	return fmt.Sprintf("UNKNOWN(%d)", byte(c))
}

func (c CallType) Encode(encoder scale.Encoder) error {
	return encoder.PushByte(byte(c))
}

func (c *CallType) Decode(decoder scale.Decoder) error {
	b, err := decoder.ReadOneByte()
	if err != nil {
		return err
	}
	if b > byte(CallTypeSuicide) {
		return fmt.Errorf("invalid call type variant %d", b)
	}
	*c = CallType(b)
	return nil
}

func (c CallType) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// Address is a 20 byte EVM account address.
type Address [20]byte

func (a Address) Encode(encoder scale.Encoder) error {
	return encoder.Write(a[:])
}

func (a *Address) Decode(decoder scale.Decoder) error {
	return decoder.Read(a[:])
}

func (a Address) Hex() string {
	return hexutil.Encode(a[:])
}

func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Hex())
}

// HexBytes renders as 0x-prefixed hex in JSON output.
type HexBytes []byte

func (b HexBytes) MarshalJSON() ([]byte, error) {
	return json.Marshal(hexutil.Encode(b))
}

// U256 is a 256 bit unsigned integer in its little-endian wire form.
type U256 [32]byte

func NewU256(v *uint256.Int) U256 {
	be := v.Bytes32()
	var u U256
	for i := 0; i < 32; i++ {
		u[i] = be[31-i]
	}
	return u
}

func (u U256) Int() *uint256.Int {
	var be [32]byte
	for i := 0; i < 32; i++ {
		be[i] = u[31-i]
	}
	return new(uint256.Int).SetBytes(be[:])
}

func (u U256) Encode(encoder scale.Encoder) error {
	return encoder.Write(u[:])
}

func (u *U256) Decode(decoder scale.Decoder) error {
	return decoder.Read(u[:])
}

func (u U256) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.Int().Hex())
}

// CallTrace is one frame of the call tree produced by the tracing runtime.
// The pipeline never constructs these itself, it only decodes them from the
// runtime's return value and serializes them for inspection.
type CallTrace struct {
	CallType     CallType    `json:"callType"`
	From         Address     `json:"from"`
	To           Address     `json:"to"`
	Input        HexBytes    `json:"input"`
	Value        U256        `json:"value"`
	Gas          uint64      `json:"gas"`
	GasUsed      uint64      `json:"gasUsed"`
	Output       *HexBytes   `json:"output,omitempty"`
	Error        *string     `json:"error,omitempty"`
	RevertReason *string     `json:"revertReason,omitempty"`
	Depth        uint32      `json:"depth"`
	Calls        []CallTrace `json:"calls"`
}

func (t CallTrace) Encode(encoder scale.Encoder) error {
	if err := t.CallType.Encode(encoder); err != nil {
		return err
	}
	if err := t.From.Encode(encoder); err != nil {
		return err
	}
	if err := t.To.Encode(encoder); err != nil {
		return err
	}
	if err := encoder.Encode([]byte(t.Input)); err != nil {
		return err
	}
	if err := t.Value.Encode(encoder); err != nil {
		return err
	}
	if err := encoder.Encode(t.Gas); err != nil {
		return err
	}
	if err := encoder.Encode(t.GasUsed); err != nil {
		return err
	}
	var output []byte
	if t.Output != nil {
		output = *t.Output
	}
	if err := encoder.EncodeOption(t.Output != nil, output); err != nil {
		return err
	}
	var errStr string
	if t.Error != nil {
		errStr = *t.Error
	}
	if err := encoder.EncodeOption(t.Error != nil, errStr); err != nil {
		return err
	}
	var revert string
	if t.RevertReason != nil {
		revert = *t.RevertReason
	}
	if err := encoder.EncodeOption(t.RevertReason != nil, revert); err != nil {
		return err
	}
	if err := encoder.Encode(t.Depth); err != nil {
		return err
	}
	return encoder.Encode(t.Calls)
}

func (t *CallTrace) Decode(decoder scale.Decoder) error {
	if err := t.CallType.Decode(decoder); err != nil {
		return err
	}
	if err := t.From.Decode(decoder); err != nil {
		return err
	}
	if err := t.To.Decode(decoder); err != nil {
		return err
	}
	var input []byte
	if err := decoder.Decode(&input); err != nil {
		return err
	}
	t.Input = input
	if err := t.Value.Decode(decoder); err != nil {
		return err
	}
	if err := decoder.Decode(&t.Gas); err != nil {
		return err
	}
	if err := decoder.Decode(&t.GasUsed); err != nil {
		return err
	}
	var hasOutput bool
	var output []byte
	if err := decoder.DecodeOption(&hasOutput, &output); err != nil {
		return err
	}
	if hasOutput {
		t.Output = (*HexBytes)(&output)
	}
	var hasError bool
	var errStr string
	if err := decoder.DecodeOption(&hasError, &errStr); err != nil {
		return err
	}
	if hasError {
		t.Error = &errStr
	}
	var hasRevert bool
	var revert string
	if err := decoder.DecodeOption(&hasRevert, &revert); err != nil {
		return err
	}
	if hasRevert {
		t.RevertReason = &revert
	}
	if err := decoder.Decode(&t.Depth); err != nil {
		return err
	}
	return decoder.Decode(&t.Calls)
}
