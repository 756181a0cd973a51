package tracer

import (
	"fmt"

	"github.com/centrifuge/go-substrate-rpc-api/v4/scale"
)

// DispatchError is the structured error payload a runtime call reports when
// it fails. Only the variants that carry data are decoded further; everything
// is rendered to a message since the pipeline only surfaces it as an abort
// cause.
type DispatchError struct {
	Variant     byte
	ModuleIndex byte
	ErrorCode   [4]byte
	PayloadByte byte
}

const (
	dispatchErrorOther byte = iota
	dispatchErrorCannotLookup
	dispatchErrorBadOrigin
	dispatchErrorModule
	dispatchErrorConsumerRemaining
	dispatchErrorNoProviders
	dispatchErrorTooManyConsumers
	dispatchErrorToken
	dispatchErrorArithmetic
	dispatchErrorTransactional
	dispatchErrorExhausted
	dispatchErrorCorruption
	dispatchErrorUnavailable
)

func (e DispatchError) Encode(encoder scale.Encoder) error {
	if err := encoder.PushByte(e.Variant); err != nil {
		return err
	}
	switch e.Variant {
	case dispatchErrorModule:
		if err := encoder.PushByte(e.ModuleIndex); err != nil {
			return err
		}
		return encoder.Write(e.ErrorCode[:])
	case dispatchErrorToken, dispatchErrorArithmetic, dispatchErrorTransactional:
		return encoder.PushByte(e.PayloadByte)
	}
	return nil
}

func (e *DispatchError) Decode(decoder scale.Decoder) error {
	variant, err := decoder.ReadOneByte()
	if err != nil {
		return err
	}
	if variant > dispatchErrorUnavailable {
		return fmt.Errorf("unknown dispatch error variant %d", variant)
	}
	e.Variant = variant
	switch variant {
	case dispatchErrorModule:
		if e.ModuleIndex, err = decoder.ReadOneByte(); err != nil {
			return err
		}
		return decoder.Read(e.ErrorCode[:])
	case dispatchErrorToken, dispatchErrorArithmetic, dispatchErrorTransactional:
		e.PayloadByte, err = decoder.ReadOneByte()
		return err
	}
	return nil
}

func (e DispatchError) Message() string {
	switch e.Variant {
	case dispatchErrorOther:
		return "dispatch error: other"
	case dispatchErrorCannotLookup:
		return "dispatch error: cannot lookup"
	case dispatchErrorBadOrigin:
		return "dispatch error: bad origin"
	case dispatchErrorModule:
		return fmt.Sprintf("dispatch error: module error, pallet index %d, error %v", e.ModuleIndex, e.ErrorCode)
	case dispatchErrorToken:
		return fmt.Sprintf("dispatch error: token error %d", e.PayloadByte)
	case dispatchErrorArithmetic:
		return fmt.Sprintf("dispatch error: arithmetic error %d", e.PayloadByte)
	case dispatchErrorTransactional:
		return fmt.Sprintf("dispatch error: transactional error %d", e.PayloadByte)
	default:
		return fmt.Sprintf("dispatch error: variant %d", e.Variant)
	}
}

// Outcome is the two-variant result wrapper returned by the tracing entry
// point: a sequence of top level call traces on success, a dispatch error on
// failure.
type Outcome struct {
	OK     bool
	Traces []CallTrace
	Err    DispatchError
}

func (o Outcome) Encode(encoder scale.Encoder) error {
	if !o.OK {
		if err := encoder.PushByte(1); err != nil {
			return err
		}
		return o.Err.Encode(encoder)
	}
	if err := encoder.PushByte(0); err != nil {
		return err
	}
	return encoder.Encode(o.Traces)
}

func (o *Outcome) Decode(decoder scale.Decoder) error {
	tag, err := decoder.ReadOneByte()
	if err != nil {
		return err
	}
	switch tag {
	case 0:
		o.OK = true
		return decoder.Decode(&o.Traces)
	case 1:
		o.OK = false
		return o.Err.Decode(decoder)
	default:
		return fmt.Errorf("invalid trace outcome tag %d", tag)
	}
}
