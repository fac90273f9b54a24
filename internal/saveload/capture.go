package saveload

import (
	"errors"
	"fmt"

	"github.com/nlupugla/saveload/internal/config"
	"github.com/nlupugla/saveload/internal/variant"
)

// PropertyAccessor reads and writes values by property address. Addresses
// combine a node path and property subnames, e.g. "Sprite:modulate:a".
type PropertyAccessor interface {
	// GetProperty returns ok=false when any segment of the address is
	// missing.
	GetProperty(addr variant.NodePath) (v variant.Value, ok bool)

	SetProperty(addr variant.NodePath, v variant.Value) error
}

// ErrNotFound is wrapped by accessors when an address does not resolve.
var ErrNotFound = errors.New("not found")

// CaptureProperties reads the enabled properties of cfg in order.
//
// An address that does not resolve is captured as variant.Nil with a
// resolution warning. A value of a non-serializable kind is omitted with a
// type warning. Neither stops the capture.
func CaptureProperties(acc PropertyAccessor, cfg *config.Config, r *Report) SyncherState {
	props := cfg.SyncProperties()
	state := make(SyncherState, 0, len(props))
	for _, addr := range props {
		v, ok := acc.GetProperty(addr)
		if !ok {
			r.Add(&Error{
				Code:     ErrCodeResolution,
				Message:  "property not found",
				Property: addr.String(),
			})
			state = append(state, PropertyValue{Property: addr, Value: variant.Nil{}})
			continue
		}
		if err := variant.CheckSerializable(v); err != nil {
			r.Add(&Error{
				Code:     ErrCodeType,
				Message:  "non-serializable property omitted",
				Property: addr.String(),
				Err:      err,
			})
			continue
		}
		if v == nil {
			v = variant.Nil{}
		}
		state = append(state, PropertyValue{Property: addr, Value: v})
	}
	return state
}

// RestoreProperties writes every entry of state in order. A failed write is
// a warning; the remaining entries are still written.
func RestoreProperties(acc PropertyAccessor, state SyncherState, r *Report) {
	for _, pv := range state {
		if err := acc.SetProperty(pv.Property, pv.Value); err != nil {
			r.Add(&Error{
				Code:     codeFor(err),
				Message:  fmt.Sprintf("cannot restore %s", variant.KindOf(pv.Value)),
				Property: pv.Property.String(),
				Err:      err,
			})
		}
	}
}

// codeFor classifies a setter failure. Setters report missing targets with
// an error wrapping ErrNotFound.
func codeFor(err error) ErrorCode {
	if errors.Is(err, ErrNotFound) {
		return ErrCodeResolution
	}
	return ErrCodeType
}
