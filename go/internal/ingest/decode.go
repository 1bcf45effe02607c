package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNoWattage is returned for well-formed messages that carry no active
// power reading (status frames, other meter channels).
var ErrNoWattage = errors.New("no wattage in message")

// meterEvent is the RPC notification the energy meter publishes. Only the
// active power of channel em:0 is used.
type meterEvent struct {
	Params struct {
		EM0 *struct {
			ActivePower *float64 `json:"c_act_power"`
		} `json:"em:0"`
	} `json:"params"`
}

// DecodeWatts extracts the active power reading from a meter payload
func DecodeWatts(payload []byte) (float64, error) {
	var ev meterEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return 0, fmt.Errorf("decode meter payload: %w", err)
	}
	if ev.Params.EM0 == nil || ev.Params.EM0.ActivePower == nil {
		return 0, ErrNoWattage
	}
	return *ev.Params.EM0.ActivePower, nil
}
