package wire

import (
	"encoding/json"

	"github.com/synnergy-network/coordhead/protocol"
)

// MarshalEvent encodes a protocol.Event as JSON, per spec.md §6's wire
// contract: a stable "tag" discriminator plus the payload for that tag.
func MarshalEvent(ev protocol.Event) ([]byte, error) {
	return json.Marshal(FromEvent(ev))
}

// UnmarshalEvent decodes JSON produced by MarshalEvent (or any conforming
// client) back into a protocol.Event.
func UnmarshalEvent(data []byte) (protocol.Event, error) {
	var w Event
	if err := json.Unmarshal(data, &w); err != nil {
		return protocol.Event{}, err
	}
	return ToEvent(w)
}

// MarshalServerOutput encodes a protocol.ServerOutput as JSON.
func MarshalServerOutput(o protocol.ServerOutput) ([]byte, error) {
	return json.Marshal(FromServerOutput(o))
}

// UnmarshalServerOutput decodes JSON produced by MarshalServerOutput.
func UnmarshalServerOutput(data []byte) (protocol.ServerOutput, error) {
	var w ServerOutput
	if err := json.Unmarshal(data, &w); err != nil {
		return protocol.ServerOutput{}, err
	}
	return ToServerOutput(w)
}

// MarshalMessage encodes a protocol.Message as JSON. The runtime's network
// transport sends bare Messages on the gossipsub wire rather than whole
// Events, so this skips the Event envelope MarshalEvent would add.
func MarshalMessage(m protocol.Message) ([]byte, error) {
	return json.Marshal(fromMessage(m))
}

// UnmarshalMessage decodes JSON produced by MarshalMessage.
func UnmarshalMessage(data []byte) (protocol.Message, error) {
	var w Message
	if err := json.Unmarshal(data, &w); err != nil {
		return protocol.Message{}, err
	}
	return toMessage(&w)
}

// MarshalHeadState encodes a protocol.HeadState as JSON, recursively
// encoding its Prev chain (spec.md §4.4).
func MarshalHeadState(h protocol.HeadState) ([]byte, error) {
	return json.Marshal(FromHeadState(h))
}

// UnmarshalHeadState decodes JSON produced by MarshalHeadState.
func UnmarshalHeadState(data []byte) (protocol.HeadState, error) {
	var w HeadState
	if err := json.Unmarshal(data, &w); err != nil {
		return protocol.HeadState{}, err
	}
	return ToHeadState(w)
}
