package network

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/amalg/go-bombman/internal/game"
	"github.com/amalg/go-bombman/internal/match"
)

// MsgType identifies the type of network message.
type MsgType string

const (
	MsgJoin    MsgType = "join"
	MsgWelcome MsgType = "welcome"
	MsgAction  MsgType = "action"
	MsgState   MsgType = "state"
	MsgError   MsgType = "error"
	MsgStart   MsgType = "start"
	MsgTeam    MsgType = "team"
)

// MaxMessageSize bounds a single message body.
const MaxMessageSize = 1 << 20

// Envelope wraps all messages with a type discriminator for deserialization.
type Envelope struct {
	Type    MsgType            `msgpack:"type"`
	Payload msgpack.RawMessage `msgpack:"payload"`
}

// --- Client → Server Messages ---

// JoinMsg is sent by a client to join the game.
type JoinMsg struct {
	Name string `msgpack:"name"`
}

// ActionMsg is sent by a client to perform an action.
type ActionMsg struct {
	Action game.Action `msgpack:"action"`
}

// TeamMsg asks the host to move the sender to another team.
type TeamMsg struct {
	Team int `msgpack:"team"`
}

// --- Server → Client Messages ---

// WelcomeMsg is sent to a client after joining.
type WelcomeMsg struct {
	SessionID    string `msgpack:"session_id"`
	PlayerNumber int    `msgpack:"player_number"`
	TickRate     int    `msgpack:"tick_rate"`
	Rounds       int    `msgpack:"rounds"`
}

// StateMsg is the frame broadcast to all clients after each tick.
type StateMsg struct {
	Frame match.Frame `msgpack:"frame"`
}

// ErrorMsg notifies a client of an error.
type ErrorMsg struct {
	Message string `msgpack:"message"`
}

// Encode serializes a message and writes it to the writer.
// Format: [4-byte big-endian length][msgpack body]
func Encode(w io.Writer, msgType MsgType, payload interface{}) error {
	payloadBytes, err := msgpack.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	body, err := msgpack.Marshal(&Envelope{
		Type:    msgType,
		Payload: payloadBytes,
	})
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	if len(body) > MaxMessageSize {
		return fmt.Errorf("message too large: %d bytes", len(body))
	}

	frame := make([]byte, 4+len(body))
	binary.BigEndian.PutUint32(frame, uint32(len(body)))
	copy(frame[4:], body)
	if _, err := w.Write(frame); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}

// Decode reads a length-prefixed msgpack message from the reader.
func Decode(r io.Reader) (*Envelope, error) {
	var length uint32
	if err := binary.Read(r, binary.BigEndian, &length); err != nil {
		return nil, fmt.Errorf("read length: %w", err)
	}

	if length > MaxMessageSize {
		return nil, fmt.Errorf("message too large: %d bytes", length)
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	var env Envelope
	if err := msgpack.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}

	return &env, nil
}

// DecodePayload unmarshals the payload from an envelope into the target struct.
func DecodePayload(env *Envelope, target interface{}) error {
	return msgpack.Unmarshal(env.Payload, target)
}
