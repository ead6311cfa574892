package duel

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownMessage is returned when a frame carries an unrecognized type.
var ErrUnknownMessage = errors.New("duel: unknown message type")

// Message is a peer-to-peer protocol message.
type Message interface {
	duelMessage()
}

// SeedMessage carries a peer's locally generated seed and the round rules
// it will play. Length and MaxLag are zero when the peer did not send them.
type SeedMessage struct {
	Seed   uint32
	Length uint32
	MaxLag uint32
}

func (SeedMessage) duelMessage() {}

// FinishMessage carries a peer's final round score.
type FinishMessage struct {
	FinalScore uint32
}

func (FinishMessage) duelMessage() {}

const (
	typeSeed   = "seed"
	typeFinish = "finish"
)

// envelope is the wire form of every message.
type envelope struct {
	Type       string  `json:"type"`
	Seed       *uint32 `json:"seed,omitempty"`
	Length     uint32  `json:"length,omitempty"`
	MaxLag     uint32  `json:"max_lag,omitempty"`
	FinalScore *uint32 `json:"final_score,omitempty"`
}

// EncodeMessage serializes msg into a single frame.
func EncodeMessage(msg Message) ([]byte, error) {
	var env envelope
	switch m := msg.(type) {
	case SeedMessage:
		env = envelope{Type: typeSeed, Seed: &m.Seed, Length: m.Length, MaxLag: m.MaxLag}
	case FinishMessage:
		env = envelope{Type: typeFinish, FinalScore: &m.FinalScore}
	default:
		return nil, fmt.Errorf("duel: cannot encode %T: %w", msg, ErrUnknownMessage)
	}

	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("duel: cannot encode message: %w", err)
	}
	return data, nil
}

// DecodeMessage parses a single frame.
func DecodeMessage(data []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("duel: cannot decode message: %w", err)
	}

	switch env.Type {
	case typeSeed:
		if env.Seed == nil {
			return nil, errors.New("duel: seed message without seed")
		}
		return SeedMessage{Seed: *env.Seed, Length: env.Length, MaxLag: env.MaxLag}, nil
	case typeFinish:
		if env.FinalScore == nil {
			return nil, errors.New("duel: finish message without score")
		}
		return FinishMessage{FinalScore: *env.FinalScore}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessage, env.Type)
	}
}
