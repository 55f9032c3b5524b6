package ws

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/mohidul32/Chat-Application/internal/models"
)

// Frame type tags. The set is closed: the gateway ignores any inbound
// tag not listed here instead of closing the connection.
const (
	FrameSend    = "send"
	FramePing    = "ping"
	FrameAck     = "ack"
	FramePong    = "pong"
	FrameMessage = "message"
	FrameError   = "error"
)

// InboundFrame is a client frame after decoding. Only the fields of the
// known variants are populated.
type InboundFrame struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

var errMissingType = errors.New("frame has no type tag")

func DecodeInbound(data []byte) (*InboundFrame, error) {
	var frame InboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return nil, err
	}
	if frame.Type == "" {
		return nil, errMissingType
	}
	return &frame, nil
}

// AckFrame acknowledges a successful connect.
type AckFrame struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func EncodeAck(text string) ([]byte, error) {
	return json.Marshal(AckFrame{Type: FrameAck, Text: text})
}

// PongFrame answers a client keepalive ping.
type PongFrame struct {
	Type string `json:"type"`
}

func EncodePong() ([]byte, error) {
	return json.Marshal(PongFrame{Type: FramePong})
}

// MessagePayload is the canonical broadcast representation of a
// persisted message.
type MessagePayload struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Sender    string    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
}

type MessageFrame struct {
	Type    string         `json:"type"`
	Message MessagePayload `json:"message"`
}

func EncodeMessage(m *models.Message) ([]byte, error) {
	return json.Marshal(MessageFrame{
		Type: FrameMessage,
		Message: MessagePayload{
			ID:        m.ID,
			Content:   m.Content,
			Sender:    m.Sender.Username,
			Timestamp: m.CreatedAt,
		},
	})
}

// ErrorFrame reports a failed send to the originating client only.
type ErrorFrame struct {
	Type  string `json:"type"`
	Code  string `json:"code"`
	Error string `json:"error"`
}

func EncodeError(code, message string) ([]byte, error) {
	return json.Marshal(ErrorFrame{Type: FrameError, Code: code, Error: message})
}
