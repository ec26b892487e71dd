package realtime

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Engine.IO v4 packet types.
const (
	eioOpen    = '0'
	eioClose   = '1'
	eioPing    = '2'
	eioPong    = '3'
	eioMessage = '4'
	eioNoop    = '6'
)

// Socket.IO v5 packet types, carried inside an Engine.IO message.
const (
	sioConnect      = '0'
	sioDisconnect   = '1'
	sioEvent        = '2'
	sioAck          = '3'
	sioConnectError = '4'
)

var errMalformedPacket = errors.New("malformed packet")

// handshake is the payload of the Engine.IO open packet. Intervals are in ms.
type handshake struct {
	SID          string   `json:"sid"`
	Upgrades     []string `json:"upgrades"`
	PingInterval int      `json:"pingInterval"`
	PingTimeout  int      `json:"pingTimeout"`
	MaxPayload   int      `json:"maxPayload"`
}

func parseHandshake(msg string) (handshake, error) {
	var h handshake
	if len(msg) < 2 || msg[0] != eioOpen {
		return h, fmt.Errorf("%w: expected open packet, got %q", errMalformedPacket, msg)
	}
	if err := json.Unmarshal([]byte(msg[1:]), &h); err != nil {
		return h, fmt.Errorf("%w: open payload: %v", errMalformedPacket, err)
	}
	if h.SID == "" {
		return h, fmt.Errorf("%w: open packet without sid", errMalformedPacket)
	}
	return h, nil
}

// socketPacket is a decoded Socket.IO packet on the main namespace.
type socketPacket struct {
	Type byte
	Data string
}

// decodeSocketPacket parses the part after the Engine.IO "4".
// A namespace prefix ("/chat,") and an ack id are stripped.
func decodeSocketPacket(s string) (socketPacket, error) {
	if s == "" {
		return socketPacket{}, fmt.Errorf("%w: empty socket packet", errMalformedPacket)
	}
	p := socketPacket{Type: s[0]}
	rest := s[1:]
	if strings.HasPrefix(rest, "/") {
		i := strings.IndexByte(rest, ',')
		if i < 0 {
			rest = ""
		} else {
			rest = rest[i+1:]
		}
	}
	// ack id
	i := 0
	for i < len(rest) && rest[i] >= '0' && rest[i] <= '9' {
		i++
	}
	p.Data = rest[i:]
	return p, nil
}

// decodeEvent splits an event payload `["name",arg1,...]`.
func decodeEvent(data string) (string, []json.RawMessage, error) {
	var parts []json.RawMessage
	if err := json.Unmarshal([]byte(data), &parts); err != nil {
		return "", nil, fmt.Errorf("%w: event payload: %v", errMalformedPacket, err)
	}
	if len(parts) == 0 {
		return "", nil, fmt.Errorf("%w: event without name", errMalformedPacket)
	}
	var name string
	if err := json.Unmarshal(parts[0], &name); err != nil {
		return "", nil, fmt.Errorf("%w: event name: %v", errMalformedPacket, err)
	}
	return name, parts[1:], nil
}

func encodeEvent(event string, args ...any) (string, error) {
	parts := make([]any, 0, len(args)+1)
	parts = append(parts, event)
	parts = append(parts, args...)
	b, err := json.Marshal(parts)
	if err != nil {
		return "", fmt.Errorf("encode event %q: %w", event, err)
	}
	return string([]byte{eioMessage, sioEvent}) + string(b), nil
}

// connectAck is the payload of "40{...}" or "44{...}".
type connectAck struct {
	SID     string `json:"sid"`
	Message string `json:"message"`
}
