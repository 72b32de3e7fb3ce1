/*
File Name:  Message Encoding.go
Copyright:  2021 Peernet s.r.o.

Every message is sent over its own TCP connection. There is no length field; the message type implies the payload size.

Offset  Size   Info
0       1      Protocol version
1       1      Command
2       2      Sender listening port (little endian)
4       ?      Payload
*/

package protocol

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// ProtocolVersion is the current protocol version
const ProtocolVersion = 1

// HeaderSize is the size of the message header
const HeaderSize = 4

// EntropySize is the size of the random data sent in a ping
const EntropySize = 32

// MaxRequestSize is the amount of data read from an incoming connection. Requests are expected to arrive in a single read.
const MaxRequestSize = 128

// MaxResponseSize is the maximum amount of data read as response to an outgoing request.
const MaxResponseSize = 65535

// Errors returned when decoding a message
var (
	ErrMessageTooShort    = errors.New("message too short")
	ErrVersionMismatch    = errors.New("protocol version mismatch")
	ErrUnknownMessageType = errors.New("unknown message type")
	ErrMalformedPayload   = errors.New("malformed payload")
)

// Message is one of MessagePing, MessagePong, MessageRequestPeers or MessageRespondPeers.
type Message interface {
	Header() *MessageHeader
	isMessage()
}

// MessageHeader is the header common to all messages
type MessageHeader struct {
	Version uint8  // Protocol version
	Command uint8  // See Command*
	Port    uint16 // Listening port of the sender
}

// Header returns the header of the message
func (header *MessageHeader) Header() *MessageHeader {
	return header
}

// MessagePing is a liveness probe
type MessagePing struct {
	MessageHeader
	Entropy [EntropySize]byte // Random data. The receiver responds with its hash.
}

// MessagePong is the response to a ping
type MessagePong struct {
	MessageHeader
	Digest [HashSize]byte // Hash of the entropy of the ping.
}

// MessageRequestPeers requests the peer list of the receiver
type MessageRequestPeers struct {
	MessageHeader
}

// MessageRespondPeers is the response to a peer list request
type MessageRespondPeers struct {
	MessageHeader
	Peers []PeerAddress // Unique by node ID, in order of the response
}

func (msg *MessagePing) isMessage()         {}
func (msg *MessagePong) isMessage()         {}
func (msg *MessageRequestPeers) isMessage() {}
func (msg *MessageRespondPeers) isMessage() {}

// DecodeMessage decodes a raw message. The error is one of the Err* values, possibly wrapped.
func DecodeMessage(raw []byte) (msg Message, err error) {
	if len(raw) < HeaderSize {
		return nil, ErrMessageTooShort
	}

	header := MessageHeader{
		Version: raw[0],
		Command: raw[1],
		Port:    binary.LittleEndian.Uint16(raw[2:4]),
	}
	payload := raw[HeaderSize:]

	if header.Version != ProtocolVersion {
		return nil, errors.Wrapf(ErrVersionMismatch, "version %d", header.Version)
	}

	switch header.Command {
	case CommandPing:
		if len(payload) != EntropySize {
			return nil, errors.Wrapf(ErrMalformedPayload, "ping: payload size %d", len(payload))
		}
		result := &MessagePing{MessageHeader: header}
		copy(result.Entropy[:], payload)
		return result, nil

	case CommandPong:
		if len(payload) != HashSize {
			return nil, errors.Wrapf(ErrMalformedPayload, "pong: payload size %d", len(payload))
		}
		result := &MessagePong{MessageHeader: header}
		copy(result.Digest[:], payload)
		return result, nil

	case CommandRequestPeers:
		if len(payload) != 0 {
			return nil, errors.Wrapf(ErrMalformedPayload, "request peers: payload size %d", len(payload))
		}
		return &MessageRequestPeers{MessageHeader: header}, nil

	case CommandRespondPeers:
		return &MessageRespondPeers{MessageHeader: header, Peers: decodePeerRecords(payload)}, nil

	default:
		return nil, errors.Wrapf(ErrUnknownMessageType, "type 0x%02x", header.Command)
	}
}

func encodeHeader(command uint8, port uint16, payloadSize int) (raw []byte) {
	raw = make([]byte, HeaderSize, HeaderSize+payloadSize)
	raw[0] = ProtocolVersion
	raw[1] = command
	binary.LittleEndian.PutUint16(raw[2:4], port)
	return raw
}

// EncodePing encodes a ping message
func EncodePing(port uint16, entropy [EntropySize]byte) (raw []byte) {
	return append(encodeHeader(CommandPing, port, EntropySize), entropy[:]...)
}

// EncodePong encodes a pong message
func EncodePong(port uint16, digest [HashSize]byte) (raw []byte) {
	return append(encodeHeader(CommandPong, port, HashSize), digest[:]...)
}

// EncodeRequestPeers encodes a peer list request
func EncodeRequestPeers(port uint16) (raw []byte) {
	return encodeHeader(CommandRequestPeers, port, 0)
}

// EncodeRespondPeers encodes a peer list response. IPv6 addresses outside 2001::/16 cannot be represented and are skipped.
func EncodeRespondPeers(port uint16, peers []PeerAddress) (raw []byte) {
	return append(encodeHeader(CommandRespondPeers, port, len(peers)*peerRecordSizeIPv6), encodePeerRecords(peers)...)
}

// EncodeMessage encodes any message using the port of its header. The version field is always set to the current version.
func EncodeMessage(msg Message) (raw []byte) {
	port := msg.Header().Port

	switch v := msg.(type) {
	case *MessagePing:
		return EncodePing(port, v.Entropy)
	case *MessagePong:
		return EncodePong(port, v.Digest)
	case *MessageRequestPeers:
		return EncodeRequestPeers(port)
	case *MessageRespondPeers:
		return EncodeRespondPeers(port, v.Peers)
	}

	return nil
}

// PongDigest returns the expected pong digest for the entropy
func PongDigest(entropy [EntropySize]byte) (digest [HashSize]byte) {
	copy(digest[:], HashData(entropy[:]))
	return digest
}
