package protocol

import (
	"bytes"
	"encoding/hex"
	"net"
	"testing"

	"github.com/PeernetOfficial/nebula/dht"
	"github.com/pkg/errors"
)

func TestHashData(t *testing.T) {
	tests := map[string]string{
		"":    "c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470",
		"abc": "4e03657aea45a94fc7d47ba826c8d667c0d1e6e33a64a036ec44f58fa12d6c45",
	}

	for input, expected := range tests {
		if hash := hex.EncodeToString(HashData([]byte(input))); hash != expected {
			t.Errorf("keccak256(%q) = %s, expected %s", input, hash, expected)
		}
	}
}

func TestDeriveNodeIDIPv4(t *testing.T) {
	tests := []struct {
		ip   string
		port uint16
		id   string
	}{
		{"127.0.0.1", 5000, "5c179d3bbc36789ebc36789e5fe71388"},
		{"127.0.0.1", 5001, "5c179d3bbc36789ebc36789e5fe71389"},
		{"127.0.0.2", 5000, "5c179d3bbc36789ebc36789ef2ee1388"},
		{"127.0.1.1", 5000, "5c179d3bbc36789e5fe7f9775fe71388"},
		{"127.1.0.1", 5000, "5c179d3b5fe7f977bc36789e5fe71388"},
		{"128.0.0.1", 5000, "56e81f17bc36789ebc36789e5fe71388"},
	}

	for _, test := range tests {
		id, err := DeriveNodeID(net.ParseIP(test.ip), test.port)
		if err != nil {
			t.Fatalf("derive %s: %s", test.ip, err.Error())
		}
		if id.String() != test.id {
			t.Errorf("derive %s:%d = %s, expected %s", test.ip, test.port, id.String(), test.id)
		}

		// deterministic
		if id2, _ := DeriveNodeID(net.ParseIP(test.ip), test.port); id2 != id {
			t.Errorf("derive %s:%d not deterministic", test.ip, test.port)
		}
	}
}

func TestDeriveNodeIDIPv6(t *testing.T) {
	ip := net.ParseIP("2001:ffff:ffff:ffff:ffff:ffff:ffff:ffff")
	id, err := DeriveNodeID(ip, 13107)
	if err != nil {
		t.Fatalf("derive: %s", err.Error())
	}
	if id != (dht.NodeID{Hi: 0xffffffffffffffff, Lo: 0x3333ffffffffffff}) {
		t.Fatalf("unexpected id %s", id)
	}

	// bytes 2..9 little endian form the upper part
	ip = net.ParseIP("2001:0102:0304:0506:0708:090a:0b0c:0d0e")
	id, _ = DeriveNodeID(ip, 0x1122)
	if id.Hi != 0x0807060504030201 || id.Lo != 0x11220e0d0c0b0a09 {
		t.Fatalf("unexpected id %s", id)
	}
}

func TestDeriveNodeIDInvalid(t *testing.T) {
	if _, err := DeriveNodeID(net.IP{1, 2, 3}, 1); err != ErrInvalidAddressFamily {
		t.Fatalf("expected ErrInvalidAddressFamily, got %v", err)
	}
	if _, err := NewPeerAddress(nil, 1); err != ErrInvalidAddressFamily {
		t.Fatalf("expected ErrInvalidAddressFamily, got %v", err)
	}
}

func TestBucketOrderIPv4(t *testing.T) {
	self, _ := NewPeerAddress(net.ParseIP("127.0.0.1"), 5000)

	last := -1
	for _, ip := range []string{"127.0.0.2", "127.0.1.1", "127.1.0.1", "128.0.0.1"} {
		peer, _ := NewPeerAddress(net.ParseIP(ip), 5000)
		index, err := dht.BucketIndex(dht.Distance(self.ID, peer.ID))
		if err != nil {
			t.Fatalf("bucket index: %s", err.Error())
		}
		if index < last {
			t.Fatalf("bucket index for %s decreased: %d < %d", ip, index, last)
		}
		last = index
	}
}

func TestNewPeerAddressMapped(t *testing.T) {
	peer, err := NewPeerAddress(net.ParseIP("::ffff:10.0.0.1"), 80)
	if err != nil {
		t.Fatalf("new peer: %s", err.Error())
	}
	if !peer.IsIPv4() || peer.Address() != "10.0.0.1:80" {
		t.Fatalf("mapped address not normalized: %s", peer.Address())
	}

	other, _ := NewPeerAddress(net.IPv4(10, 0, 0, 1), 80)
	if !peer.Equal(&other) || peer.ID != other.ID {
		t.Fatalf("addresses not equal")
	}
}

func TestDecodeRespondPeersIPv6(t *testing.T) {
	raw := []byte{ProtocolVersion, CommandRespondPeers, 0x33, 0x33, peerFlagIPv6}
	raw = append(raw, bytes.Repeat([]byte{0xFF}, 14)...)
	raw = append(raw, 0x33, 0x33)

	msg, err := DecodeMessage(raw)
	if err != nil {
		t.Fatalf("decode: %s", err.Error())
	}
	response, ok := msg.(*MessageRespondPeers)
	if !ok || len(response.Peers) != 1 {
		t.Fatalf("unexpected message %#v", msg)
	}

	expected := append([]byte{0x20, 0x01}, bytes.Repeat([]byte{0xFF}, 14)...)
	if !bytes.Equal(response.Peers[0].IP, expected) || response.Peers[0].Port != 13107 {
		t.Fatalf("unexpected peer %s", response.Peers[0].String())
	}
	if response.Header().Port != 13107 {
		t.Fatalf("unexpected sender port %d", response.Header().Port)
	}
}

func TestDecodeRespondPeersMixed(t *testing.T) {
	raw := []byte{ProtocolVersion, CommandRespondPeers, 0x33, 0x33,
		peerFlagIPv4, 0xD0, 0xFF, 0xFF, 0xD1, 0x33, 0x33,
		peerFlagIPv6, 0x88, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x87, 0x33, 0x33,
		peerFlagIPv4, 0xE0, 0xFF, 0xFF, 0xE1, 0x33, 0x33,
	}

	msg, err := DecodeMessage(raw)
	if err != nil {
		t.Fatalf("decode: %s", err.Error())
	}
	peers := msg.(*MessageRespondPeers).Peers
	if len(peers) != 3 {
		t.Fatalf("expected 3 peers, got %d", len(peers))
	}

	if !bytes.Equal(peers[0].IP, []byte{0xD0, 0xFF, 0xFF, 0xD1}) {
		t.Errorf("peer 0: unexpected %s", peers[0].IP)
	}
	if !bytes.Equal(peers[1].IP, []byte{0x20, 0x01, 0x88, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x87}) {
		t.Errorf("peer 1: unexpected %s", peers[1].IP)
	}
	if !bytes.Equal(peers[2].IP, []byte{0xE0, 0xFF, 0xFF, 0xE1}) {
		t.Errorf("peer 2: unexpected %s", peers[2].IP)
	}
	for n := range peers {
		if peers[n].Port != 13107 {
			t.Errorf("peer %d: unexpected port %d", n, peers[n].Port)
		}
	}
}

func TestDecodeRespondPeersTruncated(t *testing.T) {
	valid := []byte{peerFlagIPv4, 10, 0, 0, 1, 0x50, 0x00}

	tests := []struct {
		name    string
		payload []byte
		count   int
	}{
		{"empty", nil, 0},
		{"short trailer", append(append([]byte{}, valid...), peerFlagIPv4, 1, 2), 1},
		{"unknown flag", append(append([]byte{}, valid...), 0x07, 1, 2, 3, 4, 5, 6, 7, 8), 1},
		{"unknown flag first", append([]byte{0x02}, valid...), 0},
		{"short IPv6", append(append([]byte{}, valid...), peerFlagIPv6, 1, 2, 3, 4, 5, 6, 7, 8, 9), 1},
		{"duplicate", append(append([]byte{}, valid...), valid...), 1},
	}

	for _, test := range tests {
		raw := append([]byte{ProtocolVersion, CommandRespondPeers, 0, 0}, test.payload...)
		msg, err := DecodeMessage(raw)
		if err != nil {
			t.Fatalf("%s: decode: %s", test.name, err.Error())
		}
		if count := len(msg.(*MessageRespondPeers).Peers); count != test.count {
			t.Errorf("%s: expected %d peers, got %d", test.name, test.count, count)
		}
	}
}

func TestRespondPeersRoundTrip(t *testing.T) {
	var peers []PeerAddress
	for _, address := range []string{"10.1.2.3", "2001:db8::1", "192.168.0.1", "2001:4860:4860::8888"} {
		peer, _ := NewPeerAddress(net.ParseIP(address), 4500)
		peers = append(peers, peer)
	}
	peers = append(peers, peers[0])

	msg, err := DecodeMessage(EncodeRespondPeers(4000, peers))
	if err != nil {
		t.Fatalf("decode: %s", err.Error())
	}
	decoded := msg.(*MessageRespondPeers).Peers

	if len(decoded) != 4 {
		t.Fatalf("expected 4 peers, got %d", len(decoded))
	}
	for n := range decoded {
		if decoded[n].ID != peers[n].ID || !decoded[n].Equal(&peers[n]) {
			t.Errorf("peer %d mismatch: %s vs %s", n, decoded[n].String(), peers[n].String())
		}
	}

	// re-encoding the decoded list gives the same bytes
	if !bytes.Equal(EncodeMessage(msg), EncodeRespondPeers(4000, decoded)) {
		t.Fatalf("re-encoding mismatch")
	}
}

func TestEncodeRespondPeersSkipsUnrepresentable(t *testing.T) {
	peer, _ := NewPeerAddress(net.ParseIP("fe80::1"), 1)
	raw := EncodeRespondPeers(1, []PeerAddress{peer})
	if len(raw) != HeaderSize {
		t.Fatalf("link-local address was encoded")
	}
}

func TestPingPong(t *testing.T) {
	var entropy [EntropySize]byte
	for n := range entropy {
		entropy[n] = byte(n)
	}

	raw := EncodePing(5000, entropy)
	if len(raw) != HeaderSize+EntropySize || raw[0] != ProtocolVersion || raw[1] != CommandPing || raw[2] != 0x88 || raw[3] != 0x13 {
		t.Fatalf("unexpected ping encoding %x", raw)
	}

	msg, err := DecodeMessage(raw)
	if err != nil {
		t.Fatalf("decode ping: %s", err.Error())
	}
	ping := msg.(*MessagePing)
	if ping.Entropy != entropy || ping.Port != 5000 {
		t.Fatalf("ping mismatch")
	}

	digest := PongDigest(entropy)
	msg, err = DecodeMessage(EncodePong(6000, digest))
	if err != nil {
		t.Fatalf("decode pong: %s", err.Error())
	}
	if pong := msg.(*MessagePong); !bytes.Equal(pong.Digest[:], HashData(entropy[:])) {
		t.Fatalf("pong digest mismatch")
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		raw []byte
		err error
	}{
		{nil, ErrMessageTooShort},
		{[]byte{ProtocolVersion, CommandPing, 0}, ErrMessageTooShort},
		{[]byte{0x00, CommandRequestPeers, 0, 0}, ErrVersionMismatch},
		{[]byte{ProtocolVersion, 0x05, 0, 0}, ErrUnknownMessageType},
		{[]byte{ProtocolVersion, CommandPing, 0, 0, 1, 2, 3}, ErrMalformedPayload},
		{append([]byte{ProtocolVersion, CommandPong, 0, 0}, make([]byte, 33)...), ErrMalformedPayload},
		{[]byte{ProtocolVersion, CommandRequestPeers, 0, 0, 1}, ErrMalformedPayload},
	}

	for n, test := range tests {
		if _, err := DecodeMessage(test.raw); !errors.Is(err, test.err) {
			t.Errorf("test %d: expected %v, got %v", n, test.err, err)
		}
	}
}
