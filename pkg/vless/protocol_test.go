package vless

import (
	"bytes"
	"context"
	"net"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parsadev/simorgh/pkg/address"
)

func TestRequest_WriteReadRoundTrip(t *testing.T) {
	id := uuid.New()
	dest := address.ServiceAddress{Address: address.NewIPAddress(net.ParseIP("127.0.0.1")), Port: 8888}
	req := Request{UUID: id, Command: CommandTCP, Dest: &dest}

	buf, err := req.Bytes()
	require.NoError(t, err)

	got, err := ReadRequest(context.Background(), bytes.NewReader(buf))
	require.NoError(t, err)
	assert.Equal(t, id, got.UUID)
	assert.Equal(t, CommandTCP, got.Command)
	require.NotNil(t, got.Dest)
	assert.Equal(t, "127.0.0.1", got.Dest.Address.String())
	assert.Equal(t, uint16(8888), got.Dest.Port)
}

func TestRequest_WithFlowAddons(t *testing.T) {
	id := uuid.New()
	dest := address.ServiceAddress{Address: address.NewIPAddress(net.ParseIP("10.0.0.1")), Port: 443}
	req := Request{UUID: id, Addons: Addons{Flow: "xtls-rprx-vision"}, Command: CommandTCP, Dest: &dest}

	buf, err := req.Bytes()
	require.NoError(t, err)

	got, err := ReadRequest(context.Background(), bytes.NewReader(buf))
	require.NoError(t, err)
	assert.Equal(t, "xtls-rprx-vision", got.Addons.Flow)
}

func TestRequest_MuxHasNoDestination(t *testing.T) {
	id := uuid.New()
	req := Request{UUID: id, Command: CommandMux}
	buf, err := req.Bytes()
	require.NoError(t, err)

	got, err := ReadRequest(context.Background(), bytes.NewReader(buf))
	require.NoError(t, err)
	assert.Nil(t, got.Dest)
	assert.Equal(t, CommandMux, got.Command)
}

func TestRequest_MissingDestinationFails(t *testing.T) {
	req := Request{UUID: uuid.New(), Command: CommandTCP}
	_, err := req.Bytes()
	assert.ErrorIs(t, err, errNoDestination)
}

func TestResponse_EmptyEnvelope(t *testing.T) {
	raw := Response{}.Bytes()
	assert.Equal(t, []byte{0x00, 0x00}, raw)

	n, err := EnvelopeLen(raw)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestEnvelopeLen_ShortBufferFails(t *testing.T) {
	_, err := EnvelopeLen([]byte{0x00})
	assert.ErrorIs(t, err, errUnknownVersion)
}

func TestEnvelopeLen_TruncatedAddonsFails(t *testing.T) {
	_, err := EnvelopeLen([]byte{0x00, 0x05})
	assert.ErrorIs(t, err, errInvalidHeader)
}

func TestReadRequest_WrongVersionFails(t *testing.T) {
	_, err := ReadRequest(context.Background(), bytes.NewReader([]byte{0x01}))
	assert.ErrorIs(t, err, errInvalidVersion)
}

func TestParseAddons_EmptyBlobIsZeroValue(t *testing.T) {
	got, err := parseAddons(nil)
	require.NoError(t, err)
	assert.Equal(t, Addons{}, got)
}

func TestParseAddons_TruncatedAfterTagIsTolerated(t *testing.T) {
	got, err := parseAddons([]byte{addonsTag})
	require.NoError(t, err)
	assert.Equal(t, Addons{}, got)
}

func TestParseAddons_TruncatedFlowLenVarintIsTolerated(t *testing.T) {
	// A varint continuation byte (high bit set) with nothing following it
	// is an incomplete varint, not a declared length.
	got, err := parseAddons([]byte{addonsTag, 0x80})
	require.NoError(t, err)
	assert.Equal(t, Addons{}, got)
}

func TestParseAddons_MissingSeedLenVarintIsTolerated(t *testing.T) {
	blob := []byte{addonsTag, 0x03, 'f', 'o', 'o'}
	got, err := parseAddons(blob)
	require.NoError(t, err)
	assert.Equal(t, Addons{Flow: "foo"}, got)
}

func TestParseAddons_TruncatedFlowPayloadIsHardError(t *testing.T) {
	// flow_len claims 5 bytes but only 2 remain: a declared-length/actual
	// mismatch, not a truncated varint, so this must fail outright.
	blob := []byte{addonsTag, 0x05, 'f', 'o'}
	_, err := parseAddons(blob)
	assert.Error(t, err)
}

func TestParseAddons_TruncatedSeedPayloadIsHardError(t *testing.T) {
	blob := []byte{addonsTag, 0x03, 'f', 'o', 'o', 0x04, 's', 'e'}
	_, err := parseAddons(blob)
	assert.Error(t, err)
}

func TestParseAddons_WrongTagFails(t *testing.T) {
	_, err := parseAddons([]byte{0xFF, 0x00})
	assert.ErrorIs(t, err, errInvalidHeader)
}
