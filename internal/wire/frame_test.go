package wire

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecode_RoundTrip(t *testing.T) {
	f := Frame{Payload: []byte("command:\n  argv: [[echo, hi]]\n"), Signature: []byte("sig-bytes")}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, f))

	got, err := Decode(&buf)
	require.NoError(t, err)
	require.Equal(t, f, got)
}

func TestEncodeDecode_Unsigned(t *testing.T) {
	f := Frame{Payload: []byte("payload"), Signature: nil}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, f))
	require.Contains(t, buf.String(), "SIG-LEN: 0")

	got, err := Decode(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Equal(t, []byte("payload"), got.Payload)
	require.Empty(t, got.Signature)
}

func TestDecode_WrongMagic(t *testing.T) {
	_, err := Decode(strings.NewReader("NOT-SIRA\nPAYLOAD-LEN: 0\nSIG-LEN: 0\n\n"))
	require.Error(t, err)
	var mfe *MalformedFrameError
	require.ErrorAs(t, err, &mfe)
}

func TestDecode_TruncatedPayload(t *testing.T) {
	_, err := Decode(strings.NewReader("SIRA/1\nPAYLOAD-LEN: 100\nSIG-LEN: 0\n\nshort"))
	require.Error(t, err)
}

func TestDecode_MissingBlankLine(t *testing.T) {
	_, err := Decode(strings.NewReader("SIRA/1\nPAYLOAD-LEN: 0\nSIG-LEN: 0\nnotblank\n"))
	require.Error(t, err)
}
