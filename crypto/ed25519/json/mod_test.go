package json

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/coursemarket/crypto/ed25519"
	"go.dedis.ch/coursemarket/internal/testing/fake"
	"go.dedis.ch/coursemarket/serde"
	"go.dedis.ch/kyber/v3"
)

func TestPubkeyFormat_Encode(t *testing.T) {
	format := pubkeyFormat{}
	signer := ed25519.NewSigner()

	ctx := fake.NewContext()

	data, err := format.Encode(ctx, signer.GetPublicKey())
	require.NoError(t, err)
	require.Regexp(t, `{"Name":"CURVE-ED25519","Data":"[^"]+"}`, string(data))

	_, err = format.Encode(fake.NewBadContext(), signer.GetPublicKey())
	require.EqualError(t, err, fake.Err("couldn't marshal"))

	_, err = format.Encode(ctx, ed25519.NewPublicKeyFromPoint(badPoint{}))
	require.EqualError(t, err, fake.Err("couldn't marshal point"))

	_, err = format.Encode(ctx, fake.Message{})
	require.EqualError(t, err, "unsupported message of type 'fake.Message'")
}

func TestPubkeyFormat_Decode(t *testing.T) {
	format := pubkeyFormat{}
	signer := ed25519.NewSigner()

	ctx := fake.NewContextWithFormat(serde.FormatJSON)

	data, err := signer.GetPublicKey().Serialize(ctx)
	require.NoError(t, err)

	pubkey, err := format.Decode(ctx, data)
	require.NoError(t, err)
	require.True(t, signer.GetPublicKey().Equal(pubkey.(ed25519.PublicKey)))

	_, err = format.Decode(ctx, []byte(`{"Data":[]}`))
	require.EqualError(t, err,
		"couldn't create public key: couldn't unmarshal point: invalid Ed25519 curve point")

	_, err = format.Decode(fake.NewBadContext(), []byte(`{}`))
	require.EqualError(t, err, fake.Err("couldn't unmarshal public key"))
}

func TestSigFormat_Encode(t *testing.T) {
	format := sigFormat{}
	ctx := fake.NewContext()

	sig, err := ed25519.NewSigner().Sign([]byte("hello"))
	require.NoError(t, err)

	data, err := format.Encode(ctx, sig)
	require.NoError(t, err)
	require.Regexp(t, `{"Name":"CURVE-ED25519","Data":"[^"]+"}`, string(data))

	_, err = format.Encode(fake.NewBadContext(), sig)
	require.EqualError(t, err, fake.Err("couldn't marshal"))

	_, err = format.Encode(ctx, fake.Message{})
	require.EqualError(t, err, "unsupported message of type 'fake.Message'")
}

func TestSigFormat_Decode(t *testing.T) {
	format := sigFormat{}
	ctx := fake.NewContextWithFormat(serde.FormatJSON)

	sig, err := ed25519.NewSigner().Sign([]byte("hello"))
	require.NoError(t, err)

	data, err := sig.Serialize(ctx)
	require.NoError(t, err)

	msg, err := format.Decode(ctx, data)
	require.NoError(t, err)
	require.True(t, sig.Equal(msg.(ed25519.Signature)))

	_, err = format.Decode(fake.NewBadContext(), []byte(`{}`))
	require.EqualError(t, err, fake.Err("couldn't unmarshal signature"))
}

// -----------------------------------------------------------------------------
// Utility functions

type badPoint struct {
	kyber.Point
}

func (p badPoint) MarshalBinary() ([]byte, error) {
	return nil, fake.GetError()
}
