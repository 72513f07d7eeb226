package ncrypto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRSAProviderSignAndVerify(t *testing.T) {
	p := NewRSAProvider()
	pub, priv, err := p.GenerateKeyPair()
	require.NoError(t, err)
	require.NotEmpty(t, pub)
	require.NotEmpty(t, priv)

	digest := Hash([]byte("hello"), []byte("world"))
	sig, err := p.Sign(priv, digest)
	require.NoError(t, err)

	require.True(t, p.Verify(pub, digest, sig))
}

func TestRSAProviderVerifyRejectsTamperedDigest(t *testing.T) {
	p := NewRSAProvider()
	pub, priv, err := p.GenerateKeyPair()
	require.NoError(t, err)

	digest := Hash([]byte("hello"))
	sig, err := p.Sign(priv, digest)
	require.NoError(t, err)

	other := Hash([]byte("goodbye"))
	require.False(t, p.Verify(pub, other, sig))
}

func TestRSAProviderVerifyRejectsForeignKey(t *testing.T) {
	p := NewRSAProvider()
	_, priv, err := p.GenerateKeyPair()
	require.NoError(t, err)
	otherPub, _, err := p.GenerateKeyPair()
	require.NoError(t, err)

	digest := Hash([]byte("hello"))
	sig, err := p.Sign(priv, digest)
	require.NoError(t, err)

	require.False(t, p.Verify(otherPub, digest, sig))
}

func TestHashIsDeterministicAndOrderSensitive(t *testing.T) {
	a := Hash([]byte("a"), []byte("b"))
	b := Hash([]byte("a"), []byte("b"))
	require.Equal(t, a, b)

	c := Hash([]byte("b"), []byte("a"))
	require.NotEqual(t, a, c)
}
