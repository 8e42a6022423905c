package secrets

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSealRoundTrip(t *testing.T) {
	s := NewSealer("passphrase")
	sealed, err := s.Seal("sk_live_123")
	require.NoError(t, err)
	require.True(t, Sealed(sealed))
	require.NotContains(t, sealed, "sk_live_123")

	again, err := s.Seal(sealed)
	require.NoError(t, err)
	require.Equal(t, sealed, again)

	plain, err := s.Open(sealed)
	require.NoError(t, err)
	require.Equal(t, "sk_live_123", plain)
}

func TestSealEmptyAndClear(t *testing.T) {
	s := NewSealer("passphrase")
	v, err := s.Seal("")
	require.NoError(t, err)
	require.Empty(t, v)

	v, err = s.Open("plain")
	require.NoError(t, err)
	require.Equal(t, "plain", v)
}

func TestOpenWrongKey(t *testing.T) {
	sealed, err := NewSealer("one").Seal("secret")
	require.NoError(t, err)

	_, err = NewSealer("two").Open(sealed)
	require.ErrorIs(t, err, ErrOpen)

	_, err = NewSealer("one").Open("sealed:v1:!!!")
	require.ErrorIs(t, err, ErrOpen)
}

func TestNewSealerEmptyPassphrase(t *testing.T) {
	require.Nil(t, NewSealer(""))
}

func TestNilSealer(t *testing.T) {
	var s *Sealer
	v, err := s.Seal("token")
	require.NoError(t, err)
	require.Equal(t, "token", v)

	sealed, err := NewSealer("k").Seal("token")
	require.NoError(t, err)
	_, err = s.Open(sealed)
	require.ErrorIs(t, err, ErrOpen)
}
