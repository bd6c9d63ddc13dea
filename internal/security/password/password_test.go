package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var fastArgon2 = Argon2id{Params: Argon2Params{Memory: 1024, Time: 1, Parallelism: 1, KeyLen: 32}}

func TestArgon2id_HashAndVerify(t *testing.T) {
	req := require.New(t)

	hash, err := fastArgon2.Hash("s3cret")
	req.NoError(err)
	req.True(strings.HasPrefix(hash, "$argon2id$v=19$m=1024,t=1,p=1$"))
	req.NotContains(hash, "s3cret")

	req.True(fastArgon2.Verify("s3cret", hash))
	req.False(fastArgon2.Verify("S3cret", hash))
	req.False(fastArgon2.Verify("", hash))
}

func TestArgon2id_Salted(t *testing.T) {
	a, err := fastArgon2.Hash("same")
	require.NoError(t, err)
	b, err := fastArgon2.Hash("same")
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestBcrypt_HashAndVerify(t *testing.T) {
	req := require.New(t)
	h := Bcrypt{Cost: bcrypt.MinCost}

	hash, err := h.Hash("password")
	req.NoError(err)
	req.True(h.Verify("password", hash))
	req.False(h.Verify("passw0rd", hash))
}

func TestBcrypt_TooLong(t *testing.T) {
	b := Bcrypt{Cost: bcrypt.MinCost}
	_, err := b.Hash(strings.Repeat("x", b.MaxBytes()+1))
	require.ErrorIs(t, err, ErrTooLong)

	_, err = b.Hash(strings.Repeat("x", b.MaxBytes()))
	require.NoError(t, err)
}

func TestMaxBytes(t *testing.T) {
	require.Equal(t, 72, Bcrypt{}.MaxBytes())
	require.Zero(t, fastArgon2.MaxBytes())
}

func TestHash_Empty(t *testing.T) {
	_, err := fastArgon2.Hash("")
	require.ErrorIs(t, err, ErrEmpty)
	_, err = Bcrypt{Cost: bcrypt.MinCost}.Hash("")
	require.ErrorIs(t, err, ErrEmpty)
}

func TestVerify_CrossScheme(t *testing.T) {
	legacy, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	require.NoError(t, err)

	// argon2id hasher still accepts rows written with bcrypt
	require.True(t, fastArgon2.Verify("password", string(legacy)))
	require.False(t, Verify("password", "plaintext-not-a-hash"))
	require.False(t, Verify("x", "$argon2id$v=19$garbage"))
}

func TestNew(t *testing.T) {
	tests := []struct {
		scheme  string
		wantErr bool
	}{
		{"", false},
		{"argon2id", false},
		{"BCRYPT", false},
		{"md5", true},
	}
	for _, tc := range tests {
		t.Run(tc.scheme, func(t *testing.T) {
			h, err := New(tc.scheme)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, h)
		})
	}
}
