package warehouse

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/youmark/pkcs8"
)

func writeTestKey(t *testing.T, passphrase string) (string, *rsa.PrivateKey) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	var block *pem.Block
	if passphrase == "" {
		der, err := x509.MarshalPKCS8PrivateKey(key)
		require.NoError(t, err)
		block = &pem.Block{Type: "PRIVATE KEY", Bytes: der}
	} else {
		der, err := pkcs8.MarshalPrivateKey(key, []byte(passphrase), nil)
		require.NoError(t, err)
		block = &pem.Block{Type: "ENCRYPTED PRIVATE KEY", Bytes: der}
	}

	path := filepath.Join(t.TempDir(), "rsa_key.p8")
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(block), 0o600))
	return path, key
}

func TestMCP_Warehouse_LoadPrivateKey(t *testing.T) {
	t.Parallel()

	t.Run("loads an unencrypted key", func(t *testing.T) {
		t.Parallel()

		path, want := writeTestKey(t, "")
		got, err := LoadPrivateKey(path, "")
		require.NoError(t, err)
		require.True(t, want.Equal(got))
	})

	t.Run("decrypts an encrypted key with the passphrase", func(t *testing.T) {
		t.Parallel()

		path, want := writeTestKey(t, "hunter2")
		got, err := LoadPrivateKey(path, "hunter2")
		require.NoError(t, err)
		require.True(t, want.Equal(got))
	})

	t.Run("encrypted key without passphrase fails", func(t *testing.T) {
		t.Parallel()

		path, _ := writeTestKey(t, "hunter2")
		_, err := LoadPrivateKey(path, "")
		require.Error(t, err)
		require.Contains(t, err.Error(), "no passphrase")
	})

	t.Run("missing file fails", func(t *testing.T) {
		t.Parallel()

		_, err := LoadPrivateKey(filepath.Join(t.TempDir(), "nope.p8"), "")
		require.Error(t, err)
	})

	t.Run("garbage content fails", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "garbage.p8")
		require.NoError(t, os.WriteFile(path, []byte("not a key"), 0o600))
		_, err := LoadPrivateKey(path, "")
		require.Error(t, err)
		require.Contains(t, err.Error(), "no PEM block")
	})

	t.Run("unsupported PEM block type fails", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "wrong.pem")
		block := &pem.Block{Type: "CERTIFICATE", Bytes: []byte{0x01}}
		require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(block), 0o600))
		_, err := LoadPrivateKey(path, "")
		require.Error(t, err)
		require.Contains(t, err.Error(), "unsupported PEM block type")
	})
}
