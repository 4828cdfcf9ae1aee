package sshclient

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeTemp creates a temp file with content and returns its path.
func writeTemp(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

// rsaKeyPEM returns a fresh RSA private key, encrypted with passphrase if
// one is given.
func rsaKeyPEM(t *testing.T, passphrase string) (*rsa.PrivateKey, []byte) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der := x509.MarshalPKCS1PrivateKey(key)
	if passphrase == "" {
		return key, pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: der})
	}
	//nolint:staticcheck // legacy PEM encryption is what older keys use
	block, err := x509.EncryptPEMBlock(rand.Reader, "RSA PRIVATE KEY", der, []byte(passphrase), x509.PEMCipherAES256)
	require.NoError(t, err)
	return key, pem.EncodeToMemory(block)
}

func TestLoadSigner_FileNotFound(t *testing.T) {
	_, err := loadSigner(filepath.Join(t.TempDir(), "missing_key"), "")
	require.Error(t, err)
}

func TestLoadSigner_RSAKey_Success(t *testing.T) {
	_, b := rsaKeyPEM(t, "")
	p := writeTemp(t, t.TempDir(), "id_rsa", string(b))
	s, err := loadSigner(p, "")
	require.NoError(t, err)
	require.NotNil(t, s.PublicKey())
}

func TestLoadSigner_UnencryptedKey_WithPassphrase_Fails(t *testing.T) {
	_, b := rsaKeyPEM(t, "")
	p := writeTemp(t, t.TempDir(), "id_rsa", string(b))
	_, err := loadSigner(p, "pass")
	require.Error(t, err)
}

func TestLoadSigner_EncryptedKey_MissingPassphrase(t *testing.T) {
	_, b := rsaKeyPEM(t, "pp")
	p := writeTemp(t, t.TempDir(), "id_rsa_enc", string(b))
	_, err := loadSigner(p, "")
	require.ErrorIs(t, err, errEncryptedKey)
}

func TestLoadSigner_EncryptedKey_WithPassphrase(t *testing.T) {
	_, b := rsaKeyPEM(t, "pp")
	p := writeTemp(t, t.TempDir(), "id_rsa_enc", string(b))
	s, err := loadSigner(p, "pp")
	require.NoError(t, err)
	require.NotNil(t, s)
}
