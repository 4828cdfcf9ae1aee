package sshclient

import (
	"errors"
	"os"

	"golang.org/x/crypto/ssh"
)

// errEncryptedKey is returned for a passphrase-protected key loaded without
// a passphrase.
var errEncryptedKey = errors.New("private key is encrypted; provide a passphrase")

// loadSigner loads a private key with optional passphrase
func loadSigner(path, passphrase string) (ssh.Signer, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if passphrase != "" {
		return ssh.ParsePrivateKeyWithPassphrase(b, []byte(passphrase))
	}
	s, err := ssh.ParsePrivateKey(b)
	if err == nil {
		return s, nil
	}
	var missing *ssh.PassphraseMissingError
	if errors.As(err, &missing) {
		return nil, errEncryptedKey
	}
	return nil, err
}
