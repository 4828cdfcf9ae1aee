package sshclient

import (
	"fmt"
	"net"
	"os"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
)

// CredentialKind selects how the client authenticates.
type CredentialKind int

const (
	// CredentialNone means nothing usable was configured.
	CredentialNone CredentialKind = iota
	// CredentialPrivateKey authenticates with a private key file.
	CredentialPrivateKey
	// CredentialPassword authenticates with a password, answering
	// keyboard-interactive prompts with the same password.
	CredentialPassword
	// CredentialAgent authenticates with the keys held by ssh-agent.
	CredentialAgent
)

func (k CredentialKind) String() string {
	switch k {
	case CredentialPrivateKey:
		return "private-key"
	case CredentialPassword:
		return "password"
	case CredentialAgent:
		return "agent"
	default:
		return "none"
	}
}

// Credential is exactly one way of authenticating, chosen once when the
// client is built.
type Credential struct {
	Kind CredentialKind
	// Value is the key path, the password, or the agent socket.
	Value string
	// Passphrase decrypts a private key.
	Passphrase string
}

// credentialFor picks the first configured credential in the order private
// key, password, agent.
func credentialFor(c Config) Credential {
	switch {
	case c.PrivateKeyPath != "":
		return Credential{Kind: CredentialPrivateKey, Value: c.PrivateKeyPath, Passphrase: c.PrivateKeyPassphrase}
	case c.Password != "":
		return Credential{Kind: CredentialPassword, Value: c.Password}
	case c.UseAgent && os.Getenv("SSH_AUTH_SOCK") != "":
		return Credential{Kind: CredentialAgent, Value: os.Getenv("SSH_AUTH_SOCK")}
	default:
		return Credential{}
	}
}

// authMethods turns cred into SSH auth methods. A returned closer, if
// non-nil, releases the agent connection.
func authMethods(cred Credential, res *resources) ([]ssh.AuthMethod, func() error, error) {
	switch cred.Kind {
	case CredentialPrivateKey:
		path, err := res.file(cred.Value)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: cannot open private key %s: %v", ErrConfiguration, cred.Value, err)
		}
		signer, err := loadSigner(path, cred.Passphrase)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: cannot add private key %s: %v", ErrConfiguration, cred.Value, err)
		}
		return []ssh.AuthMethod{ssh.PublicKeys(signer)}, nil, nil
	case CredentialPassword:
		pw := cred.Value
		answer := func(user, instruction string, questions []string, echos []bool) ([]string, error) {
			answers := make([]string, len(questions))
			for i := range answers {
				answers[i] = pw
			}
			return answers, nil
		}
		return []ssh.AuthMethod{ssh.Password(pw), ssh.KeyboardInteractive(answer)}, nil, nil
	case CredentialAgent:
		conn, err := net.Dial("unix", cred.Value)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: ssh-agent at %s: %v", ErrConfiguration, cred.Value, err)
		}
		return []ssh.AuthMethod{ssh.PublicKeysCallback(agent.NewClient(conn).Signers)}, conn.Close, nil
	default:
		return nil, nil, fmt.Errorf("%w: neither password nor private key given", ErrConfiguration)
	}
}
