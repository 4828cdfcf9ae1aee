package sshclient

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

func TestConfig_Defaults(t *testing.T) {
	c := Config{Host: "h"}.withDefaults()
	require.Equal(t, DefaultName, c.Name)
	require.Equal(t, DefaultPort, c.Port)
	require.Equal(t, DefaultConnectionTimeout, c.ConnectionTimeout)
	require.Equal(t, DefaultReplyTimeout, c.ReplyTimeout)
	require.Zero(t, c.CommandTimeout)
	require.NotNil(t, c.Resources)
	require.NotNil(t, c.Logger)
	require.Equal(t, "h:22", c.Addr())
}

func TestConfig_Validate(t *testing.T) {
	require.ErrorIs(t, Config{}.Validate(), ErrConfiguration)
	require.ErrorIs(t, Config{Host: "h", Port: 70000}.Validate(), ErrConfiguration)
	require.ErrorIs(t, Config{Host: "h", ReplyTimeout: -1}.Validate(), ErrConfiguration)
	require.NoError(t, Config{Host: "h", Port: 2222}.Validate())
	require.Equal(t, "[::1]:2222", Config{Host: "::1", Port: 2222}.Addr())
}

func TestCredentialFor_Precedence(t *testing.T) {
	t.Setenv("SSH_AUTH_SOCK", "/tmp/agent.sock")

	c := credentialFor(Config{PrivateKeyPath: "k", PrivateKeyPassphrase: "pp", Password: "p", UseAgent: true})
	require.Equal(t, Credential{Kind: CredentialPrivateKey, Value: "k", Passphrase: "pp"}, c)

	c = credentialFor(Config{Password: "p", UseAgent: true})
	require.Equal(t, CredentialPassword, c.Kind)
	require.Equal(t, "p", c.Value)

	c = credentialFor(Config{UseAgent: true})
	require.Equal(t, CredentialAgent, c.Kind)
	require.Equal(t, "/tmp/agent.sock", c.Value)

	require.Equal(t, CredentialNone, credentialFor(Config{}).Kind)
}

func TestCredentialFor_AgentRequiresSocket(t *testing.T) {
	t.Setenv("SSH_AUTH_SOCK", "")
	require.Equal(t, CredentialNone, credentialFor(Config{UseAgent: true}).Kind)
}

func TestCredentialKind_String(t *testing.T) {
	require.Equal(t, "private-key", CredentialPrivateKey.String())
	require.Equal(t, "password", CredentialPassword.String())
	require.Equal(t, "agent", CredentialAgent.String())
	require.Equal(t, "none", CredentialNone.String())
}

func TestAuthMethods(t *testing.T) {
	res := newResources(fstest.MapFS{})

	_, _, err := authMethods(Credential{}, res)
	require.ErrorIs(t, err, ErrConfiguration)

	m, release, err := authMethods(Credential{Kind: CredentialPassword, Value: "p"}, res)
	require.NoError(t, err)
	require.Len(t, m, 2)
	require.Nil(t, release)

	_, _, err = authMethods(Credential{Kind: CredentialPrivateKey, Value: filepath.Join(t.TempDir(), "none")}, res)
	require.ErrorIs(t, err, ErrConfiguration)

	_, _, err = authMethods(Credential{Kind: CredentialAgent, Value: filepath.Join(t.TempDir(), "no.sock")}, res)
	require.ErrorIs(t, err, ErrConfiguration)
}

func TestResources_ClasspathCopiedToTempFile(t *testing.T) {
	res := newResources(fstest.MapFS{"keys/id_rsa": {Data: []byte("KEY")}})

	p, err := res.file(ClasspathPrefix + "keys/id_rsa")
	require.NoError(t, err)
	b, err := os.ReadFile(p)
	require.NoError(t, err)
	require.Equal(t, "KEY", string(b))

	same, err := res.file(ClasspathPrefix + "keys/id_rsa")
	require.NoError(t, err)
	require.Equal(t, p, same)

	require.NoError(t, res.cleanup())
	_, err = os.Stat(p)
	require.True(t, os.IsNotExist(err))
}

func TestResources_Missing(t *testing.T) {
	res := newResources(fstest.MapFS{})
	_, err := res.file(ClasspathPrefix + "nope")
	require.Error(t, err)
	_, err = res.file(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}

func TestHostKeyCallback(t *testing.T) {
	res := newResources(fstest.MapFS{})

	cb, err := hostKeyCallback(false, "", res)
	require.NoError(t, err)
	require.NotNil(t, cb)

	_, err = hostKeyCallback(true, "", res)
	require.ErrorIs(t, err, ErrConfiguration)

	_, err = hostKeyCallback(true, filepath.Join(t.TempDir(), "known_hosts"), res)
	require.ErrorIs(t, err, ErrConfiguration)

	kh := writeTemp(t, t.TempDir(), "known_hosts", "\n")
	cb, err = hostKeyCallback(true, kh, res)
	require.NoError(t, err)
	require.NotNil(t, cb)
}
