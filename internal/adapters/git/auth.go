package git

import (
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	gitssh "github.com/go-git/go-git/v5/plumbing/transport/ssh"
	cryptossh "golang.org/x/crypto/ssh"

	"github.com/kubicas/repoget/internal/domain"
)

// authFor selects the go-git authentication method for a remote URL. The URL
// shape determines the strategy:
//
//	https: basic auth when credentials were prompted, anonymous otherwise
//	ssh:   configured private key, then the SSH agent, then a prompted password
//	file:  no authentication
func (b *GoGitBackend) authFor(url string, creds *domain.Credentials) (transport.AuthMethod, error) {
	ep, err := transport.NewEndpoint(url)
	if err != nil {
		return nil, fmt.Errorf("endpoint %s: %w", url, err)
	}

	switch ep.Protocol {
	case "http", "https":
		if creds == nil {
			return nil, nil
		}
		return &githttp.BasicAuth{
			Username: creds.Username,
			Password: creds.Password,
		}, nil

	case "ssh":
		return b.sshAuth(ep.User, creds)

	default:
		// file and other local protocols need no authentication.
		return nil, nil
	}
}

// sshAuth builds the SSH authentication method for user.
func (b *GoGitBackend) sshAuth(user string, creds *domain.Credentials) (transport.AuthMethod, error) {
	if user == "" {
		user = domain.DefaultSSHUser
	}

	if len(b.opts.SSHKeyPEM) > 0 {
		signer, err := parseSigner(b.opts.SSHKeyPEM, b.opts.SSHKeyPassword)
		if err != nil {
			return nil, fmt.Errorf("parse ssh key: %w", err)
		}
		return &gitssh.PublicKeys{User: user, Signer: signer}, nil
	}

	if creds != nil {
		return &gitssh.Password{User: user, Password: creds.Password}, nil
	}

	if auth, err := gitssh.NewSSHAgentAuth(user); err == nil {
		return auth, nil
	}
	// No agent and nothing prompted yet; let the transport demand
	// authentication so the Provisioner can route to the prompt.
	return nil, nil
}

// parseSigner parses a PEM private key, decrypting it when a passphrase is
// supplied.
func parseSigner(pem []byte, passphrase string) (cryptossh.Signer, error) {
	if strings.TrimSpace(passphrase) != "" {
		return cryptossh.ParsePrivateKeyWithPassphrase(pem, []byte(passphrase))
	}
	return cryptossh.ParsePrivateKey(pem)
}
