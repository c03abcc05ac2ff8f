package tunnel

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"golang.org/x/crypto/ssh"
)

// newSigner returns a fresh ed25519 signer.
func newSigner(t *testing.T) (ssh.Signer, ed25519.PrivateKey) {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	signer, err := ssh.NewSignerFromKey(priv)
	if err != nil {
		t.Fatal(err)
	}
	return signer, priv
}

// writeKey writes priv in OpenSSH format, encrypted when passphrase is
// non-empty, and returns the path.
func writeKey(t *testing.T, priv ed25519.PrivateKey, passphrase string) string {
	t.Helper()
	var (
		block *pem.Block
		err   error
	)
	if passphrase == "" {
		block, err = ssh.MarshalPrivateKey(priv, "scanlink-test")
	} else {
		block, err = ssh.MarshalPrivateKeyWithPassphrase(priv, "scanlink-test", []byte(passphrase))
	}
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "id_test")
	if err := os.WriteFile(path, pem.EncodeToMemory(block), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

// gateway is a minimal SSH server that accepts any client and serves
// direct-tcpip channels by dialing the requested address.
type gateway struct {
	ln     net.Listener
	signer ssh.Signer

	mu    sync.Mutex
	conns []net.Conn
}

func startGateway(t *testing.T) *gateway {
	t.Helper()
	signer, _ := newSigner(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	g := &gateway{ln: ln, signer: signer}
	go g.serve()
	t.Cleanup(g.close)
	return g
}

func (g *gateway) host() string { return "127.0.0.1" }

func (g *gateway) port() int { return g.ln.Addr().(*net.TCPAddr).Port }

// dropSessions closes every live SSH connection, as a gateway restart
// would.
func (g *gateway) dropSessions() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, c := range g.conns {
		c.Close()
	}
	g.conns = nil
}

func (g *gateway) close() {
	g.ln.Close()
	g.dropSessions()
}

func (g *gateway) serve() {
	cfg := &ssh.ServerConfig{NoClientAuth: true}
	cfg.AddHostKey(g.signer)

	for {
		nConn, err := g.ln.Accept()
		if err != nil {
			return
		}
		g.mu.Lock()
		g.conns = append(g.conns, nConn)
		g.mu.Unlock()
		go g.handle(nConn, cfg)
	}
}

func (g *gateway) handle(nConn net.Conn, cfg *ssh.ServerConfig) {
	_, chans, reqs, err := ssh.NewServerConn(nConn, cfg)
	if err != nil {
		nConn.Close()
		return
	}
	go ssh.DiscardRequests(reqs)

	for newCh := range chans {
		if newCh.ChannelType() != "direct-tcpip" {
			newCh.Reject(ssh.UnknownChannelType, "only direct-tcpip") //nolint:errcheck
			continue
		}
		var req struct {
			Host     string
			Port     uint32
			OrigHost string
			OrigPort uint32
		}
		if err := ssh.Unmarshal(newCh.ExtraData(), &req); err != nil {
			newCh.Reject(ssh.ConnectionFailed, "bad request") //nolint:errcheck
			continue
		}
		target, err := net.Dial("tcp", net.JoinHostPort(req.Host, strconv.Itoa(int(req.Port))))
		if err != nil {
			newCh.Reject(ssh.ConnectionFailed, err.Error()) //nolint:errcheck
			continue
		}
		ch, chReqs, err := newCh.Accept()
		if err != nil {
			target.Close()
			continue
		}
		go ssh.DiscardRequests(chReqs)
		go func() {
			io.Copy(ch, target) //nolint:errcheck
			ch.CloseWrite()     //nolint:errcheck
			ch.Close()
		}()
		go func() {
			io.Copy(target, ch) //nolint:errcheck
			target.Close()
		}()
	}
}
