// Command corebridgectl is the developer-facing analog of the browser
// configuration UI: a small CLI that frames one CDC command over a unix
// socket or stdio, optionally runs the client side of the cdc/auth handshake
// with a session password, and prints the JSON response.
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"os"

	"github.com/retropad/corebridge/internal/cdc"
	"github.com/retropad/corebridge/internal/cdc/auth"

	"github.com/alecthomas/kong"
	"golang.org/x/term"
)

type cli struct {
	Socket   string `help:"Unix socket path to dial; omitted means frame over stdin/stdout" env:"COREBRIDGE_CDC_LISTEN"`
	Password string `help:"Session password for the optional auth handshake; prompted if omitted and -A is set" env:"COREBRIDGE_PASSWORD"`
	Auth     bool   `short:"A" help:"Perform the auth handshake before sending the command"`
	Cmd      string `arg:"" help:"Command name, e.g. INFO, PLAYERS.LIST, PROFILE.SET"`
	Args     string `arg:"" optional:"" help:"JSON-encoded arguments object for the command"`
}

func main() {
	var c cli
	kctx := kong.Parse(&c,
		kong.Name("corebridgectl"),
		kong.Description("Send one CDC control-plane command and print its response"),
		kong.UsageOnError(),
	)

	if err := run(&c); err != nil {
		kctx.FatalIfErrorf(err)
	}
}

func run(c *cli) error {
	rw, closeFn, err := dial(c.Socket)
	if err != nil {
		return fmt.Errorf("corebridgectl: dial: %w", err)
	}
	defer closeFn()

	if c.Auth {
		password := c.Password
		if password == "" {
			password, err = promptPassword()
			if err != nil {
				return fmt.Errorf("corebridgectl: read password: %w", err)
			}
		}
		rw, err = authenticate(rw, password)
		if err != nil {
			return fmt.Errorf("corebridgectl: auth handshake: %w", err)
		}
	}

	var args any
	if c.Args != "" {
		var raw json.RawMessage
		if err := json.Unmarshal([]byte(c.Args), &raw); err != nil {
			return fmt.Errorf("corebridgectl: args is not valid JSON: %w", err)
		}
		args = raw
	}

	client := cdc.NewClient(rw)
	resp, err := client.Call(c.Cmd, args)
	if err != nil {
		return fmt.Errorf("corebridgectl: %w", err)
	}

	out, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return fmt.Errorf("corebridgectl: encode response: %w", err)
	}
	fmt.Println(string(out))
	if !resp.Ok {
		os.Exit(1)
	}
	return nil
}

// rwCloser is the dialed transport: a unix socket connection, or stdio
// wrapped to satisfy io.ReadWriter with a no-op Close.
type rwCloser interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
}

func dial(socket string) (rwCloser, func(), error) {
	if socket == "" {
		return stdioConn{}, func() {}, nil
	}
	conn, err := net.Dial("unix", socket)
	if err != nil {
		return nil, nil, err
	}
	return conn, func() { _ = conn.Close() }, nil
}

type stdioConn struct{}

func (stdioConn) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdioConn) Write(p []byte) (int, error) { return os.Stdout.Write(p) }

// promptPassword reads a password from the controlling terminal without
// echoing it, the same way a browser's password field hides input.
func promptPassword() (string, error) {
	fmt.Fprint(os.Stderr, "session password: ")
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

// authenticate runs the client side of the HMAC challenge handshake and
// wraps rw in the session-encrypted connection privileged commands expect.
func authenticate(rw rwCloser, password string) (rwCloser, error) {
	key, err := auth.DeriveKey(password)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}

	br := bufio.NewReader(rw)
	clientNonce, serverNonce, err := auth.HandleAuthHandshake(br, rw, key, true)
	if err != nil {
		return nil, err
	}

	sessionKey := auth.DeriveSessionKey(key, serverNonce, clientNonce)
	conn, err := auth.WrapConn(rw, sessionKey)
	if err != nil {
		return nil, fmt.Errorf("wrap session: %w", err)
	}
	return conn, nil
}
