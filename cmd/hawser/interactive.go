package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"golang.org/x/term"

	"github.com/hawser-project/hawser-go/pkg/bridge"
	"github.com/hawser-project/hawser-go/pkg/client"
	"github.com/hawser-project/hawser-go/pkg/discovery"
	"github.com/hawser-project/hawser-go/pkg/identity"
	"github.com/hawser-project/hawser-go/pkg/secrets"
	"github.com/hawser-project/hawser-go/pkg/trust"
)

// escapeKey drops out of raw shell mode (Ctrl-]).
const escapeKey = 0x1d

// Interactive handles the interactive command loop.
type Interactive struct {
	client *client.Client
	store  secrets.Store
	rl     *readline.Instance
}

func newInteractive(c *client.Client, store secrets.Store) (*Interactive, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "hawser> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	ui := &Interactive{client: c, store: store, rl: rl}
	c.OnHostKeyChallenge(func(ch trust.Challenge) {
		out := rl.Stdout()
		switch ch.Comparison {
		case trust.ComparisonMismatch:
			fmt.Fprintf(out, "\nWARNING: host key for %s:%d has CHANGED\n", ch.Hostname, ch.Port)
			fmt.Fprintf(out, "  stored:    %s\n", ch.StoredFingerprint)
			fmt.Fprintf(out, "  presented: %s (%s)\n", ch.Fingerprint, ch.Algorithm)
		default:
			fmt.Fprintf(out, "\nUnknown host %s:%d\n", ch.Hostname, ch.Port)
			fmt.Fprintf(out, "  %s key fingerprint: %s\n", ch.Algorithm, ch.Fingerprint)
		}
		fmt.Fprintln(out, "Answer with: trust once | trust save | trust reject")
	})
	return ui, nil
}

// Run starts the interactive command loop.
func (i *Interactive) Run(ctx context.Context, cancel context.CancelFunc) {
	defer i.rl.Close()

	i.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := i.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(i.rl.Stdout(), "Exiting...")
			cancel()
			return
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		parts := strings.Fields(input)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "help", "?":
			i.printHelp()

		case "connect", "c":
			i.cmdConnect(ctx, args)

		case "disconnect", "d":
			i.client.Disconnect()
			fmt.Fprintln(i.rl.Stdout(), "Disconnected")

		case "cancel":
			i.client.Cancel()

		case "trust":
			i.cmdTrust(args)

		case "attach", "a":
			i.cmdAttach(ctx, args)

		case "detach":
			i.cmdDetach()

		case "shell", "sh":
			i.cmdShell()

		case "resize":
			i.cmdResize(args)

		case "hosts", "browse":
			i.cmdHosts(ctx)

		case "status", "s":
			i.cmdStatus()

		case "quit", "exit", "q":
			fmt.Fprintln(i.rl.Stdout(), "Exiting...")
			cancel()
			return

		default:
			fmt.Fprintf(i.rl.Stdout(), "Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}
}

func (i *Interactive) printHelp() {
	fmt.Fprintln(i.rl.Stdout(), `
Hawser Commands:
  Connection:
    connect <user@host[:port]> [key-file] - Connect to a host
    disconnect                            - Close the connection
    cancel                                - Abort an in-flight attempt
    trust <once|save|reject>              - Answer a host key challenge

  Session:
    attach <name>    - Attach to (or create) a tmux session
    detach           - Detach and stop tracking the session
    shell            - Enter the remote shell (Ctrl-] to leave)
    resize <c> <r>   - Resize the terminal

  General:
    hosts            - Browse the LAN for SSH hosts
    status           - Show connection status
    help             - Show this help
    quit             - Exit`)
}

// cmdConnect parses user@host[:port] and starts a connection attempt in
// the background so the prompt stays live for trust decisions.
func (i *Interactive) cmdConnect(ctx context.Context, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(i.rl.Stdout(), "Usage: connect <user@host[:port]> [key-file]")
		return
	}

	id, err := parseTarget(args[0])
	if err != nil {
		fmt.Fprintf(i.rl.Stdout(), "Invalid target: %v\n", err)
		return
	}
	keyPath := ""
	if len(args) > 1 {
		keyPath = args[1]
		id.Auth = identity.AuthPrivateKey
	}

	if err := i.connectWith(ctx, id, keyPath); err != nil {
		fmt.Fprintf(i.rl.Stdout(), "connect: %v\n", err)
	}
}

// connectWith resolves the credential, stores it, and runs the attempt
// on a background goroutine.
func (i *Interactive) connectWith(ctx context.Context, id identity.Identity, keyPath string) error {
	ref := "cred:" + id.String()
	switch id.Auth {
	case identity.AuthPrivateKey:
		pem, err := os.ReadFile(keyPath)
		if err != nil {
			return fmt.Errorf("reading key: %w", err)
		}
		if err := i.store.Store(ref, pem); err != nil {
			return err
		}
	default:
		password, err := promptSecret(fmt.Sprintf("Password for %s: ", id.String()))
		if err != nil {
			return err
		}
		if err := i.store.Store(ref, password); err != nil {
			return err
		}
	}
	id.SecretRef = ref

	fmt.Fprintf(i.rl.Stdout(), "Connecting to %s...\n", id.String())
	go func() {
		if err := i.client.Connect(ctx, id); err != nil {
			fmt.Fprintf(i.rl.Stdout(), "\nConnection failed: %v\n", err)
			return
		}
		fmt.Fprintf(i.rl.Stdout(), "\nConnected to %s. Type 'shell' to enter.\n", id.Addr())
	}()
	return nil
}

func (i *Interactive) cmdTrust(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(i.rl.Stdout(), "Usage: trust <once|save|reject>")
		return
	}

	var decision trust.Decision
	switch strings.ToLower(args[0]) {
	case "once":
		decision = trust.DecisionTrustOnce
	case "save":
		decision = trust.DecisionTrustAndSave
	case "reject", "no":
		decision = trust.DecisionReject
	default:
		fmt.Fprintf(i.rl.Stdout(), "Unknown decision: %s\n", args[0])
		return
	}

	if err := i.client.ResolveHostKeyChallenge(decision); err != nil {
		fmt.Fprintf(i.rl.Stdout(), "trust: %v\n", err)
	}
}

func (i *Interactive) cmdAttach(ctx context.Context, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(i.rl.Stdout(), "Usage: attach <session-name>")
		return
	}
	if err := i.client.Attach(ctx, args[0]); err != nil {
		fmt.Fprintf(i.rl.Stdout(), "attach: %v\n", err)
		return
	}
	fmt.Fprintf(i.rl.Stdout(), "Tracking session %q. Type 'shell' to enter.\n", args[0])
}

func (i *Interactive) cmdDetach() {
	if err := i.client.Detach(); err != nil {
		fmt.Fprintf(i.rl.Stdout(), "detach: %v\n", err)
		return
	}
	fmt.Fprintln(i.rl.Stdout(), "Detached")
}

// cmdShell bridges the controlling terminal to the remote shell in raw
// mode until the escape key or a relay shutdown.
func (i *Interactive) cmdShell() {
	surface := i.client.Surface()
	if surface == nil {
		fmt.Fprintln(i.rl.Stdout(), "Not connected")
		return
	}

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		fmt.Fprintf(i.rl.Stdout(), "raw mode: %v\n", err)
		return
	}
	defer term.Restore(fd, oldState)

	if cols, rows, err := term.GetSize(fd); err == nil {
		_ = i.client.Resize(cols, rows)
	}

	done := make(chan struct{})
	go func() {
		// Rendered remote output to the local terminal.
		io.Copy(os.Stdout, surface.Output())
		close(done)
	}()

	buf := make([]byte, 1024)
	for {
		if i.client.BridgeStatus().Phase != bridge.PhaseRunning {
			break
		}
		n, err := os.Stdin.Read(buf)
		if err != nil {
			break
		}
		if idx := bytes.IndexByte(buf[:n], escapeKey); idx >= 0 {
			if idx > 0 {
				surface.InjectKeys(string(buf[:idx]))
			}
			break
		}
		if err := surface.InjectKeys(string(buf[:n])); err != nil {
			break
		}
	}

	select {
	case <-done:
	case <-time.After(100 * time.Millisecond):
	}
	fmt.Fprintln(i.rl.Stdout(), "\nLeft remote shell")
}

func (i *Interactive) cmdResize(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(i.rl.Stdout(), "Usage: resize <cols> <rows>")
		return
	}
	cols, err1 := strconv.Atoi(args[0])
	rows, err2 := strconv.Atoi(args[1])
	if err1 != nil || err2 != nil {
		fmt.Fprintln(i.rl.Stdout(), "Usage: resize <cols> <rows>")
		return
	}
	if err := i.client.Resize(cols, rows); err != nil {
		fmt.Fprintf(i.rl.Stdout(), "resize: %v\n", err)
	}
}

func (i *Interactive) cmdHosts(ctx context.Context) {
	browser, err := discovery.NewMDNSBrowser(discovery.DefaultBrowserConfig())
	if err != nil {
		fmt.Fprintf(i.rl.Stdout(), "browse: %v\n", err)
		return
	}
	defer browser.Stop()

	browseCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	results, err := browser.Browse(browseCtx)
	if err != nil {
		fmt.Fprintf(i.rl.Stdout(), "browse: %v\n", err)
		return
	}

	fmt.Fprintln(i.rl.Stdout(), "Browsing for SSH hosts...")
	found := 0
	for host := range results {
		found++
		fmt.Fprintf(i.rl.Stdout(), "  %s (%s:%d) %v\n",
			host.InstanceName, host.Hostname, host.Port, host.Addresses)
	}
	if found == 0 {
		fmt.Fprintln(i.rl.Stdout(), "No SSH hosts found")
	}
}

func (i *Interactive) cmdStatus() {
	out := i.rl.Stdout()
	st := i.client.Status()
	fmt.Fprintln(out, "\nConnection Status")
	fmt.Fprintln(out, "-------------------------------------------")
	fmt.Fprintf(out, "  Connection: %s\n", st.Phase)
	if st.IsFailed() {
		fmt.Fprintf(out, "  Failure:    %s\n", st.Message)
		fmt.Fprintf(out, "  Advice:     %s\n", st.Advice)
	}
	fmt.Fprintf(out, "  Session:    %s\n", i.client.SessionState().Phase)
	fmt.Fprintf(out, "  Bridge:     %s\n", i.client.BridgeStatus().Phase)
	if name := i.client.TrackedSession(); name != "" {
		fmt.Fprintf(out, "  Tracked:    %s\n", name)
	}
	if ch := i.client.PendingChallenge(); ch != nil {
		fmt.Fprintf(out, "  Pending host key challenge for %s:%d (%s)\n",
			ch.Hostname, ch.Port, ch.Fingerprint)
	}
	fmt.Fprintln(out)
}

// parseTarget parses "user@host[:port]".
func parseTarget(target string) (identity.Identity, error) {
	at := strings.LastIndex(target, "@")
	if at <= 0 || at == len(target)-1 {
		return identity.Identity{}, fmt.Errorf("expected user@host[:port], got %q", target)
	}
	id := identity.Identity{Username: target[:at], Auth: identity.AuthPassword}

	hostPort := target[at+1:]
	if colon := strings.LastIndex(hostPort, ":"); colon > 0 {
		port, err := strconv.ParseUint(hostPort[colon+1:], 10, 16)
		if err != nil {
			return identity.Identity{}, fmt.Errorf("invalid port %q", hostPort[colon+1:])
		}
		id.Host = hostPort[:colon]
		id.Port = uint16(port)
	} else {
		id.Host = hostPort
	}
	return id, nil
}

