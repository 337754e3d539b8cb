// Command hawser is a reference SSH client built on the hawser-go
// connection core.
//
// It demonstrates:
//   - CLI argument parsing and YAML configuration
//   - Host key trust decisions (session-only or persisted)
//   - An interactive command interface
//   - tmux session attach and automatic reattach after reconnect
//   - CBOR event logging
//
// Usage:
//
//	hawser [flags]
//
// Flags:
//
//	-config string   Configuration file path (default ~/.hawser/config.yaml)
//	-host string     Remote host to connect to on startup
//	-port uint       Remote port (default 22)
//	-user string     Remote username
//	-key string      Path to a private key file (default: password auth)
//	-event-log string  CBOR event log path (overrides config)
//
// Examples:
//
//	# Interactive mode, connect on demand
//	hawser
//
//	# Connect immediately with key auth
//	hawser -host devbox.local -user dev -key ~/.ssh/id_ed25519
//
// Interactive Commands:
//
//	connect <user@host[:port]>  - Connect to a host
//	trust <once|save|reject>    - Answer a host key challenge
//	attach <name>               - Attach to (or create) a tmux session
//	detach                      - Detach from the tracked session
//	shell                       - Enter the remote shell (raw mode)
//	hosts                       - Browse the LAN for SSH hosts
//	status                      - Show connection status
//	disconnect, cancel, quit
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"golang.org/x/term"

	"github.com/hawser-project/hawser-go/pkg/client"
	"github.com/hawser-project/hawser-go/pkg/config"
	"github.com/hawser-project/hawser-go/pkg/identity"
	"github.com/hawser-project/hawser-go/pkg/log"
	"github.com/hawser-project/hawser-go/pkg/secrets"
)

func main() {
	var (
		configPath = flag.String("config", defaultConfigPath(), "configuration file path")
		host       = flag.String("host", "", "remote host to connect to on startup")
		port       = flag.Uint("port", 0, "remote port")
		user       = flag.String("user", "", "remote username")
		keyPath    = flag.String("key", "", "private key file (default: password auth)")
		eventLog   = flag.String("event-log", "", "CBOR event log path")
	)
	flag.Parse()

	if err := run(*configPath, *host, uint16(*port), *user, *keyPath, *eventLog); err != nil {
		fmt.Fprintf(os.Stderr, "hawser: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, host string, port uint16, user, keyPath, eventLog string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if eventLog != "" {
		cfg.EventLogPath = eventLog
	}

	var logger log.Logger = log.NoopLogger{}
	if cfg.EventLogPath != "" {
		fl, err := log.NewFileLogger(cfg.EventLogPath)
		if err != nil {
			return fmt.Errorf("opening event log: %w", err)
		}
		defer fl.Close()
		logger = fl
	}

	store := secrets.NewMemoryStore()
	c, err := client.New(cfg, store, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	ui, err := newInteractive(c, store)
	if err != nil {
		return err
	}

	if host != "" {
		id := identity.Identity{
			Host:     host,
			Port:     port,
			Username: user,
			Auth:     identity.AuthPassword,
		}
		if keyPath != "" {
			id.Auth = identity.AuthPrivateKey
		}
		if err := ui.connectWith(ctx, id, keyPath); err != nil {
			fmt.Fprintf(os.Stderr, "connect: %v\n", err)
		}
	}

	ui.Run(ctx, cancel)
	return nil
}

// promptSecret reads a secret without echo.
func promptSecret(prompt string) ([]byte, error) {
	fmt.Print(prompt)
	defer fmt.Println()
	return term.ReadPassword(int(os.Stdin.Fd()))
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "hawser.yaml"
	}
	return filepath.Join(home, ".hawser", "config.yaml")
}
