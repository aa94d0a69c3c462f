// Command burrow is a minimal line-oriented shell over a single DHT net
// actor: it is not the TUI shell that the spec this module implements
// keeps out of scope, just enough of a driver to show the core's
// exposed operations running end to end against a real UDP socket.
package main

import (
	"bufio"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/mjolnir-labs/burrow/internal/config"
	"github.com/mjolnir-labs/burrow/internal/dht"
	"github.com/mjolnir-labs/burrow/internal/logging"
	"github.com/mjolnir-labs/burrow/internal/netactor"
)

func main() {
	logger := logging.New(os.Stdout, logging.DefaultOptions())
	slog.SetDefault(logger)

	cfg := config.DefaultConfig()
	if addr := os.Getenv("BURROW_LISTEN_ADDR"); addr != "" {
		cfg.ListenAddr = addr
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(1)
	}

	actor, err := netactor.New(cfg, logger)
	if err != nil {
		logger.Error("failed to start net actor", "error", err)
		os.Exit(1)
	}
	logger.Info("node ready", "id", hex.EncodeToString(actor.SelfID()[:]), "listen", cfg.ListenAddr)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return actor.Run(gctx) })
	g.Go(func() error { return printDisplay(gctx, actor) })
	g.Go(func() error { return repl(gctx, cancel, actor) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("exited with error", "error", err)
		os.Exit(1)
	}
}

func printDisplay(ctx context.Context, actor *netactor.Actor) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-actor.Display():
			if !ok {
				return nil
			}
			switch m := msg.(type) {
			case netactor.Info:
				fmt.Println("info:", m.Text)
			case netactor.Warning:
				fmt.Println("warn:", m.Text)
			case netactor.NodeDiscovered:
				fmt.Printf("node: %s at %s\n", hex.EncodeToString(m.Node.ID[:]), m.Node.Address.String())
			case netactor.BootstrapComplete:
				fmt.Printf("table size: %d\n", m.TableSize)
			}
		}
	}
}

// repl reads "bootstrap <host:port>" and "find_node <hex id>" lines from
// stdin and translates them into Commands, until stdin closes or ctx is
// canceled.
func repl(ctx context.Context, cancel context.CancelFunc, actor *netactor.Actor) error {
	scanner := bufio.NewScanner(os.Stdin)
	lines := make(chan string)
	go func() {
		defer close(lines)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				cancel()
				return nil
			}
			if err := dispatch(strings.TrimSpace(line), actor); err != nil {
				fmt.Println("error:", err)
			}
		}
	}
}

func dispatch(line string, actor *netactor.Actor) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	switch fields[0] {
	case "bootstrap":
		if len(fields) != 2 {
			return fmt.Errorf("usage: bootstrap <host:port>")
		}
		actor.Commands() <- netactor.Bootstrap{Addr: fields[1]}
	case "find_node":
		if len(fields) != 2 {
			return fmt.Errorf("usage: find_node <hex id>")
		}
		raw, err := hex.DecodeString(fields[1])
		if err != nil {
			return fmt.Errorf("decoding target id: %w", err)
		}
		target, err := dht.ParseNodeId(raw)
		if err != nil {
			return err
		}
		actor.Commands() <- netactor.FindNode{Target: target}
	case "quit", "exit":
		os.Exit(0)
	default:
		return fmt.Errorf("unknown command %q (try: bootstrap, find_node, quit)", fields[0])
	}
	return nil
}
