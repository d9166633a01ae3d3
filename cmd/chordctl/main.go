// Command chordctl is an interactive line-editing client for poking at a
// running chordnode: issue lookup/fingers/succ/pred/node commands against
// it and switch targets without restarting. Adapted from the teacher's
// cache-client REPL (cmd/cache-client/main.go) — same liner-driven shell
// loop and command-dispatch shape, retargeted from the HTTP cache API to
// the ring's gRPC surface.
package main

import (
	"context"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/peterh/liner"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"chordring/internal/ring"
	"chordring/internal/transport"
)

func main() {
	addr := flag.String("addr", "localhost:7946", "address of the chordnode to connect to")
	bits := flag.Int("bits", 64, "identifier bit-width of the ring (must match the target node)")
	timeout := flag.Duration("timeout", 5*time.Second, "per-command RPC timeout")
	flag.Parse()

	space, err := ring.NewSpace(*bits)
	if err != nil {
		fmt.Println("invalid -bits:", err)
		return
	}

	fmt.Printf("chordctl connected to %s (m=%d)\n", *addr, *bits)
	fmt.Println("Available commands: node/succ/pred/fingers/lookup <hex-id>/use <addr>/help/exit")
	fmt.Println("")

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	current := *addr
	cc, conn, err := dial(current)
	if err != nil {
		fmt.Println("connect failed:", err)
		return
	}
	defer cc.Close()

	for {
		input, err := line.Prompt(fmt.Sprintf("chord[%s]> ", current))
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				fmt.Println("Aborted")
				continue
			}
			break
		}
		line.AppendHistory(input)

		args := strings.Fields(strings.TrimSpace(input))
		if len(args) == 0 {
			continue
		}
		cmd := args[0]
		ctx, cancel := context.WithTimeout(context.Background(), *timeout)

		switch cmd {
		case "node":
			n, err := conn.GetNode(ctx)
			printNode("node", n, err)

		case "succ":
			n, err := conn.GetSuccessor(ctx)
			printNode("successor", n, err)

		case "pred":
			n, ok, err := conn.GetPredecessor(ctx)
			if err != nil {
				fmt.Println("error:", err)
			} else if !ok {
				fmt.Println("predecessor: (unset)")
			} else {
				printNode("predecessor", n, nil)
			}

		case "fingers":
			for k := 0; k < space.Bits; k++ {
				n, err := conn.FindSuccessor(ctx, space.FingerStart(space.Hash(current), k))
				if err != nil {
					fmt.Printf("  [%2d] error: %v\n", k, err)
					continue
				}
				fmt.Printf("  [%2d] %s\n", k, n.String())
			}

		case "lookup":
			if len(args) < 2 {
				fmt.Println("Usage: lookup <hex-id>")
				cancel()
				continue
			}
			id, err := parseHexDigest(args[1], space)
			if err != nil {
				fmt.Println("invalid id:", err)
				cancel()
				continue
			}
			n, err := conn.FindSuccessor(ctx, id)
			printNode("owner", n, err)

		case "use", "connect":
			if len(args) < 2 {
				fmt.Println("Usage: use <addr>")
				cancel()
				continue
			}
			newCC, newConn, err := dial(args[1])
			if err != nil {
				fmt.Println("connect failed:", err)
				cancel()
				continue
			}
			cc.Close()
			cc, conn = newCC, newConn
			current = args[1]
			fmt.Printf("Switched to %s\n", current)

		case "help", "?":
			fmt.Println("Available commands:")
			fmt.Println("  node              - show this node's identity")
			fmt.Println("  succ              - show its current successor")
			fmt.Println("  pred              - show its current predecessor")
			fmt.Println("  fingers           - resolve the owner of each finger start")
			fmt.Println("  lookup <hex-id>   - resolve the owner of an identifier")
			fmt.Println("  use <addr>        - switch to a different node")
			fmt.Println("  help              - show this help")
			fmt.Println("  exit              - exit client")

		case "exit", "quit", "q":
			cancel()
			fmt.Println("Bye!")
			return

		default:
			fmt.Printf("Unknown command: %s\n", cmd)
			fmt.Println("Type 'help' for available commands")
		}
		cancel()
	}
}

// ringClient is the ring.Peer interface chordctl drives directly.
type ringClient = ring.Peer

func dial(addr string) (*grpc.ClientConn, ringClient, error) {
	cc, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, nil, err
	}
	return cc, transport.NewDebugPeer(cc), nil
}

func printNode(label string, n ring.Node, err error) {
	if err != nil {
		fmt.Printf("%s: error: %v\n", label, err)
		return
	}
	fmt.Printf("%s: %s\n", label, n.String())
}

func parseHexDigest(s string, space ring.Space) (ring.Digest, error) {
	s = strings.TrimPrefix(s, "0x")
	if len(s) < space.ByteLen*2 {
		s = strings.Repeat("0", space.ByteLen*2-len(s)) + s
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		if n, numErr := strconv.ParseUint(s, 10, 64); numErr == nil {
			return space.FromUint64(n), nil
		}
		return nil, err
	}
	return ring.Digest(b), nil
}
