// Command kv-client issues reads and writes against a configured cluster,
// either as direct one-shot commands or as an interactive REPL.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/averywhite/quorumreg/config"
	"github.com/averywhite/quorumreg/register"
	"github.com/charmbracelet/log"
)

func main() {
	configPath := flag.String("config", "", "path to cluster configuration JSON")
	clientID := flag.Int("client-id", 1, "stable client identifier (used by the blocking protocol)")
	flag.Parse()

	if *configPath == "" {
		fmt.Fprintln(os.Stderr, "usage: kv-client --config <path> [--client-id <n>] read <key> | write <key> <value>")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	r, err := register.New(cfg, int32(*clientID))
	if err != nil {
		log.Fatalf("constructing register: %v", err)
	}
	defer r.Close()

	args := flag.Args()
	ctx := context.Background()

	if len(args) == 0 {
		runREPL(ctx, r)
		return
	}

	failed := false
	for len(args) > 0 {
		consumed, err := runCommand(ctx, r, args)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			failed = true
		}
		args = args[consumed:]
	}
	if failed {
		os.Exit(1)
	}
}

// runCommand executes the single command at the head of args and returns how
// many argument slots it consumed, so the caller can advance to the next
// command in a chain like "write a 1 write b 2 read a".
func runCommand(ctx context.Context, r register.Register, args []string) (int, error) {
	switch args[0] {
	case "read":
		if len(args) < 2 {
			return len(args), fmt.Errorf("usage: read <key>")
		}
		v, err := r.Read(ctx, args[1])
		if err != nil {
			return 2, fmt.Errorf("read %q: %w", args[1], err)
		}
		fmt.Println(string(v))
		return 2, nil
	case "write":
		if len(args) < 3 {
			return len(args), fmt.Errorf("usage: write <key> <value>")
		}
		if err := r.Write(ctx, args[1], []byte(args[2])); err != nil {
			return 3, fmt.Errorf("write %q: %w", args[1], err)
		}
		return 3, nil
	default:
		return len(args), fmt.Errorf("unknown command %q", args[0])
	}
}

func runREPL(ctx context.Context, r register.Register) {
	fmt.Println("kv-client interactive mode. Commands: read <key>, write <key> <value>, quit")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			return
		}
		if _, err := runCommand(ctx, r, strings.Fields(line)); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}
}
