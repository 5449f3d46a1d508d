// Command kv-server runs one replica of either register protocol.
package main

import (
	"flag"
	"fmt"
	"os"

	abdserver "github.com/averywhite/quorumreg/abd/server"
	blockingserver "github.com/averywhite/quorumreg/blocking/server"
	"github.com/averywhite/quorumreg/config"
	"github.com/averywhite/quorumreg/protocol"
	"github.com/charmbracelet/log"
)

func main() {
	configPath := flag.String("config", "", "path to cluster configuration JSON")
	serverID := flag.Int("server-id", -1, "this replica's id, as listed in the config file")
	port := flag.Int("port", 0, "override the configured listen port")
	host := flag.String("host", "", "override the configured listen host")
	flag.Parse()

	if *configPath == "" || *serverID < 0 {
		fmt.Fprintln(os.Stderr, "usage: kv-server --config <path> --server-id <n> [--port <n>] [--host <addr>]")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	spec, ok := cfg.Server(int32(*serverID))
	if !ok {
		log.Fatalf("server id %d not present in config", *serverID)
	}
	if *port != 0 {
		spec.Port = int32(*port)
	}
	if *host != "" {
		spec.Host = *host
	}

	// Always listen on all interfaces; spec.Host is only what clients dial,
	// which may be a routable address that isn't a local interface here.
	self := protocol.Connection{Network: "tcp", Address: fmt.Sprintf(":%d", spec.Port)}

	switch cfg.Protocol {
	case config.ProtocolABD:
		srv := abdserver.New(int32(*serverID), self)
		log.Infof("starting abd replica %d, advertised as %s, listening on %s", *serverID, spec.Address(), self.Address)
		if err := srv.Start(); err != nil {
			log.Fatalf("server exited: %v", err)
		}
	case config.ProtocolBlocking:
		srv := blockingserver.New(int32(*serverID), self)
		log.Infof("starting blocking replica %d, advertised as %s, listening on %s", *serverID, spec.Address(), self.Address)
		if err := srv.Start(); err != nil {
			log.Fatalf("server exited: %v", err)
		}
	default:
		log.Fatalf("unknown protocol %q", cfg.Protocol)
	}
}
