/*
nuke-ms server: a TCP dispatcher that accepts client connections and
re-broadcasts NearUserMessage packets between them.

Command-line flags:

	-addr    TCP listen address (default ":34443")
	-id      server id, used only by the optional presence extension
	-redis   Redis address enabling cross-process unicast forwarding;
	         empty disables the extension entirely (default)
	-peers   comma-separated list of every server id in the federation
	         (including -id); used as a rendezvous-hash fallback when a
	         presence lookup finds no announcement for a recipient

Example:

	./server -addr :34443 -id gateway_1 -redis 127.0.0.1:6379 -peers gateway_1,gateway_2
*/
package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"nuke-ms/internal/presence"
	pkgredis "nuke-ms/pkg/redis"
	"nuke-ms/server"
)

func main() {
	addr := flag.String("addr", "", "TCP listen address (default :34443)")
	serverID := flag.String("id", "gateway_1", "server id, used by the presence extension")
	redisAddr := flag.String("redis", "", "Redis address; enables cross-process unicast forwarding when set")
	peers := flag.String("peers", "", "comma-separated server ids in the federation, for presence fallback routing")
	flag.Parse()

	srv := server.NewDispatchServer(*addr, *serverID)

	if *redisAddr != "" {
		if err := pkgredis.Init(&pkgredis.Config{Addr: *redisAddr}); err != nil {
			log.Fatalf("[server] redis init: %v", err)
		}
		defer pkgredis.Close()

		var peerIDs []string
		if *peers != "" {
			peerIDs = strings.Split(*peers, ",")
		}
		srv.EnablePresence(presence.NewRegistry(), peerIDs)
	}

	if err := srv.Start(); err != nil {
		log.Fatalf("[server] start: %v", err)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[server] shutting down")
	srv.Stop()
}
