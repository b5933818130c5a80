/*
nuke-ms command-line client: a small command shell driving the
clientnode facade, standing in for the graphical client the core
spec deliberately excludes.

Commands:

	connect <host:service>        connect to a server
	send <recipient|all> <text>   send text; recipient is a hex
	                               UniqueUserID, or "all" to broadcast
	disconnect                    disconnect from the current server
	quit                          exit
*/
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"nuke-ms/clientnode"
	"nuke-ms/userid"
)

func main() {
	location := flag.String("connect", "", "server to connect to immediately, host:service")
	flag.Parse()

	node := clientnode.NewNode()
	defer node.Close()

	node.SubscribeConnectionStatus(func(r clientnode.ConnectionStatusReport) {
		fmt.Printf("[status] %s %s %s\n", r.Status, r.Reason, r.Message)
	})
	node.SubscribeSendReport(func(r clientnode.SendReport) {
		if !r.OK {
			fmt.Printf("[send-failed #%d] %s %s\n", r.MsgID, r.Reason, r.Message)
		}
	})
	node.SubscribeReceivedMessage(func(rm clientnode.ReceivedMessage) {
		fmt.Printf("[%s] %s\n", rm.Message.Sender.String(), rm.Message.Text.Text)
	})
	node.SubscribeLogLine(func(line string) {
		log.Println(line)
	})

	if *location != "" {
		node.ConnectTo(*location)
	}

	fmt.Println("commands: connect <host:service> | send <recipient|all> <text> | disconnect | quit")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, " ", 3)

		switch parts[0] {
		case "quit":
			return

		case "connect":
			if len(parts) < 2 {
				fmt.Println("usage: connect <host:service>")
				continue
			}
			node.ConnectTo(parts[1])

		case "disconnect":
			node.Disconnect()

		case "send":
			if len(parts) < 3 {
				fmt.Println("usage: send <recipient|all> <text>")
				continue
			}
			recipient, err := parseRecipient(parts[1])
			if err != nil {
				fmt.Printf("bad recipient %q: %v\n", parts[1], err)
				continue
			}
			node.SendUserMessage(parts[2], recipient)

		default:
			fmt.Printf("unknown command %q\n", parts[0])
		}
	}
}

func parseRecipient(s string) (userid.UniqueUserID, error) {
	if s == "all" {
		return userid.None, nil
	}
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return userid.None, err
	}
	return userid.UniqueUserID(v), nil
}
