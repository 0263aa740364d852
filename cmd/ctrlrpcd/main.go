// Package main implements ctrlrpcd, a minimal demo binary wiring a
// reconnecting Session over an in-memory pipe, grounded on
// cmd/server/main.go's construct-then-run shape (trimmed to this spec's
// scope: no HTTP, no RTM, no auth).
package main

// file: cmd/ctrlrpcd/main.go

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/dkoosis/ctrlrpc/internal/ctrlconfig"
	"github.com/dkoosis/ctrlrpc/internal/jsonvalue"
	"github.com/dkoosis/ctrlrpc/internal/message"
	"github.com/dkoosis/ctrlrpc/internal/paramschema"
	"github.com/dkoosis/ctrlrpc/internal/reconnect"
	"github.com/dkoosis/ctrlrpc/internal/session"
	"github.com/dkoosis/ctrlrpc/internal/transport"
)

func main() {
	log.SetFlags(log.LstdFlags)
	log.SetPrefix("[ctrlrpcd] ")

	configPath := flag.String("config", "", "path to a ctrlconfig YAML file (optional)")
	flag.Parse()

	settings := ctrlconfig.New()
	if *configPath != "" {
		loaded, err := ctrlconfig.Load(*configPath)
		if err != nil {
			log.Fatalf("loading config: %v", err)
		}
		settings = loaded
	}

	validator := paramschema.New(nil)
	for method, path := range settings.Session.ParamSchemas {
		if err := validator.LoadFile(method, path); err != nil {
			log.Fatalf("loading param schema for %q: %v", method, err)
		}
	}

	ctx := context.Background()

	// In production, factory would open a real network connection; here it
	// hands the Session one half of an in-memory pipe so this binary can
	// demonstrate the full lifecycle with no external dependencies.
	var peer *transport.PipeStream
	factory := func(name string) (transport.Stream, error) {
		client, p := transport.NewPipe(name, name+"-peer")
		peer = p
		return client, nil
	}

	controller := reconnect.NewScripted("ctrlrpcd-demo").WithDecisions(reconnect.Connect)
	sess := session.Open(controller, factory, settings.Session.RingCapacity, nil)
	sess.SetEchoMethod(settings.EffectiveEchoMethod(session.DefaultEchoMethod))
	sess.SetParamSchema(validator)

	now := time.Now().UnixNano()
	sess.Run(ctx, now) // tick 1: Idle -> Connecting (opens the demo pipe).
	sess.Run(ctx, now) // tick 2: Connecting -> Connected.
	if !sess.IsConnected() {
		log.Fatal("session failed to connect to demo peer")
	}
	fmt.Printf("connected: name=%s seqno=%d\n", sess.Name(), sess.SeqNo())

	req, id := message.Request("sum", jsonvalue.Array(jsonvalue.Number(1), jsonvalue.Number(2)))
	if status := sess.Send(req); status != 0 {
		log.Fatalf("send failed: status=%s", status)
	}
	sess.Run(ctx, now)

	buf := make([]byte, 512)
	n, err := peer.Recv(buf)
	if err != nil {
		log.Fatalf("demo peer did not observe the request: %v", err)
	}
	fmt.Printf("peer observed: %s\n", buf[:n])

	reply := message.Reply(jsonvalue.Number(3), id)
	if _, err := peer.Send([]byte(message.ToJSON(reply).String())); err != nil {
		log.Fatalf("demo peer failed to reply: %v", err)
	}

	sess.Run(ctx, now)
	m, err := sess.Recv()
	if err != nil {
		log.Fatalf("session did not deliver the reply: %v", err)
	}
	fmt.Printf("received reply: result=%s id=%s\n", m.Result.String(), m.ID.String())
}
