package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/vovakirdan/simplechat/internal/client"
	"github.com/vovakirdan/simplechat/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	server := flag.String("server", "http://localhost:8080", "server base URL")
	user := flag.String("user", "smoketester", "account to register or log in with")
	password := flag.String("password", "smoke-password", "account password")
	room := flag.String("room", "general", "room name")
	text := flag.String("text", "hello from smoke test\nsecond line", "message text to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	api := client.NewAPI(*server, nil)
	session, err := api.Register(ctx, *user, *password)
	if errors.Is(err, client.ErrUserExists) {
		session, err = api.Login(ctx, *user, *password)
	}
	if err != nil {
		return fmt.Errorf("authenticate: %w", err)
	}

	conn, err := client.Dial(ctx, *server, nil, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	if _, err := conn.Hello(ctx, session.Token); err != nil {
		return fmt.Errorf("hello: %w", err)
	}
	if err := conn.Join(ctx, *room); err != nil {
		return err
	}

	localID := uuid.NewString()
	if err := conn.Send(ctx, *room, localID, *text); err != nil {
		return err
	}

	for {
		select {
		case out, ok := <-conn.Events():
			if !ok {
				return fmt.Errorf("connection closed: %v", conn.Err())
			}
			if out.Type == proto.OutboundTypeError {
				return fmt.Errorf("server error: %v", out.Error)
			}
			if out.Event != proto.EventNameMessage {
				log.Printf("event=%s", out.Event)
				continue
			}
			var msg proto.EventMessage
			if err := out.Decode(&msg); err != nil {
				return fmt.Errorf("decode message: %w", err)
			}
			if msg.ClientID == localID {
				log.Printf("echo received: id=%d room=%s created_at=%s", msg.ID, msg.Room, msg.CreatedAt)
				return conn.Leave(ctx, *room)
			}
		case <-ctx.Done():
			return fmt.Errorf("echo not received: %w", ctx.Err())
		}
	}
}
