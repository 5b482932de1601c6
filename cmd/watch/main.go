// Command watch subscribes to the broadcast bridge and prints every frame it
// receives. It is a development tool for inspecting the live reading and
// alert stream.
//
// Usage:
//
//	go run ./cmd/watch -url ws://localhost:8001/ws -type alert
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	wsURL := flag.String("url", "ws://localhost:8001/ws", "websocket URL of the broadcast bridge")
	typeFilter := flag.String("type", "", "only print frames of this type (reading or alert)")
	raw := flag.Bool("raw", false, "print raw JSON instead of a summary line")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, *wsURL, nil)
	cancel()
	if err != nil {
		return fmt.Errorf("dial %s: %w", *wsURL, err)
	}
	defer conn.Close()

	log.Printf("connected to %s", *wsURL)

	// Close the connection on signal so ReadMessage unblocks.
	go func() {
		<-ctx.Done()
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		_ = conn.Close()
	}()

	count := 0
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				log.Printf("done: %d frames received", count)
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}

		var frame map[string]any
		if err := json.Unmarshal(data, &frame); err != nil {
			log.Printf("skipping unparseable frame: %v", err)
			continue
		}

		frameType, _ := frame["type"].(string)
		if *typeFilter != "" && frameType != *typeFilter {
			continue
		}
		count++

		if *raw {
			fmt.Fprintln(os.Stdout, string(data))
			continue
		}
		printSummary(frameType, frame)
	}
}

func printSummary(frameType string, frame map[string]any) {
	switch frameType {
	case "reading":
		source, _ := frame["source"].(string)
		values, _ := frame["values"].(map[string]any)
		log.Printf("reading  source=%s sea_level=%v wind_speed=%v chl_a=%v",
			source, values["sea_level"], values["wind_speed"], values["chl_a"])
	case "alert":
		severity, _ := frame["severity"].(string)
		message, _ := frame["message"].(string)
		log.Printf("alert    severity=%s %q", severity, message)
	default:
		log.Printf("unknown  %v", frame)
	}
}
