package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/snendev/cricket-pong/internal/engine"
	"github.com/snendev/cricket-pong/internal/infrastructure/storage"
)

func main() {
	if len(os.Args) < 3 {
		printHelp()
		return
	}

	session, err := storage.Load(os.Args[2])
	if err != nil {
		fmt.Printf("Invalid replay: %v\n", err)
		os.Exit(1)
	}

	switch os.Args[1] {
	case "info":
		fmt.Printf("instance:  %s\n", session.Instance)
		fmt.Printf("recorded:  %s\n", time.Unix(session.Timestamp, 0).Format(time.RFC3339))
		fmt.Printf("tick rate: %d\n", session.TickRate)
		fmt.Printf("ticks:     %d (from %d)\n", session.Duration, session.StartTick)
		fmt.Printf("actions:   %d\n", len(session.Actions))
	case "dump":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(session); err != nil {
			fmt.Printf("Encode failed: %v\n", err)
			os.Exit(1)
		}
	case "verify":
		result, err := engine.Playback(session)
		if err != nil {
			fmt.Printf("Playback failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("phase: %s, deliveries: %d\n", result.Phase, result.Scoreboard.Len())
	default:
		printHelp()
	}
}

func printHelp() {
	fmt.Println(`Replay Utility - просмотр записей матчей (.cprp)
Commands:
  info <file>    - заголовок записи
  dump <file>    - все действия в JSON
  verify <file>  - переиграть запись и показать итог`)
}
