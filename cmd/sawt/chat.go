package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/orchestrator"
)

// ChatCmd runs an interactive terminal conversation against the full
// pipeline, without the HTTP layer.
type ChatCmd struct{}

func (c *ChatCmd) Run(cli *CLI) error {
	cfg, err := loadConfig(cli)
	if err != nil {
		return err
	}
	rt, err := buildRuntime(cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, cancel := signalContext()
	defer cancel()

	sessionID := uuid.NewString()
	fmt.Printf("💬 sawt chat (session %s)\n", sessionID)
	fmt.Println("Commands: /new starts a fresh session, /quit exits.")
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)
	for {
		if ctx.Err() != nil {
			return nil
		}
		fmt.Print("أنت: ")

		input, err := reader.ReadString('\n')
		if err != nil {
			// EOF ends the session cleanly.
			fmt.Println()
			return nil
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		switch input {
		case "/quit", "/exit":
			fmt.Println("👋 مع السلامة")
			return nil
		case "/new":
			sessionID = uuid.NewString()
			fmt.Printf("🔄 جلسة جديدة (%s)\n", sessionID)
			continue
		}

		turn, err := rt.orch.HandleMessage(ctx, sessionID, input)
		if err != nil {
			if errors.Is(err, orchestrator.ErrEmptyMessage) {
				continue
			}
			return err
		}

		fmt.Printf("سَوت: %s\n\n", turn.Reply)
	}
}
