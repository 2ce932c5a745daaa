package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/amalg/go-bombman/internal/config"
	"github.com/amalg/go-bombman/internal/network"
	"github.com/amalg/go-bombman/internal/settings"
	"github.com/amalg/go-bombman/internal/ui"
)

func main() {
	cfg := config.Load()

	addr := flag.String("addr", "", "Server address (e.g., 192.168.1.5:9999)")
	name := flag.String("name", cfg.PlayerName, "Your player name")
	settingsFile := flag.String("settings", cfg.SettingsFile, "Settings file (default: user config directory)")
	flag.Parse()

	if *addr == "" {
		fmt.Fprintln(os.Stderr, "Usage: client --addr <host:port> [--name <name>]")
		fmt.Fprintln(os.Stderr, "  Example: client --addr 192.168.1.5:9999 --name Alice")
		os.Exit(1)
	}

	path := *settingsFile
	if path == "" {
		path = settings.DefaultPath()
	}
	s, err := settings.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load settings: %v\n", err)
		os.Exit(1)
	}
	if *name == "" {
		*name = s.PlayerName
	}
	if *name == "" {
		*name = "Player"
	}

	fmt.Printf("Connecting to %s as %s...\n", *addr, *name)

	client, err := network.NewClient(*addr, *name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	fmt.Printf("Connected! You are player %d (%d rounds)\n", client.PlayerNumber()+1, client.Rounds())
	fmt.Println("Starting TUI...")
	time.Sleep(500 * time.Millisecond)

	if err := ui.Run(client, s); err != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
}
