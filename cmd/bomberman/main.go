package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/amalg/go-bombman/internal/config"
	"github.com/amalg/go-bombman/internal/discovery"
	"github.com/amalg/go-bombman/internal/logger"
	"github.com/amalg/go-bombman/internal/network"
	"github.com/amalg/go-bombman/internal/settings"
	"github.com/amalg/go-bombman/internal/ui"
)

func main() {
	cfg := config.Load()

	name := flag.String("name", cfg.PlayerName, "Your player name")
	roomName := flag.String("room", "", "Join the room with this name (default: first open room)")
	wait := flag.Duration("wait", 3*time.Second, "How long to listen for rooms")
	flag.Parse()

	path := cfg.SettingsFile
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

	log := logger.New(cfg.LogLevel, cfg.LogFormat, io.Discard)
	listener := discovery.NewListener(log)
	if err := listener.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to listen for rooms: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Looking for rooms on the local network (%s)...\n", *wait)
	time.Sleep(*wait)
	rooms := listener.Rooms()
	listener.Stop()

	if len(rooms) == 0 {
		fmt.Fprintln(os.Stderr, "No rooms found. Host one with: server --name <name>")
		os.Exit(1)
	}

	for _, r := range rooms {
		status := "open"
		if r.Started {
			status = "playing"
		}
		fmt.Printf("  %-20s host %-12s %d/%d players  %s, %d rounds  [%s]  %s\n",
			r.RoomName, r.HostName, r.PlayerCount, r.MaxPlayers, r.MapName, r.Rounds, status, r.GameAddr)
	}

	room, ok := pickRoom(rooms, *roomName)
	if !ok {
		fmt.Fprintln(os.Stderr, "No matching open room.")
		os.Exit(1)
	}

	fmt.Printf("Joining %s at %s as %s...\n", room.RoomName, room.GameAddr, *name)
	client, err := network.NewClient(room.GameAddr, *name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	time.Sleep(500 * time.Millisecond)
	if err := ui.Run(client, s); err != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
}

// pickRoom returns the named room, or the first room still in its lobby.
func pickRoom(rooms []discovery.RoomInfo, name string) (discovery.RoomInfo, bool) {
	for _, r := range rooms {
		if name != "" {
			if r.RoomName == name {
				return r, true
			}
			continue
		}
		if !r.Started && r.PlayerCount < r.MaxPlayers {
			return r, true
		}
	}
	return discovery.RoomInfo{}, false
}
