package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/amalg/go-bombman/internal/config"
	"github.com/amalg/go-bombman/internal/host"
	"github.com/amalg/go-bombman/internal/logger"
	"github.com/amalg/go-bombman/internal/match"
	"github.com/amalg/go-bombman/internal/network"
	"github.com/amalg/go-bombman/internal/settings"
	"github.com/amalg/go-bombman/internal/ui"
)

func main() {
	cfg := config.Load()

	port := flag.Int("port", cfg.Port, "Port to listen on")
	spectatorPort := flag.Int("spectator-port", cfg.SpectatorPort, "HTTP port for spectators and the leaderboard (0 disables)")
	name := flag.String("name", cfg.PlayerName, "Your player name")
	room := flag.String("room", cfg.RoomName, "Room name advertised on the LAN")
	rounds := flag.Int("rounds", cfg.Rounds, "Rounds per match")
	players := flag.Int("players", cfg.Players, "Players per match, empty seats are taken by AI")
	maxHumans := flag.Int("max-humans", cfg.MaxHumans, "Maximum number of human players")
	maps := flag.String("maps", strings.Join(cfg.MapFiles, ","), "Comma separated map files (default: generated classic layout)")
	logFile := flag.String("log", cfg.LogFile, "Log file path (default: discard server logs)")
	headless := flag.Bool("headless", false, "Host without joining as a player")
	showQR := flag.Bool("qr", false, "Print the join address as a QR code")
	allItems := flag.Bool("all-items", false, "Cheat: every player starts with every item")
	immortal := flag.Bool("immortal", false, "Cheat: human players cannot die")
	flag.Parse()

	cfg.Port = *port
	cfg.SpectatorPort = *spectatorPort
	cfg.RoomName = *room
	cfg.Rounds = *rounds
	cfg.Players = *players
	cfg.MaxHumans = *maxHumans
	cfg.LogFile = *logFile
	cfg.MapFiles = nil
	for _, m := range strings.Split(*maps, ",") {
		if m = strings.TrimSpace(m); m != "" {
			cfg.MapFiles = append(cfg.MapFiles, m)
		}
	}

	s, err := settings.Load(settingsPath(cfg))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load settings: %v\n", err)
		os.Exit(1)
	}
	cfg.PlayerName = playerName(*name, s)

	// Logs must never reach the terminal while the TUI owns it.
	var out io.Writer = io.Discard
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	} else if *headless {
		out = os.Stderr
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat, out)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	h, err := host.New(ctx, cfg, match.Cheats{AllItems: *allItems, ImmortalHumans: *immortal}, log)
	cancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up server: %v\n", err)
		os.Exit(1)
	}
	if err := h.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start server: %v\n", err)
		os.Exit(1)
	}

	// Print connection info for other players
	fmt.Printf("💣 Bombman room %q on port %d\n", cfg.RoomName, h.Port())
	fmt.Println("Players can connect using:")
	for _, addr := range h.JoinAddrs() {
		fmt.Printf("  %s\n", addr)
	}
	if cfg.SpectatorPort > 0 {
		fmt.Printf("Spectators: ws://<host>:%d/spectate  Leaderboard: http://<host>:%d/leaderboard\n",
			cfg.SpectatorPort, cfg.SpectatorPort)
	}
	if *showQR {
		qr, err := host.QRCode(h.JoinAddr())
		if err != nil {
			fmt.Fprintf(os.Stderr, "QR code: %v\n", err)
		} else {
			fmt.Print(qr)
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	if *headless {
		<-sigCh
		h.Stop()
		return
	}

	// Connect as the host player (local loopback)
	client, err := network.NewClient(h.LocalAddr(), cfg.PlayerName)
	if err != nil {
		h.Stop()
		fmt.Fprintf(os.Stderr, "Failed to connect as host: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nConnected as %s. Starting TUI...\n", cfg.PlayerName)

	// Small pause so the user can read the addresses
	time.Sleep(500 * time.Millisecond)

	go func() {
		<-sigCh
		client.Close()
		h.Stop()
		os.Exit(0)
	}()

	if err := ui.Run(client, s); err != nil {
		client.Close()
		h.Stop()
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}

	client.Close()
	h.Stop()
}

func settingsPath(cfg *config.Config) string {
	if cfg.SettingsFile != "" {
		return cfg.SettingsFile
	}
	return settings.DefaultPath()
}

func playerName(flagName string, s settings.Settings) string {
	switch {
	case flagName != "":
		return flagName
	case s.PlayerName != "":
		return s.PlayerName
	default:
		return "Host"
	}
}
