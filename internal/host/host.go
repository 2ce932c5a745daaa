// Package host wires a hosted room together: the game server, the result
// store, the spectator endpoint and the LAN discovery beacon.
package host

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/amalg/go-bombman/internal/config"
	"github.com/amalg/go-bombman/internal/discovery"
	"github.com/amalg/go-bombman/internal/game"
	"github.com/amalg/go-bombman/internal/logger"
	"github.com/amalg/go-bombman/internal/match"
	"github.com/amalg/go-bombman/internal/network"
	"github.com/amalg/go-bombman/internal/store"
)

// Host owns every long running piece of a hosted room.
type Host struct {
	cfg     *config.Config
	mcfg    match.Config
	log     logrus.FieldLogger
	results store.ResultStore
	server  *network.Server
	hub     *network.SpectatorHub
	http    *http.Server
	beacon  *discovery.Broadcaster
	done    chan struct{}
	once    sync.Once
}

// OpenStore returns a PostgreSQL store when a database URL is configured and
// an in-memory store otherwise.
func OpenStore(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (store.ResultStore, error) {
	if cfg.DatabaseURL == "" {
		log.Info("no DATABASE_URL set, keeping results in memory")
		return store.NewMemoryStore(), nil
	}
	s, err := store.NewPostgresStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open result store: %w", err)
	}
	log.Info("storing results in PostgreSQL")
	return s, nil
}

// MatchConfig translates the process configuration into match settings.
func MatchConfig(cfg *config.Config, cheats match.Cheats, log logrus.FieldLogger) (match.Config, error) {
	mcfg := match.DefaultConfig()
	mcfg.TickRate = cfg.TickRate
	mcfg.Rounds = cfg.Rounds
	mcfg.Players = cfg.Players
	mcfg.MaxHumans = cfg.MaxHumans
	mcfg.TimeLimit = cfg.TimeLimit
	mcfg.Seed = cfg.Seed
	mcfg.Cheats = cheats
	mcfg.Tracer = logger.NewSectionTracer(log, 0)

	if len(cfg.MapFiles) > 0 {
		maps, err := match.LoadMaps(cfg.MapFiles...)
		if err != nil {
			return mcfg, err
		}
		mcfg.Maps = maps
	}
	return mcfg, nil
}

// New builds a host from the configuration. Nothing listens until Start.
func New(ctx context.Context, cfg *config.Config, cheats match.Cheats, log logrus.FieldLogger) (*Host, error) {
	mcfg, err := MatchConfig(cfg, cheats, log)
	if err != nil {
		return nil, err
	}
	results, err := OpenStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	h := &Host{
		cfg:     cfg,
		mcfg:    mcfg,
		log:     log,
		results: results,
		server:  network.NewServer(fmt.Sprintf(":%d", cfg.Port), mcfg, results, log),
		done:    make(chan struct{}),
	}

	if cfg.SpectatorPort > 0 {
		h.hub = network.NewSpectatorHub(log)
		h.server.AttachSpectators(h.hub)

		mux := http.NewServeMux()
		mux.Handle("/spectate", h.hub)
		mux.Handle("/leaderboard", network.LeaderboardHandler(results, log))
		h.http = &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.SpectatorPort),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
	}
	return h, nil
}

// Start opens the game port, the spectator endpoint and the discovery beacon.
func (h *Host) Start() error {
	if err := h.server.Start(); err != nil {
		return err
	}

	if h.http != nil {
		go h.hub.Run()
		go func() {
			h.log.WithField("addr", h.http.Addr).Info("spectator endpoint listening")
			if err := h.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				h.log.WithError(err).Error("spectator endpoint failed")
			}
		}()
	}

	h.beacon = discovery.NewBroadcaster(discovery.RoomInfo{
		RoomName:   h.cfg.RoomName,
		HostName:   h.cfg.PlayerName,
		MaxPlayers: h.mcfg.MaxHumans,
		MapName:    h.mapName(),
		Rounds:     h.mcfg.Rounds,
		GameAddr:   h.JoinAddr(),
	}, h.log)
	if err := h.beacon.Start(); err != nil {
		// The room is still reachable by address.
		h.log.WithError(err).Warn("room discovery disabled")
		h.beacon = nil
	} else {
		go h.advertise()
	}
	return nil
}

func (h *Host) mapName() string {
	switch len(h.mcfg.Maps) {
	case 0:
		return "classic"
	case 1:
		return h.mcfg.Maps[0].Name
	default:
		return "random"
	}
}

// advertise keeps the beacon in line with the lobby.
func (h *Host) advertise() {
	ticker := time.NewTicker(discovery.BroadcastInterval)
	defer ticker.Stop()
	for {
		select {
		case <-h.done:
			return
		case <-ticker.C:
			h.refresh()
		}
	}
}

func (h *Host) refresh() {
	if h.beacon == nil {
		return
	}
	engine := h.server.Engine()
	h.beacon.Update(engine.PlayerCount(), engine.Status() != match.StatusLobby)
}

// Port is the TCP port the game server listens on.
func (h *Host) Port() int {
	_, port, err := net.SplitHostPort(h.server.Addr())
	if err != nil {
		return h.cfg.Port
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		return h.cfg.Port
	}
	return n
}

// LocalAddr is the loopback address the hosting player joins through.
func (h *Host) LocalAddr() string {
	return net.JoinHostPort("127.0.0.1", strconv.Itoa(h.Port()))
}

// JoinAddr is the address other machines should use.
func (h *Host) JoinAddr() string {
	if ips := network.LocalIPs(); len(ips) > 0 {
		return net.JoinHostPort(ips[0], strconv.Itoa(h.Port()))
	}
	return h.LocalAddr()
}

// JoinAddrs lists every address the room can be reached on.
func (h *Host) JoinAddrs() []string {
	addrs := []string{h.LocalAddr()}
	for _, ip := range network.LocalIPs() {
		addrs = append(addrs, net.JoinHostPort(ip, strconv.Itoa(h.Port())))
	}
	return addrs
}

// Server returns the game server.
func (h *Host) Server() *network.Server {
	return h.server
}

// Results returns the result store.
func (h *Host) Results() store.ResultStore {
	return h.results
}

// Stop shuts everything down and closes the result store.
func (h *Host) Stop() {
	h.once.Do(func() {
		close(h.done)
		if h.beacon != nil {
			h.beacon.Stop()
		}
		if h.http != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			h.http.Shutdown(ctx)
			cancel()
			h.hub.Close()
		}
		h.server.Stop()
		if err := h.results.Close(); err != nil {
			h.log.WithError(err).Warn("closing result store")
		}
	})
}

// QRCode renders an address as a QR code made of terminal block characters.
func QRCode(addr string) (string, error) {
	q, err := qrcode.New(addr, qrcode.Low)
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", addr, err)
	}
	return q.ToSmallString(false), nil
}

// Ensure the simulation tracer keeps satisfying the game interface.
var _ game.Tracer = (*logger.SectionTracer)(nil)
