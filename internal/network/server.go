package network

import (
	"fmt"
	"net"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/amalg/go-bombman/internal/game"
	"github.com/amalg/go-bombman/internal/match"
	"github.com/amalg/go-bombman/internal/store"
)

// Server hosts the game and manages client connections.
type Server struct {
	engine     *match.Engine
	addr       string
	listener   net.Listener
	clients    map[uuid.UUID]*clientConn
	spectators *SpectatorHub
	log        logrus.FieldLogger
	mu         sync.RWMutex
	done       chan struct{}
	stopOnce   sync.Once
}

// clientConn represents a connected client.
type clientConn struct {
	conn      net.Conn
	sessionID uuid.UUID
	player    int
	mu        sync.Mutex
}

// NewServer creates a new game server.
func NewServer(addr string, config match.Config, results store.ResultStore, log logrus.FieldLogger) *Server {
	engine := match.NewEngine(config, results, log)

	s := &Server{
		engine:  engine,
		addr:    addr,
		clients: make(map[uuid.UUID]*clientConn),
		log:     log.WithField("component", "server"),
		done:    make(chan struct{}),
	}

	// Broadcast callback, receives a frame already copied by the engine
	engine.OnTick(func(frame match.Frame) {
		s.broadcastState(frame)
	})

	return s
}

// Engine returns the underlying game engine.
func (s *Server) Engine() *match.Engine {
	return s.engine
}

// Addr returns the listening address once started.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.addr
	}
	return s.listener.Addr().String()
}

// AttachSpectators forwards every frame to the websocket spectator hub.
func (s *Server) AttachSpectators(hub *SpectatorHub) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spectators = hub
}

// Start begins accepting connections and running the game loop.
func (s *Server) Start() error {
	var err error
	s.listener, err = net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	s.log.WithField("addr", s.Addr()).Info("listening")

	for _, ip := range LocalIPs() {
		s.log.WithField("ip", ip).Info("players can connect using this address")
	}

	// Start game engine in background
	go s.engine.Run()

	// Accept connections
	go s.acceptLoop()

	return nil
}

// Stop shuts down the server.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
		s.engine.Stop()
		if s.listener != nil {
			s.listener.Close()
		}
		s.mu.RLock()
		for _, c := range s.clients {
			c.conn.Close()
		}
		s.mu.RUnlock()
	})
}

// StartGame starts the game from lobby to running.
func (s *Server) StartGame() error {
	return s.engine.StartGame()
}

// ClientCount is the number of connected clients.
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
				s.log.WithError(err).Warn("accept error")
				continue
			}
		}
		go s.handleClient(conn)
	}
}

func (s *Server) handleClient(conn net.Conn) {
	defer conn.Close()

	// Read join message
	env, err := Decode(conn)
	if err != nil {
		s.log.WithError(err).Warn("failed to read join message")
		return
	}

	if env.Type != MsgJoin {
		s.log.WithField("type", env.Type).Warn("expected join message")
		Encode(conn, MsgError, ErrorMsg{Message: "expected join message"})
		return
	}

	var joinMsg JoinMsg
	if err := DecodePayload(env, &joinMsg); err != nil {
		s.log.WithError(err).Warn("failed to decode join message")
		return
	}

	number, err := s.engine.AddHuman(joinMsg.Name)
	if err != nil {
		Encode(conn, MsgError, ErrorMsg{Message: err.Error()})
		return
	}

	// Register client
	cc := &clientConn{
		conn:      conn,
		sessionID: uuid.New(),
		player:    number,
	}
	s.mu.Lock()
	s.clients[cc.sessionID] = cc
	s.mu.Unlock()

	log := s.log.WithFields(logrus.Fields{"session": cc.sessionID.String(), "player": number})
	log.WithField("name", joinMsg.Name).Info("player joined")

	welcome := WelcomeMsg{
		SessionID:    cc.sessionID.String(),
		PlayerNumber: number,
		TickRate:     s.engine.Config.TickRate,
		Rounds:       s.engine.Config.Rounds,
	}
	if err := s.send(cc, MsgWelcome, welcome); err != nil {
		log.WithError(err).Warn("failed to send welcome")
		s.removeClient(cc.sessionID)
		return
	}

	// Send initial state
	s.sendStateTo(cc, s.engine.Frame())

	// Read actions loop
	for {
		select {
		case <-s.done:
			return
		default:
		}

		env, err := Decode(conn)
		if err != nil {
			log.WithError(err).Info("player disconnected")
			s.removeClient(cc.sessionID)
			return
		}

		switch env.Type {
		case MsgAction:
			var actionMsg ActionMsg
			if err := DecodePayload(env, &actionMsg); err != nil {
				log.WithError(err).Warn("invalid action")
				continue
			}
			s.engine.EnqueueAction(game.PlayerAction{Player: cc.player, Action: actionMsg.Action})
		case MsgTeam:
			var teamMsg TeamMsg
			if err := DecodePayload(env, &teamMsg); err != nil {
				log.WithError(err).Warn("invalid team change")
				continue
			}
			if err := s.engine.SetTeam(cc.player, teamMsg.Team); err != nil {
				s.send(cc, MsgError, ErrorMsg{Message: err.Error()})
			}
		case MsgStart:
			// Host requests game start
			if err := s.engine.StartGame(); err != nil {
				s.send(cc, MsgError, ErrorMsg{Message: err.Error()})
			}
		default:
			log.WithField("type", env.Type).Warn("unknown message type")
		}
	}
}

func (s *Server) removeClient(id uuid.UUID) {
	s.mu.Lock()
	cc, ok := s.clients[id]
	if ok {
		cc.conn.Close()
		delete(s.clients, id)
	}
	s.mu.Unlock()
	if !ok {
		return
	}
	s.engine.RemovePlayer(cc.player)
	s.log.WithFields(logrus.Fields{"session": id.String(), "player": cc.player}).Info("player removed")
}

func (s *Server) broadcastState(frame match.Frame) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, cc := range s.clients {
		s.sendStateTo(cc, frame)
	}
	if s.spectators != nil {
		s.spectators.Broadcast(frame)
	}
}

func (s *Server) sendStateTo(cc *clientConn, frame match.Frame) {
	if err := s.send(cc, MsgState, StateMsg{Frame: frame}); err != nil {
		s.log.WithError(err).WithField("player", cc.player).Warn("failed to send state")
	}
}

func (s *Server) send(cc *clientConn, msgType MsgType, payload interface{}) error {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return Encode(cc.conn, msgType, payload)
}

// LocalIPs lists the non-loopback IPv4 addresses players can connect to.
func LocalIPs() []string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return nil
	}

	var ips []string
	for _, a := range addrs {
		if ipnet, ok := a.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
			if ipnet.IP.To4() != nil {
				ips = append(ips, ipnet.IP.String())
			}
		}
	}
	return ips
}
