package network

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/amalg/go-bombman/internal/game"
	"github.com/amalg/go-bombman/internal/match"
)

// Client connects to a game server and provides methods to send actions
// and receive frames.
type Client struct {
	conn    net.Conn
	welcome WelcomeMsg
	frameCh chan match.Frame
	errCh   chan string
	done    chan struct{}
	once    sync.Once
	mu      sync.Mutex
}

// NewClient creates a new client and connects to the server.
func NewClient(addr, name string) (*Client, error) {
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", addr, err)
	}

	c := &Client{
		conn:    conn,
		frameCh: make(chan match.Frame, 10),
		errCh:   make(chan string, 4),
		done:    make(chan struct{}),
	}

	if err := Encode(conn, MsgJoin, JoinMsg{Name: name}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("send join: %w", err)
	}

	env, err := Decode(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("read welcome: %w", err)
	}

	if env.Type == MsgError {
		var errMsg ErrorMsg
		DecodePayload(env, &errMsg)
		conn.Close()
		return nil, fmt.Errorf("server error: %s", errMsg.Message)
	}

	if env.Type != MsgWelcome {
		conn.Close()
		return nil, fmt.Errorf("expected welcome, got %s", env.Type)
	}

	if err := DecodePayload(env, &c.welcome); err != nil {
		conn.Close()
		return nil, fmt.Errorf("decode welcome: %w", err)
	}

	go c.receiveLoop()

	return c, nil
}

// PlayerNumber returns the player number assigned by the server.
func (c *Client) PlayerNumber() int {
	return c.welcome.PlayerNumber
}

// SessionID returns the session assigned by the server.
func (c *Client) SessionID() string {
	return c.welcome.SessionID
}

// Rounds is the number of rounds the host plays.
func (c *Client) Rounds() int {
	return c.welcome.Rounds
}

// FrameChan returns a channel that yields frames. It is closed when the
// connection ends.
func (c *Client) FrameChan() <-chan match.Frame {
	return c.frameCh
}

// ErrorChan yields error messages sent by the server.
func (c *Client) ErrorChan() <-chan string {
	return c.errCh
}

// SendAction sends a player action to the server.
func (c *Client) SendAction(a game.Action) error {
	return c.send(MsgAction, ActionMsg{Action: a})
}

// SendTeam asks to change team while in the lobby.
func (c *Client) SendTeam(team int) error {
	return c.send(MsgTeam, TeamMsg{Team: team})
}

// SendStart requests the server to start the game.
func (c *Client) SendStart() error {
	return c.send(MsgStart, struct{}{})
}

func (c *Client) send(t MsgType, payload interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Encode(c.conn, t, payload)
}

// Close disconnects from the server.
func (c *Client) Close() {
	c.once.Do(func() { close(c.done) })
	c.conn.Close()
}

func (c *Client) receiveLoop() {
	defer close(c.frameCh)

	for {
		select {
		case <-c.done:
			return
		default:
		}

		env, err := Decode(c.conn)
		if err != nil {
			return
		}

		switch env.Type {
		case MsgState:
			var stateMsg StateMsg
			if err := DecodePayload(env, &stateMsg); err != nil {
				continue
			}
			c.pushFrame(stateMsg.Frame)
		case MsgError:
			var errMsg ErrorMsg
			DecodePayload(env, &errMsg)
			select {
			case c.errCh <- errMsg.Message:
			default:
			}
		}
	}
}

// pushFrame keeps the newest frames when the consumer is slow. Events of a
// dropped frame are merged into the next one so no sound or animation is
// lost.
func (c *Client) pushFrame(f match.Frame) {
	select {
	case c.frameCh <- f:
		return
	default:
	}

	select {
	case old := <-c.frameCh:
		if old.Snapshot != nil && f.Snapshot != nil {
			f.Snapshot.Animations = append(old.Snapshot.Animations, f.Snapshot.Animations...)
			f.Snapshot.Sounds = append(old.Snapshot.Sounds, f.Snapshot.Sounds...)
		}
	default:
	}
	c.frameCh <- f
}
