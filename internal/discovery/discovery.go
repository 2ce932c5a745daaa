// Package discovery advertises hosted rooms on the LAN with UDP broadcasts
// and collects the advertisements of other hosts.
package discovery

import (
	"fmt"
	"net"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	// BroadcastPort is the UDP port used for room discovery.
	BroadcastPort = 9998
	// BroadcastInterval is how often hosts advertise their room.
	BroadcastInterval = 1 * time.Second
	// RoomExpiry is how long a room stays visible after its last broadcast.
	RoomExpiry = 4 * time.Second
)

// RoomInfo describes an available game room on the network.
type RoomInfo struct {
	RoomName    string `msgpack:"room_name"`
	HostName    string `msgpack:"host_name"`
	PlayerCount int    `msgpack:"player_count"`
	MaxPlayers  int    `msgpack:"max_players"`
	MapName     string `msgpack:"map_name"`
	Rounds      int    `msgpack:"rounds"`
	Started     bool   `msgpack:"started"`
	GameAddr    string `msgpack:"game_addr"` // TCP host:port to connect to
}

// Encode serializes a room advertisement.
func (r RoomInfo) Encode() ([]byte, error) {
	return msgpack.Marshal(&r)
}

// DecodeRoomInfo parses a room advertisement.
func DecodeRoomInfo(data []byte) (RoomInfo, error) {
	var info RoomInfo
	if err := msgpack.Unmarshal(data, &info); err != nil {
		return info, err
	}
	if info.GameAddr == "" {
		return info, fmt.Errorf("room %q has no address", info.RoomName)
	}
	return info, nil
}

// --- Broadcaster ---

// Broadcaster periodically sends UDP broadcast packets with room info.
type Broadcaster struct {
	info RoomInfo
	port int
	log  logrus.FieldLogger
	done chan struct{}
	once sync.Once
	mu   sync.Mutex
}

// NewBroadcaster creates a new room broadcaster.
func NewBroadcaster(info RoomInfo, log logrus.FieldLogger) *Broadcaster {
	return &Broadcaster{
		info: info,
		port: BroadcastPort,
		log:  log.WithField("component", "discovery"),
		done: make(chan struct{}),
	}
}

// Update changes the advertised player count and match status.
func (b *Broadcaster) Update(playerCount int, started bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.info.PlayerCount = playerCount
	b.info.Started = started
}

// Info returns the currently advertised room.
func (b *Broadcaster) Info() RoomInfo {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.info
}

// Start begins broadcasting room info via UDP.
func (b *Broadcaster) Start() error {
	// Use ListenPacket (not DialUDP) so broadcast works on Linux.
	// DialUDP to 255.255.255.255 silently fails without SO_BROADCAST.
	conn, err := net.ListenPacket("udp4", ":0")
	if err != nil {
		return fmt.Errorf("create broadcast socket: %w", err)
	}
	go b.broadcastLoop(conn)
	return nil
}

// Stop stops the broadcaster.
func (b *Broadcaster) Stop() {
	b.once.Do(func() { close(b.done) })
}

func (b *Broadcaster) broadcastLoop(conn net.PacketConn) {
	defer conn.Close()

	dst := &net.UDPAddr{
		IP:   net.IPv4bcast,
		Port: b.port,
	}

	ticker := time.NewTicker(BroadcastInterval)
	defer ticker.Stop()

	// Send immediately on start, then on tick
	b.sendBroadcast(conn, dst)

	for {
		select {
		case <-b.done:
			return
		case <-ticker.C:
			b.sendBroadcast(conn, dst)
		}
	}
}

func (b *Broadcaster) sendBroadcast(conn net.PacketConn, dst net.Addr) {
	data, err := b.Info().Encode()
	if err != nil {
		b.log.WithError(err).Error("failed to encode room info")
		return
	}

	// 1. Always send to loopback for same-machine discovery
	//    (255.255.255.255 broadcast is often dropped by Linux firewall)
	loopback := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: b.port}
	conn.WriteTo(data, loopback)

	// 2. Try global broadcast
	if _, err := conn.WriteTo(data, dst); err != nil {
		b.log.WithError(err).Debug("global broadcast failed")
	}

	// 3. Also broadcast on each interface's specific broadcast address
	for _, addr := range interfaceBroadcasts() {
		conn.WriteTo(data, &net.UDPAddr{IP: addr, Port: b.port})
	}
}

// interfaceBroadcasts returns the broadcast address of every IPv4 interface
// that is up.
func interfaceBroadcasts() []net.IP {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil
	}

	var out []net.IP
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagBroadcast == 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			ipnet, ok := addr.(*net.IPNet)
			if !ok || ipnet.IP.To4() == nil {
				continue
			}
			out = append(out, broadcastAddr(ipnet))
		}
	}
	return out
}

// broadcastAddr computes IP | ~Mask.
func broadcastAddr(ipnet *net.IPNet) net.IP {
	ip4 := ipnet.IP.To4()
	mask := ipnet.Mask
	if len(mask) == net.IPv6len {
		mask = mask[12:]
	}
	broadcast := make(net.IP, 4)
	for i := range broadcast {
		broadcast[i] = ip4[i] | ^mask[i]
	}
	return broadcast
}

// --- Listener ---

// discoveredRoom holds a room and when it was last seen.
type discoveredRoom struct {
	Info     RoomInfo
	LastSeen time.Time
}

// Listener listens for UDP broadcast room advertisements.
type Listener struct {
	rooms map[string]*discoveredRoom // keyed by GameAddr
	port  int
	log   logrus.FieldLogger
	mu    sync.RWMutex
	conn  *net.UDPConn
	done  chan struct{}
	once  sync.Once
}

// NewListener creates a new room listener.
func NewListener(log logrus.FieldLogger) *Listener {
	return &Listener{
		rooms: make(map[string]*discoveredRoom),
		port:  BroadcastPort,
		log:   log.WithField("component", "discovery"),
		done:  make(chan struct{}),
	}
}

// Start begins listening for room broadcasts.
func (l *Listener) Start() error {
	addr := &net.UDPAddr{
		Port: l.port,
		IP:   net.IPv4zero,
	}

	var err error
	l.conn, err = net.ListenUDP("udp4", addr)
	if err != nil {
		return fmt.Errorf("listen UDP on port %d: %w (is another instance browsing?)", l.port, err)
	}

	go l.listenLoop()
	go l.cleanupLoop()

	return nil
}

// Stop stops the listener.
func (l *Listener) Stop() {
	l.once.Do(func() { close(l.done) })
	if l.conn != nil {
		l.conn.Close()
	}
}

// Rooms returns the currently visible rooms sorted by name.
func (l *Listener) Rooms() []RoomInfo {
	l.mu.RLock()
	defer l.mu.RUnlock()

	rooms := make([]RoomInfo, 0, len(l.rooms))
	for _, dr := range l.rooms {
		rooms = append(rooms, dr.Info)
	}
	sort.Slice(rooms, func(i, j int) bool {
		if rooms[i].RoomName != rooms[j].RoomName {
			return rooms[i].RoomName < rooms[j].RoomName
		}
		return rooms[i].GameAddr < rooms[j].GameAddr
	})
	return rooms
}

func (l *Listener) listenLoop() {
	buf := make([]byte, 4096)
	for {
		select {
		case <-l.done:
			return
		default:
		}

		l.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		n, _, err := l.conn.ReadFromUDP(buf)
		if err != nil {
			continue
		}
		l.handlePacket(buf[:n], time.Now())
	}
}

func (l *Listener) handlePacket(data []byte, now time.Time) {
	info, err := DecodeRoomInfo(data)
	if err != nil {
		l.log.WithError(err).Debug("ignoring malformed advertisement")
		return
	}

	l.mu.Lock()
	if _, known := l.rooms[info.GameAddr]; !known {
		l.log.WithFields(logrus.Fields{"room": info.RoomName, "addr": info.GameAddr}).Info("room discovered")
	}
	l.rooms[info.GameAddr] = &discoveredRoom{
		Info:     info,
		LastSeen: now,
	}
	l.mu.Unlock()
}

func (l *Listener) cleanupLoop() {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-l.done:
			return
		case now := <-ticker.C:
			l.expire(now)
		}
	}
}

func (l *Listener) expire(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for addr, dr := range l.rooms {
		if now.Sub(dr.LastSeen) > RoomExpiry {
			delete(l.rooms, addr)
		}
	}
}
