package discovery

import (
	"io"
	"net"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestRoomInfoEncoding(t *testing.T) {
	info := RoomInfo{
		RoomName:    "Friday",
		HostName:    "alice",
		PlayerCount: 2,
		MaxPlayers:  4,
		MapName:     "classic",
		Rounds:      3,
		GameAddr:    "192.168.1.5:9999",
	}
	data, err := info.Encode()
	require.NoError(t, err)

	got, err := DecodeRoomInfo(data)
	require.NoError(t, err)
	assert.Equal(t, info, got)

	_, err = DecodeRoomInfo([]byte("not msgpack"))
	assert.Error(t, err)

	data, err = RoomInfo{RoomName: "nowhere"}.Encode()
	require.NoError(t, err)
	_, err = DecodeRoomInfo(data)
	assert.Error(t, err, "rooms without an address are ignored")
}

func TestListenerTracksAndExpiresRooms(t *testing.T) {
	l := NewListener(quietLogger())
	now := time.Now()

	for _, info := range []RoomInfo{
		{RoomName: "b", GameAddr: "10.0.0.2:9999"},
		{RoomName: "a", GameAddr: "10.0.0.1:9999"},
	} {
		data, err := info.Encode()
		require.NoError(t, err)
		l.handlePacket(data, now)
	}
	l.handlePacket([]byte{0xc1}, now)

	rooms := l.Rooms()
	require.Len(t, rooms, 2)
	assert.Equal(t, "a", rooms[0].RoomName)
	assert.Equal(t, "b", rooms[1].RoomName)

	data, err := RoomInfo{RoomName: "a", GameAddr: "10.0.0.1:9999", PlayerCount: 3}.Encode()
	require.NoError(t, err)
	l.handlePacket(data, now.Add(3*time.Second))

	l.expire(now.Add(RoomExpiry + time.Second))
	rooms = l.Rooms()
	require.Len(t, rooms, 1, "only the refreshed room survives")
	assert.Equal(t, 3, rooms[0].PlayerCount)
}

func TestBroadcasterUpdate(t *testing.T) {
	b := NewBroadcaster(RoomInfo{RoomName: "r", MaxPlayers: 4}, quietLogger())
	b.Update(2, true)
	info := b.Info()
	assert.Equal(t, 2, info.PlayerCount)
	assert.True(t, info.Started)
	b.Stop()
	b.Stop()
}

func TestBroadcastAddr(t *testing.T) {
	_, ipnet, err := net.ParseCIDR("192.168.1.17/24")
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.255", broadcastAddr(ipnet).String())
}

func TestBroadcastReachesListenerOverLoopback(t *testing.T) {
	probe, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	port := probe.LocalAddr().(*net.UDPAddr).Port
	probe.Close()

	l := NewListener(quietLogger())
	l.port = port
	require.NoError(t, l.Start())
	defer l.Stop()

	b := NewBroadcaster(RoomInfo{RoomName: "loop", GameAddr: "127.0.0.1:9999"}, quietLogger())
	b.port = port
	require.NoError(t, b.Start())
	defer b.Stop()

	require.Eventually(t, func() bool { return len(l.Rooms()) == 1 }, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, "loop", l.Rooms()[0].RoomName)
}
