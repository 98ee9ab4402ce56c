package server

import (
	"bufio"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerOpenAndAccept(t *testing.T) {
	s := New(10, 0)
	require.NoError(t, s.Open("127.0.0.1:0"))
	s.Start()
	defer s.Close()

	conn, err := net.DialTimeout("tcp", s.Addr().String(), time.Second)
	require.NoError(t, err)
	defer conn.Close()

	reader := bufio.NewReader(conn)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Contains(t, line, "HTTP/1.0 200 OK")

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, s.ClientCount())
}

func TestServerBlacklistRejectsBeforeResponse(t *testing.T) {
	s := New(10, 0)
	require.NoError(t, s.Open("127.0.0.1:0"))
	s.Start()
	defer s.Close()

	host, _, _ := net.SplitHostPort(s.Addr().String())
	_ = host
	s.Blacklist("127.0.0.1")

	conn, err := net.DialTimeout("tcp", s.Addr().String(), time.Second)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	buf := make([]byte, 16)
	n, err := conn.Read(buf)
	assert.Equal(t, 0, n, "blacklisted client must receive zero bytes")
	assert.Error(t, err)
}

func TestServerMaxClientsRejectsExtra(t *testing.T) {
	s := New(10, 1)
	require.NoError(t, s.Open("127.0.0.1:0"))
	s.Start()
	defer s.Close()

	conn1, err := net.DialTimeout("tcp", s.Addr().String(), time.Second)
	require.NoError(t, err)
	defer conn1.Close()
	time.Sleep(50 * time.Millisecond)

	conn2, err := net.DialTimeout("tcp", s.Addr().String(), time.Second)
	require.NoError(t, err)
	defer conn2.Close()

	conn2.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	buf := make([]byte, 16)
	n, _ := conn2.Read(buf)
	assert.Equal(t, 0, n)
}

func TestPublishFrameBroadcastsToClients(t *testing.T) {
	s := New(10, 0)
	require.NoError(t, s.Open("127.0.0.1:0"))
	s.Start()
	defer s.Close()

	conn, err := net.DialTimeout("tcp", s.Addr().String(), time.Second)
	require.NoError(t, err)
	defer conn.Close()

	reader := bufio.NewReader(conn)
	_, err = reader.ReadString('\n') // status line
	require.NoError(t, err)
	for i := 0; i < 6; i++ { // drain remaining header lines
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if line == "\r\n" {
			break
		}
	}

	time.Sleep(50 * time.Millisecond)
	s.PublishFrame([]byte("fake-jpeg"))

	conn.SetReadDeadline(time.Now().Add(time.Second))
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Contains(t, line, boundary)
}
