// Package server implements the MJPEG broadcast server: the half of C8
// that accepts TCP clients and writes each generated frame to every
// connected client as a multipart/x-mixed-replace HTTP stream, matching
// digiKam's MjpegServer::Private.
package server

import (
	"fmt"
	"net"
	"sync"
	"time"
)

const boundary = "--mjpegstream"

// httpHeader is the fixed HTTP/1.0 response digiKam writes once per new
// connection, before any frame data; it never changes per-client.
const httpHeader = "HTTP/1.0 200 OK\r\n" +
	"Server: bqm-mjpeg\r\n" +
	"Connection: close\r\n" +
	"Cache-Control: no-cache, private\r\n" +
	"Content-Type: multipart/x-mixed-replace; boundary=" + boundary + "\r\n\r\n"

// Server accepts TCP connections and fans out whatever frame it last
// received to every connected client, in writerThread's style: lock
// lastFrame, then lock clients, so a writer can never observe a client
// list change mid-broadcast while holding a stale frame.
type Server struct {
	Rate       int // frames per second broadcast to clients
	MaxClients int

	listener net.Listener

	frameLock sync.Mutex
	lastFrame []byte

	clientsLock sync.Mutex
	clients     map[string]net.Conn
	blacklist   map[string]bool

	stopOnce sync.Once
	stopCh   chan struct{}
}

// New returns a server ready to Open and Start. maxClients of 0 means
// unlimited.
func New(rate, maxClients int) *Server {
	return &Server{
		Rate:       rate,
		MaxClients: maxClients,
		clients:    map[string]net.Conn{},
		blacklist:  map[string]bool{},
		stopCh:     make(chan struct{}),
	}
}

// Open binds addr (host:port), matching MjpegServer::Private::open.
func (s *Server) Open(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("mjpeg server: listen %s: %w", addr, err)
	}
	s.listener = ln
	return nil
}

// Addr returns the bound listener address, useful when Open was called
// with a ":0" port.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Start accepts connections until Close is called, running the accept
// loop on the calling goroutine's behalf in a new goroutine.
func (s *Server) Start() {
	go s.acceptLoop()
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.stopCh:
				return
			default:
				continue
			}
		}
		go s.handleNewConnection(conn)
	}
}

// handleNewConnection mirrors slotNewConnection: a blacklisted client's
// socket is closed immediately, before any HTTP bytes are written, so a
// banned peer never even learns the stream exists.
func (s *Server) handleNewConnection(conn net.Conn) {
	host, _, _ := net.SplitHostPort(conn.RemoteAddr().String())

	s.clientsLock.Lock()
	banned := s.blacklist[host]
	tooMany := s.MaxClients > 0 && len(s.clients) >= s.MaxClients
	s.clientsLock.Unlock()

	if banned || tooMany {
		conn.Close()
		return
	}

	if _, err := conn.Write([]byte(httpHeader)); err != nil {
		conn.Close()
		return
	}

	s.clientsLock.Lock()
	s.clients[conn.RemoteAddr().String()] = conn
	s.clientsLock.Unlock()
}

// Blacklist bans a host from connecting; any already-open connection
// from it is left alone (it will simply stop receiving frames once
// dropped on its next write error), matching digiKam's m_blackList.
func (s *Server) Blacklist(host string) {
	s.clientsLock.Lock()
	s.blacklist[host] = true
	s.clientsLock.Unlock()
}

// PublishFrame stores data as the latest frame and broadcasts it to
// every connected client. Lock order is always frameLock then
// clientsLock, matching writerThread's documented ordering to avoid the
// deadlock a reversed acquisition would risk against handleNewConnection
// (which only ever takes clientsLock alone).
func (s *Server) PublishFrame(data []byte) {
	s.frameLock.Lock()
	s.lastFrame = data
	s.frameLock.Unlock()

	s.clientsLock.Lock()
	defer s.clientsLock.Unlock()
	for addr, conn := range s.clients {
		if err := writeFrame(conn, data); err != nil {
			conn.Close()
			delete(s.clients, addr)
		}
	}
}

// RunBroadcast pulls frames from frames and publishes each at the
// configured rate until frames closes or stop fires.
func (s *Server) RunBroadcast(frames <-chan []byte) {
	interval := time.Second / time.Duration(maxInt(s.Rate, 1))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case data, ok := <-frames:
			if !ok {
				return
			}
			s.PublishFrame(data)
			<-ticker.C
		}
	}
}

// ClientCount returns the number of currently connected clients.
func (s *Server) ClientCount() int {
	s.clientsLock.Lock()
	defer s.clientsLock.Unlock()
	return len(s.clients)
}

// Close stops the accept loop and disconnects every client.
func (s *Server) Close() error {
	s.stopOnce.Do(func() { close(s.stopCh) })
	var err error
	if s.listener != nil {
		err = s.listener.Close()
	}
	s.clientsLock.Lock()
	for addr, conn := range s.clients {
		conn.Close()
		delete(s.clients, addr)
	}
	s.clientsLock.Unlock()
	return err
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
