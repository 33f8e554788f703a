package simulator

import (
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Time allowed to write a message to a client
const writeWait = 10 * time.Second

// peer is one client of the simulated hub
type peer interface {
	send(frame []byte) error
	remote() string
	transport() string
	close() error
}

type tcpPeer struct {
	mu   sync.Mutex
	conn net.Conn
	addr string
}

func newTCPPeer(conn net.Conn) *tcpPeer {
	return &tcpPeer{conn: conn, addr: conn.RemoteAddr().String()}
}

func (p *tcpPeer) send(frame []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	_, err := p.conn.Write(frame)
	return err
}

func (p *tcpPeer) remote() string    { return p.addr }
func (p *tcpPeer) transport() string { return "tcp" }
func (p *tcpPeer) close() error      { return p.conn.Close() }

// udpPeer answers the sender of a single datagram
type udpPeer struct {
	conn *net.UDPConn
	addr *net.UDPAddr
}

func (p *udpPeer) send(frame []byte) error {
	_, err := p.conn.WriteToUDP(frame, p.addr)
	return err
}

func (p *udpPeer) remote() string    { return p.addr.String() }
func (p *udpPeer) transport() string { return "udp" }
func (p *udpPeer) close() error      { return nil }

type wsPeer struct {
	mu   sync.Mutex
	conn *websocket.Conn
	addr string
}

func newWSPeer(conn *websocket.Conn) *wsPeer {
	return &wsPeer{conn: conn, addr: conn.RemoteAddr().String()}
}

func (p *wsPeer) send(frame []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return p.conn.WriteMessage(websocket.TextMessage, frame)
}

func (p *wsPeer) remote() string    { return p.addr }
func (p *wsPeer) transport() string { return "websocket" }
func (p *wsPeer) close() error      { return p.conn.Close() }
