package guiscript

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/mdm-labs/matload/internal/domain"
)

// The scripting bridge is the companion process that owns the actual desktop
// automation object. It speaks newline-delimited JSON over a local TCP
// socket: one request per line, one reply per line.

// bridgeRequest is one scripting operation sent to the bridge.
type bridgeRequest struct {
	Op    string `json:"op"`
	ID    string `json:"id,omitempty"`
	Value string `json:"value,omitempty"`
	Key   int    `json:"key,omitempty"`
}

// bridgeReply is the bridge's answer to one operation.
type bridgeReply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	Text  string `json:"text,omitempty"`
}

// BridgeDialer attaches scripting sessions over the local bridge socket.
type BridgeDialer struct {
	addr string
}

// NewBridgeDialer creates a dialer for the bridge listening on addr.
func NewBridgeDialer(addr string) *BridgeDialer {
	return &BridgeDialer{addr: addr}
}

// Attach connects to the bridge and verifies it answers a hello.
func (d *BridgeDialer) Attach(ctx context.Context) (Session, error) {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", d.addr)
	if err != nil {
		return nil, fmt.Errorf("dial scripting bridge %s: %w", d.addr, err)
	}

	s := &bridgeSession{conn: conn, r: bufio.NewReader(conn)}
	if _, err := s.call(bridgeRequest{Op: "hello"}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("scripting bridge handshake: %w", err)
	}
	return s, nil
}

// bridgeSession is a Session backed by one bridge connection.
type bridgeSession struct {
	conn net.Conn
	r    *bufio.Reader
}

// callTimeout bounds each bridge round trip so a wedged bridge surfaces as a
// lost session instead of hanging the batch.
const callTimeout = time.Minute

func (s *bridgeSession) call(req bridgeRequest) (bridgeReply, error) {
	b, err := json.Marshal(req)
	if err != nil {
		return bridgeReply{}, fmt.Errorf("marshal bridge request: %w", err)
	}

	deadline := time.Now().Add(callTimeout)
	_ = s.conn.SetDeadline(deadline)

	if _, err := s.conn.Write(append(b, '\n')); err != nil {
		return bridgeReply{}, fmt.Errorf("%w: write to bridge: %v", domain.ErrSessionLost, err)
	}

	line, err := s.r.ReadBytes('\n')
	if err != nil {
		return bridgeReply{}, fmt.Errorf("%w: read from bridge: %v", domain.ErrSessionLost, err)
	}

	var reply bridgeReply
	if err := json.Unmarshal(line, &reply); err != nil {
		return bridgeReply{}, fmt.Errorf("%w: malformed bridge reply: %v", domain.ErrSessionLost, err)
	}
	if !reply.OK {
		// The bridge answered; the session is alive but the operation
		// failed at script level.
		return reply, fmt.Errorf("%s", reply.Error)
	}
	return reply, nil
}

func (s *bridgeSession) StartTransaction(code string) error {
	_, err := s.call(bridgeRequest{Op: "start_transaction", Value: code})
	return err
}

func (s *bridgeSession) SetText(id, value string) error {
	_, err := s.call(bridgeRequest{Op: "set_text", ID: id, Value: value})
	return err
}

func (s *bridgeSession) SendVKey(key int) error {
	_, err := s.call(bridgeRequest{Op: "send_vkey", Key: key})
	return err
}

func (s *bridgeSession) StatusBarText() (string, error) {
	reply, err := s.call(bridgeRequest{Op: "status_bar"})
	if err != nil {
		return "", err
	}
	return reply.Text, nil
}

// Close tells the bridge the session is done and drops the connection, so the
// bridge can hand its desktop session to the next caller. The bye is best
// effort; a dead connection still gets closed.
func (s *bridgeSession) Close() error {
	_, _ = s.call(bridgeRequest{Op: "bye"})
	return s.conn.Close()
}
