package guiscript

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/mdm-labs/matload/internal/domain"
)

// startBridge runs a minimal scripting bridge answering each request with the
// scripted reply, or a default OK.
func startBridge(t *testing.T, replies map[string]bridgeReply) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(conn net.Conn) {
				defer conn.Close()
				r := bufio.NewReader(conn)
				for {
					line, err := r.ReadBytes('\n')
					if err != nil {
						return
					}
					var req bridgeRequest
					if err := json.Unmarshal(line, &req); err != nil {
						return
					}
					reply, ok := replies[req.Op]
					if !ok {
						reply = bridgeReply{OK: true}
					}
					b, _ := json.Marshal(reply)
					if _, err := conn.Write(append(b, '\n')); err != nil {
						return
					}
				}
			}(conn)
		}
	}()

	return ln.Addr().String()
}

func TestBridgeDialer_Attach(t *testing.T) {
	addr := startBridge(t, nil)

	s, err := NewBridgeDialer(addr).Attach(context.Background())
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if err := s.StartTransaction("MM01"); err != nil {
		t.Errorf("StartTransaction: %v", err)
	}
	if err := s.SetText("wnd[0]/usr/ctxtRMMG1-MTART", "FERT"); err != nil {
		t.Errorf("SetText: %v", err)
	}
	if err := s.SendVKey(0); err != nil {
		t.Errorf("SendVKey: %v", err)
	}
}

func TestBridgeDialer_NoBridge(t *testing.T) {
	if _, err := NewBridgeDialer("127.0.0.1:1").Attach(context.Background()); err == nil {
		t.Error("Attach with no bridge: err = nil")
	}
}

func TestBridgeSession_StatusBarText(t *testing.T) {
	addr := startBridge(t, map[string]bridgeReply{
		"status_bar": {OK: true, Text: "Material 10001 created"},
	})

	s, err := NewBridgeDialer(addr).Attach(context.Background())
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}
	text, err := s.StatusBarText()
	if err != nil {
		t.Fatalf("StatusBarText: %v", err)
	}
	if text != "Material 10001 created" {
		t.Errorf("text = %q", text)
	}
}

func TestBridgeSession_ScriptError(t *testing.T) {
	addr := startBridge(t, map[string]bridgeReply{
		"set_text": {OK: false, Error: "element not found"},
	})

	s, err := NewBridgeDialer(addr).Attach(context.Background())
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}
	err = s.SetText("wnd[0]/bogus", "x")
	if err == nil || err.Error() != "element not found" {
		t.Errorf("err = %v, want script error", err)
	}
	// A script error is not a lost session.
	if errors.Is(err, domain.ErrSessionLost) {
		t.Error("script error classified as session loss")
	}
}

func TestBridgeSession_CloseReleasesConnection(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	// Serve one connection until the client hangs up, recording the ops seen.
	var ops []string
	hungUp := make(chan struct{})
	go func() {
		defer close(hungUp)
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		r := bufio.NewReader(conn)
		for {
			line, err := r.ReadBytes('\n')
			if err != nil {
				return
			}
			var req bridgeRequest
			if err := json.Unmarshal(line, &req); err != nil {
				return
			}
			ops = append(ops, req.Op)
			b, _ := json.Marshal(bridgeReply{OK: true})
			if _, err := conn.Write(append(b, '\n')); err != nil {
				return
			}
		}
	}()

	s, err := NewBridgeDialer(ln.Addr().String()).Attach(context.Background())
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	select {
	case <-hungUp:
	case <-time.After(2 * time.Second):
		t.Fatal("bridge connection still open after Close")
	}
	if len(ops) == 0 || ops[len(ops)-1] != "bye" {
		t.Errorf("ops = %v, want bye last", ops)
	}
}

func TestBridgeSession_ConnectionDropIsSessionLost(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	// Answer the hello, then drop the connection.
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		r := bufio.NewReader(conn)
		if _, err := r.ReadBytes('\n'); err == nil {
			b, _ := json.Marshal(bridgeReply{OK: true})
			conn.Write(append(b, '\n'))
		}
		conn.Close()
	}()

	s, err := NewBridgeDialer(ln.Addr().String()).Attach(context.Background())
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}
	err = s.SendVKey(11)
	if !errors.Is(err, domain.ErrSessionLost) {
		t.Errorf("err = %v, want ErrSessionLost", err)
	}
}
