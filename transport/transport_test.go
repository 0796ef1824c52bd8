package transport

import (
	"context"
	"net"
	"testing"
)

type pipeEnd struct {
	net.Conn
}

func (p pipeEnd) Close() error { return p.Conn.Close() }

func TestSendReceiveRoundTrip(t *testing.T) {
	a, b := net.Pipe()
	client := New(pipeEnd{a}, false)
	srv := New(pipeEnd{b}, false)

	done := make(chan struct{})
	go func() {
		defer close(done)
		req, err := srv.ReadRequest()
		if err != nil {
			t.Errorf("ReadRequest: %v", err)
			return
		}
		if string(req) != "ping" {
			t.Errorf("unexpected request %q", req)
		}
		if err := srv.WriteResponse([]byte("pong")); err != nil {
			t.Errorf("WriteResponse: %v", err)
		}
	}()

	resp, err := client.Send(context.Background(), []byte("ping"))
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if string(resp) != "pong" {
		t.Fatalf("unexpected response %q", resp)
	}
	<-done
}

func TestSendReceiveRoundTripCompressed(t *testing.T) {
	a, b := net.Pipe()
	client := New(pipeEnd{a}, true)
	srv := New(pipeEnd{b}, true)

	done := make(chan struct{})
	go func() {
		defer close(done)
		req, err := srv.ReadRequest()
		if err != nil {
			t.Errorf("ReadRequest: %v", err)
			return
		}
		if err := srv.WriteResponse(append([]byte(nil), req...)); err != nil {
			t.Errorf("WriteResponse: %v", err)
		}
	}()

	payload := make([]byte, 4096)
	for i := range payload {
		payload[i] = byte(i % 251)
	}
	resp, err := client.Send(context.Background(), payload)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(resp) != len(payload) {
		t.Fatalf("expected echoed payload of length %d, got %d", len(payload), len(resp))
	}
	for i := range payload {
		if resp[i] != payload[i] {
			t.Fatalf("payload mismatch at byte %d", i)
		}
	}
	<-done
}

func TestFrameTooLargeRejected(t *testing.T) {
	a, b := net.Pipe()
	client := New(pipeEnd{a}, false)
	_ = New(pipeEnd{b}, false)
	defer b.Close()

	big := make([]byte, maxFrameSize+1)
	if _, err := client.Send(context.Background(), big); err != ErrFrameTooLarge {
		t.Fatalf("expected ErrFrameTooLarge, got %v", err)
	}
}
