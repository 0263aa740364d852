package transport

import (
	"io"
	"testing"
)

func TestPipeSendRecv(t *testing.T) {
	a, b := NewPipe("a", "b")

	n, err := a.Send([]byte("hello"))
	if err != nil || n != 5 {
		t.Fatalf("send: n=%d err=%v", n, err)
	}

	buf := make([]byte, 16)
	n, err = b.Recv(buf)
	if err != nil {
		t.Fatalf("recv: %v", err)
	}
	if string(buf[:n]) != "hello" {
		t.Fatalf("expected hello, got %q", buf[:n])
	}
}

func TestPipeRecvWouldBlockWhenEmpty(t *testing.T) {
	_, b := NewPipe("a", "b")
	buf := make([]byte, 16)
	_, err := b.Recv(buf)
	if err != ErrWouldBlock {
		t.Fatalf("expected ErrWouldBlock, got %v", err)
	}
}

func TestPipeCloseSignalsEOFAfterDrain(t *testing.T) {
	a, b := NewPipe("a", "b")
	_, _ = a.Send([]byte("x"))
	_ = a.Close()

	buf := make([]byte, 16)
	n, err := b.Recv(buf)
	if err != nil || n != 1 {
		t.Fatalf("expected to drain buffered byte first, n=%d err=%v", n, err)
	}

	_, err = b.Recv(buf)
	if err != io.EOF {
		t.Fatalf("expected EOF after drain, got %v", err)
	}
}

func TestPipeSendAfterCloseIsClosedError(t *testing.T) {
	a, _ := NewPipe("a", "b")
	_ = a.Close()
	_, err := a.Send([]byte("x"))
	if err != ErrClosed {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestPipePartialWrite(t *testing.T) {
	a, b := NewPipe("a", "b")
	a.SetMaxWrite(2)

	n, err := a.Send([]byte("hello"))
	if err != nil || n != 2 {
		t.Fatalf("expected partial write of 2, got n=%d err=%v", n, err)
	}

	buf := make([]byte, 16)
	n, _ = b.Recv(buf)
	if string(buf[:n]) != "he" {
		t.Fatalf("expected partial bytes 'he', got %q", buf[:n])
	}
}
