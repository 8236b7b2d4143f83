package app

import (
	"bytes"
	"context"
	"io"
	"testing"
)

// fakeUART hands out rx in the chunks given and records everything written.
type fakeUART struct {
	rx  [][]byte
	out bytes.Buffer
}

func (f *fakeUART) Write(p []byte) (int, error) { return f.out.Write(p) }

func (f *fakeUART) RecvSomeContext(ctx context.Context, p []byte) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if len(f.rx) == 0 {
		return 0, io.EOF
	}
	n := copy(p, f.rx[0])
	if f.rx[0] = f.rx[0][n:]; len(f.rx[0]) == 0 {
		f.rx = f.rx[1:]
	}
	return n, nil
}

func TestSerialLines(t *testing.T) {
	u := &fakeUART{rx: [][]byte{[]byte("sel"), []byte("ext\x08\x08\x7Fect 1\r\nrun\rquit\n")}}
	s := NewSerial(context.Background(), u)
	s.SetPrompt("> ")
	for _, want := range []string{"select 1", "run", "quit"} {
		got, err := s.ReadLine()
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Fatalf("got %q, want %q", got, want)
		}
	}
	if _, err := s.ReadLine(); err != io.EOF {
		t.Fatalf("end of input: %v", err)
	}
	if !bytes.HasPrefix(u.out.Bytes(), []byte("> selext\b \b\b \b\b \bect 1\r\n> run\r\n")) {
		t.Fatalf("echo %q", u.out.String())
	}
}

func TestSerialDropsControlAndOverlong(t *testing.T) {
	long := bytes.Repeat([]byte("x"), maxLine+10)
	u := &fakeUART{rx: [][]byte{{0x1B}, long, []byte("\n")}}
	got, err := NewSerial(context.Background(), u).ReadLine()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != maxLine {
		t.Fatalf("line of %d", len(got))
	}
}

func TestSerialWriteCRLF(t *testing.T) {
	u := &fakeUART{}
	s := NewSerial(context.Background(), u)
	n, err := s.Write([]byte("a\nb\n\nc"))
	if err != nil || n != 6 {
		t.Fatalf("write %d %v", n, err)
	}
	if got := u.out.String(); got != "a\r\nb\r\n\r\nc" {
		t.Fatalf("got %q", got)
	}
}

func TestSerialCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewSerial(ctx, &fakeUART{}).ReadLine(); err != context.Canceled {
		t.Fatalf("got %v", err)
	}
}
