package conv

import "testing"

func TestHex(t *testing.T) {
	var buf [8]byte
	if got := string(Hex(buf[:], 0xC0DE, 4)); got != "C0DE" {
		t.Fatalf("got %q", got)
	}
	if got := string(Hex(buf[:], 0x5, 2)); got != "05" {
		t.Fatalf("got %q", got)
	}
	if got := string(Hex(buf[:], 0xDEADBEEF, 8)); got != "DEADBEEF" {
		t.Fatalf("got %q", got)
	}
	if got := string(Hex(buf[:2], 0x123, 3)); got != "" {
		t.Fatalf("short buffer should yield empty, got %q", got)
	}
	if got := string(AppendHex([]byte("A="), 0xF, 2)); got != "A=0F" {
		t.Fatalf("got %q", got)
	}
}

func TestFixed(t *testing.T) {
	if got := Fixed("ROM", 6); got != "ROM   " {
		t.Fatalf("got %q", got)
	}
	if got := Fixed("PROGRAM", 6); got != "PROGRA" {
		t.Fatalf("got %q", got)
	}
	if Coalesce("", "x") != "x" || Coalesce("y", "x") != "y" {
		t.Fatal("coalesce")
	}
}
