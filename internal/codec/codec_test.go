package codec

import "testing"

func TestProbe_PlainUTF8(t *testing.T) {
	text, enc, ok := Probe([]byte(`{"a":1}`))
	if !ok || enc != UTF8 || text != `{"a":1}` {
		t.Fatalf("got (%q, %q, %v)", text, enc, ok)
	}
}

func TestProbe_UTF8BOM(t *testing.T) {
	sample := append([]byte{0xEF, 0xBB, 0xBF}, []byte("hello")...)
	text, enc, ok := Probe(sample)
	if !ok || enc != UTF8 || text != "hello" {
		t.Fatalf("got (%q, %q, %v)", text, enc, ok)
	}
}

func TestProbe_UTF16LE(t *testing.T) {
	sample := []byte{0xFF, 0xFE, 'h', 0x00, 'i', 0x00}
	text, enc, ok := Probe(sample)
	if !ok || enc != UTF16LE || text != "hi" {
		t.Fatalf("got (%q, %q, %v)", text, enc, ok)
	}
}

func TestProbe_UTF32LE_NotMistakenForUTF16(t *testing.T) {
	sample := []byte{0xFF, 0xFE, 0x00, 0x00, 'h', 0x00, 0x00, 0x00}
	text, enc, ok := Probe(sample)
	if !ok || enc != UTF32LE || text != "h" {
		t.Fatalf("got (%q, %q, %v)", text, enc, ok)
	}
}

func TestProbe_LatinFallback(t *testing.T) {
	sample := []byte{0xE9, 0x20, 0x61} // invalid UTF-8 lead byte, then ascii
	text, enc, ok := Probe(sample)
	if !ok || enc != Latin1 {
		t.Fatalf("got (%q, %q, %v)", text, enc, ok)
	}
	if text != "é a" {
		t.Fatalf("text = %q", text)
	}
}

func TestProbe_Empty(t *testing.T) {
	_, _, ok := Probe(nil)
	if ok {
		t.Fatalf("expected ok=false for empty sample")
	}
}
