// Package codec implements the best-effort text decode probe shared by the
// detector orchestrator and the hunt engine (spec §4.2 step 2): BOM-first
// (UTF-8/16/32), then strict UTF-8, then Latin-1 as a last resort. Decoding
// never raises — every non-empty sample decodes (Latin-1 accepts any byte),
// and callers get ("", "", false) only for an empty sample.
package codec

import (
	"encoding/binary"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Name identifiers recorded in DetectionMatch.metadata.encoding.
const (
	UTF8    = "utf-8"
	UTF16LE = "utf-16le"
	UTF16BE = "utf-16be"
	UTF32LE = "utf-32le"
	UTF32BE = "utf-32be"
	Latin1  = "iso-8859-1"
)

// Probe decodes sample as text using the codec probe described in spec §4.2.
// It returns the decoded text, the encoding name recorded in metadata, and
// ok=false only if sample is empty (nothing to decode).
func Probe(sample []byte) (text string, encoding string, ok bool) {
	if len(sample) == 0 {
		return "", "", false
	}

	if t, enc, matched := decodeUTF32BOM(sample); matched {
		return t, enc, true
	}
	if t, enc, matched := decodeUTF16BOM(sample); matched {
		return t, enc, true
	}
	if t, matched := decodeUTF8BOM(sample); matched {
		return t, UTF8, true
	}
	if utf8.Valid(sample) {
		return string(sample), UTF8, true
	}
	return decodeLatin1(sample), Latin1, true
}

func decodeUTF8BOM(sample []byte) (string, bool) {
	const bom = "\xef\xbb\xbf"
	if len(sample) >= 3 && string(sample[:3]) == bom {
		return string(sample[3:]), true
	}
	return "", false
}

func decodeUTF16BOM(sample []byte) (string, string, bool) {
	var enc unicode.Encoding
	var name string
	switch {
	case len(sample) >= 2 && sample[0] == 0xFF && sample[1] == 0xFE:
		enc, name = unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM), UTF16LE
	case len(sample) >= 2 && sample[0] == 0xFE && sample[1] == 0xFF:
		enc, name = unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM), UTF16BE
	default:
		return "", "", false
	}
	decoded, err := enc.NewDecoder().Bytes(sample)
	if err != nil {
		return "", "", false
	}
	return string(decoded), name, true
}

// decodeUTF32BOM handles the one codec x/text does not: UTF-32. x/text's
// encoding package has no UTF-32 transformer, so this decodes the two
// UTF-32 BOM prefixes (little- and big-endian) by hand with encoding/binary + utf8.EncodeRune.
// Must run before decodeUTF16BOM: a UTF-32LE BOM (FF FE 00 00) is a
// byte-for-byte superset of the UTF-16LE BOM (FF FE).
func decodeUTF32BOM(sample []byte) (string, string, bool) {
	var order binary.ByteOrder
	var name string
	switch {
	case len(sample) >= 4 && sample[0] == 0xFF && sample[1] == 0xFE && sample[2] == 0x00 && sample[3] == 0x00:
		order, name = binary.LittleEndian, UTF32LE
	case len(sample) >= 4 && sample[0] == 0x00 && sample[1] == 0x00 && sample[2] == 0xFE && sample[3] == 0xFF:
		order, name = binary.BigEndian, UTF32BE
	default:
		return "", "", false
	}

	body := sample[4:]
	if len(body)%4 != 0 {
		body = body[:len(body)-(len(body)%4)]
	}
	buf := make([]byte, 0, len(body))
	var runeBuf [utf8.UTFMax]byte
	for i := 0; i+4 <= len(body); i += 4 {
		cp := order.Uint32(body[i : i+4])
		n := utf8.EncodeRune(runeBuf[:], rune(cp))
		buf = append(buf, runeBuf[:n]...)
	}
	return string(buf), name, true
}

func decodeLatin1(sample []byte) string {
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(sample)
	if err != nil {
		// ISO-8859-1 maps every byte value to a rune; this path is
		// unreachable in practice but Probe still must not raise.
		return string(sample)
	}
	return string(decoded)
}
