package xtce

import (
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
)

// CharacterEncoding names the text encoding a StringDataEncoding's raw bytes
// are in. Unlike the generic "UTF-16"/"UTF-32" tags XTCE XML allows, byte
// order is folded into the name here: a loader that sees a bare "UTF-16"
// plus a separate byte-order attribute must resolve it to UTF16BE or
// UTF16LE before building a StringDataEncoding.
type CharacterEncoding string

const (
	USASCII     CharacterEncoding = "US-ASCII"
	ISO88591    CharacterEncoding = "ISO-8859-1"
	Windows1252 CharacterEncoding = "Windows-1252"
	UTF8        CharacterEncoding = "UTF-8"
	UTF16BE     CharacterEncoding = "UTF-16BE"
	UTF16LE     CharacterEncoding = "UTF-16LE"
	UTF32BE     CharacterEncoding = "UTF-32BE"
	UTF32LE     CharacterEncoding = "UTF-32LE"
)

// Decode converts b, assumed to be text in this encoding, to a Go string
// (always UTF-8 once in memory).
func (c CharacterEncoding) Decode(b []byte) (string, error) {
	switch c {
	case "", USASCII:
		for _, by := range b {
			if by > 0x7F {
				return "", ValidationErrorf("byte %#x is not valid US-ASCII", by)
			}
		}
		return string(b), nil
	case ISO88591:
		return charmap.ISO8859_1.NewDecoder().String(string(b))
	case Windows1252:
		return charmap.Windows1252.NewDecoder().String(string(b))
	case UTF8:
		if !utf8.Valid(b) {
			return "", ValidationErrorf("bytes are not valid UTF-8")
		}
		return string(b), nil
	case UTF16BE:
		return unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder().String(string(b))
	case UTF16LE:
		return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder().String(string(b))
	case UTF32BE:
		return utf32.UTF32(utf32.BigEndian, utf32.IgnoreBOM).NewDecoder().String(string(b))
	case UTF32LE:
		return utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM).NewDecoder().String(string(b))
	default:
		return "", ValidationErrorf("unrecognized character encoding %q", c)
	}
}

// ResolveCharacterEncoding folds a bare XTCE encoding name plus an optional
// "BE"/"LE" byte-order hint into one of the concrete CharacterEncoding
// constants above, returning a Validation error if the combination can't be
// resolved (e.g. "UTF-16" with no byte order given at all).
func ResolveCharacterEncoding(name, byteOrderHint string) (CharacterEncoding, error) {
	switch name {
	case "US-ASCII", "":
		return USASCII, nil
	case "ISO-8859-1":
		return ISO88591, nil
	case "Windows-1252":
		return Windows1252, nil
	case "UTF-8":
		return UTF8, nil
	case "UTF-16", "UTF-16BE", "UTF-16LE":
		return resolveWide(name, byteOrderHint, UTF16BE, UTF16LE)
	case "UTF-32", "UTF-32BE", "UTF-32LE":
		return resolveWide(name, byteOrderHint, UTF32BE, UTF32LE)
	default:
		return "", ValidationErrorf("unrecognized character encoding %q", name)
	}
}

func resolveWide(name, byteOrderHint string, be, le CharacterEncoding) (CharacterEncoding, error) {
	switch name {
	case string(be):
		return be, nil
	case string(le):
		return le, nil
	}
	switch byteOrderHint {
	case "BE", "bigEndian", "big", "mostSignificantByteFirst":
		return be, nil
	case "LE", "littleEndian", "little", "leastSignificantByteFirst":
		return le, nil
	default:
		return "", ValidationErrorf("character encoding %q requires an explicit byte order", name)
	}
}
