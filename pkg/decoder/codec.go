package decoder

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// textEncodings is the fixed fallback ladder for delimited files, in trial
// order. latin-1 is a single-byte encoding that cannot fail on decode, so
// the ladder always terminates.
var textEncodings = []string{"utf-8", "utf-16", "latin-1"}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// transcode decodes content from the named encoding into UTF-8 bytes. An
// error means the content is not valid in that encoding and the caller
// should try the next rung of the ladder.
func transcode(content []byte, name string) ([]byte, error) {
	switch name {
	case "utf-8":
		trimmed := bytes.TrimPrefix(content, utf8BOM)
		if !utf8.Valid(trimmed) {
			return nil, fmt.Errorf("content is not valid utf-8")
		}
		return trimmed, nil
	case "utf-16":
		dec := unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder()
		out, _, err := transform.Bytes(dec, content)
		return out, err
	case "latin-1":
		dec := charmap.ISO8859_1.NewDecoder()
		out, _, err := transform.Bytes(dec, content)
		return out, err
	default:
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
}
