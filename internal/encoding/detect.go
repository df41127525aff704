package encoding

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// peekSize is how much of the input is inspected before choosing a decoder.
const peekSize = 4096

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// heuristic maps chardet charset names to decoders. Anything else falls back to Windows-1252,
// which is what spreadsheet tools on pt-BR Windows machines write.
var heuristic = map[string]encoding.Encoding{
	"ISO-8859-1":   charmap.Windows1252,
	"windows-1252": charmap.Windows1252,
	"ISO-8859-15":  charmap.ISO8859_15,
	"ISO-8859-9":   charmap.ISO8859_9,
}

// NewUTF8Reader returns a reader that yields r decoded to UTF-8.
//
// A BOM wins (UTF-8 BOM is stripped, UTF-16 is decoded). Valid UTF-8 passes through.
// Otherwise chardet picks a single-byte charset, with Windows-1252 as the fallback.
func NewUTF8Reader(r io.Reader) (io.Reader, error) {
	br := bufio.NewReaderSize(r, peekSize)

	buf, err := br.Peek(peekSize)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, fmt.Errorf("peek: %w", err)
	}

	if dec, n, ok := fromBOM(buf); ok {
		_, _ = br.Discard(n)

		if dec == nil {
			return br, nil
		}

		return transform.NewReader(br, dec), nil
	}

	if utf8.Valid(completeRunes(buf)) {
		return br, nil
	}

	return transform.NewReader(br, detect(buf).NewDecoder()), nil
}

// fromBOM reports the decoder for a byte order mark and how many bytes to discard.
// A nil decoder means the content is already UTF-8.
func fromBOM(buf []byte) (transform.Transformer, int, bool) {
	switch {
	case bytes.HasPrefix(buf, bomUTF8):
		return nil, len(bomUTF8), true
	case bytes.HasPrefix(buf, bomUTF16LE):
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder(), 0, true
	case bytes.HasPrefix(buf, bomUTF16BE):
		return unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder(), 0, true
	}

	return nil, 0, false
}

func detect(buf []byte) encoding.Encoding {
	result, err := chardet.NewTextDetector().DetectBest(buf)
	if err == nil {
		if e, ok := heuristic[result.Charset]; ok {
			return e
		}
	}

	return charmap.Windows1252
}

// completeRunes drops a multi-byte sequence cut off at the end of the peek window.
func completeRunes(buf []byte) []byte {
	for i := len(buf) - 1; i >= 0 && i >= len(buf)-utf8.UTFMax; i-- {
		if utf8.RuneStart(buf[i]) {
			if !utf8.FullRune(buf[i:]) {
				return buf[:i]
			}

			break
		}
	}

	return buf
}
