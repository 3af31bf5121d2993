package chi

import (
	"bytes"
	"errors"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/korean"
)

var errUnknownEncoding = errors.New("unknown text encoding")

// readTextFile reads an uploaded file as UTF-8, falling back to EUC-KR
// (CP949) for legacy Korean documents.
func readTextFile(r io.Reader) (string, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return decodeText(raw)
}

func decodeText(raw []byte) (string, error) {
	if utf8.Valid(raw) {
		return string(raw), nil
	}
	decoded, err := korean.EUCKR.NewDecoder().Bytes(raw)
	// The decoder substitutes U+FFFD instead of failing, so a replacement
	// rune means the bytes were not EUC-KR either.
	if err != nil || bytes.ContainsRune(decoded, utf8.RuneError) {
		return "", errUnknownEncoding
	}
	return string(decoded), nil
}
