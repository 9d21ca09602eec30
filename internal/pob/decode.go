package pob

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zlib"
)

var (
	ErrInvalidBase64 = errors.New("export code is not valid base64")
	ErrDecompress    = errors.New("export code payload does not inflate")
	ErrInvalidUTF8   = errors.New("export code document is not valid UTF-8")
	ErrEmptyDocument = errors.New("export code document is empty")
)

// Export codes come from the Path of Building share dialog (URL-safe alphabet)
// or from older tools and sites (standard alphabet, sometimes unpadded).
var encodings = []*base64.Encoding{
	base64.StdEncoding,
	base64.URLEncoding,
	base64.RawStdEncoding,
	base64.RawURLEncoding,
}

// Decode turns an export code into the XML document it carries.
// Whitespace, newlines and literal "%20" sequences are removed first so
// codes pasted from chat or URLs still decode.
func Decode(code string) (string, error) {
	compressed, err := decodeBase64(normalizeCode(code))
	if err != nil {
		return "", err
	}

	raw, err := inflate(compressed)
	if err != nil {
		return "", err
	}

	if !utf8.Valid(raw) {
		return "", ErrInvalidUTF8
	}
	return string(raw), nil
}

// Encode is the inverse of Decode: zlib-compress the document and encode it
// with the URL-safe alphabet Path of Building uses for share codes.
func Encode(document string) (string, error) {
	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
	if err != nil {
		return "", fmt.Errorf("creating zlib writer: %w", err)
	}
	if _, err := io.WriteString(w, document); err != nil {
		w.Close()
		return "", fmt.Errorf("compressing document: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("compressing document: %w", err)
	}
	return base64.URLEncoding.EncodeToString(buf.Bytes()), nil
}

func normalizeCode(code string) string {
	code = strings.ReplaceAll(code, "%20", "")
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, code)
}

func decodeBase64(code string) ([]byte, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: empty code", ErrInvalidBase64)
	}
	var lastErr error
	for _, enc := range encodings {
		data, err := enc.DecodeString(code)
		if err == nil {
			return data, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("%w: %v", ErrInvalidBase64, lastErr)
}

// inflate tries zlib framing first and falls back to a raw deflate stream
// when the zlib header is missing.
func inflate(data []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err == nil {
		defer zr.Close()
		out, err := io.ReadAll(zr)
		if err != nil {
			return nil, fmt.Errorf("%w: zlib: %v", ErrDecompress, err)
		}
		return out, nil
	}
	if !errors.Is(err, zlib.ErrHeader) {
		return nil, fmt.Errorf("%w: zlib: %v", ErrDecompress, err)
	}

	fr := flate.NewReader(bytes.NewReader(data))
	defer fr.Close()
	out, err := io.ReadAll(fr)
	if err != nil {
		return nil, fmt.Errorf("%w: raw deflate: %v", ErrDecompress, err)
	}
	return out, nil
}
