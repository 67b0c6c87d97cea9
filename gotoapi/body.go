package gotoapi

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/andybalholm/brotli"
	"golang.org/x/net/html/charset"
)

const maxBodySize = 1024 * 1024 // API documents are small, 1mb is plenty

// ErrResponseTooLarge is returned for response bodies over 1mb, after
// decompression.
var ErrResponseTooLarge = errors.New("response too large")

// readBody reads up to maxBodySize bytes of the response body into buf,
// undoing any content encoding and transcoding the result to utf-8.
func readBody(resp *http.Response, buf *bytes.Buffer) ([]byte, error) {
	var rd io.Reader = resp.Body
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		gr, err := gzip.NewReader(rd)
		if err != nil {
			return nil, fmt.Errorf("error initializing gzip: %w", err)
		}
		defer gr.Close()
		rd = gr
	case "deflate":
		fr := flate.NewReader(rd)
		defer fr.Close()
		rd = fr
	case "br":
		rd = brotli.NewReader(rd)
	}

	if _, err := buf.ReadFrom(io.LimitReader(rd, maxBodySize+1)); err != nil {
		return nil, fmt.Errorf("error reading response: %w", err)
	}
	if buf.Len() > maxBodySize {
		return nil, ErrResponseTooLarge
	}

	body, err := decodeBody(buf.Bytes(), resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("error decoding response: %w", err)
	}

	// buf goes back to the pool, so the caller gets its own copy
	out := make([]byte, len(body))
	copy(out, body)
	return out, nil
}

func decodeBody(body []byte, contentType string) ([]byte, error) {
	if len(body) == 0 {
		return body, nil
	}
	enc, encName, _ := charset.DetermineEncoding(body, contentType)
	if encName == "utf-8" {
		return body, nil
	}
	return enc.NewDecoder().Bytes(body)
}
