// Package offline implements a cache-first front for a static asset origin.
//
// A Worker owns one cache generation, named "<prefix>-v<version>". Install
// pre-caches the asset manifest, Activate purges every other generation, and
// Fetch serves GET requests from the cache before going to the network. When
// the network is gone, page navigations fall back to the cached root document
// and everything else gets a plain-text 503.
package offline

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Entry is a byte-exact copy of a cached response.
type Entry struct {
	URL      string
	Status   int
	Header   http.Header
	Body     []byte
	StoredAt time.Time
}

// ReadEntry drains and closes resp.Body into a new Entry stored under url.
func ReadEntry(url string, resp *http.Response) (*Entry, error) {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("offline: read body of %s: %w", url, err)
	}
	return &Entry{
		URL:      url,
		Status:   resp.StatusCode,
		Header:   resp.Header.Clone(),
		Body:     body,
		StoredAt: time.Now(),
	}, nil
}

// Clone returns an independent copy: header and body share no memory with e.
func (e *Entry) Clone() *Entry {
	c := *e
	c.Header = e.Header.Clone()
	c.Body = bytes.Clone(e.Body)
	return &c
}

// Response builds a fresh response for req. Each call gets its own body
// reader, so the entry can be served any number of times.
func (e *Entry) Response(req *http.Request) *http.Response {
	header := e.Header.Clone()
	if header == nil {
		header = make(http.Header)
	}
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", e.Status, http.StatusText(e.Status)),
		StatusCode:    e.Status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(e.Body)),
		ContentLength: int64(len(e.Body)),
		Request:       req,
	}
}

// OfflineBody is the body of the synthetic 503 response.
const OfflineBody = "Offline – resource not in cache."

func unavailable(req *http.Request) *http.Response {
	e := &Entry{
		Status: http.StatusServiceUnavailable,
		Header: http.Header{"Content-Type": {"text/plain; charset=utf-8"}},
		Body:   []byte(OfflineBody),
	}
	return e.Response(req)
}

// writeResponse copies resp to w and closes its body.
func writeResponse(w http.ResponseWriter, resp *http.Response) error {
	defer resp.Body.Close()

	dst := w.Header()
	for k, vv := range resp.Header {
		dst[k] = append([]string(nil), vv...)
	}
	w.WriteHeader(resp.StatusCode)
	_, err := io.Copy(w, resp.Body)
	return err
}
