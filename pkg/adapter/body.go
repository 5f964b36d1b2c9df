package adapter

import (
	"encoding/json"
	"errors"
	"io"
	"iter"
	"net"
	"net/http"

	"github.com/polisai/pdforge-adapter/pkg/domain"
)

// DefaultChunkSize is the read size used when draining a request body.
const DefaultChunkSize = 4096

// ErrStreamClosed signals a stream that reached its terminal closed state.
// Readers treat it like end-of-data.
var ErrStreamClosed = errors.New("adapter: stream closed")

// ChunkStream is a lazy, finite, non-restartable sequence of body chunks. A
// chunk is only valid until the next iteration step.
type ChunkStream = iter.Seq2[[]byte, error]

// ReaderChunks exposes r as a ChunkStream reading at most size bytes per
// chunk. Read errors, io.EOF included, are yielded once and end the stream.
func ReaderChunks(r io.Reader, size int) ChunkStream {
	if size <= 0 {
		size = DefaultChunkSize
	}
	return func(yield func([]byte, error) bool) {
		if r == nil {
			return
		}
		buf := make([]byte, size)
		for {
			n, err := r.Read(buf)
			if n > 0 && !yield(buf[:n], nil) {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}
			if n == 0 {
				// zero-length read is end-of-data
				yield(buf[:0], nil)
				return
			}
		}
	}
}

// ReadBody drains chunks into a single buffer. An empty chunk or a closed
// stream ends the read successfully; any other error fails the whole read and
// no partial body is returned.
func ReadBody(chunks ChunkStream) ([]byte, error) {
	var body []byte
	if chunks == nil {
		return body, nil
	}
	for chunk, err := range chunks {
		if err != nil {
			if isClosed(err) {
				break
			}
			return nil, &domain.BodyError{Kind: domain.BodyReadFailed, Err: err}
		}
		if len(chunk) == 0 {
			break
		}
		body = append(body, chunk...)
	}
	return body, nil
}

func isClosed(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, ErrStreamClosed) ||
		errors.Is(err, http.ErrBodyReadAfterClose) ||
		errors.Is(err, net.ErrClosed)
}

// RequireMethod rejects every inbound method other than POST.
func RequireMethod(method string) error {
	if method != http.MethodPost {
		return &domain.BodyError{Kind: domain.BodyUnsupportedMethod, Method: method}
	}
	return nil
}

// DecodeBody validates body as a single JSON value and returns it unmodified.
func DecodeBody(body []byte) (json.RawMessage, error) {
	var value json.RawMessage
	if err := json.Unmarshal(body, &value); err != nil {
		return nil, &domain.BodyError{Kind: domain.BodyInvalidJSON, Err: err}
	}
	return value, nil
}
