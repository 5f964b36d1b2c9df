package adapter

import (
	"errors"
	"io"

	"github.com/polisai/pdforge-adapter/pkg/domain"
)

// ErrAlreadyCommitted is returned by outlets asked to commit a second response.
var ErrAlreadyCommitted = errors.New("adapter: response already committed")

// HeaderField is one raw header entry as delivered by the transport.
type HeaderField struct {
	Name  string
	Value []byte
}

// IncomingRequest is the receive side of the transport port.
type IncomingRequest struct {
	Method string
	Fields []HeaderField
	Body   ChunkStream
}

// ResponseOutlet is the send side of the transport port. Commit writes status
// and headers and hands back the outbound body stream, which the caller must
// close. An outlet accepts exactly one Commit.
type ResponseOutlet interface {
	Commit(status int, headers domain.HeaderMap) (io.WriteCloser, error)
}
