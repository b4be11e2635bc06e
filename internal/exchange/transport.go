package exchange

import (
	"context"
	"io"

	"github.com/soyeahso/blitz/internal/domain"
)

// Transport opens the one-directional event stream for a question.
// The returned body is the raw framed record stream; the coordinator
// owns closing it.
type Transport interface {
	OpenStream(ctx context.Context, q domain.Question) (io.ReadCloser, error)
}
