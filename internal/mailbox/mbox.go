package mailbox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	mboxlib "github.com/emersion/go-mbox"

	"github.com/teemow/inboxbrief/internal/toolerr"
)

// MboxSource serves messages from a local mbox file. It ignores
// credentials and is meant for offline use.
type MboxSource struct {
	Path string
}

// FetchLatest implements Fetcher, returning the last count messages of the
// file, oldest first.
func (m *MboxSource) FetchLatest(ctx context.Context, _ Credentials, count int) ([][]byte, error) {
	if count <= 0 {
		return nil, toolerr.Newf(toolerr.KindInvalidArgument, "count must be at least 1, got %d", count)
	}

	file, err := os.Open(m.Path)
	if err != nil {
		return nil, toolerr.Wrap(toolerr.KindTransport, "failed to open mbox", err)
	}
	defer file.Close()

	return readLatest(ctx, mboxlib.NewReader(file), count)
}

func readLatest(ctx context.Context, reader *mboxlib.Reader, count int) ([][]byte, error) {
	// ring holds the most recent count messages; next is the write position.
	ring := make([][]byte, 0, count)
	next := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, toolerr.Wrap(toolerr.KindTransport, "mbox read cancelled", err)
		}

		msgReader, err := reader.NextMessage()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, toolerr.Wrap(toolerr.KindParse, "failed to read mbox", err)
		}
		raw, err := io.ReadAll(msgReader)
		if err != nil {
			return nil, toolerr.Wrap(toolerr.KindParse, fmt.Sprintf("failed to read mbox message %d", len(ring)), err)
		}

		if len(ring) < count {
			ring = append(ring, raw)
			continue
		}
		ring[next] = raw
		next = (next + 1) % count
	}

	msgs := make([][]byte, 0, len(ring))
	msgs = append(msgs, ring[next:]...)
	msgs = append(msgs, ring[:next]...)
	return msgs, nil
}
