package mailbox

import "context"

// Fetcher retrieves raw RFC 5322 messages from a mailbox.
type Fetcher interface {
	// FetchLatest returns up to count of the most recent messages,
	// oldest first. An empty mailbox yields an empty slice.
	FetchLatest(ctx context.Context, creds Credentials, count int) ([][]byte, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, creds Credentials, count int) ([][]byte, error)

// FetchLatest calls f.
func (f FetcherFunc) FetchLatest(ctx context.Context, creds Credentials, count int) ([][]byte, error) {
	return f(ctx, creds, count)
}

// latestRange returns the 1-based sequence range covering the last count
// of total messages. ok is false when there is nothing to fetch.
func latestRange(total uint32, count int) (from, to uint32, ok bool) {
	if total == 0 || count <= 0 {
		return 0, 0, false
	}
	from = 1
	if uint64(total) > uint64(count) {
		from = total - uint32(count) + 1
	}
	return from, total, true
}
