package mailbody

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/emersion/go-message"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"

	"github.com/teemow/inboxbrief/internal/toolerr"
)

const plainText = "text/plain"

// errFound stops the part walk once a body has been selected.
var errFound = errors.New("mailbody: part found")

// Batch is the outcome of extracting bodies from several messages.
type Batch struct {
	Bodies  []string // Non-empty bodies, in input order
	Skipped int      // Messages without a usable plain-text body
}

// Extract returns the first plain-text, non-attachment body of raw.
//
// The body is transfer-decoded and converted from its declared charset to
// UTF-8. A message without such a part, or whose part cannot be decoded,
// yields an empty string and a nil error. Only a message whose structure
// cannot be parsed returns an error.
func Extract(raw []byte) (string, error) {
	body, err := extract(raw)
	if toolerr.KindOf(err) == toolerr.KindDecode {
		return "", nil
	}
	return body, err
}

// ExtractBatch applies Extract to each message in order and drops empty
// bodies. The result is not positionally aligned with raws.
func ExtractBatch(raws [][]byte) ([]string, error) {
	batch, err := ExtractBatchReport(raws)
	if err != nil {
		return nil, err
	}
	return batch.Bodies, nil
}

// ExtractBatchReport is ExtractBatch that also reports how many messages
// were dropped.
func ExtractBatchReport(raws [][]byte) (Batch, error) {
	batch := Batch{Bodies: make([]string, 0, len(raws))}
	for i, raw := range raws {
		body, err := Extract(raw)
		if err != nil {
			return Batch{}, toolerr.Wrap(toolerr.KindParse, fmt.Sprintf("message %d", i), errors.Unwrap(err))
		}
		if body == "" {
			batch.Skipped++
			continue
		}
		batch.Bodies = append(batch.Bodies, body)
	}
	return batch, nil
}

func extract(raw []byte) (string, error) {
	entity, err := message.Read(bytes.NewReader(raw))
	if err != nil && !isSoftEntityError(err) {
		return "", toolerr.Wrap(toolerr.KindParse, "failed to parse message", err)
	}
	rootErr := err

	var body string
	walkErr := entity.Walk(func(path []int, part *message.Entity, partErr error) error {
		if len(path) == 0 {
			partErr = rootErr
		}
		if !qualifies(part, len(path) > 0) {
			return nil
		}
		if message.IsUnknownEncoding(partErr) {
			return toolerr.Wrap(toolerr.KindDecode, "unsupported transfer encoding", partErr)
		}

		payload, readErr := io.ReadAll(part.Body)
		if readErr != nil {
			return toolerr.Wrap(toolerr.KindDecode, "failed to decode part", readErr)
		}
		if message.IsUnknownCharset(partErr) {
			_, params, _ := part.Header.ContentType()
			body = decodeCharset(params["charset"], payload)
		} else {
			body = strings.ToValidUTF8(string(payload), string(utf8.RuneError))
		}
		return errFound
	})

	switch {
	case errors.Is(walkErr, errFound):
		return body, nil
	case walkErr == nil:
		return "", nil
	case toolerr.KindOf(walkErr) == toolerr.KindDecode:
		return "", walkErr
	default:
		return "", toolerr.Wrap(toolerr.KindParse, "failed to read multipart structure", walkErr)
	}
}

// qualifies reports whether part is a plain-text body. Inside a multipart
// message, parts with any Content-Disposition are attachments or inline
// extras and never qualify.
func qualifies(part *message.Entity, nested bool) bool {
	mediaType, _, err := part.Header.ContentType()
	if err != nil {
		// RFC 2045 section 5.2 default
		if part.Header.Get("Content-Type") != "" {
			return false
		}
		mediaType = plainText
	}
	if !strings.EqualFold(mediaType, plainText) {
		return false
	}
	if nested && part.Header.Has("Content-Disposition") {
		return false
	}
	return true
}

func isSoftEntityError(err error) bool {
	return message.IsUnknownCharset(err) || message.IsUnknownEncoding(err)
}

// decodeCharset converts payload from the named charset to UTF-8. Unknown
// charsets fall back to UTF-8; invalid sequences become U+FFFD.
func decodeCharset(charset string, payload []byte) string {
	enc := lookupEncoding(charset)
	if enc != nil {
		if decoded, err := enc.NewDecoder().Bytes(payload); err == nil {
			payload = decoded
		}
	}
	return strings.ToValidUTF8(string(payload), string(utf8.RuneError))
}

func lookupEncoding(charset string) encoding.Encoding {
	charset = strings.TrimSpace(charset)
	if charset == "" {
		return nil
	}
	if enc, err := ianaindex.MIME.Encoding(charset); err == nil && enc != nil {
		return enc
	}
	if enc, err := htmlindex.Get(charset); err == nil {
		return enc
	}
	return nil
}
