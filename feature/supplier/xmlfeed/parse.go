package xmlfeed

import (
	"context"
	"encoding/xml"
	"io"
	"strings"

	"supplier-sync/core/feed"
)

// decodeSubtree buffers one element's subtree into a feed.Record. The
// decoder stays positioned right after the element's end tag.
func decodeSubtree(dec *xml.Decoder, start xml.StartElement) (*feed.Record, error) {
	rec := feed.Map()
	for _, attr := range start.Attr {
		rec.Set(attr.Name.Local, feed.Value(attr.Value))
	}

	var text strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			child, err := decodeSubtree(dec, t)
			if err != nil {
				return nil, err
			}
			rec.Set(t.Name.Local, child)
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			if rec.Len() == 0 {
				return feed.Value(strings.TrimSpace(text.String())), nil
			}
			return rec, nil
		}
	}
}

// parseStream walks the document forward-only and collects every subtree
// named element into a record, one buffered at a time. Subtrees that fail
// to decode are skipped; the skip count is returned alongside the records.
// The decoder cannot resume past a syntax error, so a stream that breaks
// after at least one record returns what parsed plus a skip, while one
// that breaks before any record returns the error.
func parseStream(ctx context.Context, r io.Reader, element string) ([]*feed.Record, int, error) {
	dec := xml.NewDecoder(r)

	var (
		records []*feed.Record
		skipped int
	)
	for {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}

		tok, err := dec.Token()
		if err == io.EOF {
			return records, skipped, nil
		}
		if err != nil {
			if len(records) > 0 {
				// The stream broke mid-document; keep what parsed.
				return records, skipped + 1, nil
			}
			return nil, 0, err
		}

		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != element {
			continue
		}

		rec, err := decodeSubtree(dec, start)
		if err != nil {
			skipped++
			if err == io.EOF {
				return records, skipped, nil
			}
			continue
		}
		records = append(records, rec)
	}
}
