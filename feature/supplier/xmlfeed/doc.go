// Package xmlfeed implements the streaming-XML supplier client. Feeds are
// large per-kind XML documents (catalog, grouped stock, price sections,
// print data) walked with a forward-only decoder that buffers one product
// subtree at a time, so memory stays flat regardless of feed size.
package xmlfeed
