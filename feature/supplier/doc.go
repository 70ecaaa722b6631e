// Package supplier defines the supplier-facing contracts shared by every
// feed client: the Source configuration model, the Client capability
// interface, the typed error taxonomy, and SKU synthesis. Concrete clients
// live in the xmlfeed, csvfeed and restfeed subpackages and are selected by
// the factory package.
package supplier
