// Package discovery assembles the repository roster for a batch run: a
// fixed root repository followed by every repository of the configured
// organization, deduplicated by name in fetch order.
package discovery
