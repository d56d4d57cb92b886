package domain

// Order is one canonical pending delivery: a parsed interval plus the
// provenance needed to serialize a calendar event. Orders are value objects,
// never mutated after creation, and discarded at the end of a run.
type Order struct {
	// ID identifies the order within one run. Either the retailer's natural
	// identifier or a synthesized "<source>-<seq>" value.
	ID string

	// Title is the event summary, usually the product name.
	Title string

	// Interval is the parsed delivery window.
	Interval DeliveryInterval

	// DetailLink is the order-details URL, empty when unknown.
	DetailLink string

	// Source names the retailer source the order came from.
	Source string

	// RawStatus preserves the original status line for diagnostics.
	RawStatus string
}
