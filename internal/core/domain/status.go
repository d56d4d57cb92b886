package domain

// RawStatus is one scraped shipment as a source hands it to the aggregator:
// the human-readable delivery-status line plus the line items it covers.
// It is immutable once produced.
type RawStatus struct {
	// OrderID is the retailer's natural identifier, when the page exposes one.
	// Empty means the aggregator synthesizes an id.
	OrderID string

	// Items holds the product titles under this shipment. A shipment with
	// several line items produces one Order per entry, all sharing the parsed
	// interval and detail link. Empty means the product could not be named.
	Items []string

	// StatusText is the raw delivery-status line, e.g. "Arriving tomorrow 10am - 2pm".
	StatusText string

	// DetailLink is the order-details URL, if the page had one.
	DetailLink string

	// Source names the retailer source that produced this status.
	Source string
}

// MatchKind tags the result of parsing a status line.
type MatchKind int

const (
	// KindMatch means a delivery interval was extracted.
	KindMatch MatchKind = iota

	// KindNoMatch means the text carried no recognisable date.
	KindNoMatch

	// KindExcluded means the text is a terminal "delivered" status and must
	// not become a calendar entry.
	KindExcluded
)

// String returns the tag name for logging.
func (k MatchKind) String() string {
	switch k {
	case KindMatch:
		return "match"
	case KindNoMatch:
		return "no-match"
	case KindExcluded:
		return "excluded"
	default:
		return "unknown"
	}
}

// MatchOutcome is the tagged result of parsing one status line.
// "No date found" and "explicitly excluded" are distinct outcomes so they
// are never confused downstream.
type MatchOutcome struct {
	Kind     MatchKind
	Interval DeliveryInterval
}

// Matched wraps an interval in a successful outcome.
func Matched(iv DeliveryInterval) MatchOutcome {
	return MatchOutcome{Kind: KindMatch, Interval: iv}
}

// NoMatch reports that no rule recognised the text.
func NoMatch() MatchOutcome {
	return MatchOutcome{Kind: KindNoMatch}
}

// Excluded reports a terminal delivered status.
func Excluded() MatchOutcome {
	return MatchOutcome{Kind: KindExcluded}
}
