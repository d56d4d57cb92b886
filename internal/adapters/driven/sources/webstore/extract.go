package webstore

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// orderCard is one order entry scraped from a history page.
type orderCard struct {
	orderID    string
	items      []string
	statusText string
	detailLink string
}

var orderIDRe = regexp.MustCompile(`(?i)order\s*#?\s*([A-Z0-9][A-Z0-9-]{4,})`)

// statusKeywords mark the line inside a card that carries the delivery
// estimate. Matching is case-insensitive on the lowered text.
var statusKeywords = []string{
	"arriving", "delivered", "expected", "estimated", "now expected",
	"delivery", "dispatched",
}

// extractOrders parses an order-history page and returns the cards found.
// Cards are any element whose class contains "order-card" or "order-item";
// both storefront layouts we scrape use one of these.
func extractOrders(body string) ([]orderCard, error) {
	root, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return nil, err
	}

	var cards []orderCard
	walk(root, func(n *html.Node) bool {
		if !isOrderCardNode(n) {
			return true
		}
		if card, ok := parseCard(n); ok {
			cards = append(cards, card)
		}
		return false // don't descend into a card looking for nested cards
	})
	return cards, nil
}

// walk visits nodes depth-first. fn returning false prunes the subtree.
func walk(n *html.Node, fn func(*html.Node) bool) {
	if !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func isOrderCardNode(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	class := attr(n, "class")
	return strings.Contains(class, "order-card") || strings.Contains(class, "order-item")
}

// parseCard pulls the status line, product titles, detail link and order
// id out of one card. A card with no status line is dropped: it is
// typically a cancelled or archived order rendered without an estimate.
func parseCard(n *html.Node) (orderCard, bool) {
	var card orderCard

	walk(n, func(el *html.Node) bool {
		if el.Type != html.ElementNode {
			return true
		}
		class := attr(el, "class")

		switch {
		case strings.Contains(class, "product-title"):
			if title := strings.TrimSpace(nodeText(el)); title != "" {
				card.items = append(card.items, title)
			}
			return false

		case el.Data == "a":
			href := attr(el, "href")
			if card.detailLink == "" && strings.Contains(href, "order-details") {
				card.detailLink = href
			}
			return true

		default:
			if card.statusText == "" && isStatusLine(el) {
				card.statusText = strings.TrimSpace(nodeText(el))
				return false
			}
			return true
		}
	})

	if m := orderIDRe.FindStringSubmatch(nodeText(n)); m != nil {
		card.orderID = m[1]
	}
	if card.statusText == "" {
		return orderCard{}, false
	}
	return card, true
}

// isStatusLine reports whether the element directly holds a delivery
// estimate. Only leaf-ish elements qualify so the card's container text
// (which also contains the keywords) is not captured wholesale.
func isStatusLine(n *html.Node) bool {
	if hasElementChildren(n) {
		return false
	}
	text := strings.ToLower(nodeText(n))
	for _, kw := range statusKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func hasElementChildren(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return true
		}
	}
	return false
}

// nodeText concatenates all text beneath a node, whitespace-collapsed.
func nodeText(n *html.Node) string {
	var b strings.Builder
	walk(n, func(el *html.Node) bool {
		if el.Type == html.TextNode {
			b.WriteString(el.Data)
			b.WriteString(" ")
		}
		return true
	})
	return strings.Join(strings.Fields(b.String()), " ")
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// extractFormFields collects hidden input values from the first form on a
// login page, so CSRF tokens round-trip with the credential post.
func extractFormFields(body string) (map[string]string, error) {
	root, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return nil, err
	}

	fields := make(map[string]string)
	walk(root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == "input" && attr(n, "type") == "hidden" {
			if name := attr(n, "name"); name != "" {
				fields[name] = attr(n, "value")
			}
		}
		return true
	})
	return fields, nil
}

// pageHasOTPChallenge reports whether the post-login page asks for a
// one-time password.
func pageHasOTPChallenge(body string) bool {
	lower := strings.ToLower(body)
	return strings.Contains(lower, `name="otp`) || strings.Contains(lower, "one-time password")
}

// pageLooksSignedIn checks for the signed-in marker all supported
// storefronts render: a sign-out link.
func pageLooksSignedIn(body string) bool {
	lower := strings.ToLower(body)
	return strings.Contains(lower, "sign out") || strings.Contains(lower, "signout") ||
		strings.Contains(lower, "logout")
}
