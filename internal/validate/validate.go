// Package validate holds the pure input checks applied while collecting
// conversation fields.
package validate

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Field names reported in InvalidInputError.
const (
	FieldEmail     = "paypal"
	FieldOrderID   = "order_id"
	FieldReviewURL = "review_link"
)

// InvalidInputError is returned when raw participant text fails a check.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

var orderIDPattern = regexp.MustCompile(`^\d{3}-\d{7}-\d{7}$`)

// marketplaceHosts are matched as the registrable suffix of the link host.
var marketplaceHosts = []string{"amazon.com", "amazon.es", "amazon.co.uk", "amazon.de", "amazon.fr", "amazon.it"}

// shortLinkHosts cannot be inspected for a path, so they are accepted as-is.
var shortLinkHosts = []string{"amzn.to", "amzn.eu", "a.co"}

var reviewPathSegments = []string{"/review/", "/customer-reviews", "/gp/customer-reviews", "/reviews/"}

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New(validator.WithRequiredStructEnabled())

	// The tag is registered once at package init; a failure here is a programming error.
	if err := val.RegisterValidation("orderid", func(fl validator.FieldLevel) bool {
		return orderIDPattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}

	return val
}

// Email checks the local@domain.tld shape.
func Email(raw string) error {
	s := strings.TrimSpace(raw)
	if err := v.Var(s, "required,email"); err != nil {
		return &InvalidInputError{Field: FieldEmail, Reason: "expected an address like name@example.com"}
	}

	if at := strings.LastIndex(s, "@"); !strings.Contains(s[at+1:], ".") {
		return &InvalidInputError{Field: FieldEmail, Reason: "domain has no top-level part"}
	}

	return nil
}

// OrderID checks the ddd-ddddddd-ddddddd grouping.
func OrderID(raw string) error {
	if err := v.Var(strings.TrimSpace(raw), "required,orderid"); err != nil {
		return &InvalidInputError{Field: FieldOrderID, Reason: "expected the format 111-2233445-6677889"}
	}

	return nil
}

// ReviewURL checks that the link points at the marketplace, or one of its
// short-link domains, and at a review. Short links are accepted because
// their target is not visible.
func ReviewURL(raw string) error {
	u, err := marketplaceLink(raw, FieldReviewURL)
	if err != nil {
		return err
	}

	if hostMatches(u.Hostname(), shortLinkHosts) {
		return nil
	}

	path := strings.ToLower(u.EscapedPath())
	for _, seg := range reviewPathSegments {
		if strings.Contains(path, seg) {
			return nil
		}
	}

	return &InvalidInputError{Field: FieldReviewURL, Reason: "link does not point at a review"}
}

func marketplaceLink(raw, field string) (*url.URL, error) {
	s := strings.TrimSpace(raw)
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}

	if err := v.Var(s, "required,url"); err != nil {
		return nil, &InvalidInputError{Field: field, Reason: "not a link"}
	}

	u, err := url.Parse(s)
	if err != nil {
		return nil, &InvalidInputError{Field: field, Reason: "not a link"}
	}

	host := strings.ToLower(u.Hostname())
	if !hostMatches(host, marketplaceHosts) && !hostMatches(host, shortLinkHosts) {
		return nil, &InvalidInputError{Field: field, Reason: "link is not from the marketplace"}
	}

	return u, nil
}

func hostMatches(host string, domains []string) bool {
	host = strings.ToLower(host)
	for _, d := range domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}

	return false
}
