package orders

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// =============================================================================
// DEFAULTS
// =============================================================================

const (
	// DefaultCutoff is the order date rows must be strictly after.
	DefaultCutoff = "7/31/2016"

	// DefaultBaseURL prefixes every product URL.
	DefaultBaseURL = "https://www.foo.com"

	// DefaultErrorKey is the aggregate key holding row errors.
	DefaultErrorKey = "error"
)

// DefaultDateLayouts lists the accepted "Order Date" formats, tried in order.
// US month/day/year comes first because that is what the sales exports use.
var DefaultDateLayouts = []string{
	"1/2/2006",
	"1/2/2006 15:04",
	"1/2/2006 15:04:05",
	"2006-01-02",
	"2006/01/02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"Jan 2, 2006",
	"January 2, 2006",
}

// =============================================================================
// MERGE POLICY
// =============================================================================

// MergePolicy selects how an incoming order is matched against a customer's
// existing orders.
type MergePolicy string

const (
	// MergeFirstOrder walks the existing orders from the start, merging into
	// each leading order with the same ID and appending the incoming order at
	// the first order whose ID differs. A match later in the list is not found.
	MergeFirstOrder MergePolicy = "first-order"

	// MergeSearchAll merges into the first order with the same ID anywhere in
	// the list and appends only when none matches.
	MergeSearchAll MergePolicy = "search-all"
)

// ParseMergePolicy converts a config value into a MergePolicy.
// An empty string selects MergeFirstOrder.
func ParseMergePolicy(value string) (MergePolicy, error) {
	switch MergePolicy(strings.ToLower(strings.TrimSpace(value))) {
	case "", MergeFirstOrder:
		return MergeFirstOrder, nil
	case MergeSearchAll:
		return MergeSearchAll, nil
	default:
		return "", fmt.Errorf("unknown merge policy %q", value)
	}
}

// =============================================================================
// OPTIONS
// =============================================================================

// Options configures a Parser.
type Options struct {
	// Cutoff is the instant order dates must be strictly after.
	Cutoff time.Time

	// BaseURL prefixes every product URL.
	BaseURL string

	// Location is used for order dates that carry no zone.
	Location *time.Location

	// DateLayouts are tried in order when parsing "Order Date".
	DateLayouts []string

	// MergePolicy selects the order matching behaviour.
	MergePolicy MergePolicy

	// ErrorKey is the aggregate key holding row errors.
	ErrorKey string
}

// DefaultOptions returns the options the original sales export was processed
// with.
func DefaultOptions() Options {
	opts := Options{
		BaseURL:     DefaultBaseURL,
		Location:    time.UTC,
		DateLayouts: DefaultDateLayouts,
		MergePolicy: MergeFirstOrder,
		ErrorKey:    DefaultErrorKey,
	}
	// The default cutoff is a constant in a known layout.
	opts.Cutoff, _ = ParseOrderDate(DefaultCutoff, opts)
	return opts
}

// WithCutoff returns a copy of the options with the cutoff parsed from value
// using the configured layouts.
func (o Options) WithCutoff(value string) (Options, error) {
	cutoff, err := ParseOrderDate(value, o)
	if err != nil {
		return o, fmt.Errorf("invalid cutoff date: %w", err)
	}
	o.Cutoff = cutoff
	return o, nil
}

// Validate checks that the options can be used by a Parser.
func (o Options) Validate() error {
	var errs []error

	if o.Cutoff.IsZero() {
		errs = append(errs, errors.New("cutoff date is not set"))
	}
	if u, err := url.Parse(o.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("base url %q is not an absolute URL", o.BaseURL))
	}
	if len(o.DateLayouts) == 0 {
		errs = append(errs, errors.New("no date layouts configured"))
	}
	if _, err := ParseMergePolicy(string(o.MergePolicy)); err != nil {
		errs = append(errs, err)
	}
	if o.ErrorKey == "" {
		errs = append(errs, errors.New("error key is empty"))
	}

	return errors.Join(errs...)
}

// location returns the configured location, defaulting to UTC.
func (o Options) location() *time.Location {
	if o.Location == nil {
		return time.UTC
	}
	return o.Location
}

// layouts returns the configured layouts, defaulting to DefaultDateLayouts.
func (o Options) layouts() []string {
	if len(o.DateLayouts) == 0 {
		return DefaultDateLayouts
	}
	return o.DateLayouts
}
