package feed

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
)

// CacheState is the outcome of evaluating a page against client preconditions.
type CacheState int

const (
	// NotCached means a full response without Cache-Control.
	NotCached CacheState = iota

	// CachedStale means a full response that clients may cache.
	CachedStale

	// CachedFresh means the client copy is current: 304, no body.
	CachedFresh

	// PreconditionFailed means If-Match did not hold (or If-None-Match matched
	// on an unsafe method): 412, no body.
	PreconditionFailed
)

func (s CacheState) String() string {
	switch s {
	case NotCached:
		return "not_cached"
	case CachedStale:
		return "cached_stale"
	case CachedFresh:
		return "cached_fresh"
	case PreconditionFailed:
		return "precondition_failed"
	default:
		return "unknown"
	}
}

// ETag is an opaque strong validator, stored without quotes.
type ETag string

// String returns the quoted header form.
func (t ETag) String() string {
	return `"` + string(t) + `"`
}

// Validator derives the ETag of a page from the timestamp of its first
// retained entry. The hash input is the UTC RFC 3339 form of the timestamp,
// so equal instants yield equal validators across processes.
func Validator(ts time.Time) ETag {
	return ETag(strconv.FormatUint(xxhash.Sum64String(ts.UTC().Format(time.RFC3339Nano)), 10))
}

// Preconditions are the conditional request headers of a client request.
type Preconditions struct {
	Method      string
	IfMatch     string
	IfNoneMatch string
}

// PreconditionsFromRequest extracts the conditional headers of r.
func PreconditionsFromRequest(r *http.Request) Preconditions {
	return Preconditions{
		Method:      r.Method,
		IfMatch:     r.Header.Get("If-Match"),
		IfNoneMatch: r.Header.Get("If-None-Match"),
	}
}

// CachePolicy holds the caching settings of a feed.
type CachePolicy struct {
	// MaxAge is advertised in Cache-Control for complete, explicitly requested pages.
	MaxAge time.Duration
}

// CacheControl returns the directive for a page, or "" when caching must not
// be advertised.
func (p CachePolicy) CacheControl(complete, current bool) string {
	if current || !complete {
		return ""
	}
	return fmt.Sprintf("no-transform, max-age=%d", int64(p.MaxAge/time.Second))
}

// Decision tells the transport how to answer.
type Decision struct {
	State        CacheState
	ETag         ETag
	CacheControl string
}

// HasBody reports whether a full representation must be built.
func (d Decision) HasBody() bool {
	return d.State == NotCached || d.State == CachedStale
}

// Advise computes the validator of page and evaluates the preconditions
// against it. current marks a request for the head page by its implicit URL.
func Advise[E any](policy CachePolicy, src EntrySource[E], page Page[E], pre Preconditions, current bool) (Decision, error) {
	if len(page.Entries) == 0 {
		return Decision{}, &PageNotFoundError{Page: page.Number}
	}

	d := Decision{
		ETag:         Validator(src.Timestamp(page.Entries[0])),
		CacheControl: policy.CacheControl(page.Complete, current),
	}

	switch {
	case pre.IfMatch != "" && !matchesAny(pre.IfMatch, d.ETag, false):
		d.State = PreconditionFailed
	case pre.IfNoneMatch != "" && matchesAny(pre.IfNoneMatch, d.ETag, true):
		if isSafe(pre.Method) {
			d.State = CachedFresh
		} else {
			d.State = PreconditionFailed
		}
	case d.CacheControl != "":
		d.State = CachedStale
	default:
		d.State = NotCached
	}

	return d, nil
}

func isSafe(method string) bool {
	return method == "" || method == http.MethodGet || method == http.MethodHead
}

// matchesAny compares etag against a list header value such as
// `"a", W/"b"` or `*`. Weak comparison ignores the W/ prefix; strong
// comparison never matches a weak tag.
func matchesAny(header string, etag ETag, weak bool) bool {
	header = strings.TrimSpace(header)
	if header == "*" {
		return true
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if strings.HasPrefix(candidate, "W/") {
			if !weak {
				continue
			}
			candidate = candidate[2:]
		}
		if strings.Trim(candidate, `"`) == string(etag) {
			return true
		}
	}
	return false
}
