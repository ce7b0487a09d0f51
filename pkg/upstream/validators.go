package upstream

import (
	"net/http"
	"time"
)

// Validators are the cache validators of the last full upstream response.
type Validators struct {
	ETag         string
	LastModified time.Time
}

// Empty reports whether a conditional request is possible.
func (v Validators) Empty() bool {
	return v.ETag == "" && v.LastModified.IsZero()
}

// Apply adds If-None-Match or, failing that, If-Modified-Since to req.
func (v Validators) Apply(req *http.Request) {
	if req == nil {
		return
	}
	if v.ETag != "" {
		req.Header.Set("If-None-Match", v.ETag)
	} else if !v.LastModified.IsZero() {
		req.Header.Set("If-Modified-Since", v.LastModified.UTC().Format(http.TimeFormat))
	}
}

// validatorsFromResponse reads ETag and Last-Modified from a response.
func validatorsFromResponse(resp *http.Response) Validators {
	v := Validators{ETag: resp.Header.Get("ETag")}
	if s := resp.Header.Get("Last-Modified"); s != "" {
		if t, err := http.ParseTime(s); err == nil {
			v.LastModified = t
		}
	}
	return v
}
