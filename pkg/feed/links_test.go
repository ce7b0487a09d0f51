package feed

import (
	"math"
	"reflect"
	"testing"

	"github.com/Sternrassler/atom-feed-server/pkg/atom"
)

func TestBuildLinks(t *testing.T) {
	tests := []struct {
		name     string
		page     int64
		complete bool
		want     []atom.Link
	}{
		{
			name:     "page 0 complete",
			page:     0,
			complete: true,
			want: []atom.Link{
				{Rel: "last", Href: "/0/2"},
				{Rel: "previous", Href: "/1/2"},
				{Rel: "self", Href: "/0/2"},
			},
		},
		{
			name:     "page 0 incomplete",
			page:     0,
			complete: false,
			want: []atom.Link{
				{Rel: "last", Href: "/0/2"},
				{Rel: "self", Href: "/0/2"},
			},
		},
		{
			name:     "page 1 complete",
			page:     1,
			complete: true,
			want: []atom.Link{
				{Rel: "last", Href: "/0/2"},
				{Rel: "next", Href: "/0/2"},
				{Rel: "previous", Href: "/2/2"},
				{Rel: "self", Href: "/1/2"},
			},
		},
		{
			name:     "page 1 incomplete",
			page:     1,
			complete: false,
			want: []atom.Link{
				{Rel: "last", Href: "/0/2"},
				{Rel: "next", Href: "/0/2"},
				{Rel: "self", Href: "/1/2"},
			},
		},
		{
			name:     "page 9 complete",
			page:     9,
			complete: true,
			want: []atom.Link{
				{Rel: "last", Href: "/0/2"},
				{Rel: "next", Href: "/8/2"},
				{Rel: "previous", Href: "/10/2"},
				{Rel: "self", Href: "/9/2"},
			},
		},
		{
			name:     "page 9 incomplete",
			page:     9,
			complete: false,
			want: []atom.Link{
				{Rel: "last", Href: "/0/2"},
				{Rel: "next", Href: "/8/2"},
				{Rel: "self", Href: "/9/2"},
			},
		},
		{
			name:     "last representable page never links past itself",
			page:     math.MaxInt64,
			complete: true,
			want: []atom.Link{
				{Rel: "last", Href: "/0/2"},
				{Rel: "next", Href: "/9223372036854775806/2"},
				{Rel: "self", Href: "/9223372036854775807/2"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildLinks(tt.page, 2, tt.complete)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("BuildLinks(%d, 2, %v) = %v, want %v", tt.page, tt.complete, got, tt.want)
			}
		})
	}
}

func TestPageHref(t *testing.T) {
	if got := PageHref(12, 50); got != "/12/50" {
		t.Errorf("PageHref(12, 50) = %q, want %q", got, "/12/50")
	}
}
