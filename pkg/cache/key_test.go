package cache

import "testing"

func TestPageKey_String(t *testing.T) {
	tests := []struct {
		name string
		key  PageKey
		want string
	}{
		{
			name: "atom page",
			key:  PageKey{Feed: "orders", Page: 3, PageSize: 20, Format: "atom", ETag: "42"},
			want: "feed:page:orders:3:20:atom:42",
		},
		{
			name: "json page zero",
			key:  PageKey{Feed: "orders", Page: 0, PageSize: 5, Format: "json", ETag: "7"},
			want: "feed:page:orders:0:5:json:7",
		},
		{
			name: "colon in feed name",
			key:  PageKey{Feed: "a:b", Page: 1, PageSize: 2, Format: "atom", ETag: "1"},
			want: "feed:page:a_b:1:2:atom:1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.key.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPageKey_Deterministic(t *testing.T) {
	a := PageKey{Feed: "orders", Page: 1, PageSize: 2, Format: "atom", ETag: "9"}
	b := a
	if a.String() != b.String() {
		t.Error("equal keys produced different strings")
	}
	b.ETag = "10"
	if a.String() == b.String() {
		t.Error("different etags produced the same key")
	}
}

func TestFeedPattern(t *testing.T) {
	if got := FeedPattern("orders"); got != "feed:page:orders:*" {
		t.Errorf("FeedPattern() = %q", got)
	}
}
