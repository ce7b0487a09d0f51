// Package atom defines the transport representation of a feed page and the
// encoders that serialize it as Atom XML or JSON.
package atom

import (
	"encoding/xml"
	"time"
)

// Namespace is the Atom 1.0 XML namespace.
const Namespace = "http://www.w3.org/2005/Atom"

// Link relation names.
const (
	RelSelf     = "self"
	RelNext     = "next"
	RelPrevious = "previous"
	RelLast     = "last"
)

// Feed is one page of a feed as sent to clients.
type Feed struct {
	XMLName   xml.Name  `xml:"http://www.w3.org/2005/Atom feed" json:"-"`
	Base      string    `xml:"http://www.w3.org/XML/1998/namespace base,attr,omitempty" json:"base"`
	ID        string    `xml:"id" json:"id"`
	Title     string    `xml:"title" json:"title"`
	Updated   time.Time `xml:"updated" json:"updated"`
	Generator Generator `xml:"generator" json:"generator"`
	Links     []Link    `xml:"link" json:"links"`
	Entries   []Entry   `xml:"entry" json:"entries"`
}

// Generator identifies the software that produced the feed.
type Generator struct {
	Text    string `xml:",chardata" json:"text"`
	URI     string `xml:"uri,attr,omitempty" json:"uri,omitempty"`
	Version string `xml:"version,attr,omitempty" json:"version,omitempty"`
}

// Link is a navigation link. Href is relative to the feed base.
type Link struct {
	Rel  string `xml:"rel,attr" json:"rel"`
	Href string `xml:"href,attr" json:"href"`
}

// Entry wraps one domain event.
type Entry struct {
	ID      string    `xml:"id" json:"id"`
	Updated time.Time `xml:"updated" json:"updated"`
	Content Content   `xml:"content" json:"content"`
}

// Content carries the transport form of the event. For XML output the value
// is marshaled as a child element named after its XMLName (or type name).
type Content struct {
	Type  string `xml:"type,attr" json:"type"`
	Value any    `xml:",any" json:"value"`
}

// Link returns the link with the given relation, if present.
func (f *Feed) Link(rel string) (Link, bool) {
	for _, l := range f.Links {
		if l.Rel == rel {
			return l, true
		}
	}
	return Link{}, false
}
