package atom

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"

	"github.com/munnerz/goautoneg"
)

// Media types served by the encoders.
const (
	MediaTypeAtom = "application/atom+xml"
	MediaTypeJSON = "application/json"
)

// Encoder serializes a feed page.
type Encoder interface {
	// Name is a short stable identifier, used in cache keys.
	Name() string
	ContentType() string
	Encode(w io.Writer, f *Feed) error
}

// XMLEncoder writes Atom 1.0 XML.
type XMLEncoder struct{}

func (XMLEncoder) Name() string        { return "atom" }
func (XMLEncoder) ContentType() string { return MediaTypeAtom + "; charset=utf-8" }

func (XMLEncoder) Encode(w io.Writer, f *Feed) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("write xml header: %w", err)
	}
	if err := xml.NewEncoder(w).Encode(f); err != nil {
		return fmt.Errorf("encode atom feed: %w", err)
	}
	return nil
}

// JSONEncoder writes the JSON flavour of the feed.
type JSONEncoder struct{}

func (JSONEncoder) Name() string        { return "json" }
func (JSONEncoder) ContentType() string { return MediaTypeJSON + "; charset=utf-8" }

func (JSONEncoder) Encode(w io.Writer, f *Feed) error {
	if err := json.NewEncoder(w).Encode(f); err != nil {
		return fmt.Errorf("encode json feed: %w", err)
	}
	return nil
}

var offered = []string{MediaTypeAtom, MediaTypeJSON, "application/xml", "text/xml"}

// Negotiate picks an encoder for an Accept header. Atom is the default when
// the header is empty or nothing acceptable is offered.
func Negotiate(accept string) Encoder {
	if accept == "" {
		return XMLEncoder{}
	}
	if goautoneg.Negotiate(accept, offered) == MediaTypeJSON {
		return JSONEncoder{}
	}
	return XMLEncoder{}
}
