package executor

import (
	"strings"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
)

// decoder turns raw process output into text. Invalid sequences become
// U+FFFD.
type decoder struct {
	enc encoding.Encoding
}

func newDecoder(name string) (*decoder, error) {
	if name == "" {
		return &decoder{enc: unicode.UTF8}, nil
	}

	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, errors.Wrapf(err, "unsupported output encoding: '%s'", name)
	}
	return &decoder{enc: enc}, nil
}

func (d *decoder) decode(b []byte) string {
	if d.enc == unicode.UTF8 {
		return strings.ToValidUTF8(string(b), string(utf8.RuneError))
	}

	s, err := d.enc.NewDecoder().Bytes(b)
	if err != nil {
		return strings.ToValidUTF8(string(b), string(utf8.RuneError))
	}
	return string(s)
}
