package fmri

import (
	"errors"
	"fmt"
)

// ErrLoad reports that a required image source yielded nothing loadable.
var ErrLoad = errors.New("cannot load image")

// ErrUnknownHeaderType reports a header snapshot whose hdrtype tag has no
// registered constructor.
var ErrUnknownHeaderType = errors.New("unknown header type")

// HeaderIncompatibleError reports an image class / header pairing the
// inverse mapper cannot produce an image for.
type HeaderIncompatibleError struct {
	Class  string
	Header string
}

func (e *HeaderIncompatibleError) Error() string {
	return fmt.Sprintf("cannot generate an image for imgtype=%q with header %q", e.Class, e.Header)
}
