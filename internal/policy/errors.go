package policy

import "errors"

// ErrRedirectProhibited is returned by CheckRedirect for a refused hop.
var ErrRedirectProhibited = errors.New("redirect to prohibited URL")
