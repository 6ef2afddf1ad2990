package httpmsg

import "errors"

// errMalformedHeader indicates a header line had no ":" separator.
var errMalformedHeader = errors.New("httpmsg: malformed header line")
