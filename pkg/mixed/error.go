package mixed

import "errors"

var errUnableToPeek = errors.New("mixed: unable to peek leading byte")
