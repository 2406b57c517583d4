package direct

import "errors"

var errDomainDestination = errors.New("direct: destination must already be resolved to an IP address")
