package entity

import "errors"

// ErrMalformedLine indicates a provisioning line without a service,secret pair.
var ErrMalformedLine = errors.New("authenticator: malformed line")
