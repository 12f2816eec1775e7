// Package address turns free-text user input into a structured street address.
package address

import (
	"regexp"
	"strings"

	"nearest-departures/internal/general/contracts"
	"nearest-departures/internal/general/errstatus"
)

const (
	MsgAddressNull     = "Address is null"
	MsgAddressInvalid  = "Address input not valid"
	detailAddressEmpty = "Address must not be absent"
)

// street: letters, whitespace, dots and hyphens; house number: digits plus an optional letter
var pattern = regexp.MustCompile(`^([\p{L}\s.-]+)\s+(\d+[a-zA-Z]?)$`)

// Parse reads "<street> <house number>", e.g. "Jungfernstieg 1" or "Berliner Tor 5a".
// City and country are left empty. A non-matching input yields an INVALID_ARGUMENT status.
func Parse(text string) (contracts.Address, error) {
	in := strings.TrimSpace(text)
	m := pattern.FindStringSubmatch(in)
	if m == nil {
		return contracts.Address{}, errstatus.InvalidArgument(MsgAddressInvalid, text)
	}
	return contracts.Address{
		Street:      strings.TrimSpace(m[1]),
		HouseNumber: m[2],
	}, nil
}

// ParsePtr is Parse for an optional field; nil is rejected as absent.
func ParsePtr(text *string) (contracts.Address, error) {
	if text == nil {
		return contracts.Address{}, errstatus.InvalidArgument(MsgAddressNull, detailAddressEmpty)
	}
	return Parse(*text)
}
