package mailbox

import "strings"

// Address is an email address with an optional display name.
type Address struct {
	Address     string `json:"address"`
	DisplayName string `json:"display_name,omitempty"`
}

// Domain returns the part of the address after the final "@", lowercased.
// Addresses without an "@" yield the empty string.
func (a Address) Domain() string {
	at := strings.LastIndex(a.Address, "@")
	if at == -1 {
		return ""
	}
	return strings.ToLower(strings.Trim(a.Address[at+1:], ". "))
}

func (a Address) String() string {
	if a.DisplayName != "" {
		return a.DisplayName + " <" + a.Address + ">"
	}
	return a.Address
}
