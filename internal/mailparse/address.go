package mailparse

import (
	"mime"
	"net/mail"
	"strings"
)

var wordDecoder = &mime.WordDecoder{}

// Sender is the parsed identity from a From header. Email is lower-cased and
// trimmed; Name is empty when the header carried a bare address.
type Sender struct {
	Email string
	Name  string
}

// ParseSender extracts a display name and normalized email address from a raw
// From header value such as "Jane Doe <jane@x.com>". MIME encoded-words in
// the display name are decoded. Parse failures fall back to treating the
// whole value as an address; an empty input yields a zero value.
func ParseSender(raw string) Sender {
	raw = decodeHeader(raw)
	if raw == "" {
		return Sender{}
	}
	if addr, err := mail.ParseAddress(raw); err == nil {
		return Sender{
			Email: NormalizeEmail(addr.Address),
			Name:  strings.TrimSpace(addr.Name),
		}
	}
	if list, err := mail.ParseAddressList(raw); err == nil && len(list) > 0 {
		return Sender{
			Email: NormalizeEmail(list[0].Address),
			Name:  strings.TrimSpace(list[0].Name),
		}
	}
	// Bare address, possibly wrapped in angle brackets.
	return Sender{Email: NormalizeEmail(strings.Trim(raw, "<> "))}
}

// ParseRecipient returns the first normalized address found in a To header
// value, used for brand resolution.
func ParseRecipient(raw string) string {
	raw = decodeHeader(raw)
	if raw == "" {
		return ""
	}
	if list, err := mail.ParseAddressList(raw); err == nil && len(list) > 0 {
		return NormalizeEmail(list[0].Address)
	}
	if addr, err := mail.ParseAddress(raw); err == nil {
		return NormalizeEmail(addr.Address)
	}
	return NormalizeEmail(strings.Trim(strings.Fields(raw)[0], "<>,"))
}

// NormalizeEmail lower-cases and trims an address so equality comparisons and
// uniqueness constraints behave case-insensitively.
func NormalizeEmail(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

func decodeHeader(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if decoded, err := wordDecoder.DecodeHeader(value); err == nil {
		return decoded
	}
	return value
}
