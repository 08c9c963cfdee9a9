package mailparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSender(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Sender
	}{
		{
			name: "display name and address",
			raw:  "Jane Doe <Jane@Example.COM>",
			want: Sender{Email: "jane@example.com", Name: "Jane Doe"},
		},
		{
			name: "bare address",
			raw:  "bob@example.com",
			want: Sender{Email: "bob@example.com"},
		},
		{
			name: "angle brackets only",
			raw:  "<bob@example.com>",
			want: Sender{Email: "bob@example.com"},
		},
		{
			name: "quoted display name",
			raw:  `"Doe, Jane" <jane@example.com>`,
			want: Sender{Email: "jane@example.com", Name: "Doe, Jane"},
		},
		{
			name: "mime encoded display name",
			raw:  "=?UTF-8?Q?Jos=C3=A9?= <jose@example.com>",
			want: Sender{Email: "jose@example.com", Name: "José"},
		},
		{
			name: "empty",
			raw:  "",
			want: Sender{},
		},
		{
			name: "whitespace only",
			raw:  "   ",
			want: Sender{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseSender(tt.raw))
		})
	}
}

func TestParseRecipient(t *testing.T) {
	assert.Equal(t, "support@acme.com", ParseRecipient("Acme Support <Support@Acme.com>"))
	assert.Equal(t, "a@x.com", ParseRecipient("a@x.com, b@x.com"))
	assert.Equal(t, "", ParseRecipient(""))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "user@host.com", NormalizeEmail("  User@Host.COM "))
}
