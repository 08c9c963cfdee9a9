package mailparse

import (
	"bytes"
	"errors"
	"io"
	"strings"

	gomessage "github.com/emersion/go-message"
	gomail "github.com/emersion/go-message/mail"
	htmlcharset "golang.org/x/net/html/charset"
)

func init() {
	gomessage.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		return htmlcharset.NewReaderLabel(charset, input)
	}
}

const maxRawBodyBytes = 256 * 1024

// Envelope is the flattened result of parsing a full raw MIME message, shaped
// like the form fields of the inbound webhook so both entry paths feed the
// same pipeline.
type Envelope struct {
	From    string
	To      string
	Subject string
	Text    string
	HTML    string
	Headers Headers
}

// ParseRaw decodes a complete RFC 5322 message. It prefers the first
// text/plain inline part for Text and keeps the first text/html part
// separately; bodies are capped at 256 KiB. Threading headers are taken from
// the top-level header, verbatim.
func ParseRaw(raw []byte) (Envelope, error) {
	var env Envelope
	if len(raw) == 0 {
		return env, errors.New("mailparse: empty message")
	}
	reader, err := gomail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return env, err
	}
	env.From = reader.Header.Get("From")
	env.To = reader.Header.Get("To")
	if subject, serr := reader.Header.Subject(); serr == nil {
		env.Subject = subject
	} else {
		env.Subject = decodeHeader(reader.Header.Get("Subject"))
	}
	env.Headers = Headers{
		MessageID:  strings.TrimSpace(reader.Header.Get("Message-Id")),
		References: strings.TrimSpace(reader.Header.Get("References")),
		InReplyTo:  strings.TrimSpace(reader.Header.Get("In-Reply-To")),
	}
	for {
		part, perr := reader.NextPart()
		if errors.Is(perr, io.EOF) {
			break
		}
		if perr != nil {
			break
		}
		inline, ok := part.Header.(*gomail.InlineHeader)
		if !ok {
			continue
		}
		mediaType, _, cterr := inline.ContentType()
		if cterr != nil {
			mediaType = "text/plain"
		}
		body, rerr := io.ReadAll(io.LimitReader(part.Body, maxRawBodyBytes))
		if rerr != nil {
			continue
		}
		switch {
		case strings.HasPrefix(mediaType, "text/plain"):
			if env.Text == "" {
				env.Text = string(body)
			}
		case strings.HasPrefix(mediaType, "text/html"):
			if env.HTML == "" {
				env.HTML = string(body)
			}
		default:
			if env.Text == "" && env.HTML == "" {
				env.Text = string(body)
			}
		}
	}
	return env, nil
}
