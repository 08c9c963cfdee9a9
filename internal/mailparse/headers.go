// Package mailparse extracts threading and sender information from inbound
// email payloads before they reach the ingestion pipeline.
package mailparse

import "strings"

// Headers holds the threading-relevant header values of an inbound email.
// Values are kept verbatim (angle brackets included) so that reference-id
// matching stays an exact string comparison end to end.
type Headers struct {
	MessageID  string
	References string
	InReplyTo  string
}

// ParseHeaders scans a raw header blob line by line for Message-ID,
// References and In-Reply-To. Matching is case-insensitive and the first
// occurrence of each header wins. Folded continuation lines are not
// reassembled. Absent or malformed input yields a zero value, never an error.
func ParseHeaders(raw string) Headers {
	var h Headers
	if strings.TrimSpace(raw) == "" {
		return h
	}
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimRight(line, "\r")
		lower := strings.ToLower(line)
		switch {
		case strings.HasPrefix(lower, "message-id:"):
			if h.MessageID == "" {
				h.MessageID = strings.TrimSpace(line[len("message-id:"):])
			}
		case strings.HasPrefix(lower, "references:"):
			if h.References == "" {
				h.References = strings.TrimSpace(line[len("references:"):])
			}
		case strings.HasPrefix(lower, "in-reply-to:"):
			if h.InReplyTo == "" {
				h.InReplyTo = strings.TrimSpace(line[len("in-reply-to:"):])
			}
		}
	}
	return h
}

// ReferenceCandidates builds the ordered list of reference ids to try when
// matching an inbound message to an existing thread: In-Reply-To first, then
// each whitespace-separated token of References. Duplicates are dropped while
// preserving order.
func (h Headers) ReferenceCandidates() []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(id string) {
		id = strings.TrimSpace(id)
		if id == "" {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	add(h.InReplyTo)
	for _, token := range strings.Fields(h.References) {
		add(token)
	}
	return out
}
