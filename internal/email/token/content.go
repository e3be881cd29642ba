// Package token implements the compact reply-by-email token protocol: a
// tag/value text format, symmetric encryption of that text, and the
// local+TOKEN@domain address form it travels in.
package token

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"streamnotify/internal/models"
)

// Tags for the token key-value content.
const (
	TagStreamID   = 's'
	TagActorID    = 'p'
	TagActivityID = 'a'
)

// Content is the small integer-keyed map a token carries.
type Content map[byte]int64

// ForStream builds the canonical content for replying into a person or group
// stream. Any other entity type is a programming error, not an input error.
func ForStream(streamID int64, entityType models.EntityType, actorID int64) (Content, error) {
	switch entityType {
	case models.EntityTypePerson, models.EntityTypeGroup:
		return Content{TagStreamID: streamID, TagActorID: actorID}, nil
	default:
		return nil, fmt.Errorf("stream tokens not supported for entity type %s", entityType)
	}
}

// ForActivity builds the canonical content for replying to an activity.
func ForActivity(activityID, actorID int64) Content {
	return Content{TagActivityID: activityID, TagActorID: actorID}
}

// Format renders content as concatenated tag+digits pairs, tags in sorted
// order so output is deterministic, e.g. {s:888, p:4507} -> "p4507s888".
func Format(c Content) string {
	tags := make([]byte, 0, len(c))
	for tag := range c {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })

	var b strings.Builder
	for _, tag := range tags {
		b.WriteByte(tag)
		b.WriteString(strconv.FormatInt(c[tag], 10))
	}
	return b.String()
}

// Parse decomposes a formatted string back into content. Parsing is strict:
// the whole string must be complete tag+digit-run pairs, every tag a lower
// case letter followed by at least one digit, nothing left over. Any
// deviation returns nil; inbound tokens are untrusted input and absence is
// the failure signal, not an error.
func Parse(s string) Content {
	if s == "" {
		return nil
	}
	c := make(Content)
	i := 0
	for i < len(s) {
		tag := s[i]
		if tag < 'a' || tag > 'z' {
			return nil
		}
		i++
		start := i
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
		}
		if i == start {
			return nil
		}
		value, err := strconv.ParseInt(s[start:i], 10, 64)
		if err != nil {
			return nil
		}
		c[tag] = value
	}
	if len(c) == 0 {
		return nil
	}
	return c
}
