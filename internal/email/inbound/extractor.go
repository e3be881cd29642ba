package inbound

import (
	"io"
	"regexp"
	"strings"

	"github.com/emersion/go-message"
)

// ContentExtractor pulls the author's own text out of an inbound reply:
// depth-first through nested multiparts for the first plain-text
// non-attachment part, then cut off quoted boilerplate at the earliest
// configured marker.
type ContentExtractor struct {
	markers      []string
	regexMarkers []*regexp.Regexp
}

func NewContentExtractor(markers []string, regexMarkers []string) (*ContentExtractor, error) {
	var compiled []*regexp.Regexp
	for _, pattern := range regexMarkers {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, re)
	}
	return &ContentExtractor{markers: markers, regexMarkers: compiled}, nil
}

// Extract returns the trimmed reply text and whether any was found. A
// whitespace-only part does not count; absence of content is distinct from
// empty content.
func (e *ContentExtractor) Extract(entity *message.Entity) (string, bool) {
	return e.walk(entity)
}

func (e *ContentExtractor) walk(entity *message.Entity) (string, bool) {
	if mr := entity.MultipartReader(); mr != nil {
		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				return "", false
			}
			if text, ok := e.walk(part); ok {
				return text, ok
			}
		}
		return "", false
	}

	if !isCandidate(entity) {
		return "", false
	}
	body, err := io.ReadAll(entity.Body)
	if err != nil {
		return "", false
	}
	text := strings.TrimSpace(e.truncateAtMarker(string(body)))
	if text == "" {
		return "", false
	}
	return text, true
}

func isCandidate(entity *message.Entity) bool {
	mediaType, _, err := entity.Header.ContentType()
	if err != nil || mediaType != "text/plain" {
		return false
	}
	disposition, _, err := entity.Header.ContentDisposition()
	if err == nil && disposition == "attachment" {
		return false
	}
	return true
}

// truncateAtMarker cuts the text at the earliest match across both the
// literal and regex marker sets, whichever marker a top-down scan reaches
// first.
func (e *ContentExtractor) truncateAtMarker(text string) string {
	cut := len(text)
	for _, marker := range e.markers {
		if idx := strings.Index(text, marker); idx >= 0 && idx < cut {
			cut = idx
		}
	}
	for _, re := range e.regexMarkers {
		if loc := re.FindStringIndex(text); loc != nil && loc[0] < cut {
			cut = loc[0]
		}
	}
	return text[:cut]
}
