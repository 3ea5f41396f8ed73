package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const maxDetailLen = 200

// statusDetail pulls a short human-readable explanation out of an error body.
// FastAPI-style JSON ({"detail": ...}), HTML error pages from the hosting
// proxy, and plain text are understood. Other JSON yields "".
func statusDetail(contentType string, body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return ""
	}

	// A JSON body without a detail key carries nothing worth showing.
	if (trimmed[0] == '{' || trimmed[0] == '[') && json.Valid(trimmed) {
		return truncate(jsonDetail(trimmed))
	}

	if strings.Contains(contentType, "html") || trimmed[0] == '<' {
		if d := htmlDetail(trimmed); d != "" {
			return truncate(d)
		}
		return ""
	}

	return truncate(collapse(string(trimmed)))
}

func jsonDetail(body []byte) string {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	for _, key := range []string{"detail", "error", "message"} {
		v, ok := payload[key]
		if !ok || v == nil {
			continue
		}
		switch val := v.(type) {
		case string:
			if s := strings.TrimSpace(val); s != "" {
				return s
			}
		default:
			// FastAPI validation errors come back as a list of objects.
			b, err := json.Marshal(val)
			if err == nil {
				return string(b)
			}
			return fmt.Sprint(val)
		}
	}
	return ""
}

func htmlDetail(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	if title := collapse(doc.Find("title").First().Text()); title != "" {
		return title
	}
	if h := collapse(doc.Find("h1").First().Text()); h != "" {
		return h
	}
	return collapse(doc.Find("body").Text())
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= maxDetailLen {
		return s
	}
	return string(r[:maxDetailLen]) + "..."
}
