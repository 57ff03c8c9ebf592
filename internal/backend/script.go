package backend

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// WrapPayload prefixes a PHP body with its input decoded from a
// base64-encoded JSON blob into $input. Caller values never appear in
// the PHP source itself, so quoting and interpolation attacks are off
// the table.
func WrapPayload(body string, payload any) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode script payload: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(data)
	return fmt.Sprintf("$input = json_decode(base64_decode('%s'), TRUE);\n%s", encoded, body), nil
}

func encodePHP(php string) string {
	return base64.StdEncoding.EncodeToString([]byte(php))
}

// FlexInt tolerates Drupal printing entity ids as either JSON numbers
// or strings.
type FlexInt int64

func (f *FlexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("parse id %q: %w", s, err)
	}
	*f = FlexInt(n)
	return nil
}

// Trailer is the single-line JSON object every generated script prints
// last. Anything the script (or Drupal) writes before it is noise and
// is ignored.
type Trailer struct {
	Success         bool    `json:"success"`
	Error           string  `json:"error,omitempty"`
	Message         string  `json:"message,omitempty"`
	NID             FlexInt `json:"nid,omitempty"`
	RevisionID      FlexInt `json:"revision_id,omitempty"`
	ModerationState string  `json:"moderation_state,omitempty"`
	Value           string  `json:"value,omitempty"`
}

// ParseTrailer extracts the trailer from script stdout. Drush may emit
// warnings or deprecation notices on earlier lines; only the last
// non-empty line counts.
func ParseTrailer(stdout string) (*Trailer, error) {
	trimmed := strings.TrimSpace(stdout)
	if trimmed == "" {
		return nil, fmt.Errorf("empty script output")
	}

	lines := strings.Split(trimmed, "\n")
	last := strings.TrimSpace(lines[len(lines)-1])

	var t Trailer
	if err := json.Unmarshal([]byte(last), &t); err != nil {
		return nil, fmt.Errorf("malformed script output %q: %w", clip(last, 120), err)
	}
	return &t, nil
}

// ParseTrailerInto behaves like ParseTrailer but decodes into an
// arbitrary shape, for scripts that return lists.
func ParseTrailerInto(stdout string, v any) error {
	trimmed := strings.TrimSpace(stdout)
	if trimmed == "" {
		return fmt.Errorf("empty script output")
	}
	lines := strings.Split(trimmed, "\n")
	last := strings.TrimSpace(lines[len(lines)-1])
	if err := json.Unmarshal([]byte(last), v); err != nil {
		return fmt.Errorf("malformed script output %q: %w", clip(last, 120), err)
	}
	return nil
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
