// Package notification decodes chat-webhook style notifications and extracts
// right-to-erasure deletion intents from their free-text descriptions.
package notification

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/sungwon/erasure-bridge/internal/signature"
)

var (
	// ErrMalformedPayload is the root of every structural payload error.
	ErrMalformedPayload = errors.New("invalid payload")
	// ErrEmbedsMissing is returned when the payload carries no embeds.
	ErrEmbedsMissing = fmt.Errorf("%w: embeds missing", ErrMalformedPayload)
	// ErrFooterMissing is returned when the first embed has no footer text.
	ErrFooterMissing = fmt.Errorf("%w: footer data missing", ErrMalformedPayload)
)

// Payload is the inbound webhook body.
type Payload struct {
	Embeds []Embed `json:"embeds"`
}

// Embed is one rich entry of a notification. Only the first is consulted.
type Embed struct {
	Title       string  `json:"title,omitempty"`
	Description string  `json:"description"`
	Footer      *Footer `json:"footer,omitempty"`
}

// Footer carries the sender's authentication metadata as free text.
type Footer struct {
	IconURL string `json:"icon_url,omitempty"`
	Text    string `json:"text,omitempty"`
}

// Decode reads a Payload from r. Any decoding failure is reported as
// ErrMalformedPayload.
func Decode(r io.Reader) (*Payload, error) {
	var p Payload
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return &p, nil
}

// Primary returns the first embed after checking that it exists and that its
// footer text is present.
func (p *Payload) Primary() (Embed, error) {
	if p == nil || len(p.Embeds) == 0 {
		return Embed{}, ErrEmbedsMissing
	}
	embed := p.Embeds[0]
	if embed.Footer == nil || embed.Footer.Text == "" {
		return Embed{}, ErrFooterMissing
	}
	return embed, nil
}

const (
	userIDMarker      = "User Id:"
	universeIDsMarker = "game(s) with Ids:"
)

var (
	// The user id runs up to the first 'i' or 'n'. Real notifications read
	// "User Id: 123 in the following game(s) ...", so the cut lands on "in".
	// Ids containing either letter are truncated; this boundary is kept as is.
	userIDPattern      = regexp.MustCompile(`User Id: ([^in]+)`)
	universeIDsPattern = regexp.MustCompile(`game\(s\) with Ids: ([^\s]+)`)
	signaturePattern   = regexp.MustCompile(`Roblox-Signature: ([^,]+)`)
	timestampPattern   = regexp.MustCompile(`Timestamp: (\d+)`)
)

// Intent is a parsed deletion request: one user across one or more tenants,
// which are named by their external universe ids.
type Intent struct {
	UserID      string
	UniverseIDs []string
}

// FirstUniverseID returns the first referenced universe id, or "".
func (i Intent) FirstUniverseID() string {
	if len(i.UniverseIDs) == 0 {
		return ""
	}
	return i.UniverseIDs[0]
}

// IsDeletionRequest reports whether the description uses the deletion grammar.
func IsDeletionRequest(description string) bool {
	return strings.Contains(description, userIDMarker) &&
		strings.Contains(description, universeIDsMarker)
}

// ParseIntent extracts the deletion intent from a description. ok is false
// when the description is not a deletion request or either field cannot be
// extracted; callers treat both cases as a no-op.
func ParseIntent(description string) (intent Intent, ok bool) {
	if !IsDeletionRequest(description) {
		return Intent{}, false
	}

	userMatch := userIDPattern.FindStringSubmatch(description)
	idsMatch := universeIDsPattern.FindStringSubmatch(description)
	if userMatch == nil || idsMatch == nil {
		return Intent{}, false
	}

	userID := strings.TrimSpace(userMatch[1])
	if userID == "" {
		return Intent{}, false
	}

	parts := strings.Split(idsMatch[1], ",")
	ids := make([]string, len(parts))
	for i, part := range parts {
		ids[i] = strings.TrimSpace(part)
	}

	return Intent{UserID: userID, UniverseIDs: ids}, true
}

// ParseFooter extracts the signature and timestamp from footer text. Missing
// values are left empty, which signature.Verify treats as unsigned.
func ParseFooter(text string) signature.Material {
	var m signature.Material
	if match := signaturePattern.FindStringSubmatch(text); match != nil {
		m.Signature = match[1]
	}
	if match := timestampPattern.FindStringSubmatch(text); match != nil {
		m.Timestamp = strings.TrimSpace(match[1])
	}
	return m
}

// Format renders a deletion notification in the grammar ParseIntent reads.
// It is used by the operator CLI to build test deliveries.
func Format(userID string, universeIDs []string) string {
	return fmt.Sprintf("You have received a Right To Erasure request for the following User Id: %s in the following game(s) with Ids: %s",
		userID, strings.Join(universeIDs, ","))
}

// FooterText renders the footer carrying a signature and timestamp.
func FooterText(sig, timestamp string) string {
	return fmt.Sprintf("Roblox-Signature: %s, Timestamp: %s", sig, timestamp)
}
