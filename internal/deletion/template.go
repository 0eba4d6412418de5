package deletion

import "strings"

// Placeholders recognised in rule templates. Each is replaced by the user id.
const (
	PlaceholderUserID   = "{userId}"
	PlaceholderPlayerID = "{playerId}"
)

// Substitute replaces every placeholder occurrence in template with userID.
// Text without placeholders is returned unchanged.
func Substitute(template, userID string) string {
	return strings.NewReplacer(
		PlaceholderUserID, userID,
		PlaceholderPlayerID, userID,
	).Replace(template)
}
