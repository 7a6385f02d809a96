package routing

import "strings"

// ResolveIdentity picks the key a session is stored under.
//
// Scopes:
//   - "user": the platform's stable user id, falling back to the
//     conversation when the platform sends none (default)
//   - "conversation": one session per platform conversation
func ResolveIdentity(userID, sessionPath, scope string) string {
	userID = strings.TrimSpace(userID)

	switch scope {
	case "conversation":
		return sessionPath
	default:
		if userID != "" {
			return "user:" + userID
		}
		return sessionPath
	}
}
