package bot

import "strings"

// Allowlist is the set of chat ids allowed to use the bot. An empty list
// allows everyone, which keeps local development usable without config.
type Allowlist map[string]struct{}

// ParseAllowlist builds an Allowlist from a comma-separated id list.
func ParseAllowlist(raw string) Allowlist {
	list := make(Allowlist)
	for _, id := range strings.Split(raw, ",") {
		id = strings.TrimSpace(id)
		if id != "" {
			list[id] = struct{}{}
		}
	}
	return list
}

// Allowed reports whether chatID may use the bot.
func (a Allowlist) Allowed(chatID string) bool {
	if len(a) == 0 {
		return true
	}
	_, ok := a[chatID]
	return ok
}
