package ai

import "strings"

// ResolveCredential picks the API key used for a call. The process
// environment takes precedence over a key supplied for one session.
func ResolveCredential(envKey, sessionOverride string) (string, bool) {
	if key := strings.TrimSpace(envKey); key != "" {
		return key, true
	}
	if key := strings.TrimSpace(sessionOverride); key != "" {
		return key, true
	}
	return "", false
}
