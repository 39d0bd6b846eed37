package publisher

import (
	"fmt"
	"sort"
)

// Credentials is the opaque per-platform secret bag stored on a Channel.
type Credentials map[string]string

// requiredCredentials lists the keys each platform must provide before an
// adapter can be constructed.
var requiredCredentials = map[string][]string{
	"twitter":  {"apiKey", "apiSecret", "accessToken", "accessTokenSecret"},
	"facebook": {"pageId", "accessToken"},
	"telegram": {"botToken", "channelId"},
	"linkedin": {"accessToken", "personUrn"},
}

// SupportedPlatforms returns the platform identifiers with an adapter.
func SupportedPlatforms() []string {
	platforms := make([]string, 0, len(requiredCredentials))
	for p := range requiredCredentials {
		platforms = append(platforms, p)
	}
	sort.Strings(platforms)
	return platforms
}

// New validates the credential bag and constructs the adapter for the
// given platform. Validation failures carry the offending key so operators
// can fix channel configuration.
func New(platform string, creds Credentials) (Publisher, error) {
	required, ok := requiredCredentials[platform]
	if !ok {
		return nil, fmt.Errorf("unsupported platform: %s", platform)
	}
	for _, key := range required {
		if creds[key] == "" {
			return nil, fmt.Errorf("%s channel is missing required credential %q", platform, key)
		}
	}

	switch platform {
	case "twitter":
		return newTwitter(creds), nil
	case "facebook":
		return newFacebook(creds), nil
	case "telegram":
		return newTelegram(creds), nil
	case "linkedin":
		return newLinkedIn(creds), nil
	}
	return nil, fmt.Errorf("unsupported platform: %s", platform)
}
