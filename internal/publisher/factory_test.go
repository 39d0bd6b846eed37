package publisher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidatesCredentials(t *testing.T) {
	tests := []struct {
		name     string
		platform string
		creds    Credentials
		wantErr  string
	}{
		{
			name:     "unsupported platform",
			platform: "myspace",
			creds:    Credentials{},
			wantErr:  "unsupported platform: myspace",
		},
		{
			name:     "twitter missing token secret",
			platform: "twitter",
			creds: Credentials{
				"apiKey": "k", "apiSecret": "s", "accessToken": "t",
			},
			wantErr: `twitter channel is missing required credential "accessTokenSecret"`,
		},
		{
			name:     "telegram missing channel",
			platform: "telegram",
			creds:    Credentials{"botToken": "bot123"},
			wantErr:  `telegram channel is missing required credential "channelId"`,
		},
		{
			name:     "facebook empty value counts as missing",
			platform: "facebook",
			creds:    Credentials{"pageId": "123", "accessToken": ""},
			wantErr:  `facebook channel is missing required credential "accessToken"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.platform, tt.creds)
			require.Error(t, err)
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}

func TestNewConstructsAdapters(t *testing.T) {
	creds := map[string]Credentials{
		"twitter":  {"apiKey": "k", "apiSecret": "s", "accessToken": "t", "accessTokenSecret": "ts"},
		"facebook": {"pageId": "123", "accessToken": "t"},
		"telegram": {"botToken": "bot123", "channelId": "@chan"},
		"linkedin": {"accessToken": "t", "personUrn": "urn:li:person:1"},
	}

	for _, platform := range SupportedPlatforms() {
		p, err := New(platform, creds[platform])
		require.NoError(t, err, platform)
		assert.Equal(t, platform, p.Platform())
	}
}
