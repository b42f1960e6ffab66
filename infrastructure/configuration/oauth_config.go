package configuration

import (
	"os"
	"strings"
)

// YouTubeOAuthConfig carries the OAuth client used for the video-platform
// connect flow. The redirect URL must match the provider-registered callback
// byte for byte, so it is derived from the gateway configuration, not rebuilt
// ad hoc by handlers.
type YouTubeOAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// GetYouTubeOAuthConfig returns the YouTube OAuth client configuration with
// environment variable fallback.
func GetYouTubeOAuthConfig() *YouTubeOAuthConfig {
	return &YouTubeOAuthConfig{
		ClientID:     getConfigValue(C.OAuth.YouTube.ClientID, "GOOGLE_CLIENT_ID", ""),
		ClientSecret: getConfigValue(C.OAuth.YouTube.ClientSecret, "GOOGLE_CLIENT_SECRET", ""),
		RedirectURL:  getConfigValue(C.Gateway.CallbackURL, "GATEWAY_CALLBACK_URL", ""),
	}
}

// FacebookOAuthConfig carries the Graph API app credentials for the page
// publish adapter.
type FacebookOAuthConfig struct {
	ClientID     string
	ClientSecret string
}

func GetFacebookOAuthConfig() *FacebookOAuthConfig {
	return &FacebookOAuthConfig{
		ClientID:     getConfigValue(C.OAuth.Facebook.ClientID, "FACEBOOK_CLIENT_ID", ""),
		ClientSecret: getConfigValue(C.OAuth.Facebook.ClientSecret, "FACEBOOK_CLIENT_SECRET", ""),
	}
}

// getConfigValue gets value from environment first, then config, then default
func getConfigValue(configValue, envKey, defaultValue string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	if configValue != "" && !strings.HasPrefix(configValue, "YOUR_") {
		return configValue
	}
	return defaultValue
}
