package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Vovarama1992/miniapp-relay/internal/avatar"
)

var ErrMissing = errors.New("required setting is not set")

const (
	KeyBotToken         = "BOT_TOKEN"
	KeyAdminID          = "ADMIN_ID"
	KeyWebAppURL        = "WEB_APP_URL"
	KeyPort             = "PORT"
	KeyPollTimeout      = "POLL_TIMEOUT"
	KeyRetryBackoff     = "RETRY_BACKOFF"
	KeyHTTPTimeout      = "HTTP_TIMEOUT"
	KeyAvatarEncoding   = "AVATAR_ENCODING"
	KeyAvatarSize       = "AVATAR_SIZE"
	KeyPublicBaseURL    = "PUBLIC_BASE_URL"
	KeyWelcomeWithPhoto = "WELCOME_WITH_PHOTO"
)

type Config struct {
	BotToken  string
	AdminID   string
	WebAppURL string
	Port      string

	PollTimeout  time.Duration
	RetryBackoff time.Duration
	HTTPTimeout  time.Duration

	AvatarEncoding   avatar.Encoding
	AvatarTier       avatar.Tier
	PublicBaseURL    string
	WelcomeWithPhoto bool
}

// NewViper reads settings from the environment with the documented defaults.
func NewViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault(KeyPort, "8080")
	v.SetDefault(KeyPollTimeout, "10s")
	v.SetDefault(KeyRetryBackoff, "5s")
	v.SetDefault(KeyHTTPTimeout, "10s")
	v.SetDefault(KeyAvatarEncoding, string(avatar.EncodingURL))
	v.SetDefault(KeyAvatarSize, "large")
	v.SetDefault(KeyWelcomeWithPhoto, true)

	return v
}

func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		BotToken:         strings.TrimSpace(v.GetString(KeyBotToken)),
		AdminID:          strings.TrimSpace(v.GetString(KeyAdminID)),
		WebAppURL:        strings.TrimSpace(v.GetString(KeyWebAppURL)),
		Port:             strings.TrimSpace(v.GetString(KeyPort)),
		PollTimeout:      v.GetDuration(KeyPollTimeout),
		RetryBackoff:     v.GetDuration(KeyRetryBackoff),
		HTTPTimeout:      v.GetDuration(KeyHTTPTimeout),
		AvatarTier:       avatar.ParseTier(v.GetString(KeyAvatarSize), avatar.TierLargest),
		PublicBaseURL:    strings.TrimSpace(v.GetString(KeyPublicBaseURL)),
		WelcomeWithPhoto: v.GetBool(KeyWelcomeWithPhoto),
	}

	var missing []string
	if cfg.BotToken == "" {
		missing = append(missing, KeyBotToken)
	}
	if cfg.AdminID == "" {
		missing = append(missing, KeyAdminID)
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("%w: %s", ErrMissing, strings.Join(missing, ", "))
	}

	enc, err := avatar.ParseEncoding(v.GetString(KeyAvatarEncoding))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", KeyAvatarEncoding, err)
	}
	cfg.AvatarEncoding = enc

	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.PollTimeout < time.Second {
		return Config{}, fmt.Errorf("%s must be at least 1s, got %s", KeyPollTimeout, cfg.PollTimeout)
	}
	if cfg.RetryBackoff <= 0 {
		return Config{}, fmt.Errorf("%s must be positive, got %s", KeyRetryBackoff, cfg.RetryBackoff)
	}
	if cfg.HTTPTimeout <= 0 {
		return Config{}, fmt.Errorf("%s must be positive, got %s", KeyHTTPTimeout, cfg.HTTPTimeout)
	}

	return cfg, nil
}
