package avatar

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/Vovarama1992/miniapp-relay/internal/telegram"
)

const ContentTypeJPEG = "image/jpeg"

var ErrInvalidUserID = errors.New("user_id must be a numeric telegram id")

// Source is the part of the Bot API the resolver needs.
type Source interface {
	ProfilePhotos(ctx context.Context, userID int64, limit int) ([][]telegram.PhotoSize, error)
	FilePath(ctx context.Context, fileID string) (string, error)
	Download(ctx context.Context, filePath string) ([]byte, error)
}

// Tier picks which resolution of a photo to use.
type Tier int

const (
	TierLargest Tier = iota
	TierSmallest
)

func (t Tier) String() string {
	if t == TierSmallest {
		return "small"
	}
	return "large"
}

// ParseTier accepts small/fast and large/quality; anything else is fallback.
func ParseTier(s string, fallback Tier) Tier {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "small", "fast", "smallest":
		return TierSmallest
	case "large", "quality", "largest", "big":
		return TierLargest
	default:
		return fallback
	}
}

type Query struct {
	UserID int64
	Tier   Tier
}

func ParseUserID(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidUserID
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidUserID
	}
	return id, nil
}

// Location is a selected photo resolved to its server-side path.
type Location struct {
	FileID   string
	FilePath string
	Width    int
	Height   int
}

// Result is either Found (Bytes and ContentType set) or not. Use Found and
// NotFound to build one.
type Result struct {
	Found       bool
	Bytes       []byte
	ContentType string
}

func Found(b []byte, contentType string) Result {
	return Result{Found: true, Bytes: b, ContentType: contentType}
}

func NotFound() Result {
	return Result{}
}
