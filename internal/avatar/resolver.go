package avatar

import (
	"context"
	"fmt"

	"github.com/Vovarama1992/miniapp-relay/internal/telegram"
)

// only the current photo matters
const photoLimit = 1

// Resolver turns a user id into avatar bytes with three Bot API calls:
// getUserProfilePhotos, getFile, then the file download. Nothing is cached.
type Resolver struct {
	src Source
}

func NewResolver(src Source) *Resolver {
	return &Resolver{src: src}
}

// Select lists the user's newest photo and picks one size. ok is false when
// the user has no photo; that is not an error.
func (r *Resolver) Select(ctx context.Context, userID int64, tier Tier) (telegram.PhotoSize, bool, error) {
	photos, err := r.src.ProfilePhotos(ctx, userID, photoLimit)
	if err != nil {
		return telegram.PhotoSize{}, false, fmt.Errorf("list profile photos: %w", err)
	}
	if len(photos) == 0 {
		return telegram.PhotoSize{}, false, nil
	}

	size, ok := pickSize(photos[0], tier)
	return size, ok, nil
}

func (r *Resolver) Locate(ctx context.Context, userID int64, tier Tier) (Location, bool, error) {
	size, ok, err := r.Select(ctx, userID, tier)
	if err != nil || !ok {
		return Location{}, ok, err
	}

	path, err := r.src.FilePath(ctx, size.FileID)
	if err != nil {
		return Location{}, false, fmt.Errorf("resolve file path: %w", err)
	}

	return Location{
		FileID:   size.FileID,
		FilePath: path,
		Width:    size.Width,
		Height:   size.Height,
	}, true, nil
}

func (r *Resolver) Resolve(ctx context.Context, q Query) (Result, error) {
	loc, ok, err := r.Locate(ctx, q.UserID, q.Tier)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		return NotFound(), nil
	}

	body, err := r.src.Download(ctx, loc.FilePath)
	if err != nil {
		return Result{}, fmt.Errorf("download photo: %w", err)
	}

	return Found(body, ContentTypeJPEG), nil
}

// pickSize returns the smallest or largest entry by pixel area. Ties keep the
// earlier entry for smallest and the later one for largest, matching the
// platform's ascending order.
func pickSize(sizes []telegram.PhotoSize, tier Tier) (telegram.PhotoSize, bool) {
	var best telegram.PhotoSize
	found := false

	for _, s := range sizes {
		if s.FileID == "" {
			continue
		}
		if !found {
			best, found = s, true
			continue
		}
		switch tier {
		case TierSmallest:
			if s.Area() < best.Area() {
				best = s
			}
		default:
			if s.Area() >= best.Area() {
				best = s
			}
		}
	}
	return best, found
}
