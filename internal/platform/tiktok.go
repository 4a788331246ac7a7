package platform

import (
	"errors"

	"golang.org/x/time/rate"

	"github.com/maheshrc27/autoposter/internal/models"
)

type TikTok struct{ base }

func NewTikTok(pub Publisher, limiter *rate.Limiter) *TikTok {
	return &TikTok{base{name: models.PlatformTikTok, limiter: limiter, publisher: pub, check: checkTikTokMedia}}
}

// TikTok publishes exactly one video per post.
func checkTikTokMedia(media []Media) error {
	images, videos, unknown := countKinds(media)
	switch {
	case videos == 0:
		return errors.New("a video is required")
	case videos > 1 || images > 0 || unknown > 0:
		return errors.New("only a single video can be attached")
	}
	return nil
}
