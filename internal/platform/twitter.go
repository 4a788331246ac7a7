package platform

import (
	"errors"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/maheshrc27/autoposter/internal/models"
)

const maxTwitterImages = 4

type Twitter struct{ base }

func NewTwitter(pub Publisher, limiter *rate.Limiter) *Twitter {
	return &Twitter{base{name: models.PlatformTwitter, limiter: limiter, publisher: pub, check: checkTwitterMedia}}
}

// Up to four images, or a single video on its own.
func checkTwitterMedia(media []Media) error {
	images, videos, unknown := countKinds(media)
	switch {
	case unknown > 0:
		return errors.New("unsupported media type")
	case videos > 1:
		return errors.New("only one video can be attached")
	case videos == 1 && images > 0:
		return errors.New("a video cannot be combined with images")
	case images > maxTwitterImages:
		return fmt.Errorf("at most %d images are allowed, got %d", maxTwitterImages, images)
	}
	return nil
}
