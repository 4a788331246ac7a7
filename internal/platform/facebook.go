package platform

import (
	"errors"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/maheshrc27/autoposter/internal/models"
)

const maxFacebookItems = 10

type Facebook struct{ base }

func NewFacebook(pub Publisher, limiter *rate.Limiter) *Facebook {
	return &Facebook{base{name: models.PlatformFacebook, limiter: limiter, publisher: pub, check: checkFacebookMedia}}
}

func checkFacebookMedia(media []Media) error {
	_, _, unknown := countKinds(media)
	if unknown > 0 {
		return errors.New("unsupported media type")
	}
	if len(media) > maxFacebookItems {
		return fmt.Errorf("at most %d items are allowed, got %d", maxFacebookItems, len(media))
	}
	return nil
}
