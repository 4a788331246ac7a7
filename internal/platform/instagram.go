package platform

import (
	"errors"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/maheshrc27/autoposter/internal/models"
)

const maxInstagramItems = 10

type Instagram struct{ base }

func NewInstagram(pub Publisher, limiter *rate.Limiter) *Instagram {
	return &Instagram{base{name: models.PlatformInstagram, limiter: limiter, publisher: pub, check: checkInstagramMedia}}
}

func checkInstagramMedia(media []Media) error {
	_, _, unknown := countKinds(media)
	switch {
	case len(media) == 0:
		return errors.New("at least one image or video is required")
	case unknown > 0:
		return errors.New("unsupported media type")
	case len(media) > maxInstagramItems:
		return fmt.Errorf("carousel supports at most %d items, got %d", maxInstagramItems, len(media))
	}
	return nil
}
