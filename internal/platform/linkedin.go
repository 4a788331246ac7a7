package platform

import (
	"errors"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/maheshrc27/autoposter/internal/models"
)

const maxLinkedInItems = 9

type LinkedIn struct{ base }

func NewLinkedIn(pub Publisher, limiter *rate.Limiter) *LinkedIn {
	return &LinkedIn{base{name: models.PlatformLinkedIn, limiter: limiter, publisher: pub, check: checkLinkedInMedia}}
}

func checkLinkedInMedia(media []Media) error {
	_, _, unknown := countKinds(media)
	if unknown > 0 {
		return errors.New("unsupported media type")
	}
	if len(media) > maxLinkedInItems {
		return fmt.Errorf("at most %d items are allowed, got %d", maxLinkedInItems, len(media))
	}
	return nil
}
