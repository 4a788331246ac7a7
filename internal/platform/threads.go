package platform

import (
	"errors"

	"golang.org/x/time/rate"

	"github.com/maheshrc27/autoposter/internal/models"
)

type Threads struct{ base }

func NewThreads(pub Publisher, limiter *rate.Limiter) *Threads {
	return &Threads{base{name: models.PlatformThreads, limiter: limiter, publisher: pub, check: checkThreadsMedia}}
}

func checkThreadsMedia(media []Media) error {
	images, _, _ := countKinds(media)
	switch {
	case len(media) > 1:
		return errors.New("at most one image can be attached")
	case len(media) == 1 && images == 0:
		return errors.New("only images are supported")
	}
	return nil
}
