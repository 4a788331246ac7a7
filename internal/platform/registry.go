package platform

import (
	"sort"
	"time"

	"golang.org/x/time/rate"

	"github.com/maheshrc27/autoposter/internal/models"
)

// Request budgets per platform. Burst covers one fan-out per platform
// plus its retry.
var defaultLimits = map[string]rate.Limit{
	models.PlatformTwitter:   rate.Every(2 * time.Second),
	models.PlatformThreads:   rate.Every(2 * time.Second),
	models.PlatformInstagram: rate.Every(5 * time.Second),
	models.PlatformTikTok:    rate.Every(10 * time.Second),
	models.PlatformLinkedIn:  rate.Every(2 * time.Second),
	models.PlatformFacebook:  rate.Every(time.Second),
}

const defaultBurst = 10

func NewLimiter(platform string) *rate.Limiter {
	limit, ok := defaultLimits[platform]
	if !ok {
		limit = rate.Every(time.Second)
	}
	return rate.NewLimiter(limit, defaultBurst)
}

type Registry struct {
	adapters map[string]Adapter
}

func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[string]Adapter, len(adapters))}
	for _, a := range adapters {
		r.adapters[a.Name()] = a
	}
	return r
}

// NewDefaultRegistry wires all six adapters to the given publisher.
func NewDefaultRegistry(pub Publisher) *Registry {
	return NewRegistry(
		NewFacebook(pub, NewLimiter(models.PlatformFacebook)),
		NewTwitter(pub, NewLimiter(models.PlatformTwitter)),
		NewLinkedIn(pub, NewLimiter(models.PlatformLinkedIn)),
		NewInstagram(pub, NewLimiter(models.PlatformInstagram)),
		NewTikTok(pub, NewLimiter(models.PlatformTikTok)),
		NewThreads(pub, NewLimiter(models.PlatformThreads)),
	)
}

func (r *Registry) Get(platform string) (Adapter, bool) {
	a, ok := r.adapters[platform]
	return a, ok
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.adapters))
	for n := range r.adapters {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
