package platform

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/maheshrc27/autoposter/internal/models"
)

// Credentials is the token bundle for one connected account.
type Credentials struct {
	AccountID string
	Token     *oauth2.Token
}

func (c Credentials) Valid() bool {
	return c.Token != nil && c.Token.Valid()
}

type PostRequest struct {
	Content     string
	MediaURLs   []string
	Credentials Credentials
}

// Result is what an adapter reports back. Failures are values, never errors.
type Result struct {
	Success        bool              `json:"success"`
	PlatformPostID string            `json:"post_id,omitempty"`
	Error          string            `json:"error,omitempty"`
	Engagement     models.Engagement `json:"engagement"`
}

func Failure(format string, args ...interface{}) Result {
	return Result{Error: fmt.Sprintf(format, args...)}
}

// Adapter posts normalized content to one social network.
type Adapter interface {
	Name() string
	Post(ctx context.Context, req PostRequest) Result
}

type PublishResponse struct {
	PostID     string
	Engagement models.Engagement
}

// Publisher is the transport an adapter hands a validated request to.
type Publisher interface {
	Publish(ctx context.Context, platform string, req PostRequest) (PublishResponse, error)
}

// base holds what every adapter shares: credential check, its own
// precondition, rate limiting and the publish call.
type base struct {
	name      string
	limiter   *rate.Limiter
	publisher Publisher
	check     func(media []Media) error
}

func (b *base) Name() string { return b.name }

func (b *base) Post(ctx context.Context, req PostRequest) Result {
	if !req.Credentials.Valid() {
		return Failure("%s: missing or expired credentials", b.name)
	}
	if req.Content == "" {
		return Failure("%s: content is empty", b.name)
	}

	if b.check != nil {
		if err := b.check(ClassifyAll(req.MediaURLs)); err != nil {
			return Failure("%s: %v", b.name, err)
		}
	}

	if b.limiter != nil {
		if err := b.limiter.Wait(ctx); err != nil {
			return Failure("%s: rate limit wait: %v", b.name, err)
		}
	}

	resp, err := b.publisher.Publish(ctx, b.name, req)
	if err != nil {
		return Failure("%s: publish: %v", b.name, err)
	}

	return Result{
		Success:        true,
		PlatformPostID: resp.PostID,
		Engagement:     resp.Engagement,
	}
}
