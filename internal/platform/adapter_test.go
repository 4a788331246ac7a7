package platform

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/maheshrc27/autoposter/internal/models"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, platform string, req PostRequest) (PublishResponse, error) {
	args := m.Called(ctx, platform, req)
	return args.Get(0).(PublishResponse), args.Error(1)
}

func validCreds() Credentials {
	return Credentials{
		AccountID: "acc-1",
		Token:     &oauth2.Token{AccessToken: "tok", Expiry: time.Now().Add(time.Hour)},
	}
}

func TestClassify(t *testing.T) {
	assert.Equal(t, MediaImage, Classify("https://cdn.example.com/a/b/photo.JPG"))
	assert.Equal(t, MediaImage, Classify("https://r2.example.com/img.png?X-Amz-Signature=abc"))
	assert.Equal(t, MediaVideo, Classify("uploads/clip.mp4"))
	assert.Equal(t, MediaUnknown, Classify("notes.txt"))
	assert.Equal(t, MediaUnknown, Classify("no-extension"))
}

func TestAdapterPreconditions(t *testing.T) {
	cases := []struct {
		name    string
		adapter func(Publisher) Adapter
		media   []string
		ok      bool
	}{
		{"twitter text only", func(p Publisher) Adapter { return NewTwitter(p, nil) }, nil, true},
		{"twitter four images", func(p Publisher) Adapter { return NewTwitter(p, nil) }, []string{"1.jpg", "2.jpg", "3.jpg", "4.jpg"}, true},
		{"twitter five images", func(p Publisher) Adapter { return NewTwitter(p, nil) }, []string{"1.jpg", "2.jpg", "3.jpg", "4.jpg", "5.jpg"}, false},
		{"twitter lone video", func(p Publisher) Adapter { return NewTwitter(p, nil) }, []string{"v.mp4"}, true},
		{"twitter video and image", func(p Publisher) Adapter { return NewTwitter(p, nil) }, []string{"v.mp4", "1.jpg"}, false},
		{"instagram no media", func(p Publisher) Adapter { return NewInstagram(p, nil) }, nil, false},
		{"instagram image", func(p Publisher) Adapter { return NewInstagram(p, nil) }, []string{"1.png"}, true},
		{"tiktok no video", func(p Publisher) Adapter { return NewTikTok(p, nil) }, []string{"1.png"}, false},
		{"tiktok video", func(p Publisher) Adapter { return NewTikTok(p, nil) }, []string{"v.mp4"}, true},
		{"threads video", func(p Publisher) Adapter { return NewThreads(p, nil) }, []string{"v.mp4"}, false},
		{"threads image", func(p Publisher) Adapter { return NewThreads(p, nil) }, []string{"1.png"}, true},
		{"threads two images", func(p Publisher) Adapter { return NewThreads(p, nil) }, []string{"1.png", "2.png"}, false},
		{"linkedin ten items", func(p Publisher) Adapter { return NewLinkedIn(p, nil) }, make10("jpg"), false},
		{"facebook ten items", func(p Publisher) Adapter { return NewFacebook(p, nil) }, make10("jpg"), true},
		{"facebook unknown media", func(p Publisher) Adapter { return NewFacebook(p, nil) }, []string{"doc.txt"}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pub := new(MockPublisher)
			a := tc.adapter(pub)
			if tc.ok {
				pub.On("Publish", mock.Anything, a.Name(), mock.Anything).Return(PublishResponse{PostID: "p1"}, nil).Once()
			}

			res := a.Post(context.Background(), PostRequest{Content: "hi", MediaURLs: tc.media, Credentials: validCreds()})

			assert.Equal(t, tc.ok, res.Success, res.Error)
			if !tc.ok {
				assert.NotEmpty(t, res.Error)
				pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
			}
			pub.AssertExpectations(t)
		})
	}
}

func make10(ext string) []string {
	out := make([]string, 10)
	for i := range out {
		out[i] = "file." + ext
	}
	return out
}

func TestAdapterRejectsExpiredCredentials(t *testing.T) {
	pub := new(MockPublisher)
	a := NewFacebook(pub, nil)

	res := a.Post(context.Background(), PostRequest{
		Content:     "hi",
		Credentials: Credentials{Token: &oauth2.Token{AccessToken: "tok", Expiry: time.Now().Add(-time.Hour)}},
	})

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "credentials")
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestAdapterPublishErrorBecomesResult(t *testing.T) {
	pub := new(MockPublisher)
	pub.On("Publish", mock.Anything, models.PlatformLinkedIn, mock.Anything).Return(PublishResponse{}, errors.New("boom"))

	res := NewLinkedIn(pub, nil).Post(context.Background(), PostRequest{Content: "hi", Credentials: validCreds()})

	assert.False(t, res.Success)
	assert.Equal(t, "linkedin: publish: boom", res.Error)
}

func TestDefaultRegistryWithDryRun(t *testing.T) {
	reg := NewDefaultRegistry(NewDryRunPublisher(zerolog.Nop(), 0))
	assert.ElementsMatch(t, models.SupportedPlatforms, reg.Names())

	a, ok := reg.Get(models.PlatformTwitter)
	require.True(t, ok)

	res := a.Post(context.Background(), PostRequest{Content: "hello", Credentials: validCreds()})
	require.True(t, res.Success, res.Error)
	assert.Contains(t, res.PlatformPostID, "twitter_")
	assert.Equal(t, models.Engagement{}, res.Engagement)

	_, ok = reg.Get("myspace")
	assert.False(t, ok)
}

func TestDryRunPublisherFailureRate(t *testing.T) {
	reg := NewDefaultRegistry(NewDryRunPublisher(zerolog.Nop(), 1))
	a, ok := reg.Get(models.PlatformFacebook)
	require.True(t, ok)

	res := a.Post(context.Background(), PostRequest{Content: "hello", Credentials: validCreds()})
	assert.False(t, res.Success)
	assert.Equal(t, "facebook: publish: simulated platform failure", res.Error)
}
