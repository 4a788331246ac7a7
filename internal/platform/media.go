package platform

import (
	"net/url"
	"path"
	"strings"

	"github.com/h2non/filetype"
)

type MediaKind string

const (
	MediaImage   MediaKind = "image"
	MediaVideo   MediaKind = "video"
	MediaUnknown MediaKind = "unknown"
)

type Media struct {
	URL  string
	Kind MediaKind
}

// Classify guesses the media kind of a reference from its file extension.
// Query strings, as found on presigned URLs, are ignored.
func Classify(ref string) MediaKind {
	p := ref
	if u, err := url.Parse(ref); err == nil && u.Path != "" {
		p = u.Path
	}

	ext := strings.TrimPrefix(strings.ToLower(path.Ext(p)), ".")
	if ext == "" {
		return MediaUnknown
	}

	switch filetype.GetType(ext).MIME.Type {
	case "image":
		return MediaImage
	case "video":
		return MediaVideo
	default:
		return MediaUnknown
	}
}

func ClassifyAll(refs []string) []Media {
	out := make([]Media, 0, len(refs))
	for _, r := range refs {
		out = append(out, Media{URL: r, Kind: Classify(r)})
	}
	return out
}

func countKinds(media []Media) (images, videos, unknown int) {
	for _, m := range media {
		switch m.Kind {
		case MediaImage:
			images++
		case MediaVideo:
			videos++
		default:
			unknown++
		}
	}
	return images, videos, unknown
}
