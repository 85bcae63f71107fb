package mediakey

import (
	"fmt"
	"path"

	"github.com/fhuszti/media-cache-go/internal/model"
)

// extensions maps a media type to the extension its downloaded file gets on
// disk. Types without a natural extension fall back to "dat".
var extensions = map[model.MediaType]string{
	model.MediaTypeImage: "jpg",
	model.MediaTypeVideo: "mp4",
	model.MediaTypeGif:   "gif",
	model.MediaTypeAudio: "mp3",
}

const fallbackExt = "dat"

// CacheKey derives the unique identity of a cache item from its media type
// and source URL. Pure and total: the media type prefix plus the exact URL
// makes it collision-free by construction.
func CacheKey(url string, mt model.MediaType) string {
	return mt.Upper() + "_" + url
}

// URLHash renders a 32-bit rolling hash of the URL as a zero-padded base-16
// string. Two different URLs hashing to the same value is a documented
// collision risk, not something this package mitigates.
func URLHash(url string) string {
	var h uint32
	for i := 0; i < len(url); i++ {
		h = h*31 + uint32(url[i])
	}
	return fmt.Sprintf("%08x", h)
}

// LocalPath derives the filesystem-safe relative path for a media file:
// <MEDIA_TYPE>/<hash>.<ext>.
func LocalPath(url string, mt model.MediaType) string {
	ext, ok := extensions[mt]
	if !ok {
		ext = fallbackExt
	}
	return path.Join(mt.Upper(), URLHash(url)+"."+ext)
}

// ThumbnailPath derives the relative path for a media file's thumbnail:
// <MEDIA_TYPE>/thumbnails/<hash>.jpg. Thumbnails are always JPEG.
func ThumbnailPath(url string, mt model.MediaType) string {
	return path.Join(mt.Upper(), "thumbnails", URLHash(url)+".jpg")
}
