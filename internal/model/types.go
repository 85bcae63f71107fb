package model

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// MediaType is the kind of media a cache item holds.
type MediaType string

const (
	MediaTypeImage MediaType = "image"
	MediaTypeVideo MediaType = "video"
	MediaTypeGif   MediaType = "gif"
	MediaTypeAudio MediaType = "audio"
	MediaTypeIcon  MediaType = "icon"
)

// AllMediaTypes lists every supported media type, in directory-layout order.
var AllMediaTypes = []MediaType{
	MediaTypeImage,
	MediaTypeVideo,
	MediaTypeGif,
	MediaTypeAudio,
	MediaTypeIcon,
}

// ParseMediaType converts a string (any case) into a MediaType.
func ParseMediaType(s string) (MediaType, error) {
	mt := MediaType(strings.ToLower(s))
	switch mt {
	case MediaTypeImage, MediaTypeVideo, MediaTypeGif, MediaTypeAudio, MediaTypeIcon:
		return mt, nil
	}
	return "", fmt.Errorf("unknown media type %q", s)
}

// Upper returns the upper-cased form used in cache keys and directory names.
func (mt MediaType) Upper() string {
	return strings.ToUpper(string(mt))
}

func (mt MediaType) Value() (driver.Value, error) {
	return string(mt), nil
}

func (mt *MediaType) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		*mt = MediaType(v)
	case string:
		*mt = MediaType(v)
	default:
		return fmt.Errorf("MediaType.Scan: expected string, got %T", src)
	}
	return nil
}
