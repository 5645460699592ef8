package vimeo

import (
	"errors"
	"net/url"
	"regexp"
	"strings"
)

// Video sources.
const (
	SourceVimeo   = "vimeo"
	SourceYouTube = "youtube"
)

// ErrUnsupportedURL is returned for links that are neither Vimeo nor YouTube videos.
var ErrUnsupportedURL = errors.New("not a Vimeo or YouTube video URL")

var (
	vimeoID   = regexp.MustCompile(`^[0-9]{4,12}$`)
	youtubeID = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
)

// ParseVideoURL extracts the source and video id of a Vimeo or YouTube link.
func ParseVideoURL(raw string) (source, id string, err error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return "", "", ErrUnsupportedURL
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	segs := strings.FieldsFunc(u.Path, func(r rune) bool { return r == '/' })

	switch host {
	case "vimeo.com", "player.vimeo.com":
		// vimeo.com/123, vimeo.com/123/hash, vimeo.com/channels/x/123, player.vimeo.com/video/123
		for _, s := range segs {
			if vimeoID.MatchString(s) {
				return SourceVimeo, s, nil
			}
		}
	case "youtube.com", "m.youtube.com", "youtube-nocookie.com":
		if v := u.Query().Get("v"); youtubeID.MatchString(v) {
			return SourceYouTube, v, nil
		}
		if len(segs) >= 2 && (segs[0] == "embed" || segs[0] == "shorts" || segs[0] == "live") &&
			youtubeID.MatchString(segs[1]) {
			return SourceYouTube, segs[1], nil
		}
	case "youtu.be":
		if len(segs) >= 1 && youtubeID.MatchString(segs[0]) {
			return SourceYouTube, segs[0], nil
		}
	}
	return "", "", ErrUnsupportedURL
}

// EmbedURL returns the player URL for a video id.
func EmbedURL(source, id string) string {
	switch source {
	case SourceVimeo:
		return "https://player.vimeo.com/video/" + id
	case SourceYouTube:
		return "https://www.youtube.com/embed/" + id
	default:
		return ""
	}
}
