package nodebird

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	MaxPostLength    = 140
	MaxHashtagLength = 15

	// MaxImageURLLength is the size of the img column
	MaxImageURLLength = 200
)

// a tag is a run of letters, digits and underscores after '#'
var hashtagRegex = regexp.MustCompile(`#([\p{L}\p{N}_]+)`)

var ErrInvalidPost = errors.New("invalid post")

// ExtractHashtags returns the distinct lower cased hashtags in content, in
// order of first appearance and without the leading '#'.
func ExtractHashtags(content string) []string {
	seen := map[string]bool{}
	var out []string
	for _, m := range hashtagRegex.FindAllStringSubmatch(content, -1) {
		tag := strings.ToLower(m[1])
		if tag == "" || utf8.RuneCountInString(tag) > MaxHashtagLength || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}

// NewPost builds a post by userID, with hashtags extracted from content
func NewPost(userID, content, img string) (*Post, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: content is required", ErrInvalidPost)
	}
	if utf8.RuneCountInString(content) > MaxPostLength {
		return nil, fmt.Errorf("%w: content must be at most %d characters", ErrInvalidPost, MaxPostLength)
	}
	if len(img) > MaxImageURLLength {
		return nil, fmt.Errorf("%w: image url must be at most %d characters", ErrInvalidPost, MaxImageURLLength)
	}
	return &Post{
		UserID:   userID,
		Content:  content,
		Img:      img,
		Hashtags: ExtractHashtags(content),
	}, nil
}
