package reddit

import (
	"fmt"
	"net/url"
	"strings"

	apperrors "github.com/jrsteele09/wilbur/internal/errors"
	"github.com/jrsteele09/wilbur/internal/utils"
)

// MaxTitleLength is the longest title Reddit accepts.
const MaxTitleLength = 300

const (
	KindSelf = "self"
	KindLink = "link"
)

// Submission is a post that can be sent to /api/submit.
// It is implemented by SelfPost and LinkPost only.
type Submission interface {
	Kind() string
	Target() string
	FlairText() string
	validate() error
	form() url.Values
}

// SelfPost is a text post.
type SelfPost struct {
	Subreddit string
	Title     string
	Text      string
	Flair     string
}

// LinkPost points at an external URL.
type LinkPost struct {
	Subreddit string
	Title     string
	URL       string
	Flair     string
}

var (
	_ Submission = SelfPost{}
	_ Submission = LinkPost{}
)

func (p SelfPost) Kind() string      { return KindSelf }
func (p SelfPost) Target() string    { return p.Subreddit }
func (p SelfPost) FlairText() string { return p.Flair }

func (p SelfPost) validate() error {
	return validateCommon(p.Subreddit, p.Title)
}

func (p SelfPost) form() url.Values {
	v := commonForm(KindSelf, p.Subreddit, p.Title)
	if p.Text != "" {
		v.Set("text", p.Text)
	}
	return v
}

func (p LinkPost) Kind() string      { return KindLink }
func (p LinkPost) Target() string    { return p.Subreddit }
func (p LinkPost) FlairText() string { return p.Flair }

func (p LinkPost) validate() error {
	if err := validateCommon(p.Subreddit, p.Title); err != nil {
		return err
	}
	u, err := url.Parse(p.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: link post needs an absolute http(s) url", apperrors.ErrInvalidRequest)
	}
	return nil
}

func (p LinkPost) form() url.Values {
	v := commonForm(KindLink, p.Subreddit, p.Title)
	v.Set("url", p.URL)
	return v
}

func validateCommon(subreddit, title string) error {
	if strings.TrimSpace(subreddit) == "" {
		return fmt.Errorf("%w: subreddit is required", apperrors.ErrInvalidRequest)
	}
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("%w: title is required", apperrors.ErrInvalidRequest)
	}
	return nil
}

func commonForm(kind, subreddit, title string) url.Values {
	v := url.Values{}
	v.Set("api_type", "json")
	v.Set("kind", kind)
	v.Set("sr", strings.TrimPrefix(subreddit, "r/"))
	v.Set("title", truncateTitle(title))
	return v
}

func truncateTitle(title string) string {
	if len([]rune(title)) <= MaxTitleLength {
		return title
	}
	// Leave room for the "... N more" suffix
	return utils.Truncate(title, MaxTitleLength-16)
}
