package instagram

import (
	"context"
	"net/url"
	"strconv"

	clierrors "github.com/salmonumbrella/instagram-cli/internal/errors"
)

// User is an Instagram account.
// See: https://www.instagram.com/developer/endpoints/users/
type User struct {
	ID             string  `json:"id"`
	Username       string  `json:"username"`
	FullName       string  `json:"full_name,omitempty"`
	ProfilePicture string  `json:"profile_picture,omitempty"`
	Bio            string  `json:"bio,omitempty"`
	Website        string  `json:"website,omitempty"`
	IsBusiness     bool    `json:"is_business,omitempty"`
	Counts         *Counts `json:"counts,omitempty"`
}

// Counts are the user's totals.
type Counts struct {
	Media      int `json:"media"`
	Follows    int `json:"follows"`
	FollowedBy int `json:"followed_by"`
}

// Image is one rendition of a media item.
type Image struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Images holds the standard renditions.
type Images struct {
	Thumbnail          *Image `json:"thumbnail,omitempty"`
	LowResolution      *Image `json:"low_resolution,omitempty"`
	StandardResolution *Image `json:"standard_resolution,omitempty"`
}

// Count wraps a bare counter object such as likes or comments.
type Count struct {
	Count int `json:"count"`
}

// Location is where a media item was taken.
type Location struct {
	ID        string  `json:"id"`
	Name      string  `json:"name,omitempty"`
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`
}

// Comment is a comment on a media item. The media caption has the same shape.
type Comment struct {
	ID          string `json:"id"`
	Text        string `json:"text"`
	CreatedTime string `json:"created_time"`
	From        *User  `json:"from,omitempty"`
}

// Media is a photo or video.
// See: https://www.instagram.com/developer/endpoints/media/
type Media struct {
	ID           string    `json:"id"`
	Type         string    `json:"type"`
	Link         string    `json:"link,omitempty"`
	Filter       string    `json:"filter,omitempty"`
	CreatedTime  string    `json:"created_time"`
	Tags         []string  `json:"tags,omitempty"`
	User         *User     `json:"user,omitempty"`
	Images       *Images   `json:"images,omitempty"`
	Caption      *Comment  `json:"caption,omitempty"`
	Likes        *Count    `json:"likes,omitempty"`
	Comments     *Count    `json:"comments,omitempty"`
	UserHasLiked bool      `json:"user_has_liked"`
	Location     *Location `json:"location,omitempty"`
}

// Self returns the authenticated user.
func (c *Client) Self(ctx context.Context) (*User, error) {
	return Request[User](ctx, c, RequestSpec{Endpoint: "/users/self", Method: MethodGet})
}

// User returns the user with the given id. "self" is accepted.
func (c *Client) User(ctx context.Context, userID string) (*User, error) {
	if userID == "" {
		return nil, requiredID("user")
	}
	return Request[User](ctx, c, RequestSpec{
		Endpoint: "/users/" + url.PathEscape(userID),
		Method:   MethodGet,
	})
}

// RecentMedia lists a user's most recent media. A count of zero leaves the
// page size to the API.
func (c *Client) RecentMedia(ctx context.Context, userID string, count int) ([]Media, error) {
	if userID == "" {
		return nil, requiredID("user")
	}
	if count < 0 {
		return nil, &clierrors.ValidationError{Field: "count", Message: "must be >= 0"}
	}
	spec := RequestSpec{
		Endpoint: "/users/" + url.PathEscape(userID) + "/media/recent",
		Method:   MethodGet,
	}
	if count > 0 {
		spec.Parameters = map[string]string{"count": strconv.Itoa(count)}
	}
	media, err := Request[[]Media](ctx, c, spec)
	if err != nil || media == nil {
		return nil, err
	}
	return *media, nil
}

// Media returns a media item.
func (c *Client) Media(ctx context.Context, mediaID string) (*Media, error) {
	if mediaID == "" {
		return nil, requiredID("media")
	}
	return Request[Media](ctx, c, RequestSpec{
		Endpoint: "/media/" + url.PathEscape(mediaID),
		Method:   MethodGet,
	})
}

// MediaAsync fetches a media item on its own goroutine. Exactly one of the
// callbacks runs, on the client's dispatcher.
func (c *Client) MediaAsync(ctx context.Context, mediaID string, onSuccess func(*Media), onFailure func(error)) {
	if mediaID == "" {
		err := requiredID("media")
		c.complete(func() {
			if onFailure != nil {
				onFailure(err)
			}
		})
		return
	}
	RequestAsync[Media](ctx, c, RequestSpec{
		Endpoint: "/media/" + url.PathEscape(mediaID),
		Method:   MethodGet,
	}, onSuccess, onFailure)
}

// Like likes a media item as the authenticated user.
func (c *Client) Like(ctx context.Context, mediaID string) error {
	return c.likes(ctx, mediaID, MethodPost)
}

// Unlike removes the authenticated user's like.
func (c *Client) Unlike(ctx context.Context, mediaID string) error {
	return c.likes(ctx, mediaID, MethodDelete)
}

func (c *Client) likes(ctx context.Context, mediaID string, method Method) error {
	if mediaID == "" {
		return requiredID("media")
	}
	_, err := Request[Value](ctx, c, RequestSpec{
		Endpoint: "/media/" + url.PathEscape(mediaID) + "/likes",
		Method:   method,
	})
	return err
}

// Comments lists the comments on a media item.
func (c *Client) Comments(ctx context.Context, mediaID string) ([]Comment, error) {
	if mediaID == "" {
		return nil, requiredID("media")
	}
	comments, err := Request[[]Comment](ctx, c, RequestSpec{
		Endpoint: "/media/" + url.PathEscape(mediaID) + "/comments",
		Method:   MethodGet,
	})
	if err != nil || comments == nil {
		return nil, err
	}
	return *comments, nil
}

func requiredID(kind string) error {
	return &clierrors.ValidationError{Field: kind + "_id", Message: kind + " ID is required"}
}
