// Package curius is the client for the curius.app API. Every fetch is
// wrapped by the cache gateway, so repeated requests within the TTL never
// reach the upstream.
package curius

import (
	"encoding/json"
	"time"
)

// FollowingUser is the lightweight user reference carried in profile
// listings and follow edges.
type FollowingUser struct {
	ID         int64     `json:"id"`
	FirstName  string    `json:"firstName"`
	LastName   string    `json:"lastName"`
	UserLink   string    `json:"userLink"`
	LastOnline time.Time `json:"lastOnline"`
}

// FollowWithOrder is a follow edge: a user plus the minimum hop distance at
// which the resolver reached them from the root.
type FollowWithOrder struct {
	FollowingUser FollowingUser `json:"followingUser"`
	Order         int           `json:"order"`
}

// UserProfile is the full profile payload. Immutable once fetched.
type UserProfile struct {
	ID                       int64           `json:"id"`
	FirstName                string          `json:"firstName"`
	LastName                 string          `json:"lastName"`
	UserLink                 string          `json:"userLink"`
	Major                    *string         `json:"major"`
	Interests                *string         `json:"interests"`
	Expertise                *string         `json:"expertise"`
	School                   *string         `json:"school"`
	Github                   *string         `json:"github"`
	Twitter                  *string         `json:"twitter"`
	Website                  *string         `json:"website"`
	CreatedDate              time.Time       `json:"createdDate"`
	ModifiedDate             time.Time       `json:"modifiedDate"`
	LastOnline               time.Time       `json:"lastOnline"`
	LastCheckedNotifications time.Time       `json:"lastCheckedNotifications"`
	Views                    int64           `json:"views"`
	NumFollowers             int64           `json:"numFollowers"`
	Followed                 *bool           `json:"followed"`
	FollowingMe              *bool           `json:"followingMe"`
	RecentUsers              []FollowingUser `json:"recentUsers"`
	FollowingUsers           []FollowingUser `json:"followingUsers"`
}

// Ref projects the profile down to its lightweight reference.
func (p UserProfile) Ref() FollowingUser {
	return FollowingUser{
		ID:         p.ID,
		FirstName:  p.FirstName,
		LastName:   p.LastName,
		UserLink:   p.UserLink,
		LastOnline: p.LastOnline,
	}
}

// Comment on a saved link. Replies nest arbitrarily deep.
type Comment struct {
	ID           int64          `json:"id"`
	UserID       int64          `json:"userId"`
	User         *FollowingUser `json:"user"`
	ParentID     *int64         `json:"parentId"`
	Text         string         `json:"text"`
	CreatedDate  time.Time      `json:"createdDate"`
	ModifiedDate time.Time      `json:"modifiedDate"`
	Replies      []Comment      `json:"replies"`
}

// Highlight is a user-selected passage on a saved link.
type Highlight struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"userId"`
	LinkID       int64     `json:"linkId"`
	Highlight    string    `json:"highlight"`
	CreatedDate  time.Time `json:"createdDate"`
	LeftContext  string    `json:"leftContext"`
	RightContext string    `json:"rightContext"`
	RawHighlight string    `json:"rawHighlight"`
	CommentIDs   []*int64  `json:"comment_ids"`
	Comment      *Comment  `json:"comment"`
}

// Content is one saved item. CreatedDate and ModifiedDate are opaque
// lexicographically comparable strings as delivered by the upstream.
// SavedBy is derived during feed aggregation, never delivered upstream.
type Content struct {
	ID           int64             `json:"id"`
	Link         string            `json:"link"`
	Title        string            `json:"title"`
	Favorite     bool              `json:"favorite"`
	Snippet      *string           `json:"snippet"`
	ToRead       *bool             `json:"toRead"`
	CreatedBy    *int64            `json:"createdBy"`
	CreatedDate  string            `json:"createdDate"`
	ModifiedDate string            `json:"modifiedDate"`
	LastCrawled  *string           `json:"lastCrawled"`
	Metadata     json.RawMessage   `json:"metadata"`
	Highlights   []Highlight       `json:"highlights"`
	UserIDs      []int64           `json:"userIds"`
	SavedBy      []FollowWithOrder `json:"savedBy,omitempty"`
}

// LinkResponse is the first page of one user's saved links; the unit of
// upstream fetch and cache storage.
type LinkResponse struct {
	UserSaved []Content `json:"userSaved"`
}

// UserResponse wraps the profile endpoint payload.
type UserResponse struct {
	User UserProfile `json:"user"`
}

// AllUsersResponse is the network-wide user directory payload.
type AllUsersResponse struct {
	Users []FollowingUser `json:"users"`
}
