package post

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/gupshup-api/internal/domain"
)

const previewSize = 2

// View is a post shaped for one viewer.
type View struct {
	ID         string     `json:"id"`
	User       Author     `json:"user"`
	Content    Content    `json:"content"`
	Engagement Engagement `json:"engagement"`
	Metadata   Metadata   `json:"metadata"`
}

type Author struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	ProfilePicture string `json:"profilePicture"`
	IsVerified     bool   `json:"isVerified"`
	IsFollowing    bool   `json:"isFollowing"`
}

type Content struct {
	Text      string    `json:"text"`
	ImageURL  string    `json:"imageUrl"`
	VideoURL  *string   `json:"videoUrl"`
	CreatedAt time.Time `json:"createdAt"`
}

type Engagement struct {
	Likes    LikeStats    `json:"likes"`
	Comments CommentStats `json:"comments"`
	Shares   ShareStats   `json:"shares"`
}

type LikeStats struct {
	Count       int      `json:"count"`
	IsLikedByMe bool     `json:"isLikedByMe"`
	TopLikedBy  []string `json:"topLikedBy"`
}

type CommentStats struct {
	Count   int              `json:"count"`
	Preview []CommentPreview `json:"preview"`
}

type CommentPreview struct {
	ID          string        `json:"id"`
	User        CommentAuthor `json:"user"`
	Text        string        `json:"text"`
	Timestamp   time.Time     `json:"timestamp"`
	IsLikedByMe bool          `json:"isLikedByMe"`
	LikesCount  int           `json:"likesCount"`
}

type CommentAuthor struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	ProfilePicture string `json:"profilePicture"`
}

type ShareStats struct {
	Count        int  `json:"count"`
	IsSharedByMe bool `json:"isSharedByMe"`
}

type Metadata struct {
	IsSavedByMe    bool     `json:"isSavedByMe"`
	IsReportedByMe bool     `json:"isReportedByMe"`
	Location       string   `json:"location"`
	Tags           []string `json:"tags"`
}

type userBatchGetter interface {
	BatchGet(ctx context.Context, ids []string) (map[string]*domain.User, error)
}

// Shaper renders posts for a viewer, resolving authors, comment authors and
// the viewer's follow list in one batch read.
type Shaper struct {
	users userBatchGetter
}

func NewShaper(users userBatchGetter) *Shaper {
	return &Shaper{users: users}
}

func (s *Shaper) Shape(ctx context.Context, viewerID string, posts []domain.Post) ([]View, error) {
	views := make([]View, 0, len(posts))
	if len(posts) == 0 {
		return views, nil
	}
	ids := []string{viewerID}
	for i := range posts {
		ids = append(ids, posts[i].UserID)
		for _, c := range preview(posts[i].Comments) {
			ids = append(ids, c.UserID)
		}
	}
	users, err := s.users.BatchGet(ctx, ids)
	if err != nil {
		return nil, err
	}
	viewer := users[viewerID]
	for i := range posts {
		views = append(views, shape(&posts[i], viewerID, viewer, users))
	}
	return views, nil
}

func shape(p *domain.Post, viewerID string, viewer *domain.User, users map[string]*domain.User) View {
	author := Author{ID: p.UserID}
	if u := users[p.UserID]; u != nil {
		author.Username = u.Username
		author.ProfilePicture = u.ProfilePictureURL
		author.IsVerified = u.IsVerified
	}
	author.IsFollowing = viewer != nil && viewer.Follows(p.UserID)

	var video *string
	if p.Media.VideoURL != "" {
		v := p.Media.VideoURL
		video = &v
	}

	comments := make([]CommentPreview, 0, previewSize)
	for _, c := range preview(p.Comments) {
		ca := CommentAuthor{ID: c.UserID}
		if u := users[c.UserID]; u != nil {
			ca.Username = u.Username
			ca.ProfilePicture = u.ProfilePictureURL
		}
		comments = append(comments, CommentPreview{
			ID:          c.CommentID,
			User:        ca,
			Text:        c.Text,
			Timestamp:   c.CreatedAt,
			IsLikedByMe: slices.Contains(c.Likes, viewerID),
			LikesCount:  len(c.Likes),
		})
	}

	top := p.Likes
	if len(top) > previewSize {
		top = top[:previewSize]
	}

	tags := make([]string, 0, len(p.Hashtags))
	for _, t := range p.Hashtags {
		tags = append(tags, strings.TrimPrefix(t, "#"))
	}

	return View{
		ID:   p.PostID,
		User: author,
		Content: Content{
			Text:      p.Caption,
			ImageURL:  p.Media.ImageURL,
			VideoURL:  video,
			CreatedAt: p.CreatedAt,
		},
		Engagement: Engagement{
			Likes: LikeStats{
				Count:       len(p.Likes),
				IsLikedByMe: p.LikedBy(viewerID),
				TopLikedBy:  append([]string{}, top...),
			},
			Comments: CommentStats{Count: len(p.Comments), Preview: comments},
			Shares:   ShareStats{Count: len(p.Shares), IsSharedByMe: slices.Contains(p.Shares, viewerID)},
		},
		Metadata: Metadata{
			IsSavedByMe:    p.SavedByUser(viewerID),
			IsReportedByMe: slices.Contains(p.ReportedBy, viewerID),
			Location:       p.Location,
			Tags:           tags,
		},
	}
}

func preview(comments []domain.Comment) []domain.Comment {
	if len(comments) > previewSize {
		return comments[:previewSize]
	}
	return comments
}
