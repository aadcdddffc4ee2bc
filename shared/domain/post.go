package domain

import (
	"fmt"
	"time"
)

type PostCreationData struct {
	ThreadId   ThreadId
	AuthorId   UserId
	Subject    PostSubject
	Body       PostBody
	Attachment *string
}

type Post struct {
	Id            PostId
	ThreadId      ThreadId
	AuthorId      UserId
	CreatedAt     time.Time
	ModifiedAt    time.Time
	Subject       PostSubject
	Body          PostBody
	Attachment    *string
	NotifiedCount int
}

// PostView is a post as shown to one caller. Banned posts keep their row but
// their content is withheld unless the caller moderates the forum.
type PostView struct {
	Post
	Banned       bool
	Redacted     bool
	CanToggleBan bool
	CanRemove    bool
}

type DisabledPost struct {
	PostId      PostId
	ModeratorId UserId
	BannedAt    time.Time
}

// NotificationAudience describes who should hear about a new post.
type NotificationAudience struct {
	Forum    Forum
	ThreadId ThreadId
	AuthorId UserId
}

// for debug
func (p *Post) String() string {
	return fmt.Sprintf("[id:%d, thread:%d, author:%d, subject:%s, created:%s]",
		p.Id, p.ThreadId, p.AuthorId, p.Subject, p.CreatedAt.Format(time.StampMilli))
}
