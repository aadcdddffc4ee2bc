package domain

import (
	"fmt"
	"time"
)

// to iterate thru layers: handler -> service -> storage
type ThreadCreationData struct {
	Forum  Forum
	OpPost PostCreationData
}

// Thread always has at least one post. FirstPostId and LastPostId reference
// existing posts of the thread; LastPostId is the trailing post.
type Thread struct {
	Id          ThreadId
	Kind        ForumKind
	Location    LocationId
	FirstPostId PostId
	LastPostId  PostId
}

func (t Thread) Forum() Forum {
	return Forum{Kind: t.Kind, Location: t.Location}
}

// ThreadSummary is a row of a thread listing as seen by one user.
type ThreadSummary struct {
	Thread
	Subject     PostSubject
	FirstAuthor UserId
	LastAuthor  UserId
	FirstPostAt time.Time
	LastPostAt  time.Time
	NumPosts    int
	NumUnread   int
	FirstBanned bool
	Redacted    bool
}

type ThreadOrder int

const (
	ThreadOrderLastPost ThreadOrder = iota
	ThreadOrderFirstPost
)

func ParseThreadOrder(s string) (ThreadOrder, error) {
	switch s {
	case "", "last":
		return ThreadOrderLastPost, nil
	case "first":
		return ThreadOrderFirstPost, nil
	}
	return ThreadOrderLastPost, fmt.Errorf("unknown thread order %q", s)
}

type ThreadPage struct {
	Forum   Forum
	Page    Page
	Threads []ThreadSummary
}

type PostPage struct {
	Thread Thread
	Page   Page
	Posts  []PostView
}

type RemovePostResult struct {
	ThreadId      ThreadId
	ThreadDeleted bool
}

type ReadMark struct {
	ThreadId ThreadId
	UserId   UserId
	ReadAt   time.Time
}

type ClipboardEntry struct {
	UserId     UserId
	ThreadId   ThreadId
	InsertedAt time.Time
}

type PasteResult struct {
	ThreadId     ThreadId
	From         Forum
	To           Forum
	AlreadyThere bool
}

func (t *Thread) String() string {
	return fmt.Sprintf("[id:%d, forum:%s, first:%d, last:%d]", t.Id, t.Forum(), t.FirstPostId, t.LastPostId)
}
