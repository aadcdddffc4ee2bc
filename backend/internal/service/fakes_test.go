package service

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/itchan-dev/uniforum/shared/config"
	"github.com/itchan-dev/uniforum/shared/domain"
	internal_errors "github.com/itchan-dev/uniforum/shared/errors"
)

// --- In-memory storage ---

type markKey struct {
	thread domain.ThreadId
	user   domain.UserId
}

// memStore implements every storage port of the package in memory.
type memStore struct {
	mu sync.Mutex

	nextThread domain.ThreadId
	nextPost   domain.PostId

	threads   map[domain.ThreadId]*domain.Thread
	posts     map[domain.PostId]*domain.Post
	banned    map[domain.PostId]domain.DisabledPost
	marks     map[markKey]time.Time
	clipboard map[domain.UserId]domain.ClipboardEntry

	admins      map[domain.UserId]bool
	memberships map[domain.UserId][]domain.Membership

	// beforeDeleteTrailing runs after the service decided to delete and
	// before the store rechecks, to simulate a concurrent request.
	beforeDeleteTrailing func()
}

func newMemStore() *memStore {
	return &memStore{
		threads:     make(map[domain.ThreadId]*domain.Thread),
		posts:       make(map[domain.PostId]*domain.Post),
		banned:      make(map[domain.PostId]domain.DisabledPost),
		marks:       make(map[markKey]time.Time),
		clipboard:   make(map[domain.UserId]domain.ClipboardEntry),
		admins:      make(map[domain.UserId]bool),
		memberships: make(map[domain.UserId][]domain.Membership),
	}
}

func (s *memStore) join(user domain.UserId, scope domain.Scope, location domain.LocationId, role domain.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.memberships[user] = append(s.memberships[user], domain.Membership{Scope: scope, Location: location, Role: role})
}

// identity

func (s *memStore) MaxRoleAt(ctx context.Context, userId domain.UserId, scope domain.Scope, location domain.LocationId) (domain.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	role := domain.RoleUser
	for _, m := range s.memberships[userId] {
		if location == domain.LocationNone || (m.Scope == scope && m.Location == location) {
			role = max(role, m.Role)
		}
	}
	return role, nil
}

func (s *memStore) IsSystemAdmin(ctx context.Context, userId domain.UserId) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.admins[userId], nil
}

func (s *memStore) Memberships(ctx context.Context, userId domain.UserId) ([]domain.Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Membership(nil), s.memberships[userId]...), nil
}

// threads and posts

func (s *memStore) CreateThread(ctx context.Context, data domain.ThreadCreationData, createdAt time.Time) (domain.ThreadId, domain.PostId, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextThread++
	s.nextPost++
	thread := &domain.Thread{
		Id:          s.nextThread,
		Kind:        data.Forum.Kind,
		Location:    data.Forum.Location,
		FirstPostId: s.nextPost,
		LastPostId:  s.nextPost,
	}
	s.threads[thread.Id] = thread
	data.OpPost.ThreadId = thread.Id
	s.posts[s.nextPost] = newPost(s.nextPost, data.OpPost, createdAt)
	return thread.Id, s.nextPost, nil
}

func (s *memStore) CreatePost(ctx context.Context, data domain.PostCreationData, createdAt time.Time) (domain.PostId, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	thread, ok := s.threads[data.ThreadId]
	if !ok {
		return 0, internal_errors.NotFound("Thread")
	}
	s.nextPost++
	s.posts[s.nextPost] = newPost(s.nextPost, data, createdAt)
	thread.LastPostId = s.nextPost
	return s.nextPost, nil
}

func newPost(id domain.PostId, data domain.PostCreationData, createdAt time.Time) *domain.Post {
	return &domain.Post{
		Id:         id,
		ThreadId:   data.ThreadId,
		AuthorId:   data.AuthorId,
		CreatedAt:  createdAt,
		ModifiedAt: createdAt,
		Subject:    data.Subject,
		Body:       data.Body,
		Attachment: data.Attachment,
	}
}

func (s *memStore) GetThread(ctx context.Context, id domain.ThreadId) (domain.Thread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	thread, ok := s.threads[id]
	if !ok {
		return domain.Thread{}, internal_errors.NotFound("Thread")
	}
	return *thread, nil
}

func (s *memStore) GetPost(ctx context.Context, id domain.PostId) (domain.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	post, ok := s.posts[id]
	if !ok {
		return domain.Post{}, internal_errors.NotFound("Post")
	}
	return *post, nil
}

func (s *memStore) postsOf(id domain.ThreadId) []*domain.Post {
	var posts []*domain.Post
	for _, p := range s.posts {
		if p.ThreadId == id {
			posts = append(posts, p)
		}
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].Id < posts[j].Id })
	return posts
}

func (s *memStore) deleteThreadLocked(id domain.ThreadId) {
	for _, p := range s.postsOf(id) {
		delete(s.posts, p.Id)
		delete(s.banned, p.Id)
	}
	for k := range s.marks {
		if k.thread == id {
			delete(s.marks, k)
		}
	}
	for user, entry := range s.clipboard {
		if entry.ThreadId == id {
			delete(s.clipboard, user)
		}
	}
	delete(s.threads, id)
}

func (s *memStore) DeleteThread(ctx context.Context, id domain.ThreadId) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.threads[id]; !ok {
		return internal_errors.NotFound("Thread")
	}
	s.deleteThreadLocked(id)
	return nil
}

func (s *memStore) DeleteTrailingPost(ctx context.Context, threadId domain.ThreadId, postId domain.PostId) (bool, error) {
	if s.beforeDeleteTrailing != nil {
		s.beforeDeleteTrailing()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	thread, ok := s.threads[threadId]
	if !ok {
		return false, internal_errors.NotFound("Thread")
	}
	if thread.LastPostId != postId {
		return false, internal_errors.Conflict("Post is no longer the last post of the thread")
	}
	posts := s.postsOf(threadId)
	if len(posts) == 1 {
		s.deleteThreadLocked(threadId)
		return true, nil
	}
	delete(s.posts, postId)
	delete(s.banned, postId)
	var last *domain.Post
	for _, p := range posts {
		if p.Id != postId && (last == nil || p.Id > last.Id) {
			last = p
		}
	}
	thread.LastPostId = last.Id
	return false, nil
}

func (s *memStore) threadsOf(forum domain.Forum) []*domain.Thread {
	var threads []*domain.Thread
	for _, t := range s.threads {
		if t.Forum() == forum {
			threads = append(threads, t)
		}
	}
	return threads
}

func (s *memStore) CountThreads(ctx context.Context, forum domain.Forum) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.threadsOf(forum)), nil
}

func (s *memStore) ListThreadsPage(ctx context.Context, forum domain.Forum, userId domain.UserId, order domain.ThreadOrder, offset, limit int) ([]domain.ThreadSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	threads := s.threadsOf(forum)
	key := func(t *domain.Thread) time.Time {
		if order == domain.ThreadOrderFirstPost {
			return s.posts[t.FirstPostId].CreatedAt
		}
		return s.posts[t.LastPostId].CreatedAt
	}
	sort.Slice(threads, func(i, j int) bool {
		ki, kj := key(threads[i]), key(threads[j])
		if !ki.Equal(kj) {
			return ki.After(kj)
		}
		return threads[i].Id > threads[j].Id
	})

	var summaries []domain.ThreadSummary
	for i := offset; i < len(threads) && i < offset+limit; i++ {
		t := threads[i]
		first, last := s.posts[t.FirstPostId], s.posts[t.LastPostId]
		posts := s.postsOf(t.Id)
		readAt, read := s.marks[markKey{t.Id, userId}]
		unread := 0
		for _, p := range posts {
			if !read || p.ModifiedAt.After(readAt) {
				unread++
			}
		}
		_, banned := s.banned[first.Id]
		summaries = append(summaries, domain.ThreadSummary{
			Thread:      *t,
			Subject:     first.Subject,
			FirstAuthor: first.AuthorId,
			LastAuthor:  last.AuthorId,
			FirstPostAt: first.CreatedAt,
			LastPostAt:  last.CreatedAt,
			NumPosts:    len(posts),
			NumUnread:   unread,
			FirstBanned: banned,
		})
	}
	return summaries, nil
}

func (s *memStore) CountPosts(ctx context.Context, id domain.ThreadId) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.postsOf(id)), nil
}

func (s *memStore) ListPostsPage(ctx context.Context, id domain.ThreadId, offset, limit int) ([]domain.PostView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	posts := s.postsOf(id)
	var views []domain.PostView
	for i := offset; i < len(posts) && i < offset+limit; i++ {
		_, banned := s.banned[posts[i].Id]
		views = append(views, domain.PostView{Post: *posts[i], Banned: banned})
	}
	return views, nil
}

func (s *memStore) MoveThread(ctx context.Context, id domain.ThreadId, to domain.Forum) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	thread, ok := s.threads[id]
	if !ok {
		return internal_errors.NotFound("Thread")
	}
	thread.Kind, thread.Location = to.Kind, to.Location
	return nil
}

// moderation

func (s *memStore) BanPost(ctx context.Context, postId domain.PostId, moderatorId domain.UserId) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[postId]; !ok {
		return internal_errors.NotFound("Post")
	}
	s.banned[postId] = domain.DisabledPost{PostId: postId, ModeratorId: moderatorId}
	return nil
}

func (s *memStore) UnbanPost(ctx context.Context, postId domain.PostId) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.banned, postId)
	return nil
}

func (s *memStore) IsBanned(ctx context.Context, postId domain.PostId) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.banned[postId]
	return ok, nil
}

// read state

func (s *memStore) UpsertReadMark(ctx context.Context, threadId domain.ThreadId, userId domain.UserId, readAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := markKey{threadId, userId}
	if existing, ok := s.marks[k]; !ok || readAt.After(existing) {
		s.marks[k] = readAt
	}
	return nil
}

func (s *memStore) GetReadMark(ctx context.Context, threadId domain.ThreadId, userId domain.UserId) (domain.ReadMark, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	readAt, ok := s.marks[markKey{threadId, userId}]
	if !ok {
		return domain.ReadMark{}, internal_errors.NotFound("Read mark")
	}
	return domain.ReadMark{ThreadId: threadId, UserId: userId, ReadAt: readAt}, nil
}

func (s *memStore) CountPostsModifiedAfter(ctx context.Context, threadId domain.ThreadId, after time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, p := range s.postsOf(threadId) {
		if p.ModifiedAt.After(after) {
			n++
		}
	}
	return n, nil
}

func (s *memStore) ThreadsWithUnread(ctx context.Context, forum domain.Forum, userId domain.UserId) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	threads := s.threadsOf(forum)
	var latest time.Time
	for _, t := range threads {
		if readAt, ok := s.marks[markKey{t.Id, userId}]; ok && readAt.After(latest) {
			latest = readAt
		}
	}
	n := 0
	for _, t := range threads {
		for _, p := range s.postsOf(t.Id) {
			if p.ModifiedAt.After(latest) {
				n++
				break
			}
		}
	}
	return n, nil
}

func (s *memStore) DeleteReadMarksForUser(ctx context.Context, userId domain.UserId) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for k := range s.marks {
		if k.user == userId {
			delete(s.marks, k)
			n++
		}
	}
	return n, nil
}

// clipboard

func (s *memStore) UpsertClipboard(ctx context.Context, entry domain.ClipboardEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clipboard[entry.UserId] = entry
	return nil
}

func (s *memStore) GetClipboard(ctx context.Context, userId domain.UserId) (domain.ClipboardEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.clipboard[userId]
	if !ok {
		return domain.ClipboardEntry{}, internal_errors.NotFound("Clipboard entry")
	}
	return entry, nil
}

func (s *memStore) DeleteExpiredClipboards(ctx context.Context, olderThan time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for user, entry := range s.clipboard {
		if entry.InsertedAt.Before(olderThan) {
			delete(s.clipboard, user)
			n++
		}
	}
	return n, nil
}

func (s *memStore) DeleteClipboardsForThread(ctx context.Context, threadId domain.ThreadId) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for user, entry := range s.clipboard {
		if entry.ThreadId == threadId {
			delete(s.clipboard, user)
		}
	}
	return nil
}

func (s *memStore) DeleteClipboard(ctx context.Context, userId domain.UserId) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clipboard, userId)
	return nil
}

// purge

func (s *memStore) DeleteThreadsAt(ctx context.Context, kinds []domain.ForumKind, location domain.LocationId) ([]domain.ThreadId, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed []domain.ThreadId
	for _, kind := range kinds {
		for _, t := range s.threadsOf(domain.Forum{Kind: kind, Location: location}) {
			removed = append(removed, t.Id)
		}
	}
	for _, id := range removed {
		s.deleteThreadLocked(id)
	}
	return removed, nil
}

// --- Other mocks ---

// MockPostValidator accepts everything unless told otherwise.
type MockPostValidator struct {
	contentFunc func(subject, body string) (domain.PostSubject, domain.PostBody, error)
}

func (m *MockPostValidator) Content(subject, body string) (domain.PostSubject, domain.PostBody, error) {
	if m.contentFunc != nil {
		return m.contentFunc(subject, body)
	}
	return domain.PostSubject(subject), domain.PostBody(body), nil
}

func (m *MockPostValidator) Attachment(name *string) (*string, error) {
	return name, nil
}

type notification struct {
	postId   domain.PostId
	audience domain.NotificationAudience
}

type MockNotifier struct {
	mu   sync.Mutex
	sent []notification
}

func (m *MockNotifier) NotifyNewPost(ctx context.Context, postId domain.PostId, audience domain.NotificationAudience) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, notification{postId, audience})
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

// Now advances one second per call so that every post gets a distinct time.
func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

// --- Test environment ---

const (
	course      = domain.LocationId(7)
	otherCourse = domain.LocationId(8)
	centre      = domain.LocationId(3)
)

var (
	alice    = domain.User{Id: 1, Locale: "en"}
	bob      = domain.User{Id: 2, Locale: "es"}
	teacher  = domain.User{Id: 3, Locale: "en"}
	outsider = domain.User{Id: 5, Locale: "en"}
	admin    = domain.User{Id: 9, Admin: true, Locale: "en"}

	courseForum   = domain.Forum{Kind: domain.ForumCourseAll, Location: course}
	teachersForum = domain.Forum{Kind: domain.ForumCourseTeachers, Location: course}
	centreForum   = domain.Forum{Kind: domain.ForumCentreAll, Location: centre}
	globalForum   = domain.Forum{Kind: domain.ForumGlobalAll, Location: domain.LocationNone}
)

type testEnv struct {
	store    *memStore
	clock    *fakeClock
	notifier *MockNotifier
	cfg      *config.Public

	forums     *Forum
	moderation *Moderation
	readState  *ReadState
	threads    *Thread
	posts      *Post
	clipboard  *Clipboard
	purge      *Purge
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := newMemStore()
	store.join(alice.Id, domain.ScopeCourse, course, domain.RoleStudent)
	store.join(bob.Id, domain.ScopeCourse, course, domain.RoleStudent)
	store.join(teacher.Id, domain.ScopeCourse, course, domain.RoleTeacher)
	store.admins[admin.Id] = true

	clock := &fakeClock{t: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	notifier := &MockNotifier{}
	cfg := &config.Public{ThreadsPerPage: 2, PostsPerPage: 2, ClipboardTTL: time.Hour}

	forums := NewForum(store, store)
	moderation := NewModeration(store, store, forums)
	readState := NewReadState(store)
	validator := &MockPostValidator{}

	threads := NewThread(store, forums, moderation, readState, validator, notifier, store, cfg)
	threads.now = clock.Now
	posts := NewPost(store, forums, moderation, validator, notifier, store)
	posts.now = clock.Now
	clipboard := NewClipboard(store, store, forums, moderation, cfg.ClipboardTTL)
	clipboard.now = clock.Now

	return &testEnv{
		store:      store,
		clock:      clock,
		notifier:   notifier,
		cfg:        cfg,
		forums:     forums,
		moderation: moderation,
		readState:  readState,
		threads:    threads,
		posts:      posts,
		clipboard:  clipboard,
		purge:      NewPurge(store, store, store),
	}
}

func (e *testEnv) start(t *testing.T, caller domain.User, forum domain.Forum, subject string) (domain.ThreadId, domain.PostId) {
	t.Helper()
	threadId, postId, err := e.threads.Start(context.Background(), caller, domain.ThreadCreationData{
		Forum:  forum,
		OpPost: domain.PostCreationData{Subject: domain.PostSubject(subject), Body: "body"},
	})
	if err != nil {
		t.Fatalf("start thread: %v", err)
	}
	return threadId, postId
}

func (e *testEnv) reply(t *testing.T, caller domain.User, threadId domain.ThreadId, body string) domain.PostId {
	t.Helper()
	postId, err := e.posts.Reply(context.Background(), caller, domain.PostCreationData{ThreadId: threadId, Body: domain.PostBody(body)})
	if err != nil {
		t.Fatalf("reply: %v", err)
	}
	return postId
}
