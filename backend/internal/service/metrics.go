package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	threadsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "forum_threads_started_total",
		Help: "Number of threads started",
	})
	postsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "forum_posts_created_total",
		Help: "Number of posts created, first posts of threads included",
	})
	postsRemoved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "forum_posts_removed_total",
		Help: "Number of trailing posts retracted by their authors",
	})
	threadsRemoved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "forum_threads_removed_total",
		Help: "Number of threads removed, by reason",
	}, []string{"reason"})
	postsBanned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "forum_posts_banned_total",
		Help: "Number of post bans issued by moderators",
	})
	threadsMoved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "forum_threads_moved_total",
		Help: "Number of threads pasted into a different forum",
	})
)

// reasons for threadsRemoved
const (
	removedByModerator = "moderator"
	removedLastPost    = "last_post"
	removedLocation    = "location"
)
