// Package notify tells thread participants about new posts by email.
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/itchan-dev/uniforum/shared/domain"
	"github.com/itchan-dev/uniforum/shared/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var notificationsSent = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "forum_notifications_total",
	Help: "Number of new post notifications, by outcome",
}, []string{"outcome"})

type Sender interface {
	Send(ctx context.Context, recipientEmail, subject, body string) error
}

type Storage interface {
	GetPost(ctx context.Context, id domain.PostId) (domain.Post, error)
	// ThreadRecipients returns the addresses of the thread's authors except the given user.
	ThreadRecipients(ctx context.Context, threadId domain.ThreadId, except domain.UserId) ([]string, error)
	AddNotifiedCount(ctx context.Context, id domain.PostId, n int) error
}

// Mailer sends notifications in the background. Delivery failures are logged
// and never reach the request that created the post.
type Mailer struct {
	storage Storage
	sender  Sender
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewMailer(storage Storage, sender Sender, timeout time.Duration) *Mailer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Mailer{storage: storage, sender: sender, timeout: timeout}
}

func (m *Mailer) NotifyNewPost(ctx context.Context, postId domain.PostId, audience domain.NotificationAudience) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.timeout)
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer cancel()
		if err := m.notify(ctx, postId, audience); err != nil {
			notificationsSent.WithLabelValues("failed").Inc()
			logger.FromContext(ctx).Error("failed to notify about new post", "post_id", postId, "error", err)
		}
	}()
}

func (m *Mailer) notify(ctx context.Context, postId domain.PostId, audience domain.NotificationAudience) error {
	post, err := m.storage.GetPost(ctx, postId)
	if err != nil {
		return err
	}
	recipients, err := m.storage.ThreadRecipients(ctx, audience.ThreadId, audience.AuthorId)
	if err != nil {
		return err
	}
	if len(recipients) == 0 {
		return nil
	}

	subject, body := compose(post, audience)
	sent := 0
	for _, to := range recipients {
		if err := m.sender.Send(ctx, to, subject, body); err != nil {
			notificationsSent.WithLabelValues("failed").Inc()
			logger.FromContext(ctx).Warn("notification not delivered", "post_id", postId, "error", err)
			continue
		}
		notificationsSent.WithLabelValues("sent").Inc()
		sent++
	}
	if sent == 0 {
		return nil
	}
	return m.storage.AddNotifiedCount(ctx, postId, sent)
}

// Wait blocks until all notifications in flight are done.
func (m *Mailer) Wait() {
	m.wg.Wait()
}

func compose(post domain.Post, audience domain.NotificationAudience) (string, string) {
	title := string(post.Subject)
	if title == "" {
		title = fmt.Sprintf("thread #%d", audience.ThreadId)
	}
	subject := fmt.Sprintf("New post in %s", title)
	body := fmt.Sprintf("A new post was published in %s (forum %s):\r\n\r\n%s\r\n",
		title, audience.Forum.String(), post.Body)
	return subject, body
}

// Nop is used when no mail server is configured.
type Nop struct{}

func (Nop) NotifyNewPost(context.Context, domain.PostId, domain.NotificationAudience) {}
