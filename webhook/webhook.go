// Package webhook posts job lifecycle events to an HTTP endpoint.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/humbal1/pierce-doc-links-scrapper/models"
)

// Event types.
const (
	EventJobStarted   = "job.started"
	EventJobSucceeded = "job.succeeded"
	EventJobFailed    = "job.failed"
)

// SignatureHeader carries "sha256=<hex>" when a secret is configured.
const SignatureHeader = "X-Pierce-Signature"

// Event is the payload sent to webhook endpoints. Events of one job are
// delivered in the order they happened.
type Event struct {
	ID        string     `json:"id"`
	Type      string     `json:"type"`
	JobID     string     `json:"job_id"`
	Timestamp int64      `json:"timestamp"`
	Data      models.Job `json:"data"`
}

var defaultRetryDelays = []time.Duration{0, 1 * time.Second, 5 * time.Second, 30 * time.Second}

// Notifier delivers job events asynchronously. It implements jobs.Listener.
type Notifier struct {
	url    string
	secret string
	client *http.Client
	delays []time.Duration
	logger *slog.Logger
	wg     sync.WaitGroup

	mu sync.Mutex
	// tails holds, per job, a channel closed when its latest event is done.
	tails map[string]chan struct{}
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithHTTPClient replaces the delivery client.
func WithHTTPClient(c *http.Client) Option {
	return func(n *Notifier) { n.client = c }
}

// WithRetryDelays sets the wait before each attempt; the first is usually 0.
func WithRetryDelays(d ...time.Duration) Option {
	return func(n *Notifier) { n.delays = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(n *Notifier) { n.logger = l }
}

// New creates a Notifier posting to url.
func New(url, secret string, opts ...Option) *Notifier {
	n := &Notifier{
		url:    url,
		secret: secret,
		client: &http.Client{Timeout: 10 * time.Second},
		delays: defaultRetryDelays,
		logger: slog.Default(),
		tails:  make(map[string]chan struct{}),
	}
	for _, o := range opts {
		o(n)
	}
	return n
}

// JobStarted implements jobs.Listener.
func (n *Notifier) JobStarted(job models.Job) {
	n.send(EventJobStarted, job)
}

// JobFinished implements jobs.Listener.
func (n *Notifier) JobFinished(job models.Job) {
	typ := EventJobSucceeded
	if job.State == models.JobFailed {
		typ = EventJobFailed
	}
	n.send(typ, job)
}

// Wait blocks until in-flight deliveries finish.
func (n *Notifier) Wait() {
	n.wg.Wait()
}

func (n *Notifier) send(typ string, job models.Job) {
	event := &Event{
		ID:        uuid.NewString(),
		Type:      typ,
		JobID:     job.ID,
		Timestamp: time.Now().Unix(),
		Data:      job,
	}

	done := make(chan struct{})
	n.mu.Lock()
	prev := n.tails[job.ID]
	n.tails[job.ID] = done
	n.mu.Unlock()

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		if prev != nil {
			<-prev
		}
		n.deliverWithRetry(event)
		close(done)

		n.mu.Lock()
		if n.tails[job.ID] == done {
			delete(n.tails, job.ID)
		}
		n.mu.Unlock()
	}()
}

func (n *Notifier) deliverWithRetry(event *Event) {
	log := n.logger.With("url", n.url, "event", event.Type, "job_id", event.JobID)
	for attempt, delay := range n.delays {
		if delay > 0 {
			time.Sleep(delay)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := Deliver(ctx, n.client, n.url, n.secret, event)
		cancel()
		if err == nil {
			log.Info("webhook delivered", "attempt", attempt+1)
			return
		}
		log.Warn("webhook delivery failed", "attempt", attempt+1, "error", err)
	}
	log.Error("webhook delivery exhausted all retries")
}

// Deliver sends one event synchronously. The body is signed with
// HMAC-SHA256 when secret is non-empty.
func Deliver(ctx context.Context, client *http.Client, url, secret string, event *Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("webhook: marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "PierceDocs-Webhook/1.0")
	req.Header.Set("X-Pierce-Event-Id", event.ID)

	if secret != "" {
		req.Header.Set(SignatureHeader, "sha256="+Sign(secret, body))
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: deliver: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook: endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// Sign returns the hex HMAC-SHA256 of body under secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
