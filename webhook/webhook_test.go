package webhook

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/humbal1/pierce-doc-links-scrapper/models"
)

type received struct {
	event     Event
	body      []byte
	signature string
}

func collector(t *testing.T, failFirst int32) (*httptest.Server, func() []received) {
	t.Helper()
	var (
		mu    sync.Mutex
		got   []received
		calls atomic.Int32
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= failFirst {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		body, _ := io.ReadAll(r.Body)
		var e Event
		assert.NoError(t, json.Unmarshal(body, &e))
		mu.Lock()
		got = append(got, received{event: e, body: body, signature: r.Header.Get(SignatureHeader)})
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	return srv, func() []received {
		mu.Lock()
		defer mu.Unlock()
		return append([]received(nil), got...)
	}
}

func TestNotifier_LifecycleEvents(t *testing.T) {
	srv, got := collector(t, 0)
	n := New(srv.URL, "", WithRetryDelays(0))

	job := models.Job{ID: "job_1", DocumentType: "DEED", State: models.JobRunning}
	n.JobStarted(job)
	n.Wait()

	job.State = models.JobFailed
	n.JobFinished(job)
	n.Wait()

	job.State = models.JobSucceeded
	n.JobFinished(job)
	n.Wait()

	events := got()
	require.Len(t, events, 3)
	assert.Equal(t, EventJobStarted, events[0].event.Type)
	assert.Equal(t, EventJobFailed, events[1].event.Type)
	assert.Equal(t, EventJobSucceeded, events[2].event.Type)
	assert.Equal(t, "job_1", events[0].event.JobID)
	assert.Equal(t, "DEED", events[0].event.Data.DocumentType)
	assert.NotEqual(t, events[0].event.ID, events[1].event.ID)
	assert.Empty(t, events[0].signature)
}

func TestNotifier_Signs(t *testing.T) {
	srv, got := collector(t, 0)

	n := New(srv.URL, "s3cret", WithRetryDelays(0))
	n.JobStarted(models.Job{ID: "job_2"})
	n.Wait()

	events := got()
	require.Len(t, events, 1)
	assert.Equal(t, "sha256="+Sign("s3cret", events[0].body), events[0].signature)
}

func TestNotifier_Retries(t *testing.T) {
	srv, got := collector(t, 2)
	n := New(srv.URL, "", WithRetryDelays(0, time.Millisecond, time.Millisecond))

	n.JobStarted(models.Job{ID: "job_3"})
	n.Wait()

	assert.Len(t, got(), 1)
}

func TestNotifier_GivesUp(t *testing.T) {
	srv, got := collector(t, 100)
	n := New(srv.URL, "", WithRetryDelays(0, time.Millisecond))

	n.JobStarted(models.Job{ID: "job_4"})
	n.Wait()

	assert.Empty(t, got())
}

func TestNotifier_RetriedStartArrivesBeforeFinish(t *testing.T) {
	srv, got := collector(t, 1)
	n := New(srv.URL, "", WithRetryDelays(0, 50*time.Millisecond))

	job := models.Job{ID: "job_5", State: models.JobRunning}
	n.JobStarted(job)
	job.State = models.JobSucceeded
	n.JobFinished(job)
	n.Wait()

	events := got()
	require.Len(t, events, 2)
	assert.Equal(t, EventJobStarted, events[0].event.Type)
	assert.Equal(t, EventJobSucceeded, events[1].event.Type)

	n.mu.Lock()
	assert.Empty(t, n.tails)
	n.mu.Unlock()
}
