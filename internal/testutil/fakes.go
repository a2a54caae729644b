package testutil

import (
	"context"
	"errors"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/user/illust-harvester/internal/entity"
	"github.com/user/illust-harvester/internal/repository"
)

// ErrFetch is returned by FakeFetcher for scripted failures.
var ErrFetch = errors.New("fetch failed")

// FetchCall is one recorded FetchToFile call.
type FetchCall struct {
	URL   string
	Dest  string
	Proxy repository.ProxyConfig
}

// FakeFetcher fails a scripted number of times per image, then succeeds.
// Images are keyed by URL without its extension so the fallback cascade
// shares one failure count.
type FakeFetcher struct {
	mu sync.Mutex

	Failures map[string]int
	// WriteFiles makes successful calls create the destination file.
	WriteFiles bool
	// OnFetch, when set, runs at the start of every call.
	OnFetch func(url string)
	Calls   []FetchCall
}

// NewFakeFetcher returns a FakeFetcher with no scripted failures.
func NewFakeFetcher() *FakeFetcher {
	return &FakeFetcher{Failures: map[string]int{}}
}

// FailTimes makes the next n fetches of url (any extension) fail.
func (f *FakeFetcher) FailTimes(url string, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Failures[StripExt(url)] = n
}

// StripExt removes the path extension of url.
func StripExt(url string) string {
	return strings.TrimSuffix(url, path.Ext(url))
}

func (f *FakeFetcher) FetchToFile(_ context.Context, url, dest string, proxy repository.ProxyConfig, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, FetchCall{URL: url, Dest: dest, Proxy: proxy})
	if f.OnFetch != nil {
		f.OnFetch(url)
	}
	key := StripExt(url)
	if f.Failures[key] > 0 {
		f.Failures[key]--
		return ErrFetch
	}
	if f.WriteFiles {
		return os.WriteFile(dest, []byte("image"), 0o644)
	}
	return nil
}

// CallCount returns the number of FetchToFile calls so far.
func (f *FakeFetcher) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Calls)
}

// Published is one recorded Publish call.
type Published struct {
	Event   string
	Channel string
	Payload any
	// CtxErr is the state of the publishing context at the time of the call.
	CtxErr error
}

// RecordingPublisher stores every published event.
type RecordingPublisher struct {
	mu     sync.Mutex
	Events []Published
}

func (p *RecordingPublisher) Publish(ctx context.Context, event, channelID string, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Events = append(p.Events, Published{Event: event, Channel: channelID, Payload: payload, CtxErr: ctx.Err()})
}

// Logs returns the payloads of every log-message event.
func (p *RecordingPublisher) Logs() []entity.LogEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []entity.LogEvent
	for _, e := range p.Events {
		if ev, ok := e.Payload.(entity.LogEvent); ok && e.Event == entity.EventLog {
			out = append(out, ev)
		}
	}
	return out
}

// Progress returns the payloads of every download-message event.
func (p *RecordingPublisher) Progress() []entity.ProgressEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []entity.ProgressEvent
	for _, e := range p.Events {
		if ev, ok := e.Payload.(entity.ProgressEvent); ok && e.Event == entity.EventDownload {
			out = append(out, ev)
		}
	}
	return out
}

// RecordingAudit stores appended records, or fails with Err when set.
type RecordingAudit struct {
	mu      sync.Mutex
	Err     error
	Records []entity.ProgressEvent
}

func (a *RecordingAudit) Append(_ context.Context, record entity.ProgressEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.Err != nil {
		return a.Err
	}
	a.Records = append(a.Records, record)
	return nil
}

// Len returns the number of stored records.
func (a *RecordingAudit) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.Records)
}
