package notifier

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/challengefit/workout-challenge/internal/platform/resilience"
	"github.com/challengefit/workout-challenge/internal/usecase"
)

func TestNotifyBatchCompletedPostsReport(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method: %s", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer hook-secret" {
			t.Fatalf("unexpected authorization header: %s", got)
		}

		var report usecase.RecalcRunReport
		if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&report); err != nil {
			t.Fatalf("decode report body: %v", err)
		}
		if report.GroupCount != 3 || report.SuccessCount != 2 || report.FailedCount != 1 {
			t.Fatalf("unexpected report: %+v", report)
		}

		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	n := NewWebhookNotifier(WebhookConfig{
		URL:            srv.URL,
		AuthToken:      "hook-secret",
		Timeout:        time.Second,
		CircuitBreaker: resilience.CircuitBreakerConfig{Enabled: false},
	}, logger)

	report := usecase.RecalcRunReport{GroupCount: 3, SuccessCount: 2, FailedCount: 1}
	if err := n.NotifyBatchCompleted(context.Background(), report); err != nil {
		t.Fatalf("notify failed: %v", err)
	}
}

func TestNotifyBatchCompletedServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	n := NewWebhookNotifier(WebhookConfig{
		URL:            srv.URL,
		CircuitBreaker: resilience.CircuitBreakerConfig{Enabled: false},
	}, logger)

	err := n.NotifyBatchCompleted(context.Background(), usecase.RecalcRunReport{})
	if err == nil {
		t.Fatalf("expected error for 500 response")
	}
	if !isCircuitFailure(err) {
		t.Fatalf("expected transient failure classification, got %v", err)
	}
}

func TestNotifyBatchCompletedCircuitOpens(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	n := NewWebhookNotifier(WebhookConfig{
		URL: srv.URL,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 2,
			OpenTimeout:      time.Minute,
			HalfOpenMaxReq:   1,
		},
	}, logger)

	for i := 0; i < 2; i++ {
		if err := n.NotifyBatchCompleted(context.Background(), usecase.RecalcRunReport{}); err == nil {
			t.Fatalf("expected error on attempt %d", i)
		}
	}

	err := n.NotifyBatchCompleted(context.Background(), usecase.RecalcRunReport{})
	if err == nil {
		t.Fatalf("expected circuit rejection")
	}
	if calls.Load() != 2 {
		t.Fatalf("expected breaker to stop third call, server saw %d", calls.Load())
	}
}

func TestNotifyBatchCompletedRejectsBadURL(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	n := NewWebhookNotifier(WebhookConfig{
		URL:            "ftp://hooks.example.com/recalc",
		CircuitBreaker: resilience.CircuitBreakerConfig{Enabled: false},
	}, logger)

	if err := n.NotifyBatchCompleted(context.Background(), usecase.RecalcRunReport{}); err == nil {
		t.Fatalf("expected error for unsupported scheme")
	}
}
