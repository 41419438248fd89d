package objectstore

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"RigorScore/internal/config"
	"RigorScore/internal/domain"
)

func TestObjectName(t *testing.T) {
	t.Parallel()

	got := ObjectName(domain.Report{
		AnalysisID: "an-1",
		Kind:       "score",
		CreatedAt:  time.Date(2026, 3, 15, 10, 30, 0, 5, time.FixedZone("x", 3600)),
	})
	want := "analyses/an-1/score/20260315T093000.000000005Z.json"
	if got != want {
		t.Fatalf("ObjectName = %q, want %q", got, want)
	}
}

func TestNewReportPublisherRequiresBucket(t *testing.T) {
	t.Parallel()

	if _, err := NewReportPublisher(config.ReportsConfig{Endpoint: "localhost:9000"}); err == nil {
		t.Fatalf("expected error without bucket")
	}
}

func TestPublishUploadsReport(t *testing.T) {
	t.Parallel()

	var (
		mu     sync.Mutex
		puts   []string
		bodies []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.URL.Query()["location"]; ok {
			w.Header().Set("Content-Type", "application/xml")
			_, _ = io.WriteString(w, `<LocationConstraint xmlns="http://s3.amazonaws.com/doc/2006-03-01/">us-east-1</LocationConstraint>`)
			return
		}
		if r.Method == http.MethodPut {
			raw, _ := io.ReadAll(r.Body)
			mu.Lock()
			puts = append(puts, r.URL.Path)
			bodies = append(bodies, string(raw))
			mu.Unlock()
			w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusMethodNotAllowed)
	}))
	defer srv.Close()

	pub, err := NewReportPublisher(config.ReportsConfig{
		Endpoint:  strings.TrimPrefix(srv.URL, "http://"),
		AccessKey: "test",
		SecretKey: "testsecret",
		Bucket:    "reports",
	})
	if err != nil {
		t.Fatalf("NewReportPublisher: %v", err)
	}

	report := domain.Report{
		AnalysisID: "an-1",
		Kind:       "readiness",
		CreatedAt:  time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		Body:       []byte(`{"is_ready":true}`),
	}
	if err := pub.Publish(context.Background(), report); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(puts) != 1 || puts[0] != "/reports/"+ObjectName(report) {
		t.Fatalf("unexpected uploads %v", puts)
	}
	if !strings.Contains(bodies[0], `{"is_ready":true}`) {
		t.Fatalf("unexpected body %q", bodies[0])
	}
}
