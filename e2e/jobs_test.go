package e2e

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/clipforge/api/internal/model"
)

func TestJobs_RequireAuth(t *testing.T) {
	ta := setupApp(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/jobs"},
		{http.MethodGet, "/api/jobs/some-id"},
		{http.MethodPost, "/api/jobs"},
	}

	for _, p := range paths {
		resp, err := doRequest(ta.app, p.method, p.path, "", nil)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("%s %s without token: status %d, want 401", p.method, p.path, resp.StatusCode)
		}
	}
}

func TestJobs_ListEmpty(t *testing.T) {
	ta := setupApp(t)

	resp, err := doAuthRequest(t, ta.app, http.MethodGet, "/api/jobs", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusOK)

	result := parseJSON(t, resp)
	jobs, ok := result["jobs"].([]interface{})
	if !ok {
		t.Fatalf("expected jobs array, got %v", result["jobs"])
	}
	if len(jobs) != 0 {
		t.Errorf("expected empty list, got %d jobs", len(jobs))
	}
}

func TestJobs_CreateAndGet(t *testing.T) {
	ta := setupApp(t)

	resp, err := doAuthRequest(t, ta.app, http.MethodPost, "/api/jobs", `{"keyword":"storm chasing"}`)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusAccepted)

	created := parseJSON(t, resp)
	jobID, _ := created["jobId"].(string)
	if jobID == "" {
		t.Fatal("expected jobId in response")
	}
	if created["status"] != string(model.JobStatusQueued) {
		t.Errorf("status = %v, want queued", created["status"])
	}
	if ta.enqueuer.count() != 1 {
		t.Errorf("expected 1 enqueued task, got %d", ta.enqueuer.count())
	}

	resp, err = doAuthRequest(t, ta.app, http.MethodGet, "/api/jobs/"+jobID, "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)

	job := parseJSON(t, resp)
	if job["id"] != jobID {
		t.Errorf("id = %v, want %s", job["id"], jobID)
	}
	if job["keyword"] != "storm chasing" {
		t.Errorf("keyword = %v", job["keyword"])
	}
	if job["status"] != string(model.JobStatusQueued) {
		t.Errorf("status = %v", job["status"])
	}
}

func TestJobs_ListNewestFirst(t *testing.T) {
	ta := setupApp(t)

	for _, kw := range []string{"first", "second", "third"} {
		resp, err := doAuthRequest(t, ta.app, http.MethodPost, "/api/jobs", fmt.Sprintf(`{"keyword":"%s"}`, kw))
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		assertStatus(t, resp, http.StatusAccepted)
	}

	resp, err := doAuthRequest(t, ta.app, http.MethodGet, "/api/jobs", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)

	result := parseJSON(t, resp)
	jobs, _ := result["jobs"].([]interface{})
	if len(jobs) != 3 {
		t.Fatalf("expected 3 jobs, got %d", len(jobs))
	}
	newest, _ := jobs[0].(map[string]interface{})
	if newest["keyword"] != "third" {
		t.Errorf("first listed keyword = %v, want the newest", newest["keyword"])
	}
}

func TestJobs_GetNotFound(t *testing.T) {
	ta := setupApp(t)

	resp, err := doAuthRequest(t, ta.app, http.MethodGet, "/api/jobs/no-such-job", "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusNotFound)

	result := parseJSON(t, resp)
	errObj, _ := result["error"].(map[string]interface{})
	if errObj["code"] != "NOT_FOUND" {
		t.Errorf("error code = %v", errObj["code"])
	}
}

func TestJobs_CreateValidation(t *testing.T) {
	ta := setupApp(t)

	cases := []struct {
		name string
		body string
	}{
		{"missing keyword", `{}`},
		{"empty keyword", `{"keyword":""}`},
		{"too long", fmt.Sprintf(`{"keyword":"%s"}`, strings.Repeat("a", 81))},
		{"not json", `keyword=storm`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := doAuthRequest(t, ta.app, http.MethodPost, "/api/jobs", tc.body)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			assertStatus(t, resp, http.StatusBadRequest)
		})
	}

	jobs, _ := ta.store.List(context.Background())
	if len(jobs) != 0 {
		t.Errorf("invalid requests created %d jobs", len(jobs))
	}
}

func TestJobs_CompletedJobVisibleToDashboard(t *testing.T) {
	ta := setupApp(t)

	resp, err := doAuthRequest(t, ta.app, http.MethodPost, "/api/jobs", `{"keyword":"storm chasing"}`)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	created := parseJSON(t, resp)
	jobID, _ := created["jobId"].(string)

	// Walk the job to completion the way the worker would.
	ctx := context.Background()
	for _, s := range model.PipelineOrder[1:] {
		st := s
		patch := model.JobPatch{Status: &st}
		if st == model.JobStatusUploading {
			url := "https://cdn.example.com/videos/" + jobID + ".mp4"
			patch.ResultURL = &url
		}
		if _, err := ta.store.Patch(ctx, jobID, patch); err != nil {
			t.Fatalf("patch to %s: %v", st, err)
		}
	}

	resp, err = doAuthRequest(t, ta.app, http.MethodGet, "/api/jobs/"+jobID, "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	assertStatus(t, resp, http.StatusOK)

	job := parseJSON(t, resp)
	if job["status"] != string(model.JobStatusCompleted) {
		t.Errorf("status = %v, want completed", job["status"])
	}
	if resultURL, _ := job["resultUrl"].(string); !strings.Contains(resultURL, jobID) {
		t.Errorf("resultUrl = %v", job["resultUrl"])
	}
}

func TestJobs_InvalidToken(t *testing.T) {
	ta := setupApp(t)

	resp, err := doRequest(ta.app, http.MethodGet, "/api/jobs", "", map[string]string{
		"Authorization": "Bearer not-a-token",
	})
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	assertStatus(t, resp, http.StatusUnauthorized)
}
