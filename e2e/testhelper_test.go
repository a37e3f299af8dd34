package e2e

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"

	"github.com/clipforge/api/internal/auth"
	"github.com/clipforge/api/internal/handler"
	"github.com/clipforge/api/internal/middleware"
	"github.com/clipforge/api/internal/service"
	"github.com/clipforge/api/internal/store"
)

const (
	testJWTSecret     = "test-secret-for-e2e"
	testWebhookSecret = "test-webhook-secret"
)

// capturingEnqueuer stands in for the asynq client so the suite runs
// without a broker.
type capturingEnqueuer struct {
	mu    sync.Mutex
	tasks []*asynq.Task
}

func (e *capturingEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tasks = append(e.tasks, task)
	return &asynq.TaskInfo{ID: "task-1", Queue: service.PipelineQueue, Type: task.Type()}, nil
}

func (e *capturingEnqueuer) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.tasks)
}

// testApp holds all components needed for testing.
type testApp struct {
	app      *fiber.App
	store    store.JobStore
	enqueuer *capturingEnqueuer
}

// setupApp creates a Fiber app with the same routes as main.go, backed
// by the in-memory store and a capturing enqueuer. Rate limiting is
// Redis-backed and left out; it is orthogonal to the handler behavior
// under test.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	jobStore := store.NewMemoryStore()
	enqueuer := &capturingEnqueuer{}
	validate := validator.New()

	intakeService := service.NewIntakeService(jobStore, enqueuer)

	webhookHandler := handler.NewWebhookHandler(intakeService, testWebhookSecret)
	jobsHandler := handler.NewJobsHandler(jobStore, intakeService, validate)

	authMiddleware := middleware.NewAuthMiddleware(testJWTSecret)

	app := fiber.New()

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"timestamp": time.Now().Unix()})
	})
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"services": fiber.Map{
				"groq":     false,
				"render":   false,
				"media":    false,
				"r2":       false,
				"telegram": false,
			},
		})
	})

	app.Post("/telegram/webhook", webhookHandler.Handle)

	api := app.Group("/api", authMiddleware.Authenticate())
	jobs := api.Group("/jobs")
	jobs.Get("/", jobsHandler.List)
	jobs.Get("/:jobId", jobsHandler.Get)
	jobs.Post("/", jobsHandler.Create)

	return &testApp{app: app, store: jobStore, enqueuer: enqueuer}
}

// generateToken creates an operator token for test requests.
func generateToken(t *testing.T) string {
	t.Helper()
	token, err := auth.IssueToken("test-operator", "Test Operator", testJWTSecret, time.Hour)
	if err != nil {
		t.Fatalf("failed to generate test token: %v", err)
	}
	return token
}

// doRequest is a helper to perform HTTP requests against the test app.
func doRequest(app *fiber.App, method, path string, body string, headers map[string]string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != "" {
		bodyReader = strings.NewReader(body)
	}

	req, err := http.NewRequest(method, path, bodyReader)
	if err != nil {
		return nil, err
	}

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return app.Test(req, -1)
}

// doAuthRequest performs an authenticated request.
func doAuthRequest(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, error) {
	t.Helper()
	token := generateToken(t)
	return doRequest(app, method, path, body, map[string]string{
		"Authorization": "Bearer " + token,
	})
}

// doWebhookRequest performs a webhook delivery with the given secret
// token header.
func doWebhookRequest(app *fiber.App, body, secret string) (*http.Response, error) {
	headers := map[string]string{}
	if secret != "" {
		headers["X-Telegram-Bot-Api-Secret-Token"] = secret
	}
	return doRequest(app, "POST", "/telegram/webhook", body, headers)
}

// readBody reads and returns the response body as a string.
func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	return string(b)
}

// parseJSON parses response body into a map.
func parseJSON(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	body := readBody(t, resp)
	var result map[string]interface{}
	if err := json.Unmarshal([]byte(body), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, body)
	}
	return result
}

// assertStatus checks the HTTP status code.
func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("expected status %d, got %d", expected, resp.StatusCode)
	}
}
