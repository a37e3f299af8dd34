package handler

import (
	"crypto/subtle"
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"github.com/clipforge/api/internal/model"
	"github.com/clipforge/api/internal/service"
	"github.com/clipforge/api/pkg/response"
)

const secretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// WebhookHandler is the trigger intake boundary. Telegram delivers
// updates here; everything else is rejected by the secret token check.
type WebhookHandler struct {
	intake        *service.IntakeService
	webhookSecret string
}

func NewWebhookHandler(intake *service.IntakeService, webhookSecret string) *WebhookHandler {
	return &WebhookHandler{
		intake:        intake,
		webhookSecret: webhookSecret,
	}
}

// Handle handles POST /telegram/webhook. Telegram expects a fast 200
// on every delivery it should not re-send, so malformed payloads are
// acknowledged as ignored rather than erroring.
func (h *WebhookHandler) Handle(c *fiber.Ctx) error {
	if !h.verifySecret(c.Get(secretTokenHeader)) {
		return response.Unauthorized(c, "Invalid webhook secret")
	}

	var update model.TelegramUpdate
	if err := json.Unmarshal(c.Body(), &update); err != nil {
		return response.OK(c, model.WebhookResponse{OK: true, Ignored: true, Reason: "unparsable"})
	}

	resp, err := h.intake.Accept(c.Context(), &update)
	if err != nil {
		return response.StorageError(c, err.Error())
	}

	return response.OK(c, resp)
}

// verifySecret compares the delivered token in constant time. An empty
// configured secret rejects everything; the webhook is unusable until
// one is set.
func (h *WebhookHandler) verifySecret(token string) bool {
	if h.webhookSecret == "" || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(h.webhookSecret)) == 1
}
