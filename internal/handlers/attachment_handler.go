package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/mohidul32/Chat-Application/internal/httpx"
	"github.com/mohidul32/Chat-Application/internal/storage"
)

// AttachmentHandler resolves attachment handles into temporary download
// locators. File bytes stay inside the external blob store.
type AttachmentHandler struct {
	blobs *storage.BlobStore
}

func NewAttachmentHandler(blobs *storage.BlobStore) *AttachmentHandler {
	return &AttachmentHandler{blobs: blobs}
}

func (h *AttachmentHandler) GetAttachmentURL(c *fiber.Ctx) error {
	if _, err := httpx.LocalUint(c, "userID"); err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}
	if h.blobs == nil {
		return httpx.Error(c, fiber.StatusServiceUnavailable, "storage_unavailable", "Attachment storage is not configured")
	}

	key, err := storage.SafeAttachmentKey("attachments", c.Params("*"))
	if err != nil {
		return httpx.BadRequest(c, "invalid_key", "Invalid attachment key")
	}

	stat, err := h.blobs.StatAttachment(c.Context(), key)
	if err != nil {
		return httpx.NotFound(c, "attachment_not_found", "Attachment not found")
	}

	url, err := h.blobs.PresignGet(c.Context(), key, 15*time.Minute)
	if err != nil {
		return httpx.Internal(c, "presign_failed")
	}

	return c.JSON(fiber.Map{
		"url":  url,
		"size": stat.Size,
	})
}
