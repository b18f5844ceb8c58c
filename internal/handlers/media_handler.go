package handlers

import (
	"bufio"
	"errors"
	"io"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/minio/minio-go/v7"

	"github.com/wavelength-chat/wavelength-backend/internal/httpx"
	"github.com/wavelength-chat/wavelength-backend/internal/storage"
)

// MediaHandler streams stored avatar objects back to clients with
// conditional-request support.
type MediaHandler struct {
	blobs *storage.BlobStore
}

func NewMediaHandler(blobs *storage.BlobStore) *MediaHandler {
	return &MediaHandler{blobs: blobs}
}

func normalizeETag(v string) string {
	v = strings.TrimSpace(v)
	v = strings.TrimPrefix(v, "W/")
	v = strings.Trim(v, "\"")
	return v
}

func (h *MediaHandler) GetAvatar(c *fiber.Ctx) error {
	if h.blobs == nil {
		return httpx.Error(c, fiber.StatusServiceUnavailable, "storage_not_configured", "Storage not configured")
	}

	keyParam := strings.TrimSpace(c.Params("*"))
	key, err := storage.AvatarObjectKey("", keyParam)
	if err != nil {
		return httpx.Error(c, fiber.StatusNotFound, "not_found", "Not found")
	}

	obj, st, err := h.blobs.GetObject(c.Context(), key)
	if err != nil {
		var resp minio.ErrorResponse
		if errors.As(err, &resp) {
			if resp.StatusCode == 404 || resp.Code == "NoSuchKey" || resp.Code == "NoSuchObject" {
				return httpx.Error(c, fiber.StatusNotFound, "not_found", "Not found")
			}
		}
		log.Printf("[media] avatar fetch error key=%q err=%v", key, err)
		return httpx.Internal(c, "media_fetch_failed")
	}

	if st.ETag != "" {
		c.Set("ETag", "\""+st.ETag+"\"")
		if inm := normalizeETag(c.Get("If-None-Match")); inm != "" && inm == normalizeETag(st.ETag) {
			_ = obj.Close()
			return c.SendStatus(fiber.StatusNotModified)
		}
	}
	if !st.LastModified.IsZero() {
		c.Set("Last-Modified", st.LastModified.UTC().Format(time.RFC1123))
	}

	c.Set("Cache-Control", "private, max-age=31536000, immutable")
	if st.ContentType != "" {
		c.Type(st.ContentType)
	} else {
		c.Type("image/jpeg")
	}
	if st.Size > 0 {
		c.Set("Content-Length", strconv.FormatInt(st.Size, 10))
	}

	// Stream via the underlying fasthttp writer so large objects never
	// buffer in memory.
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer func() {
			_ = obj.Close()
		}()
		if _, copyErr := io.Copy(w, obj); copyErr != nil {
			log.Printf("[media] avatar stream error key=%q err=%v", key, copyErr)
			return
		}
		_ = w.Flush()
	})
	return nil
}
