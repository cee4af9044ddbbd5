package handler

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/AIrWong777/my--literature-app/internal/filename"
	"github.com/AIrWong777/my--literature-app/internal/service"
	"github.com/AIrWong777/my--literature-app/internal/storage"
)

// pathParam returns a decoded route parameter. Fiber hands back the raw
// segment, so percent-encoded names (UTF-8 filenames in particular) need
// unescaping before they reach the service layer.
func pathParam(c *fiber.Ctx, name string) string {
	raw := c.Params(name)
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}

// HealthCheck reports whether the file store is usable.
//
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} errorPayload
// @Router /health [get]
func HealthCheck(store storage.FileStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := store.Ready(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe is a plain liveness endpoint with no dependency checks.
//
// @Summary Liveness probe
// @Tags health
// @Success 200
// @Router /healthz [get]
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// UploadFile accepts a multipart upload (field name: file) into a group.
//
// @Summary Upload a file
// @Tags files
// @Accept multipart/form-data
// @Produce json
// @Param group path string true "Group name"
// @Param file formData file true "File to upload"
// @Success 201 {object} model.StoredFile
// @Failure 400 {object} errorPayload
// @Failure 413 {object} errorPayload
// @Failure 503 {object} errorPayload
// @Router /groups/{group}/files [post]
func UploadFile(svc service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		group := pathParam(c, "group")

		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		if _, err := svc.ValidateFilename(fh.Filename); err != nil {
			if errors.Is(err, service.ErrFilenameRequired) {
				return writeError(c, fiber.StatusBadRequest, "FILENAME_REQUIRED", err.Error())
			}
			return writeError(c, fiber.StatusBadRequest, "FILE_TYPE_NOT_ALLOWED", err.Error())
		}

		if !svc.AllowedSize(fh.Size) {
			return writeError(c, fiber.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "file exceeds the maximum allowed size")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		stored, err := svc.Upload(c.UserContext(), group, f, fh.Filename, fh.Header.Get("Content-Type"))
		if err != nil {
			switch {
			case errors.Is(err, storage.ErrInvalidGroup):
				return writeError(c, fiber.StatusBadRequest, "INVALID_GROUP", "invalid group name")
			case errors.Is(err, service.ErrFileTooLarge):
				return writeError(c, fiber.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "file exceeds the maximum allowed size")
			case errors.Is(err, storage.ErrStorageUnavailable):
				return writeError(c, fiber.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", "storage unavailable")
			default:
				return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
			}
		}
		return c.Status(fiber.StatusCreated).JSON(stored)
	}
}

// ListFiles returns every stored file in a group.
//
// @Summary List files in a group
// @Tags files
// @Produce json
// @Param group path string true "Group name"
// @Success 200 {object} service.FileListResult
// @Failure 400 {object} errorPayload
// @Router /groups/{group}/files [get]
func ListFiles(svc service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		group := pathParam(c, "group")

		res, err := svc.List(c.UserContext(), group)
		if err != nil {
			if errors.Is(err, storage.ErrInvalidGroup) {
				return writeError(c, fiber.StatusBadRequest, "INVALID_GROUP", "invalid group name")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(res)
	}
}

// DownloadFile streams a stored file back as an attachment.
//
// @Summary Download a file
// @Tags files
// @Produce octet-stream
// @Param group path string true "Group name"
// @Param filename path string true "File name"
// @Success 200 {file} file
// @Failure 400 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Router /groups/{group}/files/{filename} [get]
func DownloadFile(svc service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		group := pathParam(c, "group")
		name := pathParam(c, "filename")

		rc, info, err := svc.Download(c.UserContext(), group, name)
		if err != nil {
			switch {
			case errors.Is(err, storage.ErrNotFound):
				return writeError(c, fiber.StatusNotFound, "FILE_NOT_FOUND", "file not found")
			case errors.Is(err, storage.ErrInvalidGroup):
				return writeError(c, fiber.StatusBadRequest, "INVALID_GROUP", "invalid group name")
			default:
				return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
			}
		}

		c.Set(fiber.HeaderContentType, info.ContentType)
		c.Set(fiber.HeaderContentDisposition, "attachment; "+filename.ForContentDisposition(info.Filename))
		return c.SendStream(rc, int(info.Size))
	}
}

// GetFileStats returns size and timestamp metadata for a stored file.
//
// @Summary File statistics
// @Tags files
// @Produce json
// @Param group path string true "Group name"
// @Param filename path string true "File name"
// @Success 200 {object} model.FileStats
// @Failure 400 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Router /groups/{group}/files/{filename}/stats [get]
func GetFileStats(svc service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		group := pathParam(c, "group")
		name := pathParam(c, "filename")

		stats, err := svc.Stat(c.UserContext(), group, name)
		if err != nil {
			switch {
			case errors.Is(err, storage.ErrNotFound):
				return writeError(c, fiber.StatusNotFound, "FILE_NOT_FOUND", "file not found")
			case errors.Is(err, storage.ErrInvalidGroup):
				return writeError(c, fiber.StatusBadRequest, "INVALID_GROUP", "invalid group name")
			default:
				return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
			}
		}
		return c.JSON(stats)
	}
}

// DeleteFile removes a stored file. Deleting an absent file succeeds.
//
// @Summary Delete a file
// @Tags files
// @Param group path string true "Group name"
// @Param filename path string true "File name"
// @Success 204
// @Failure 400 {object} errorPayload
// @Router /groups/{group}/files/{filename} [delete]
func DeleteFile(svc service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		group := pathParam(c, "group")
		name := pathParam(c, "filename")

		if err := svc.Delete(c.UserContext(), group, name); err != nil {
			if errors.Is(err, storage.ErrInvalidGroup) {
				return writeError(c, fiber.StatusBadRequest, "INVALID_GROUP", "invalid group name")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, store storage.FileStore, svc service.FileService) {
	app.Get("/health", HealthCheck(store))
	app.Get("/healthz", LivenessProbe())

	app.Post("/groups/:group/files", UploadFile(svc))
	app.Get("/groups/:group/files", ListFiles(svc))
	app.Get("/groups/:group/files/:filename", DownloadFile(svc))
	app.Get("/groups/:group/files/:filename/stats", GetFileStats(svc))
	app.Delete("/groups/:group/files/:filename", DeleteFile(svc))
}
