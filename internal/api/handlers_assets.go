// handlers_assets.go - Furniture image asset handlers
package api

import (
	"bytes"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/wedding-planner/backend/internal/storage"
)

// AssetHandlerImpl implements the AssetHandler interface
type AssetHandlerImpl struct {
	store         storage.AssetStore
	allowedTypes  map[string]bool
	allowDeletion bool
}

// NewAssetHandler creates a new asset handler. allowedTypes is a comma
// separated extension list; empty allows any file.
func NewAssetHandler(store storage.AssetStore, allowedTypes string, allowDeletion bool) AssetHandler {
	h := &AssetHandlerImpl{store: store, allowDeletion: allowDeletion}
	for _, ext := range strings.Split(allowedTypes, ",") {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if h.allowedTypes == nil {
			h.allowedTypes = make(map[string]bool)
		}
		h.allowedTypes[ext] = true
	}
	return h
}

// HandleUploadAsset stores a base64-encoded image
func (h *AssetHandlerImpl) HandleUploadAsset(c echo.Context) error {
	var req uploadAssetRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if err := req.validate(); err != nil {
		return err
	}
	if h.allowedTypes != nil && !h.allowedTypes[strings.ToLower(filepath.Ext(req.Name))] {
		return NewBadRequestError("unsupported image type", nil)
	}

	decoded, err := base64.StdEncoding.DecodeString(req.Data)
	if err != nil {
		return NewBadRequestError("invalid base64 data", err)
	}
	if !strings.HasPrefix(http.DetectContentType(decoded), "image/") {
		return NewBadRequestError("data is not an image", nil)
	}

	info, err := h.store.SaveBytes(req.Name, decoded)
	if err != nil {
		return NewInternalError("failed to save asset", err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"asset": info,
		"ref":   info.Ref(),
	})
}

// HandleListAssets returns recently uploaded assets
func (h *AssetHandlerImpl) HandleListAssets(c echo.Context) error {
	limit := 50
	if s := c.QueryParam("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			return NewValidationError("limit")
		}
		limit = n
	}
	list, err := h.store.List(limit)
	if err != nil {
		return NewInternalError("failed to list assets", err)
	}
	return c.JSON(http.StatusOK, list)
}

// HandleGetAsset returns asset metadata
func (h *AssetHandlerImpl) HandleGetAsset(c echo.Context) error {
	id := c.Param("id")
	info, err := h.store.Get(id)
	if err != nil {
		return fromDomainError("failed to get asset", "asset", id, err)
	}
	return c.JSON(http.StatusOK, info)
}

// HandleGetAssetContent streams the image bytes
func (h *AssetHandlerImpl) HandleGetAssetContent(c echo.Context) error {
	id := c.Param("id")
	rc, err := h.store.Open(id)
	if err != nil {
		return fromDomainError("failed to open asset", "asset", id, err)
	}
	defer rc.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(rc, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return NewInternalError("failed to read asset", err)
	}
	head = head[:n]
	c.Response().Header().Set("Cache-Control", "private, max-age=3600")
	return c.Stream(http.StatusOK, http.DetectContentType(head), io.MultiReader(bytes.NewReader(head), rc))
}

// HandleRenameAsset changes an asset's display name
func (h *AssetHandlerImpl) HandleRenameAsset(c echo.Context) error {
	id := c.Param("id")
	var req renameAssetRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if strings.TrimSpace(req.Name) == "" {
		return NewValidationError("name")
	}
	info, err := h.store.Rename(id, strings.TrimSpace(req.Name))
	if err != nil {
		return fromDomainError("failed to rename asset", "asset", id, err)
	}
	return c.JSON(http.StatusOK, info)
}

// HandleDeleteAsset removes an asset
func (h *AssetHandlerImpl) HandleDeleteAsset(c echo.Context) error {
	if !h.allowDeletion {
		return NewForbiddenError("asset deletion is disabled")
	}
	id := c.Param("id")
	if err := h.store.Delete(id); err != nil {
		return fromDomainError("failed to delete asset", "asset", id, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type uploadAssetRequest struct {
	Name string `json:"name"`
	Data string `json:"data"` // Base64-encoded image
}

func (r *uploadAssetRequest) validate() error {
	if r.Name == "" {
		return NewValidationError("name")
	}
	if r.Data == "" {
		return NewValidationError("data")
	}
	return nil
}

type renameAssetRequest struct {
	Name string `json:"name"`
}
