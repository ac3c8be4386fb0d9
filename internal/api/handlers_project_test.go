package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wedding-planner/backend/internal/models"
	"github.com/wedding-planner/backend/internal/session"
	"github.com/wedding-planner/backend/internal/storage"
)

func TestProjectHandler_SceneRoundTrip(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(http.MethodPut, "/api/projects/wedding-1/scene", models.SceneDocument{
		Revision: 4,
		Texts:    []models.TextElement{{ID: "t1", X: 50, Y: 60, Text: "Head table", FontSize: 16}},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var doc models.SceneDocument
	decodeBody(t, rec, &doc)
	assert.Equal(t, "wedding-1", doc.ProjectID)
	assert.Equal(t, int64(5), doc.Revision)
	require.Len(t, doc.Texts, 1)

	rec = srv.do(http.MethodGet, "/api/projects/wedding-1/scene/msgpack", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/msgpack", rec.Header().Get("Content-Type"))
	decoded, err := storage.DecodeScene(rec.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "Head table", decoded.Texts[0].Text)

	rec = srv.do(http.MethodGet, "/api/projects", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []models.ProjectInfo
	decodeBody(t, rec, &list)
	require.Len(t, list, 1)
	assert.Equal(t, "wedding-1", list[0].ID)
}

func TestProjectHandler_PutSceneInvalidBody(t *testing.T) {
	srv := newTestServer(t)
	rec := srv.do(http.MethodPut, "/api/projects/p1/scene", "not a document")
	assertAPIError(t, rec, http.StatusBadRequest, "BAD_REQUEST")
}

func TestProjectHandler_Delete(t *testing.T) {
	srv := newTestServer(t)
	srv.scenes.Put(models.SceneDocument{ProjectID: "p1", Revision: 2})

	rec := srv.do(http.MethodGet, "/api/projects/p1/scene", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = srv.do(http.MethodDelete, "/api/projects/p1", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	_, err := srv.scenes.Load(context.Background(), "p1")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	rec = srv.do(http.MethodDelete, "/api/projects/p1", nil)
	assertAPIError(t, rec, http.StatusNotFound, "NOT_FOUND")
}

func TestProjectHandler_DeleteDisabled(t *testing.T) {
	srv := newTestServer(t, func(d *Dependencies, _ *session.Options) {
		d.AllowProjectDeletion = false
	})
	rec := srv.do(http.MethodDelete, "/api/projects/p1", nil)
	assertAPIError(t, rec, http.StatusForbidden, "FORBIDDEN")
}
