package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/photo-share/internal/model"
)

func (env *photoEnv) commentHandler() *CommentHandler {
	return NewCommentHandler(env.comments, env.photos)
}

func (env *photoEnv) comment(t *testing.T, userID, photoID uint64, content string) commentResp {
	t.Helper()
	h := env.commentHandler()
	c, rec := newJSONCtx(env.e, http.MethodPost, "/v1/comments", commentCreateReq{PhotoID: photoID, Content: content})
	asUser(c, userID, env.roleOf(t, userID))
	require.NoError(t, h.Create(c))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp commentResp
	decodeBody(rec, &resp)
	return resp
}

func TestCreateCommentOnMissingPhoto(t *testing.T) {
	env := newPhotoEnv(t)
	h := env.commentHandler()

	c, rec := newJSONCtx(env.e, http.MethodPost, "/v1/comments", commentCreateReq{PhotoID: 99, Content: "hi"})
	asUser(c, env.user, model.RoleUser)
	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCommentOnOthersPhoto(t *testing.T) {
	env := newPhotoEnv(t)
	photo := env.upload(t, env.admin, nil)

	// Commenting does not require ownership of the photo.
	resp := env.comment(t, env.user, photo.ID, "nice shot")
	assert.Equal(t, env.user, resp.UserID)
	assert.Equal(t, photo.ID, resp.PhotoID)
}

func TestEditCommentAuthorOnly(t *testing.T) {
	env := newPhotoEnv(t)
	photo := env.upload(t, env.user, nil)
	cm := env.comment(t, env.user, photo.ID, "original")
	h := env.commentHandler()

	// Neither an admin nor a moderator may edit someone else's words.
	content := "reworded"
	for _, who := range []struct {
		id   uint64
		role string
	}{{env.admin, model.RoleAdmin}, {env.mod, model.RoleModerator}} {
		c, rec := newJSONCtx(env.e, http.MethodPut, "/v1/comments/1", commentUpdateReq{Content: &content})
		withID(c, cm.ID)
		asUser(c, who.id, who.role)
		require.NoError(t, h.Update(c))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	}

	// The author may.
	c, rec := newJSONCtx(env.e, http.MethodPut, "/v1/comments/1", commentUpdateReq{Content: &content})
	withID(c, cm.ID)
	asUser(c, env.user, model.RoleUser)
	require.NoError(t, h.Update(c))
	require.Equal(t, http.StatusOK, rec.Code)
	var resp commentResp
	decodeBody(rec, &resp)
	assert.Equal(t, "reworded", resp.Content)
}

func TestEditCommentNoOpBody(t *testing.T) {
	env := newPhotoEnv(t)
	photo := env.upload(t, env.user, nil)
	cm := env.comment(t, env.user, photo.ID, "original")
	h := env.commentHandler()

	c, rec := newJSONCtx(env.e, http.MethodPut, "/v1/comments/1", map[string]string{})
	withID(c, cm.ID)
	asUser(c, env.user, model.RoleUser)
	require.NoError(t, h.Update(c))
	require.Equal(t, http.StatusOK, rec.Code)
	var resp commentResp
	decodeBody(rec, &resp)
	assert.Equal(t, "original", resp.Content)
}

func TestDeleteCommentElevatedRoles(t *testing.T) {
	env := newPhotoEnv(t)
	photo := env.upload(t, env.admin, nil)
	h := env.commentHandler()

	// Another plain user may not delete.
	cm := env.comment(t, env.user, photo.ID, "first")
	other, err := env.users.Create(nil, "dave", "dave@example.com", "h")
	require.NoError(t, err)
	c, rec := newJSONCtx(env.e, http.MethodDelete, "/v1/comments/1", nil)
	withID(c, cm.ID)
	asUser(c, other.ID, model.RoleUser)
	require.NoError(t, h.Delete(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// A moderator may.
	c, rec = newJSONCtx(env.e, http.MethodDelete, "/v1/comments/1", nil)
	withID(c, cm.ID)
	asUser(c, env.mod, model.RoleModerator)
	require.NoError(t, h.Delete(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// The author may delete their own.
	cm = env.comment(t, env.user, photo.ID, "second")
	c, rec = newJSONCtx(env.e, http.MethodDelete, "/v1/comments/2", nil)
	withID(c, cm.ID)
	asUser(c, env.user, model.RoleUser)
	require.NoError(t, h.Delete(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// Gone means gone.
	c, rec = newJSONCtx(env.e, http.MethodDelete, "/v1/comments/2", nil)
	withID(c, cm.ID)
	asUser(c, env.user, model.RoleUser)
	require.NoError(t, h.Delete(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListCommentsByPhoto(t *testing.T) {
	env := newPhotoEnv(t)
	photo := env.upload(t, env.user, nil)
	env.comment(t, env.user, photo.ID, "one")
	env.comment(t, env.admin, photo.ID, "two")
	h := env.commentHandler()

	c, rec := newJSONCtx(env.e, http.MethodGet, "/v1/photos/1/comments", nil)
	withID(c, photo.ID)
	require.NoError(t, h.ListByPhoto(c))
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Items []commentResp `json:"items"`
	}
	decodeBody(rec, &resp)
	require.Len(t, resp.Items, 2)
	assert.Equal(t, "one", resp.Items[0].Content)

	c, rec = newJSONCtx(env.e, http.MethodGet, "/v1/photos/99/comments", nil)
	withID(c, 99)
	require.NoError(t, h.ListByPhoto(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
