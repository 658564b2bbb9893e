package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/photo-share/internal/model"
	"github.com/iliyamo/photo-share/internal/utils"
)

func (env *photoEnv) userHandler() *UserHandler {
	return NewUserHandler(testConfig(), env.users, env.photos)
}

func TestPublicProfile(t *testing.T) {
	env := newPhotoEnv(t)
	env.upload(t, env.user, nil)
	env.upload(t, env.user, nil)
	h := env.userHandler()

	c, rec := newJSONCtx(env.e, http.MethodGet, "/v1/users/bob", nil)
	c.SetParamNames("username")
	c.SetParamValues("bob")
	require.NoError(t, h.Profile(c))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp profileResp
	decodeBody(rec, &resp)
	assert.Equal(t, "bob", resp.Username)
	assert.Equal(t, 2, resp.PhotoCount)

	c, rec = newJSONCtx(env.e, http.MethodGet, "/v1/users/ghost", nil)
	c.SetParamNames("username")
	c.SetParamValues("ghost")
	require.NoError(t, h.Profile(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateMe(t *testing.T) {
	env := newPhotoEnv(t)
	h := env.userHandler()

	email := "bob2@example.com"
	c, rec := newJSONCtx(env.e, http.MethodPatch, "/v1/users/me", profileUpdateReq{Email: &email})
	asUser(c, env.user, model.RoleUser)
	require.NoError(t, h.UpdateMe(c))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp userPart
	decodeBody(rec, &resp)
	assert.Equal(t, "bob2@example.com", resp.Email)

	// Taking another user's email conflicts.
	taken := "alice@example.com"
	c, rec = newJSONCtx(env.e, http.MethodPatch, "/v1/users/me", profileUpdateReq{Email: &taken})
	asUser(c, env.user, model.RoleUser)
	require.NoError(t, h.UpdateMe(c))
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Password change is verifiable through the stored hash.
	pw := "new-secret"
	c, rec = newJSONCtx(env.e, http.MethodPatch, "/v1/users/me", profileUpdateReq{Password: &pw})
	asUser(c, env.user, model.RoleUser)
	require.NoError(t, h.UpdateMe(c))
	require.Equal(t, http.StatusOK, rec.Code)
	u, err := env.users.GetByID(nil, env.user)
	require.NoError(t, err)
	assert.True(t, utils.VerifyPassword(u.PasswordHash, "new-secret"))

	// A body without fields is a no-op.
	c, rec = newJSONCtx(env.e, http.MethodPatch, "/v1/users/me", map[string]string{})
	asUser(c, env.user, model.RoleUser)
	require.NoError(t, h.UpdateMe(c))
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(rec, &resp)
	assert.Equal(t, "bob2@example.com", resp.Email)
}

func TestAdminListUsers(t *testing.T) {
	env := newPhotoEnv(t)
	h := env.userHandler()

	c, rec := newJSONCtx(env.e, http.MethodGet, "/v1/admin/users", nil)
	asUser(c, env.admin, model.RoleAdmin)
	require.NoError(t, h.ListUsers(c))
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Items []adminUserResp `json:"items"`
	}
	decodeBody(rec, &resp)
	require.Len(t, resp.Items, 3)
	assert.Equal(t, "alice", resp.Items[0].Username)
	assert.Equal(t, model.RoleAdmin, resp.Items[0].Role)
}

func TestAdminSetRole(t *testing.T) {
	env := newPhotoEnv(t)
	h := env.userHandler()

	c, rec := newJSONCtx(env.e, http.MethodPatch, "/v1/admin/users/2/role", roleReq{Role: "moderator"})
	withID(c, env.user)
	asUser(c, env.admin, model.RoleAdmin)
	require.NoError(t, h.SetRole(c))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	u, err := env.users.GetByID(nil, env.user)
	require.NoError(t, err)
	assert.Equal(t, model.RoleModerator, u.Role)

	c, rec = newJSONCtx(env.e, http.MethodPatch, "/v1/admin/users/2/role", roleReq{Role: "SUPERUSER"})
	withID(c, env.user)
	asUser(c, env.admin, model.RoleAdmin)
	require.NoError(t, h.SetRole(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	c, rec = newJSONCtx(env.e, http.MethodPatch, "/v1/admin/users/99/role", roleReq{Role: "USER"})
	withID(c, 99)
	asUser(c, env.admin, model.RoleAdmin)
	require.NoError(t, h.SetRole(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminSetActive(t *testing.T) {
	env := newPhotoEnv(t)
	h := env.userHandler()
	require.NoError(t, env.users.StoreRefresh(nil, env.user, "somehash", time.Now().UTC().Add(time.Hour)))

	active := false
	c, rec := newJSONCtx(env.e, http.MethodPatch, "/v1/admin/users/2/active", activeReq{Active: &active})
	withID(c, env.user)
	asUser(c, env.admin, model.RoleAdmin)
	require.NoError(t, h.SetActive(c))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	u, err := env.users.GetByID(nil, env.user)
	require.NoError(t, err)
	assert.False(t, u.IsActive)
	// Deactivation revokes the live session too.
	assert.Nil(t, u.RefreshTokenHash)

	c, rec = newJSONCtx(env.e, http.MethodPatch, "/v1/admin/users/2/active", map[string]string{})
	withID(c, env.user)
	asUser(c, env.admin, model.RoleAdmin)
	require.NoError(t, h.SetActive(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
