package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/photo-share/internal/imagehost"
	"github.com/iliyamo/photo-share/internal/model"
	"github.com/iliyamo/photo-share/internal/repository"
)

// In-memory fakes backing the handler tests. They implement the store
// interfaces with the same sentinel errors the SQL repositories return,
// so handler behavior can be exercised without a database.

type fakeUserStore struct {
	mu     sync.Mutex
	nextID uint64
	users  map[uint64]*model.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[uint64]*model.User{}}
}

func (s *fakeUserStore) Create(_ context.Context, username, email, passwordHash string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Username, username) {
			return nil, repository.ErrUsernameExists
		}
		if strings.EqualFold(u.Email, email) {
			return nil, repository.ErrEmailExists
		}
	}
	role := model.RoleUser
	if len(s.users) == 0 {
		role = model.RoleAdmin
	}
	s.nextID++
	u := &model.User{
		ID:           s.nextID,
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	s.users[u.ID] = u
	cp := *u
	return &cp, nil
}

func (s *fakeUserStore) GetByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (s *fakeUserStore) GetByUsername(_ context.Context, username string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Username, username) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (s *fakeUserStore) GetByID(_ context.Context, id uint64) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *fakeUserStore) StoreRefresh(_ context.Context, userID uint64, tokenHash string, exp time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.RefreshTokenHash = &tokenHash
	u.RefreshExpiresAt = &exp
	return nil
}

func (s *fakeUserStore) ClearRefresh(_ context.Context, userID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.RefreshTokenHash = nil
	u.RefreshExpiresAt = nil
	return nil
}

func (s *fakeUserStore) SetActive(_ context.Context, id uint64, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.IsActive = active
	return nil
}

func (s *fakeUserStore) SetRole(_ context.Context, id uint64, role string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.Role = role
	return nil
}

func (s *fakeUserStore) UpdateProfile(_ context.Context, id uint64, email, passwordHash *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	if email != nil {
		for _, other := range s.users {
			if other.ID != id && strings.EqualFold(other.Email, *email) {
				return repository.ErrEmailExists
			}
		}
		u.Email = *email
	}
	if passwordHash != nil {
		u.PasswordHash = *passwordHash
	}
	return nil
}

func (s *fakeUserStore) List(_ context.Context) ([]*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.User, 0, len(s.users))
	for _, u := range s.users {
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeTagStore struct {
	mu         sync.Mutex
	nextID     uint64
	byName     map[string]model.Tag // keyed by lowercased name
	resolveErr error
}

func newFakeTagStore() *fakeTagStore {
	return &fakeTagStore{byName: map[string]model.Tag{}}
}

func (s *fakeTagStore) ResolveAll(_ context.Context, names []string) ([]model.Tag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.resolveErr != nil {
		return nil, s.resolveErr
	}
	out := make([]model.Tag, 0, len(names))
	for _, name := range names {
		key := strings.ToLower(name)
		t, ok := s.byName[key]
		if !ok {
			s.nextID++
			t = model.Tag{ID: s.nextID, Name: name}
			s.byName[key] = t
		}
		out = append(out, t)
	}
	return out, nil
}

type fakePhotoStore struct {
	mu       sync.Mutex
	nextID   uint64
	photos   map[uint64]*model.Photo
	tagIDs   map[uint64][]uint64 // photoID -> ordered tag ids
	tagStore *fakeTagStore       // resolves ids back to names
}

func newFakePhotoStore(tags *fakeTagStore) *fakePhotoStore {
	return &fakePhotoStore{photos: map[uint64]*model.Photo{}, tagIDs: map[uint64][]uint64{}, tagStore: tags}
}

func (s *fakePhotoStore) Create(_ context.Context, p *model.Photo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	p.ID = s.nextID
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = p.CreatedAt
	cp := *p
	s.photos[p.ID] = &cp
	return nil
}

func (s *fakePhotoStore) GetByID(_ context.Context, id uint64) (*model.Photo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.photos[id]
	if !ok {
		return nil, repository.ErrPhotoNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *fakePhotoStore) List(_ context.Context, userID uint64) ([]*model.Photo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.Photo, 0, len(s.photos))
	for _, p := range s.photos {
		if userID != 0 && p.UserID != userID {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *fakePhotoStore) UpdateDescription(_ context.Context, id uint64, description string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.photos[id]
	if !ok {
		return repository.ErrPhotoNotFound
	}
	p.Description = description
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *fakePhotoStore) SetTransformedURL(_ context.Context, id uint64, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.photos[id]
	if !ok {
		return repository.ErrPhotoNotFound
	}
	p.TransformedURL = &url
	return nil
}

func (s *fakePhotoStore) SetQRCodePath(_ context.Context, id uint64, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.photos[id]
	if !ok {
		return repository.ErrPhotoNotFound
	}
	p.QRCodePath = &path
	return nil
}

func (s *fakePhotoStore) Delete(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.photos[id]; !ok {
		return repository.ErrPhotoNotFound
	}
	delete(s.photos, id)
	delete(s.tagIDs, id)
	return nil
}

func (s *fakePhotoStore) CountByUser(_ context.Context, userID uint64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, p := range s.photos {
		if p.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (s *fakePhotoStore) ReplaceTags(_ context.Context, photoID uint64, tagIDs []uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tagIDs[photoID] = append([]uint64(nil), tagIDs...)
	return nil
}

func (s *fakePhotoStore) TagsForPhoto(_ context.Context, photoID uint64) ([]model.Tag, error) {
	s.mu.Lock()
	ids := s.tagIDs[photoID]
	s.mu.Unlock()

	s.tagStore.mu.Lock()
	defer s.tagStore.mu.Unlock()
	out := make([]model.Tag, 0, len(ids))
	for _, id := range ids {
		for _, t := range s.tagStore.byName {
			if t.ID == id {
				out = append(out, t)
				break
			}
		}
	}
	return out, nil
}

type fakeCommentStore struct {
	mu       sync.Mutex
	nextID   uint64
	comments map[uint64]*model.Comment
}

func newFakeCommentStore() *fakeCommentStore {
	return &fakeCommentStore{comments: map[uint64]*model.Comment{}}
}

func (s *fakeCommentStore) Create(_ context.Context, cm *model.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	cm.ID = s.nextID
	cm.CreatedAt = time.Now().UTC()
	cm.UpdatedAt = cm.CreatedAt
	cp := *cm
	s.comments[cm.ID] = &cp
	return nil
}

func (s *fakeCommentStore) GetByID(_ context.Context, id uint64) (*model.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cm, ok := s.comments[id]
	if !ok {
		return nil, repository.ErrCommentNotFound
	}
	cp := *cm
	return &cp, nil
}

func (s *fakeCommentStore) ListByPhoto(_ context.Context, photoID uint64) ([]*model.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.Comment, 0)
	for _, cm := range s.comments {
		if cm.PhotoID == photoID {
			cp := *cm
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeCommentStore) UpdateContent(_ context.Context, id uint64, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cm, ok := s.comments[id]
	if !ok {
		return repository.ErrCommentNotFound
	}
	cm.Content = content
	cm.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *fakeCommentStore) Delete(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.comments[id]; !ok {
		return repository.ErrCommentNotFound
	}
	delete(s.comments, id)
	return nil
}

func (s *fakeCommentStore) CountByPhoto(_ context.Context, photoID uint64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, cm := range s.comments {
		if cm.PhotoID == photoID {
			n++
		}
	}
	return n, nil
}

type fakeAssetHost struct {
	mu        sync.Mutex
	nextID    int
	uploadErr error
	destroyed []string
}

func (f *fakeAssetHost) Upload(_ context.Context, _ string, r io.Reader) (string, string, error) {
	if f.uploadErr != nil {
		return "", "", f.uploadErr
	}
	_, _ = io.Copy(io.Discard, r)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	publicID := "photoshare/test-" + strings.Repeat("a", f.nextID)
	return "https://img.test/" + publicID, publicID, nil
}

func (f *fakeAssetHost) Destroy(_ context.Context, publicID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.destroyed = append(f.destroyed, publicID)
	return nil
}

func (f *fakeAssetHost) TransformURL(publicID, transformation string) (string, error) {
	switch transformation {
	case "resize", "crop", "grayscale", "quality":
		return "https://img.test/t_" + transformation + "/" + publicID, nil
	}
	return "", imagehost.ErrUnsupportedTransform
}

type fakeQRGen struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeQRGen) Generate(string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return "qr-test.png", nil
}

// ----- request helpers -----

func newJSONCtx(e *echo.Echo, method, path string, body any) (echo.Context, *httptest.ResponseRecorder) {
	var rd io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func newUploadCtx(e *echo.Echo, fields map[string]string, fileContent []byte) (echo.Context, *httptest.ResponseRecorder) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		_ = mw.WriteField(k, v)
	}
	fw, _ := mw.CreateFormFile("file", "photo.jpg")
	_, _ = fw.Write(fileContent)
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/v1/photos", &buf)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

// asUser injects the context values JWTAuth would have set.
func asUser(c echo.Context, userID uint64, role string) {
	c.Set("user_id", userID)
	c.Set("role", role)
}

func decodeBody(rec *httptest.ResponseRecorder, into any) {
	_ = json.Unmarshal(rec.Body.Bytes(), into)
}
