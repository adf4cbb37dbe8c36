package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"reflect"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/edu-center/site-api/internal/auth"
	"github.com/edu-center/site-api/internal/config"
	"github.com/edu-center/site-api/internal/models"
	"github.com/edu-center/site-api/internal/store"
	"github.com/edu-center/site-api/internal/utils"
)

/* ------------------ in-memory table ------------------ */

// memTable keeps rows of one model keyed by id. Column updates are applied
// by gorm column name.
type memTable[T any] struct {
	rows map[string]*T
	seq  int64
}

func newTable[T any]() *memTable[T] {
	return &memTable[T]{rows: map[string]*T{}}
}

func (t *memTable[T]) create(v *T) {
	rv := reflect.ValueOf(v).Elem()
	id := rv.FieldByName("ID")
	if id.String() == "" {
		id.SetString(uuid.NewString())
	}
	t.seq++
	// strictly increasing creation times keep "newest first" deterministic
	now := time.Unix(1_700_000_000+t.seq, 0).UTC()
	rv.FieldByName("CreatedAt").Set(reflect.ValueOf(now))
	rv.FieldByName("UpdatedAt").Set(reflect.ValueOf(now))
	cp := *v
	t.rows[id.String()] = &cp
}

func (t *memTable[T]) get(id string) (*T, error) {
	r, ok := t.rows[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (t *memTable[T]) update(id string, fields map[string]interface{}) (*T, error) {
	r, ok := t.rows[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	rv := reflect.ValueOf(r).Elem()
	for col, val := range fields {
		setColumn(rv, col, val)
	}
	rv.FieldByName("UpdatedAt").Set(reflect.ValueOf(time.Now().UTC()))
	cp := *r
	return &cp, nil
}

func (t *memTable[T]) delete(id string) (*T, error) {
	r, ok := t.rows[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	delete(t.rows, id)
	return r, nil
}

// all returns matching rows newest first.
func (t *memTable[T]) all(keep func(*T) bool) []T {
	out := []T{}
	for _, r := range t.rows {
		if keep == nil || keep(r) {
			out = append(out, *r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return createdAt(&out[i]).After(createdAt(&out[j]))
	})
	return out
}

func createdAt(v interface{}) time.Time {
	return reflect.ValueOf(v).Elem().FieldByName("CreatedAt").Interface().(time.Time)
}

func setColumn(rv reflect.Value, col string, val interface{}) {
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if columnName(f) != col {
			continue
		}
		v := reflect.ValueOf(val)
		if !v.Type().AssignableTo(f.Type) {
			v = v.Convert(f.Type)
		}
		rv.Field(i).Set(v)
		return
	}
	panic("unknown column " + col)
}

func columnName(f reflect.StructField) string {
	for _, part := range strings.Split(f.Tag.Get("gorm"), ";") {
		if strings.HasPrefix(part, "column:") {
			return strings.TrimPrefix(part, "column:")
		}
	}
	var b strings.Builder
	for i, r := range f.Name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

func pageOf[T any](rows []T, limit, offset int) []T {
	if offset >= len(rows) {
		return []T{}
	}
	end := offset + limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[offset:end]
}

func activeIs[T any](v *bool, field string) func(*T) bool {
	return func(r *T) bool {
		return v == nil || reflect.ValueOf(r).Elem().FieldByName(field).Bool() == *v
	}
}

/* ------------------ memStore ------------------ */

type memStore struct {
	mu         sync.Mutex
	users      *memTable[models.User]
	tokens     map[string]*models.RefreshToken
	banners    *memTable[models.Banner]
	news       *memTable[models.News]
	directions *memTable[models.Direction]
	choose     *memTable[models.Choose]
	questions  *memTable[models.Question]
	images     *memTable[models.Image]

	failWrites error
	pingErr    error
	userErr    error
}

func newMemStore() *memStore {
	return &memStore{
		users:      newTable[models.User](),
		tokens:     map[string]*models.RefreshToken{},
		banners:    newTable[models.Banner](),
		news:       newTable[models.News](),
		directions: newTable[models.Direction](),
		choose:     newTable[models.Choose](),
		questions:  newTable[models.Question](),
		images:     newTable[models.Image](),
	}
}

var _ Store = (*memStore)(nil)

func (m *memStore) Ping(context.Context) error { return m.pingErr }

func (m *memStore) CreateUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.users.rows {
		if x.Email == u.Email || x.Username == u.Username {
			return store.ErrDuplicate
		}
	}
	m.users.create(u)
	return nil
}

func (m *memStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users.rows {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memStore) GetUserByID(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.userErr != nil {
		return nil, m.userErr
	}
	return m.users.get(id)
}

func (m *memStore) UserExists(_ context.Context, email, username string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users.rows {
		if u.Email == email || u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) CountUsers(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.users.rows)), nil
}

func (m *memStore) SaveRefreshToken(_ context.Context, userID, plain string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[utils.HashToken(plain)] = &models.RefreshToken{
		ID: uuid.NewString(), UserID: userID, TokenHash: utils.HashToken(plain),
		IssuedAt: time.Now(), ExpiresAt: expiresAt,
	}
	return nil
}

func (m *memStore) RevokeRefreshToken(_ context.Context, plain string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rt, ok := m.tokens[utils.HashToken(plain)]; ok {
		rt.Revoked = true
	}
	return nil
}

func (m *memStore) RotateRefreshToken(_ context.Context, oldPlain, newPlain string, newExpiry time.Time) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rt, ok := m.tokens[utils.HashToken(oldPlain)]
	if !ok || rt.Revoked || rt.ExpiresAt.Before(time.Now()) {
		return "", store.ErrNotFound
	}
	rt.Revoked = true
	m.tokens[utils.HashToken(newPlain)] = &models.RefreshToken{
		ID: uuid.NewString(), UserID: rt.UserID, TokenHash: utils.HashToken(newPlain),
		IssuedAt: time.Now(), ExpiresAt: newExpiry,
	}
	return rt.UserID, nil
}

func (m *memStore) ListBanners(_ context.Context, active *bool) ([]models.Banner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.banners.all(activeIs[models.Banner](active, "Active")), nil
}

func (m *memStore) GetBannerByID(_ context.Context, id string) (*models.Banner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.banners.get(id)
}

func (m *memStore) CreateBanner(_ context.Context, b *models.Banner) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrites != nil {
		return m.failWrites
	}
	m.banners.create(b)
	return nil
}

func (m *memStore) UpdateBanner(_ context.Context, id string, fields map[string]interface{}) (*models.Banner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrites != nil {
		return nil, m.failWrites
	}
	return m.banners.update(id, fields)
}

func (m *memStore) DeleteBanner(_ context.Context, id string) (*models.Banner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.banners.delete(id)
}

func (m *memStore) ListNews(_ context.Context, published *bool, limit, offset int) ([]models.News, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.news.all(activeIs[models.News](published, "Published"))
	return pageOf(rows, limit, offset), int64(len(rows)), nil
}

func (m *memStore) GetNewsByID(_ context.Context, id string) (*models.News, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.news.get(id)
}

func (m *memStore) CreateNews(_ context.Context, n *models.News) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrites != nil {
		return m.failWrites
	}
	m.news.create(n)
	return nil
}

func (m *memStore) UpdateNews(_ context.Context, id string, fields map[string]interface{}) (*models.News, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.news.update(id, fields)
}

func (m *memStore) DeleteNews(_ context.Context, id string) (*models.News, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.news.delete(id)
}

func (m *memStore) ListDirections(_ context.Context, active *bool) ([]models.Direction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.directions.all(activeIs[models.Direction](active, "Active")), nil
}

func (m *memStore) GetDirectionByID(_ context.Context, id string) (*models.Direction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.directions.get(id)
}

func (m *memStore) CreateDirection(_ context.Context, d *models.Direction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrites != nil {
		return m.failWrites
	}
	m.directions.create(d)
	return nil
}

func (m *memStore) UpdateDirection(_ context.Context, id string, fields map[string]interface{}) (*models.Direction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.directions.update(id, fields)
}

func (m *memStore) DeleteDirection(_ context.Context, id string) (*models.Direction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.directions.delete(id)
}

func (m *memStore) ListChooseItems(_ context.Context, active *bool) ([]models.Choose, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.choose.all(activeIs[models.Choose](active, "Active")), nil
}

func (m *memStore) GetChooseItemByID(_ context.Context, id string) (*models.Choose, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.choose.get(id)
}

func (m *memStore) CreateChooseItem(_ context.Context, c *models.Choose) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.choose.create(c)
	return nil
}

func (m *memStore) UpdateChooseItem(_ context.Context, id string, fields map[string]interface{}) (*models.Choose, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.choose.update(id, fields)
}

func (m *memStore) DeleteChooseItem(_ context.Context, id string) (*models.Choose, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.choose.delete(id)
}

func (m *memStore) ListQuestions(_ context.Context, active *bool) ([]models.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.questions.all(activeIs[models.Question](active, "Active"))
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Order < rows[j].Order })
	return rows, nil
}

func (m *memStore) GetQuestionByID(_ context.Context, id string) (*models.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.questions.get(id)
}

func (m *memStore) CreateQuestion(_ context.Context, q *models.Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.questions.create(q)
	return nil
}

func (m *memStore) UpdateQuestion(_ context.Context, id string, fields map[string]interface{}) (*models.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.questions.update(id, fields)
}

func (m *memStore) DeleteQuestion(_ context.Context, id string) (*models.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.questions.delete(id)
}

func (m *memStore) CreateImages(_ context.Context, imgs []models.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrites != nil {
		return m.failWrites
	}
	for i := range imgs {
		m.images.create(&imgs[i])
	}
	return nil
}

func (m *memStore) ListImages(_ context.Context, category models.ImageCategory, limit, offset int) ([]models.Image, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.images.all(func(img *models.Image) bool { return category == "" || img.Category == category })
	return pageOf(rows, limit, offset), int64(len(rows)), nil
}

func (m *memStore) GetImageByID(_ context.Context, id string) (*models.Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.images.get(id)
}

func (m *memStore) UpdateImageCategory(_ context.Context, id string, category models.ImageCategory) (*models.Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.images.update(id, map[string]interface{}{"category": category})
}

func (m *memStore) DeleteImage(_ context.Context, id string) (*models.Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.images.delete(id)
}

/* ------------------ memStorage ------------------ */

type memStorage struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newMemStorage() *memStorage {
	return &memStorage{files: map[string][]byte{}}
}

func (s *memStorage) SaveFile(_ context.Context, key, _ string, r io.Reader) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[key] = b
	return nil
}

func (s *memStorage) DeleteFile(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, key)
	return nil
}

func (s *memStorage) URL(key string) string { return "/uploads/" + key }

func (s *memStorage) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.files[key]
	return ok
}

func (s *memStorage) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.files)
}

/* ------------------ harness ------------------ */

const testSecret = "test-secret"

type harness struct {
	api     *API
	store   *memStore
	storage *memStorage
	admin   *models.User
	token   string
}

func testConfig() *config.Config {
	return &config.Config{
		Env:             "test",
		JWTSecret:       testSecret,
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 24 * time.Hour,
		StorageDriver:   config.StorageDisk,
		UploadMaxBytes:  1 << 20,
		UploadMaxFiles:  3,
	}
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWith(t, testConfig())
}

func newHarnessWith(t *testing.T, cfg *config.Config) *harness {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	s := newMemStore()
	fs := newMemStorage()
	admin := &models.User{Username: "admin", Email: "admin@example.com", Role: models.RoleAdmin, Active: true}
	hash, err := utils.HashPassword("secret123")
	require.NoError(t, err)
	admin.PasswordHash = hash
	require.NoError(t, s.CreateUser(context.Background(), admin))

	tok, err := auth.GenerateAccessToken(testSecret, time.Hour, admin.ID, admin.Username, string(admin.Role))
	require.NoError(t, err)

	return &harness{api: NewAPI(cfg, s, fs, log), store: s, storage: fs, admin: admin, token: tok}
}

type envelope struct {
	Success    bool                `json:"success"`
	Message    string              `json:"message"`
	Data       json.RawMessage     `json:"data"`
	Errors     []models.FieldError `json:"errors"`
	Pagination *models.Pagination  `json:"pagination"`
}

// do sends req through the router, authenticating as the admin when authed is set.
func (h *harness) do(t *testing.T, req *http.Request, authed bool) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	if authed {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}
	rec := httptest.NewRecorder()
	h.api.Routes().ServeHTTP(rec, req)
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func jsonRequest(t *testing.T, method, path string, body interface{}) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

type filePart struct {
	field       string
	name        string
	contentType string
	data        []byte
}

func multipartRequest(t *testing.T, method, path string, fields map[string]string, files ...filePart) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		hdr := make(textproto.MIMEHeader)
		hdr.Set("Content-Disposition", `form-data; name="`+f.field+`"; filename="`+f.name+`"`)
		hdr.Set("Content-Type", f.contentType)
		part, err := mw.CreatePart(hdr)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func pngPart(t *testing.T, field string) filePart {
	return filePart{field: field, name: "photo.PNG", contentType: "image/png", data: pngBytes(t, 4, 3)}
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

var errBoom = errors.New("boom")

func readCloser(s string) io.ReadCloser {
	return io.NopCloser(strings.NewReader(s))
}
