package v1

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/edu-center/site-api/internal/auth"
	"github.com/edu-center/site-api/internal/config"
	"github.com/edu-center/site-api/internal/models"
	"github.com/edu-center/site-api/internal/service"
	"github.com/edu-center/site-api/internal/utils"
)

// Store is everything the handlers need from persistence; *store.Store
// satisfies it.
type Store interface {
	service.UserStore
	auth.UserLookup
	tokenStore
	bannerStore
	newsStore
	directionStore
	chooseStore
	questionStore
	imageStore
	Ping(ctx context.Context) error
}

type API struct {
	cfg    *config.Config
	router *chi.Mux
	store  Store
	users  *service.UserService
	upload *uploader
	google googleVerifier
	log    *logrus.Logger
}

func NewAPI(cfg *config.Config, s Store, storage utils.Storage, log *logrus.Logger) *API {
	api := &API{
		cfg:    cfg,
		router: chi.NewRouter(),
		store:  s,
		users:  service.NewUserService(s, cfg.AllowRegistration),
		upload: newUploader(storage, cfg.UploadMaxBytes, cfg.UploadMaxFiles, log),
		log:    log,
	}
	if cfg.GoogleClientID != "" {
		api.google = newGoogleVerifier(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)
	}
	api.routes()
	return api
}

func (a *API) Routes() *chi.Mux {
	return a.router
}

func (a *API) routes() {
	r := a.router
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteJSONResponse(w, http.StatusNotFound, false, "endpoint not found", nil, nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteJSONResponse(w, http.StatusMethodNotAllowed, false, "method not allowed", nil, nil)
	})

	requireAdmin := chi.Chain(
		auth.AuthMiddleware(a.cfg.JWTSecret, a.store),
		auth.RoleMiddleware(models.RoleAdmin),
	)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", a.Register)
		r.Post("/login", a.Login)
		r.Post("/refresh", a.Refresh)
		r.Post("/logout", a.Logout)
		r.Post("/google", a.GoogleSignIn)
		r.With(auth.AuthMiddleware(a.cfg.JWTSecret, a.store)).Get("/me", a.Me)
	})

	r.Route("/banner", func(r chi.Router) {
		r.Get("/", a.ListBanners)
		r.Get("/{id}", a.GetBanner)
		r.Group(func(r chi.Router) {
			r.Use(requireAdmin...)
			r.Post("/", a.CreateBanner)
			r.Put("/{id}", a.UpdateBanner)
			r.Delete("/{id}", a.DeleteBanner)
		})
	})

	r.Route("/news", func(r chi.Router) {
		r.Get("/", a.ListNews)
		r.Get("/{id}", a.GetNews)
		r.Group(func(r chi.Router) {
			r.Use(requireAdmin...)
			r.Post("/", a.CreateNews)
			r.Put("/{id}", a.UpdateNews)
			r.Delete("/{id}", a.DeleteNews)
		})
	})

	r.Route("/directions", func(r chi.Router) {
		r.Get("/", a.ListDirections)
		r.Get("/{id}", a.GetDirection)
		r.Group(func(r chi.Router) {
			r.Use(requireAdmin...)
			r.Post("/", a.CreateDirection)
			r.Put("/{id}", a.UpdateDirection)
			r.Delete("/{id}", a.DeleteDirection)
		})
	})

	r.Route("/choose", func(r chi.Router) {
		r.Get("/", a.ListChooseItems)
		r.Get("/{id}", a.GetChooseItem)
		r.Group(func(r chi.Router) {
			r.Use(requireAdmin...)
			r.Post("/", a.CreateChooseItem)
			r.Put("/{id}", a.UpdateChooseItem)
			r.Delete("/{id}", a.DeleteChooseItem)
		})
	})

	r.Route("/questions", func(r chi.Router) {
		r.Get("/", a.ListQuestions)
		r.Get("/{id}", a.GetQuestion)
		r.Group(func(r chi.Router) {
			r.Use(requireAdmin...)
			r.Post("/", a.CreateQuestion)
			r.Put("/{id}", a.UpdateQuestion)
			r.Delete("/{id}", a.DeleteQuestion)
		})
	})

	r.Route("/images", func(r chi.Router) {
		r.Get("/", a.ListImages)
		r.Get("/{id}", a.GetImage)
		r.Group(func(r chi.Router) {
			r.Use(requireAdmin...)
			r.Post("/", a.UploadImage)
			r.Post("/multiple", a.UploadImages)
			r.Put("/{id}", a.UpdateImage)
			r.Delete("/{id}", a.DeleteImage)
		})
	})

	r.Get("/health", a.Health)
}
