package handler

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/volunteer-shifts/backend/internal/config"
	"github.com/sysu-ecnc-dev/volunteer-shifts/backend/internal/domain"
	"github.com/sysu-ecnc-dev/volunteer-shifts/backend/internal/engine"
	"github.com/sysu-ecnc-dev/volunteer-shifts/backend/internal/repository"
	"github.com/sysu-ecnc-dev/volunteer-shifts/backend/internal/shifttime"
)

type Handler struct {
	validate    *validator.Validate
	config      *config.Config
	repository  *repository.Repository
	engine      *engine.Engine
	clock       *shifttime.Clock
	translator  ut.Translator
	mailChannel *amqp.Channel
	redisClient *redis.Client

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, repo *repository.Repository, eng *engine.Engine, clock *shifttime.Clock, mailCh *amqp.Channel, rdb *redis.Client) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	zh := zh.New()
	uni := ut.New(zh, zh)
	trans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		validate:    validate,
		config:      cfg,
		repository:  repo,
		engine:      eng,
		clock:       clock,
		translator:  trans,
		mailChannel: mailCh,
		redisClient: rdb,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	// 认证与注册相关
	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.Post("/register", h.Register)
		r.Route("/reset-password", func(r chi.Router) {
			r.Post("/require", h.RequireResetPassword)
			r.Post("/confirm", h.ConfirmResetPassword)
		})
	})

	// 入队申请是公开接口，申请人此时还没有账户
	h.Mux.Post("/applications", h.CreateApplication)

	// 以下 API 必须要在登录后才允许调用
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Use(h.myInfo)

		r.Route("/my-info", func(r chi.Router) {
			r.Get("/", h.GetMyInfo)
			r.Get("/signups", h.GetMySignups)
		})

		r.Route("/shifts", func(r chi.Router) {
			r.Get("/", h.GetAllShifts)
			r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Post("/", h.CreateShift)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.shiftInfo)
				r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Patch("/", h.UpdateShift)
				r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Delete("/", h.DeleteShift)
				r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Get("/waitlist", h.GetShiftWaitlist)
			})
		})

		r.Route("/signups", func(r chi.Router) {
			r.With(h.preventBlocked).Post("/", h.SignUp)
			r.Delete("/{id}", h.CancelSignup)
			r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Patch("/{id}/hours", h.UpdateWorkedHours)
		})

		r.Route("/waitlist", func(r chi.Router) {
			r.With(h.preventBlocked).Post("/", h.JoinWaitlist)
			r.Delete("/{id}", h.LeaveWaitlist)
			r.Delete("/shift/{shiftId}", h.LeaveWaitlistByShift)
		})

		r.Route("/volunteers", func(r chi.Router) {
			r.Use(h.RequiredRole([]domain.Role{domain.RoleAdmin}))
			r.Get("/", h.GetAllVolunteers)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.volunteerInfo)
				r.Patch("/", h.UpdateVolunteerBlock)
				r.Delete("/", h.DeleteVolunteer)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(h.RequiredRole([]domain.Role{domain.RoleAdmin}))
			r.Route("/applications", func(r chi.Router) {
				r.Get("/", h.GetAllApplications)
				r.Patch("/{id}", h.ReviewApplication)
			})
			r.Get("/timelog", h.GetTimelog)
			r.Get("/stats", h.GetStats)
			r.Post("/reminders", h.SendReminders)
		})
	})
}
