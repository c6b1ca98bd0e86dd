package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"brightsteps/portal/internal/auth"
	"brightsteps/portal/internal/config"
	"brightsteps/portal/internal/gate"
	"brightsteps/portal/internal/repository"
	"brightsteps/portal/internal/role"
	"brightsteps/portal/internal/yearctx"
)

type Server struct {
	cfg      config.Config
	store    *repository.Store
	years    *yearctx.Manager
	redis    *redis.Client
	validate *validator.Validate
}

func NewServer(cfg config.Config, store *repository.Store, years *yearctx.Manager, redisClient *redis.Client) *Server {
	return &Server{
		cfg:      cfg,
		store:    store,
		years:    years,
		redis:    redisClient,
		validate: validator.New(),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.With(s.loginRateLimit).Post("/auth/login", s.handleLogin)
	r.Post("/auth/refresh", s.handleRefresh)
	r.With(s.authMiddleware).Post("/auth/logout", s.handleLogout)
	r.With(s.authMiddleware).Get("/auth/me", s.handleGetMe)

	r.Route("/academic-years", func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Get("/", s.handleListAcademicYears)
		r.Get("/selected", s.handleGetSelectedYear)
		r.Put("/selected", s.handlePutSelectedYear)
		r.Delete("/selected", s.handleResetSelectedYear)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(s.authMiddleware, s.portalGate(gate.PortalAdmin))

		// Content managers stop at the gate for everything except
		// announcements; the nested middleware narrows per subtree.
		admin := s.requireRoles(role.Admin, role.Superadmin)

		r.Route("/users", func(r chi.Router) {
			r.Use(admin)
			r.Get("/", s.handleListUsers)
			r.Post("/", s.handleCreateUser)
			r.Patch("/{userID}/role", s.handleUpdateUserRole)
			r.Patch("/{userID}/disabled", s.handleSetUserDisabled)
		})

		r.Route("/students", func(r chi.Router) {
			r.Use(admin)
			r.Get("/", s.handleListStudents)
			r.Post("/", s.handleCreateStudent)
			r.Get("/{studentID}", s.handleGetStudent)
			r.Patch("/{studentID}", s.handlePatchStudent)
			r.Delete("/{studentID}", s.handleDeleteStudent)
		})

		r.Route("/classes", func(r chi.Router) {
			r.Use(admin)
			r.Get("/", s.handleListClasses)
			r.Post("/", s.handleCreateClass)
			r.Get("/{classID}", s.handleGetClass)
			r.Patch("/{classID}", s.handlePatchClass)
			r.Delete("/{classID}", s.handleDeleteClass)
			r.Put("/{classID}/teacher", s.handleAssignTeacher)
		})

		r.Route("/enrollments", func(r chi.Router) {
			r.Use(admin)
			r.Get("/", s.handleListEnrollments)
			r.Post("/", s.handleCreateEnrollment)
			r.Get("/{enrollmentID}", s.handleGetEnrollment)
			r.Patch("/{enrollmentID}/status", s.handleUpdateEnrollmentStatus)
			r.Delete("/{enrollmentID}", s.handleDeleteEnrollment)
		})

		r.Route("/payments", func(r chi.Router) {
			r.Use(admin)
			r.Get("/", s.handleListPayments)
			r.Put("/", s.handleUpsertPayment)
			r.Get("/{paymentID}", s.handleGetPayment)
			r.Post("/{paymentID}/records", s.handleAddPaymentRecord)
		})

		r.Route("/announcements", func(r chi.Router) {
			r.Get("/", s.handleListAnnouncements)
			r.Post("/", s.handleCreateAnnouncement)
			r.Patch("/{announcementID}", s.handlePatchAnnouncement)
			r.Delete("/{announcementID}", s.handleDeleteAnnouncement)
		})
	})

	r.Route("/teacher-portal", func(r chi.Router) {
		r.Use(s.authMiddleware, s.portalGate(gate.PortalTeacher))

		r.Get("/classes", s.handleListClasses)
		r.Get("/enrollments", s.handleListEnrollments)

		r.Route("/homework", func(r chi.Router) {
			r.Get("/", s.handleListHomework)
			r.Post("/", s.handleCreateHomework)
			r.Get("/{homeworkID}", s.handleGetHomework)
			r.Patch("/{homeworkID}", s.handlePatchHomework)
			r.Delete("/{homeworkID}", s.handleDeleteHomework)
		})

		r.Get("/submissions", s.handleListSubmissions)
		r.Post("/submissions/{submissionID}/review", s.handleReviewSubmission)

		r.Get("/attendance", s.handleListAttendance)
		r.Put("/attendance", s.handlePutAttendance)

		r.Route("/announcements", func(r chi.Router) {
			r.Get("/", s.handleListAnnouncements)
			r.Post("/", s.handleCreateAnnouncement)
			r.Patch("/{announcementID}", s.handlePatchAnnouncement)
			r.Delete("/{announcementID}", s.handleDeleteAnnouncement)
		})

		s.mountThreads(r)
	})

	r.Route("/parent-portal", func(r chi.Router) {
		r.Use(s.authMiddleware, s.portalGate(gate.PortalParent))

		r.Get("/students", s.handleListStudents)
		r.Get("/enrollments", s.handleListEnrollments)
		r.Get("/payments", s.handleListPayments)
		r.Get("/homework", s.handleListHomework)
		r.Post("/homework/{homeworkID}/submissions", s.handleSubmitHomework)
		r.Get("/submissions", s.handleListSubmissions)
		r.Get("/attendance", s.handleListAttendance)
		r.Get("/announcements", s.handleListAnnouncements)

		r.Post("/threads", s.handleCreateThread)
		s.mountThreads(r)
	})

	return r
}

func (s *Server) mountThreads(r chi.Router) {
	r.Get("/threads", s.handleListThreads)
	r.Get("/threads/{threadID}", s.handleGetThread)
	r.Get("/threads/{threadID}/messages", s.handleListMessages)
	r.Post("/threads/{threadID}/messages", s.handlePostMessage)
	r.Post("/threads/{threadID}/read", s.handleMarkThreadRead)
}

// Auth

type claimsKey struct{}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing_token")
			return
		}
		claims, err := auth.ParseToken(s.cfg.JWTSecret, s.cfg.JWTIssuer, token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid_token")
			return
		}
		ctx := context.WithValue(r.Context(), claimsKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func claimsFromContext(ctx context.Context) *auth.Claims {
	value := ctx.Value(claimsKey{})
	claims, _ := value.(*auth.Claims)
	return claims
}

// portalGate runs the access decision for one portal surface. Handlers
// behind it only ever see an Allowed identity.
func (s *Server) portalGate(portal gate.Portal) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := claimsFromContext(r.Context())
			in := gate.Input{AuthResolved: true, Authenticated: claims != nil}
			if claims != nil {
				in.Role = claims.PortalRole()
			}
			decision := gate.Evaluate(portal, in)
			gateDecisions.WithLabelValues(string(portal), string(decision.State)).Inc()
			switch decision.State {
			case gate.Allowed:
				next.ServeHTTP(w, r)
			case gate.Unauthenticated:
				w.Header().Set("Location", decision.RedirectTo)
				writeError(w, http.StatusUnauthorized, "unauthenticated")
			case gate.RoleAbsent:
				writeError(w, http.StatusForbidden, "role_absent")
			default:
				writeError(w, http.StatusForbidden, "role_mismatch")
			}
		})
	}
}

func (s *Server) requireRoles(roles ...role.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := claimsFromContext(r.Context())
			if claims == nil {
				writeError(w, http.StatusUnauthorized, "missing_token")
				return
			}
			callerRole := claims.PortalRole()
			for _, allowed := range roles {
				if callerRole == allowed {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeError(w, http.StatusForbidden, "forbidden")
		})
	}
}

// loginRateLimit is a fixed window counter per client IP. Redis down or
// unconfigured means no limiting rather than no logins.
func (s *Server) loginRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.redis == nil || s.cfg.LoginRateLimit <= 0 {
			next.ServeHTTP(w, r)
			return
		}
		key := "login_rate:" + clientIP(r)
		count, err := s.redis.Incr(r.Context(), key).Result()
		if err == nil {
			if count == 1 {
				s.redis.Expire(r.Context(), key, s.cfg.LoginRateWindow)
			}
			if count > int64(s.cfg.LoginRateLimit) {
				writeError(w, http.StatusTooManyRequests, "rate_limited")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
