package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"bigboss/internal/cache"
	"bigboss/internal/cart"
	"bigboss/internal/core"
	"bigboss/internal/log"
	"bigboss/internal/middleware/ratelimit"
	"bigboss/internal/middleware/security"
	"bigboss/internal/middleware/trace"
	"bigboss/internal/services"
	appweb "bigboss/web"
)

// Asker answers chatbot questions.
type Asker interface {
	Ask(ctx context.Context, question string) (string, error)
}

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies are the collaborators the handlers call. Chatbot and DB may
// be nil; the chatbot endpoints then answer "Service unavailable" and
// readiness skips the database check.
type Dependencies struct {
	Members   *services.MemberService
	Trainers  *services.TrainerService
	Payments  *services.PaymentService
	Activity  *services.ActivityService
	Dashboard *services.DashboardService
	Carts     cart.Store
	Chatbot   Asker
	DB        Pinger
}

// Options tune the protective middleware.
type Options struct {
	LoginRateLimit  int
	LoginRateWindow time.Duration
	// APIRateLimit is the number of mutating requests per minute per client
	// IP. Zero disables the limit.
	APIRateLimit   int
	TrustedProxies []string
	// SecureCookies marks the cart session cookie Secure.
	SecureCookies bool
}

func DefaultOptions() Options {
	return Options{
		LoginRateLimit:  10,
		LoginRateWindow: 15 * time.Minute,
		APIRateLimit:    120,
	}
}

type Server struct {
	http.Server
	deps      Dependencies
	opts      Options
	logger    *log.Logger
	templates *template.Template

	detector     *security.Detector
	tracer       *trace.Middleware
	loginLimiter *ratelimit.Limiter
	apiLimiter   *ratelimit.Limiter
	upgrader     websocket.Upgrader
	carts        *cache.LRUCache[*cart.Cart]
	cartLocks    *cart.SessionLocks

	started      time.Time
	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Dependencies, opts Options, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadTimeout:       10 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       60 * time.Second,
			MaxHeaderBytes:    1 << 16,
		},
		deps:      deps,
		opts:      opts,
		logger:    logger,
		detector:  security.NewDetector(),
		carts:     cache.NewLRUCache[*cart.Cart](10000, time.Hour),
		cartLocks: cart.NewSessionLocks(),
		started:   time.Now(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}

	for _, cidr := range opts.TrustedProxies {
		if err := s.detector.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring trusted proxy", "cidr", cidr, "error", err)
		}
	}
	s.tracer = trace.NewMiddleware(logger, s.detector.ExtractClientIP)

	if opts.LoginRateLimit > 0 {
		s.loginLimiter = ratelimit.NewLimiter(ratelimit.Config{
			Requests: opts.LoginRateLimit,
			Window:   opts.LoginRateWindow,
		})
	}
	if opts.APIRateLimit > 0 {
		s.apiLimiter = ratelimit.NewLimiter(ratelimit.Config{
			Requests: opts.APIRateLimit,
			Window:   time.Minute,
		})
	}

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	mux := http.NewServeMux()
	s.routes(mux)

	var h http.Handler = mux
	h = s.limitMutations(h)
	h = security.Headers(security.DefaultHeadersConfig())(h)
	h = s.detector.Middleware(logger)(h)
	h = log.Middleware(logger, trace.GetRequestID)(h)
	h = s.tracer.Middleware(h)
	s.Handler = h

	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssets(3600)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.Handle("POST /api/login", s.throttleLogin(http.HandlerFunc(s.handleLogin)))

	mux.HandleFunc("POST /api/members", s.handleRegister)
	mux.HandleFunc("GET /api/members", s.handleListMembers)
	mux.HandleFunc("GET /api/members/count", s.handleCountMembers)
	mux.HandleFunc("GET /api/members/{id}", s.handleGetMember)
	mux.HandleFunc("PUT /api/members/{id}", s.handleUpdateMember)
	mux.HandleFunc("DELETE /api/members/{id}", s.handleDeleteMember)
	mux.HandleFunc("POST /api/members/password", s.handleChangePassword)

	mux.HandleFunc("GET /api/trainers", s.handleListTrainers)
	mux.HandleFunc("POST /api/trainers", s.handleCreateTrainer)
	mux.HandleFunc("GET /api/trainers/count", s.handleCountTrainers)
	mux.HandleFunc("PUT /api/trainers/{id}", s.handleUpdateTrainer)
	mux.HandleFunc("DELETE /api/trainers/{id}", s.handleDeleteTrainer)

	mux.HandleFunc("POST /api/feedback", s.handleFeedback)
	mux.HandleFunc("POST /api/contacts", s.handleContact)
	mux.HandleFunc("POST /api/bookings", s.handleCreateBooking)
	mux.HandleFunc("GET /api/bookings/member/{id}", s.handleMemberBookings)

	mux.HandleFunc("GET /api/payments", s.handleListPayments)
	mux.HandleFunc("POST /api/payments", s.handleCreatePayment)
	mux.HandleFunc("PUT /api/payments/{id}", s.handleUpdatePayment)
	mux.HandleFunc("DELETE /api/payments/{id}", s.handleDeletePayment)
	mux.HandleFunc("GET /api/payments/total", s.handleTotalIncome)
	mux.HandleFunc("GET /api/payments/monthly", s.handleMonthlyIncome)
	mux.HandleFunc("GET /api/payments/monthly/export", s.handleExportMonthlyIncome)

	mux.HandleFunc("GET /api/dashboard/summary", s.handleDashboardSummary)

	mux.HandleFunc("GET /api/cart", s.handleGetCart)
	mux.HandleFunc("DELETE /api/cart", s.handleClearCart)
	mux.HandleFunc("POST /api/cart/items", s.handleAddCartItem)
	mux.HandleFunc("DELETE /api/cart/items/{index}", s.handleRemoveCartItem)
	mux.HandleFunc("POST /api/cart/items/{index}/increase", s.handleIncreaseCartItem)
	mux.HandleFunc("POST /api/cart/items/{index}/decrease", s.handleDecreaseCartItem)
	mux.HandleFunc("PUT /api/cart/promotion", s.handleApplyPromotion)
	mux.HandleFunc("DELETE /api/cart/promotion", s.handleClearPromotion)

	mux.HandleFunc("GET /chatbot", s.handleChatbot)
	mux.HandleFunc("GET /ws/chatbot", s.handleChatbotSocket)
}

// throttleLogin answers 429 once a client IP exhausts its login attempts.
func (s *Server) throttleLogin(next http.Handler) http.Handler {
	if s.loginLimiter == nil {
		return next
	}
	return s.loginLimiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Login rate limit exceeded",
			log.FieldClientIP, s.detector.ExtractClientIP(r))
		ErrorResponse(http.StatusTooManyRequests, "Too many login attempts, please try again later.").Write(w)
	})(next)
}

// limitMutations applies the API limiter to every non-safe method.
func (s *Server) limitMutations(next http.Handler) http.Handler {
	if s.apiLimiter == nil {
		return next
	}
	limited := s.apiLimiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
			log.FieldClientIP, s.detector.ExtractClientIP(r),
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path)
		ErrorResponse(http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.").Write(w)
	})(next)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
		default:
			limited.ServeHTTP(w, r)
		}
	})
}

// Shutdown stops the limiter cleanup goroutines and drains the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		if s.loginLimiter != nil {
			s.loginLimiter.Stop()
		}
		if s.apiLimiter != nil {
			s.apiLimiter.Stop()
		}
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	}).Write(w)
}

// handleReady checks the database and reports limiter and trace counters.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	code := http.StatusOK
	checks := map[string]any{}

	if s.deps.DB != nil {
		if err := s.deps.DB.Ping(ctx); err != nil {
			checks["database"] = "failed: " + err.Error()
			status = "not_ready"
			code = http.StatusServiceUnavailable
		} else {
			checks["database"] = "ok"
		}
	} else {
		checks["database"] = "not_configured"
	}

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
	} else {
		checks["templates"] = "ok"
	}
	if s.apiLimiter != nil {
		checks["rate_limiter"] = map[string]any{"active_clients": s.apiLimiter.ActiveClients()}
	}
	checks["requests_total"] = s.tracer.TotalRequests()
	checks["suspicious_requests"] = s.detector.SuspiciousRequests()

	NewResponse().Status(code).JSON(map[string]any{
		"status": status,
		"checks": checks,
	}).Write(w)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		InternalServerError("templates not loaded").Write(w)
		return
	}
	data := struct {
		Year        int
		Memberships []core.Membership
	}{
		Year:        time.Now().Year(),
		Memberships: core.AllowedMemberships(),
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		log.FromContext(r.Context()).LogError(r.Context(), "Index template execution failed", err, "render_index")
	}
}

// RegisterCaches hands the server's caches to the cleanup manager.
func (s *Server) RegisterCaches(m *cache.Manager) {
	m.Register("cart_sessions", s.carts)
}
