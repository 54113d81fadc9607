package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"bigboss/internal/cart"
	"bigboss/internal/core"
	"bigboss/internal/log"
)

const (
	cartCookie       = "cart_session"
	cartCookieMaxAge = 30 * 24 * time.Hour
)

type cartView struct {
	Lines     []cart.Line     `json:"lines"`
	Promotion *cart.Promotion `json:"promotion"`
	Total     core.Money      `json:"total"`
}

func newCartView(lines []cart.Line, promo *cart.Promotion) cartView {
	if lines == nil {
		lines = []cart.Line{}
	}
	var total core.Money
	for _, l := range lines {
		total = total.Add(l.LineTotal)
	}
	return cartView{Lines: lines, Promotion: promo, Total: total}
}

// cartFor returns the cart of the request's session, issuing a new session
// cookie when the request has none or a malformed one. The session stays
// locked until release is called, whether or not the cached instance is
// evicted meanwhile.
func (s *Server) cartFor(w http.ResponseWriter, r *http.Request) (c *cart.Cart, release func()) {
	session := ""
	if c, err := r.Cookie(cartCookie); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			session = id.String()
		}
	}
	if session == "" {
		session = uuid.NewString()
		http.SetCookie(w, &http.Cookie{
			Name:     cartCookie,
			Value:    session,
			Path:     "/",
			MaxAge:   int(cartCookieMaxAge.Seconds()),
			HttpOnly: true,
			Secure:   s.opts.SecureCookies,
			SameSite: http.SameSiteLaxMode,
		})
		log.FromContext(r.Context()).DebugContext(r.Context(), "Issued cart session", log.FieldSession, session)
	}

	release = s.cartLocks.Lock(session)
	if cached, ok := s.carts.Get(session); ok {
		return cached, release
	}
	c = cart.New(s.deps.Carts, session)
	s.carts.Set(session, c)
	return c, release
}

// writeCart answers with the cart state after an operation.
func (s *Server) writeCart(w http.ResponseWriter, r *http.Request, c *cart.Cart, lines []cart.Line, err error) {
	switch {
	case errors.Is(err, cart.ErrInvalidItem), errors.Is(err, cart.ErrInvalidPromotion):
		BadRequestError(err.Error()).Write(w)
		return
	case err != nil:
		serverError(w, r, err, log.OpUpdate, "Failed to update cart")
		return
	}
	NewResponse().JSON(newCartView(lines, c.Promotion(r.Context()))).Write(w)
}

func (s *Server) handleGetCart(w http.ResponseWriter, r *http.Request) {
	c, release := s.cartFor(w, r)
	defer release()
	NewResponse().JSON(newCartView(c.Lines(r.Context()), c.Promotion(r.Context()))).Write(w)
}

func (s *Server) handleAddCartItem(w http.ResponseWriter, r *http.Request) {
	p := parseBody(w, r)
	if p == nil {
		return
	}

	var item cart.Item
	if p.IsJSON() {
		if err := p.Decode(&item); err != nil {
			BadRequestError("Invalid cart item").Write(w)
			return
		}
	} else {
		cents, err := core.ParseAmount(p.Get("unitPrice"))
		if err != nil {
			BadRequestError("Invalid unit price").Write(w)
			return
		}
		item = cart.Item{
			Name:      p.Get("name"),
			Options:   p.Get("options"),
			Category:  cart.Category(p.Get("category")),
			UnitPrice: core.NewMoney(cents),
		}
	}

	c, release := s.cartFor(w, r)
	defer release()
	lines, err := c.AddItem(r.Context(), item)
	s.writeCart(w, r, c, lines, err)
}

// cartIndex reads the {index} path value. Any integer is accepted; indexes
// outside the cart are no-ops.
func cartIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	i, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		BadRequestError("Invalid index").Write(w)
		return 0, false
	}
	return i, true
}

func (s *Server) handleRemoveCartItem(w http.ResponseWriter, r *http.Request) {
	i, ok := cartIndex(w, r)
	if !ok {
		return
	}
	c, release := s.cartFor(w, r)
	defer release()
	lines, err := c.RemoveItem(r.Context(), i)
	s.writeCart(w, r, c, lines, err)
}

func (s *Server) handleIncreaseCartItem(w http.ResponseWriter, r *http.Request) {
	i, ok := cartIndex(w, r)
	if !ok {
		return
	}
	c, release := s.cartFor(w, r)
	defer release()
	lines, err := c.IncreaseQuantity(r.Context(), i)
	s.writeCart(w, r, c, lines, err)
}

func (s *Server) handleDecreaseCartItem(w http.ResponseWriter, r *http.Request) {
	i, ok := cartIndex(w, r)
	if !ok {
		return
	}
	c, release := s.cartFor(w, r)
	defer release()
	lines, err := c.DecreaseQuantity(r.Context(), i)
	s.writeCart(w, r, c, lines, err)
}

func (s *Server) handleApplyPromotion(w http.ResponseWriter, r *http.Request) {
	p := parseBody(w, r)
	if p == nil {
		return
	}
	var promo cart.Promotion
	if err := p.Decode(&promo); err != nil {
		BadRequestError("Invalid promotion").Write(w)
		return
	}
	c, release := s.cartFor(w, r)
	defer release()
	lines, err := c.ApplyPromotion(r.Context(), promo)
	s.writeCart(w, r, c, lines, err)
}

func (s *Server) handleClearPromotion(w http.ResponseWriter, r *http.Request) {
	c, release := s.cartFor(w, r)
	defer release()
	if err := c.ClearPromotion(r.Context()); err != nil {
		serverError(w, r, err, log.OpUpdate, "Failed to update cart")
		return
	}
	NewResponse().JSON(newCartView(c.Lines(r.Context()), nil)).Write(w)
}

func (s *Server) handleClearCart(w http.ResponseWriter, r *http.Request) {
	c, release := s.cartFor(w, r)
	defer release()
	if err := c.ClearCart(r.Context()); err != nil {
		serverError(w, r, err, log.OpDelete, "Failed to clear cart")
		return
	}
	NewResponse().JSON(newCartView(nil, c.Promotion(r.Context()))).Write(w)
}
