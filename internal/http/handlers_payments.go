package http

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"time"

	"bigboss/internal/core"
	"bigboss/internal/log"
	"bigboss/internal/report"
	"bigboss/internal/services"
)

func (s *Server) handleListPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := s.deps.Payments.List(r.Context())
	if err != nil {
		serverError(w, r, err, log.OpList, "Failed to fetch payments")
		return
	}
	NewResponse().JSON(mapSlice(payments, newPaymentView)).Write(w)
}

// paymentFrom validates and reads a payment body. payment_date is optional;
// without it the payment is dated now on create and keeps its date on update.
func paymentFrom(w http.ResponseWriter, p *RequestBodyParser) (core.Payment, bool) {
	v := newValidator(p).
		Required("member_id", "Member ID is required").
		Decimal("total_amount", "Amount must be a positive decimal").
		Required("payment_method", "Payment method is required")

	var paidAt time.Time
	if raw := p.Get("payment_date"); raw != "" {
		t, err := parseTimestamp(raw)
		if err != nil {
			v.fail("payment_date", "Invalid payment date")
		}
		paidAt = t
	}
	if !v.Valid() {
		ValidationError(v.Errors()).Write(w)
		return core.Payment{}, false
	}

	amount, _ := parseAmount(p.Get("total_amount"))
	return core.Payment{
		MemberID: p.Get("member_id"),
		Amount:   amount,
		Method:   p.Get("payment_method"),
		Promo:    p.Get("promo_used"),
		PaidAt:   paidAt,
	}, true
}

func (s *Server) handleCreatePayment(w http.ResponseWriter, r *http.Request) {
	body := parseBody(w, r)
	if body == nil {
		return
	}
	in, ok := paymentFrom(w, body)
	if !ok {
		return
	}

	p, err := s.deps.Payments.Create(r.Context(), in)
	if isClientError(err) {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if err != nil {
		serverError(w, r, err, log.OpCreate, "Failed to record payment")
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "Payment recorded", log.NewFields().
		WithPayment(p.ID, p.MemberID, p.Amount.Cents).
		ToSlice()...)
	NewResponse().
		Status(http.StatusCreated).
		Message("Payment recorded successfully", "payment_id", p.ID).
		Write(w)
}

func (s *Server) handleUpdatePayment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	body := parseBody(w, r)
	if body == nil {
		return
	}
	in, ok := paymentFrom(w, body)
	if !ok {
		return
	}
	in.ID = id

	_, err := s.deps.Payments.Update(r.Context(), in)
	switch {
	case errors.Is(err, services.ErrNotFound):
		NotFoundError("Payment not found").Write(w)
		return
	case isClientError(err):
		BadRequestError(err.Error()).Write(w)
		return
	case err != nil:
		serverError(w, r, err, log.OpUpdate, "Failed to update payment")
		return
	}
	NewResponse().Message("Payment updated successfully").Write(w)
}

func (s *Server) handleDeletePayment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	err := s.deps.Payments.Delete(r.Context(), id)
	if errors.Is(err, services.ErrNotFound) {
		NotFoundError("Payment not found").Write(w)
		return
	}
	if err != nil {
		serverError(w, r, err, log.OpDelete, "Failed to delete payment")
		return
	}
	NewResponse().Message("Payment deleted successfully").Write(w)
}

func (s *Server) handleTotalIncome(w http.ResponseWriter, r *http.Request) {
	total, err := s.deps.Payments.Total(r.Context())
	if err != nil {
		serverError(w, r, err, log.OpRead, "Failed to calculate income")
		return
	}
	NewResponse().JSON(map[string]string{"totalIncome": total.String()}).Write(w)
}

// monthlyRows parses the report filter and loads its rows, writing the error
// response itself when either step fails.
func (s *Server) monthlyRows(w http.ResponseWriter, r *http.Request) (report.Filter, []core.MonthlyIncomeRow, bool) {
	f, err := report.ParseFilter(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return report.Filter{}, nil, false
	}
	rows, err := s.deps.Payments.Monthly(r.Context(), f)
	if err != nil {
		serverError(w, r, err, log.OpRead, "Failed to fetch monthly income")
		return report.Filter{}, nil, false
	}
	return f, rows, true
}

func (s *Server) handleMonthlyIncome(w http.ResponseWriter, r *http.Request) {
	_, rows, ok := s.monthlyRows(w, r)
	if !ok {
		return
	}
	NewResponse().JSON(report.RowsFromCore(rows)).Write(w)
}

// handleExportMonthlyIncome regroups the report rows the way the chart does
// and returns them as a CSV download. Months with no income are dropped
// unless keepEmpty=true.
func (s *Server) handleExportMonthlyIncome(w http.ResponseWriter, r *http.Request) {
	f, rows, ok := s.monthlyRows(w, r)
	if !ok {
		return
	}

	span := f.Span()
	grid := report.Regroup(report.RawRowsFrom(report.RowsFromCore(rows)), span, f.Membership)
	if keep, _ := strconv.ParseBool(r.URL.Query().Get("keepEmpty")); !keep {
		grid = grid.WithoutEmptyMonths()
	}

	var buf bytes.Buffer
	if err := report.WriteCSV(&buf, grid); err != nil {
		serverError(w, r, err, log.OpExport, "Failed to export monthly income")
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "Monthly income exported",
		log.FieldYear, f.Year,
		"months", len(grid.Months),
		"series", len(grid.Series))
	NewResponse().
		Attachment(report.CSVFilename(span), "text/csv; charset=utf-8", buf.Bytes()).
		Write(w)
}

func (s *Server) handleDashboardSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.deps.Dashboard.Summary(r.Context())
	if err != nil {
		serverError(w, r, err, log.OpRead, "Failed to load dashboard")
		return
	}
	NewResponse().JSON(sum).Write(w)
}
