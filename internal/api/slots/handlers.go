// internal/api/slots/handlers.go
package slots

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/iwaseano/yoga-reserve/internal/api/apiutil"
	"github.com/iwaseano/yoga-reserve/internal/api/htmx"
	"github.com/iwaseano/yoga-reserve/internal/api/shell"
	"github.com/iwaseano/yoga-reserve/internal/booking"
	"github.com/iwaseano/yoga-reserve/internal/client"
	"github.com/iwaseano/yoga-reserve/internal/email"
	"github.com/iwaseano/yoga-reserve/internal/session"
	"github.com/iwaseano/yoga-reserve/internal/templates/components/confirm"
	"github.com/iwaseano/yoga-reserve/internal/templates/components/slotsview"
	"github.com/iwaseano/yoga-reserve/internal/templates/layouts"
	"github.com/iwaseano/yoga-reserve/internal/toast"
)

const slotQueryTimeout = 10 * time.Second

var (
	backend  client.API
	toasts   *toast.Store
	mailer   email.Sender
	initOnce sync.Once
)

// InitHandlers must be called during server startup before handling requests.
// mailer may be nil; booking confirmations are then skipped.
func InitHandlers(api client.API, toastStore *toast.Store, sender email.Sender) {
	initOnce.Do(func() {
		backend = api
		toasts = toastStore
		mailer = sender
	})
}

// GET /services/{id}/booking
func HandleBookingPage(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	sess := session.FromContext(r.Context())
	if sess == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	serviceID, err := apiutil.ParsePositiveInt64Field(r.PathValue("id"), "service id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), slotQueryTimeout)
	defer cancel()

	svc, err := backend.Service(ctx, sess.AccessToken, serviceID)
	if err != nil {
		logger.Error().Err(err).Int64("service_id", serviceID).Msg("Failed to load service")
		http.NotFound(w, r)
		return
	}

	today := time.Now()
	view := slotsview.BookingPageView{
		Base:     shell.BaseViewFor(r, svc.Name+" の予約 - ヨガ予約", layouts.PageBooking),
		Service:  svc,
		Date:     today.AddDate(0, 0, 1).Format(apiutil.DateLayout),
		MinDate:  today.Format(apiutil.DateLayout),
		SlotsURL: fmt.Sprintf("/services/%d/slots", serviceID),
	}
	component := slotsview.BookingPage(view)
	apiutil.RenderHTMLComponent(r.Context(), w, component, nil,
		"Failed to render booking page", "Failed to render page")
}

// GET /services/{id}/slots?date=YYYY-MM-DD
func HandleSlotTable(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	sess := session.FromContext(r.Context())
	if sess == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	serviceID, err := apiutil.ParsePositiveInt64Field(r.PathValue("id"), "service id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	view := slotsview.SlotTableView{ServiceID: serviceID}

	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if _, err := apiutil.ParseDateField(date, "date"); err != nil {
		view.Error = "日付の形式が正しくありません"
		renderSlotTable(w, r, view)
		return
	}
	view.Date = date

	ctx, cancel := context.WithTimeout(r.Context(), slotQueryTimeout)
	defer cancel()

	slots, err := backend.Slots(ctx, sess.AccessToken, serviceID, date)
	if err != nil {
		logger.Error().Err(err).Int64("service_id", serviceID).Str("date", date).Msg("Failed to load slots")
		view.Error = client.Message(err, "予約枠の取得に失敗しました")
		renderSlotTable(w, r, view)
		return
	}

	view.Slots = slotsview.NewSlotRows(serviceID, date, slots.Slots)
	renderSlotTable(w, r, view)
}

// GET /services/{id}/slots/{slotID}/confirm?date=...&time=...
func HandleConfirmForm(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	sess := session.FromContext(r.Context())
	if sess == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	serviceID, err := apiutil.ParsePositiveInt64Field(r.PathValue("id"), "service id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	slotID, err := apiutil.ParsePositiveInt64Field(r.PathValue("slotID"), "slot id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	date := strings.TrimSpace(r.URL.Query().Get("date"))
	startTime := strings.TrimSpace(r.URL.Query().Get("time"))
	if _, err := apiutil.ParseDateField(date, "date"); err != nil || startTime == "" {
		http.Error(w, "date and time are required", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), slotQueryTimeout)
	defer cancel()

	svc, err := backend.Service(ctx, sess.AccessToken, serviceID)
	if err != nil {
		logger.Error().Err(err).Int64("service_id", serviceID).Msg("Failed to load service for confirmation")
		http.Error(w, "Service not found", http.StatusNotFound)
		return
	}

	view := bookingConfirmView(serviceID, svc, sess, slotID, date, startTime)
	component := confirm.Dialog(view)
	apiutil.RenderHTMLComponent(r.Context(), w, component, nil,
		"Failed to render booking confirmation", "Failed to render confirmation")
}

// bookingConfirmView summarizes a pending booking. Dates display as
// YYYY年M月D日; the hidden fields keep the wire format.
func bookingConfirmView(serviceID int64, svc booking.Service, sess *session.Session, slotID int64, date, startTime string) confirm.View {
	return confirm.View{
		Title: "予約内容の確認",
		Details: []confirm.Detail{
			{Label: "クラス", Value: svc.Name},
			{Label: "日付", Value: booking.DisplayDate(date)},
			{Label: "時間", Value: startTime},
			{Label: "所要時間", Value: fmt.Sprintf("%d分", svc.Duration)},
			{Label: "お名前", Value: sess.User.Name},
			{Label: "メールアドレス", Value: sess.User.Email},
		},
		Action: confirm.Action{
			Method: "post",
			URL:    "/bookings",
			Label:  "この内容で予約する",
			Fields: []confirm.Field{
				{Name: "service_id", Value: strconv.FormatInt(serviceID, 10)},
				{Name: "slot_id", Value: strconv.FormatInt(slotID, 10)},
				{Name: "date", Value: date},
				{Name: "start_time", Value: startTime},
			},
		},
	}
}

// POST /bookings
func HandleCreateBooking(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	sess := session.FromContext(r.Context())
	if sess == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	serviceID, err := apiutil.ParsePositiveInt64Field(r.FormValue("service_id"), "service_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	slotID, err := apiutil.ParsePositiveInt64Field(r.FormValue("slot_id"), "slot_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	date := strings.TrimSpace(r.FormValue("date"))
	startTime := strings.TrimSpace(r.FormValue("start_time"))
	if _, err := apiutil.ParseDateField(date, "date"); err != nil || startTime == "" {
		http.Error(w, "date and start_time are required", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), slotQueryTimeout)
	defer cancel()

	req := booking.CreateBookingRequest{
		ServiceID: serviceID,
		SlotID:    slotID,
		Date:      date,
		StartTime: startTime,
	}
	resp, err := backend.CreateBooking(ctx, sess.AccessToken, req)
	if err != nil {
		logger.Warn().Err(err).Int64("service_id", serviceID).Int64("slot_id", slotID).Msg("Booking failed")
		if toasts != nil {
			toasts.Push(sess.SID, toast.KindError, client.Message(err, "予約に失敗しました"))
		}
		// Keep the confirmation open so the viewer can retry or back out.
		svc, svcErr := backend.Service(ctx, sess.AccessToken, serviceID)
		if svcErr != nil {
			logger.Warn().Err(svcErr).Int64("service_id", serviceID).Msg("Failed to reload service after booking failure")
		}
		view := bookingConfirmView(serviceID, svc, sess, slotID, date, startTime)
		view.Error = client.Message(err, "予約に失敗しました")
		component := confirm.Dialog(view)
		apiutil.RenderHTMLComponent(r.Context(), w, component, nil,
			"Failed to render booking confirmation", "Failed to render confirmation")
		return
	}

	logger.Info().Int64("booking_id", resp.BookingID).Int64("service_id", serviceID).Msg("Booking created")
	if toasts != nil {
		toasts.Push(sess.SID, toast.KindSuccess, "予約が完了しました!")
	}
	sendConfirmation(r, sess, resp)

	// Close the modal and send the viewer back to the catalog; any open
	// booking list refreshes itself.
	w.Header().Set("HX-Trigger", "refreshBookings")
	htmx.Redirect(w, r, "/services")
}

func sendConfirmation(r *http.Request, sess *session.Session, resp booking.CreateBookingResponse) {
	if mailer == nil {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), slotQueryTimeout)
	defer cancel()

	serviceName := ""
	if svc, err := backend.Service(ctx, sess.AccessToken, resp.ServiceID); err == nil {
		serviceName = svc.Name
	}

	logger := log.Ctx(r.Context())
	msg := email.BuildBookingConfirmation(email.BookingDetails{
		UserName:    sess.User.Name,
		ServiceName: serviceName,
		Date:        resp.Date,
		StartTime:   resp.StartTime,
	})
	email.SendBookingEmail(r.Context(), mailer, sess.User.Email, msg, logger)
}

func renderSlotTable(w http.ResponseWriter, r *http.Request, view slotsview.SlotTableView) {
	component := slotsview.SlotTable(view)
	apiutil.RenderHTMLComponent(r.Context(), w, component, nil,
		"Failed to render slot table", "Failed to render slots")
}
