// internal/api/bookings/handlers.go
package bookings

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/iwaseano/yoga-reserve/internal/api/apiutil"
	"github.com/iwaseano/yoga-reserve/internal/api/shell"
	"github.com/iwaseano/yoga-reserve/internal/booking"
	"github.com/iwaseano/yoga-reserve/internal/client"
	"github.com/iwaseano/yoga-reserve/internal/email"
	"github.com/iwaseano/yoga-reserve/internal/session"
	"github.com/iwaseano/yoga-reserve/internal/templates/components/bookingsview"
	"github.com/iwaseano/yoga-reserve/internal/templates/components/confirm"
	"github.com/iwaseano/yoga-reserve/internal/templates/layouts"
	"github.com/iwaseano/yoga-reserve/internal/toast"
)

const bookingQueryTimeout = 10 * time.Second

var (
	backend  client.API
	toasts   *toast.Store
	mailer   email.Sender
	initOnce sync.Once
)

// InitHandlers must be called during server startup before handling requests.
// mailer may be nil; cancellation notices are then skipped.
func InitHandlers(api client.API, toastStore *toast.Store, sender email.Sender) {
	initOnce.Do(func() {
		backend = api
		toasts = toastStore
		mailer = sender
	})
}

// GET /bookings
func HandlePage(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if sess == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	view := bookingsview.PageView{
		Base: shell.BaseViewFor(r, "マイ予約 - ヨガ予約", layouts.PageMyBookings),
	}
	component := bookingsview.Page(view)
	apiutil.RenderHTMLComponent(r.Context(), w, component, nil,
		"Failed to render bookings page", "Failed to render page")
}

// GET /bookings/list
func HandleList(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	sess := session.FromContext(r.Context())
	if sess == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), bookingQueryTimeout)
	defer cancel()

	view := bookingsview.ListView{}
	list, err := backend.MyBookings(ctx, sess.AccessToken)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load bookings")
		view.Error = client.Message(err, "予約一覧の取得に失敗しました")
	} else {
		view.Bookings = bookingsview.NewRows(list)
	}

	component := bookingsview.List(view)
	apiutil.RenderHTMLComponent(r.Context(), w, component, nil,
		"Failed to render booking list", "Failed to render bookings")
}

// GET /bookings/{id}/cancel
func HandleCancelConfirm(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	sess := session.FromContext(r.Context())
	if sess == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	bookingID, err := apiutil.ParsePositiveInt64Field(r.PathValue("id"), "booking id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	detail, err := findBooking(r.Context(), sess.AccessToken, bookingID)
	if err != nil {
		logger.Warn().Err(err).Int64("booking_id", bookingID).Msg("Booking not found for cancellation")
		http.Error(w, "Booking not found", http.StatusNotFound)
		return
	}

	view := confirm.View{
		Title:  "予約のキャンセル",
		Prompt: "以下の予約をキャンセルしますか？",
		Details: []confirm.Detail{
			{Label: "クラス", Value: detail.ServiceName},
			{Label: "日付", Value: booking.DisplayDate(detail.Date)},
			{Label: "時間", Value: detail.StartTime},
		},
		Action: confirm.Action{
			Method: "delete",
			URL:    fmt.Sprintf("/bookings/%d", detail.ID),
			Label:  "キャンセルする",
			Danger: true,
		},
	}
	component := confirm.Dialog(view)
	apiutil.RenderHTMLComponent(r.Context(), w, component, nil,
		"Failed to render cancellation confirmation", "Failed to render confirmation")
}

// DELETE /bookings/{id}
func HandleCancel(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	sess := session.FromContext(r.Context())
	if sess == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	bookingID, err := apiutil.ParsePositiveInt64Field(r.PathValue("id"), "booking id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Looked up before cancelling so the notice can name what was dropped.
	detail, _ := findBooking(r.Context(), sess.AccessToken, bookingID)

	ctx, cancel := context.WithTimeout(r.Context(), bookingQueryTimeout)
	defer cancel()

	if _, err := backend.CancelBooking(ctx, sess.AccessToken, bookingID); err != nil {
		logger.Error().Err(err).Int64("booking_id", bookingID).Msg("Cancellation failed")
		if toasts != nil {
			toasts.Push(sess.SID, toast.KindError, client.Message(err, "キャンセルに失敗しました"))
		}
		w.Header().Set("HX-Trigger", "refreshBookings")
		w.Write([]byte(""))
		return
	}

	logger.Info().Int64("booking_id", bookingID).Msg("Booking cancelled")
	if toasts != nil {
		toasts.Push(sess.SID, toast.KindSuccess, "予約をキャンセルしました")
	}
	if detail != nil {
		sendCancellationNotice(r, sess, detail)
	}

	w.Header().Set("HX-Trigger", "refreshBookings")
	w.Write([]byte(""))
}

// GET /admin/bookings
func HandleAdminPage(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	sess := session.FromContext(r.Context())
	if sess == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), bookingQueryTimeout)
	defer cancel()

	view := bookingsview.AdminView{
		Base: shell.BaseViewFor(r, "予約管理 - ヨガ予約", layouts.PageAdmin),
	}
	list, err := backend.AllBookings(ctx, sess.AccessToken)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load all bookings")
		view.Error = client.Message(err, "予約一覧の取得に失敗しました")
	} else {
		view.Bookings = bookingsview.NewAdminRows(list)
	}

	component := bookingsview.AdminPage(view)
	apiutil.RenderHTMLComponent(r.Context(), w, component, nil,
		"Failed to render admin bookings", "Failed to render page")
}

func findBooking(ctx context.Context, token string, bookingID int64) (*booking.BookingDetail, error) {
	queryCtx, cancel := context.WithTimeout(ctx, bookingQueryTimeout)
	defer cancel()

	list, err := backend.MyBookings(queryCtx, token)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].ID == bookingID {
			return &list[i], nil
		}
	}
	return nil, &client.BackendError{Status: http.StatusNotFound, Detail: "Booking not found"}
}

func sendCancellationNotice(r *http.Request, sess *session.Session, detail *booking.BookingDetail) {
	if mailer == nil {
		return
	}

	logger := log.Ctx(r.Context())
	msg := email.BuildBookingCancellation(email.BookingDetails{
		UserName:    sess.User.Name,
		ServiceName: detail.ServiceName,
		Date:        detail.Date,
		StartTime:   detail.StartTime,
	})
	email.SendBookingEmail(r.Context(), mailer, sess.User.Email, msg, logger)
}
