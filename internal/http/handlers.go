package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"xiaofei/internal/core"
	"xiaofei/internal/log"
	"xiaofei/internal/page"
	"xiaofei/internal/session"
	"xiaofei/internal/ui"
)

// pageView is any page view; all of them embed page.Common.
type pageView interface {
	Base() *page.Common
}

func (s *Server) loadView(p page.Page, r *http.Request) pageView {
	ctx := r.Context()
	switch p.Name {
	case page.Index.Name:
		v := s.loader.Index(ctx, ParseListFilter(r.URL.Query()))
		return &v
	case page.List.Name:
		v := s.loader.List(ctx, ParseListFilter(r.URL.Query()))
		return &v
	case page.Pending.Name:
		v := s.loader.Pending(ctx)
		return &v
	case page.Price.Name:
		v := s.loader.Price(ctx)
		return &v
	default:
		v := s.loader.Tags(ctx)
		return &v
	}
}

// handlePage renders a full page under a fresh page id. Dialogs left pending
// by other pages of the session are untouched.
func (s *Server) handlePage(p page.Page) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if s.templates == nil {
			s.logger.ErrorContext(ctx, "Templates not loaded", log.FieldPath, r.URL.Path)
			InternalServerError("templates not loaded").Write(w)
			return
		}

		st := session.FromContext(ctx)

		view := s.loadView(p, r)
		view.Base().PageID = uuid.NewString()
		view.Base().Toast = st.Toast.State()

		body, err := s.renderFragment(p.Template, view)
		if err != nil {
			s.logger.ErrorContext(ctx, "Page template execution failed", log.FieldError, err.Error(), log.FieldPage, p.Name)
			InternalServerError("页面渲染失败").Write(w)
			return
		}
		NewHTMXResponse().BodyHTML(body).Write(w)
	}
}

// effectResponse turns a flow's effect into HTMX instructions. The toast is
// stored in the session; a reload shows it on the next render, otherwise it
// is swapped in out of band after body.
func (s *Server) effectResponse(r *http.Request, eff ui.Effect, body []byte) *HTMXResponseBuilder {
	st := session.FromContext(r.Context())
	st.Toast.Show(eff.Notification)

	b := NewHTMXResponse()
	if eff.ResetForm {
		b.TriggerFormReset()
	}
	if eff.HideModal {
		b.TriggerModalHide()
	}
	if eff.Reload {
		return b.Refresh()
	}
	if eff.Notification != nil {
		toast, err := s.renderFragment("toast_oob", st.Toast.State())
		if err != nil {
			s.logger.ErrorContext(r.Context(), "Toast render failed", log.FieldError, err.Error())
		}
		body = append(body, toast...)
	}
	return b.BodyHTML(body)
}

// overlayResponse swaps overlay into #dialog-root.
func (s *Server) overlayResponse(r *http.Request, overlay ui.Overlay) *HTMXResponseBuilder {
	log.FromContext(r.Context()).DebugContext(r.Context(), "Dialog opened",
		log.FieldViewport, ViewportWidth(r), log.FieldOperation, log.OpConfirm)
	body, err := s.renderFragment("overlay_oob", overlay)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Overlay render failed", log.FieldError, err.Error())
		return InternalServerError("对话框渲染失败")
	}
	return NewHTMXResponse().BodyHTML(body)
}

// confirmResponse writes the outcome of a confirm-gated flow: the overlay
// while the user decides, the effect once decided.
func (s *Server) confirmResponse(w http.ResponseWriter, r *http.Request, eff ui.Effect, overlay *ui.Overlay) {
	if overlay != nil {
		s.overlayResponse(r, *overlay).Write(w)
		return
	}
	s.effectResponse(r, eff, nil).Write(w)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		BadRequestError("请求格式无效").Write(w)
		return
	}
	eff := s.flows.CreateRecord(r.Context(), parser.NewConsumption())
	s.effectResponse(r, eff, nil).Write(w)
}

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	view := s.loader.Statistics(r.Context(), ParseListFilter(r.URL.Query()))
	body, err := s.renderFragment("statistics_panel", view)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Statistics render failed", log.FieldError, err.Error())
		InternalServerError("统计渲染失败").Write(w)
		return
	}
	NewHTMXResponse().BodyHTML(body).Write(w)
}

// dialogSlot is the pending-dialog slot of the page that sent r.
func dialogSlot(r *http.Request) *ui.Slot[ui.Effect] {
	return session.FromContext(r.Context()).Dialogs.Slot(PageID(r))
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	eff, overlay := s.flows.DeleteRecord(r.Context(), dialogSlot(r), ViewportWidth(r), chi.URLParam(r, "id"), nativeConfirmed)
	s.confirmResponse(w, r, eff, overlay)
}

func (s *Server) handleReceive(w http.ResponseWriter, r *http.Request) {
	eff, overlay := s.flows.ConfirmReceipt(r.Context(), dialogSlot(r), ViewportWidth(r), chi.URLParam(r, "id"), nativeConfirmed)
	s.confirmResponse(w, r, eff, overlay)
}

func (s *Server) handleRetag(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		BadRequestError("请求格式无效").Write(w)
		return
	}
	tag := sanitizeInput(r.Form.Get("tag"))
	if !knownTag(tag) {
		BadRequestError("未知标签").Write(w)
		return
	}
	eff := s.flows.Retag(r.Context(), chi.URLParam(r, "id"), tag)
	s.effectResponse(r, eff, nil).Reswap("none").Write(w)
}

func knownTag(tag string) bool {
	for _, t := range core.Tags() {
		if string(t) == tag {
			return true
		}
	}
	return false
}

func (s *Server) handleOpenDailyPrice(p page.Page) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form := s.flows.OpenDailyPrice(chi.URLParam(r, "id"), sanitizeInput(r.URL.Query().Get("totalPrice")))
		body, err := s.renderFragment("daily_price_modal", modalData(p, form))
		if err != nil {
			s.logger.ErrorContext(r.Context(), "Daily price modal render failed", log.FieldError, err.Error())
			InternalServerError("对话框渲染失败").Write(w)
			return
		}
		NewHTMXResponse().BodyHTML(body).Write(w)
	}
}

// modalData is what the daily_price_modal template renders.
func modalData(p page.Page, form page.DailyPriceForm) map[string]any {
	return map[string]any{"Form": form, "Prefix": pagePrefix(p)}
}

func (s *Server) handleSaveDailyPrice(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		BadRequestError("请求格式无效").Write(w)
		return
	}
	eff := s.flows.SaveDailyPrice(r.Context(),
		sanitizeInput(r.Form.Get("id")),
		sanitizeInput(r.Form.Get("startUseTime")),
		sanitizeInput(r.Form.Get("endUseTime")))
	s.effectResponse(r, eff, nil).Write(w)
}

func (s *Server) handlePriceQuery(w http.ResponseWriter, r *http.Request) {
	subType := sanitizeInput(r.URL.Query().Get("subType"))
	result, patched, eff := s.flows.QueryPrice(r.Context(), subType)
	if !patched {
		s.effectResponse(r, eff, nil).Reswap("none").Write(w)
		return
	}
	body, err := s.renderFragment("price_result", result)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Price table render failed", log.FieldError, err.Error(), log.FieldSubType, subType)
		InternalServerError("价格表渲染失败").Write(w)
		return
	}
	s.effectResponse(r, eff, body).Write(w)
}

func (s *Server) handleRemoveTag(w http.ResponseWriter, r *http.Request) {
	overlay := s.flows.RemoveTag(dialogSlot(r), chi.URLParam(r, "id"))
	s.overlayResponse(r, overlay).Write(w)
}

// closeOverlay empties #dialog-root.
const closeOverlay = `<div id="dialog-root" hx-swap-oob="innerHTML"></div>`

// dialogToken is the token of the overlay whose button was pressed.
func dialogToken(r *http.Request) string {
	return sanitizeInput(r.FormValue("token"))
}

func (s *Server) handleDialogResolve(w http.ResponseWriter, r *http.Request) {
	ok := strings.TrimSpace(r.FormValue("ok")) == "1"
	eff, found := dialogSlot(r).Resolve(r.Context(), dialogToken(r), ok)
	if !found {
		s.logger.DebugContext(r.Context(), "Dialog answer without a pending dialog", log.FieldOperation, log.OpConfirm)
	}
	s.effectResponse(r, eff, []byte(closeOverlay)).Write(w)
}

func (s *Server) handleDialogExecute(w http.ResponseWriter, r *http.Request) {
	eff, found := dialogSlot(r).Execute(r.Context(), dialogToken(r))
	if !found {
		s.logger.DebugContext(r.Context(), "Dialog answer without a pending dialog", log.FieldOperation, log.OpConfirm)
	}
	s.effectResponse(r, eff, []byte(closeOverlay)).Write(w)
}

func (s *Server) handleDialogClose(w http.ResponseWriter, r *http.Request) {
	dialogSlot(r).Close(dialogToken(r))
	NewHTMXResponse().BodyHTML([]byte(closeOverlay)).Write(w)
}

// rateLimited answers a throttled mutation with an alert: an overlay on
// mobile, a native alert on desktop.
func (s *Server) rateLimited(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s.logger.WithComponent(log.ComponentRateLimit).WarnContext(ctx, "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)

	b := NewHTMXResponse().Status(http.StatusTooManyRequests)
	overlay := ui.Alert(ViewportWidth(r), page.MsgRateLimited, func(msg string) { b.TriggerAlert(msg) })
	if overlay != nil {
		body, err := s.renderFragment("overlay_oob", *overlay)
		if err == nil {
			b.BodyHTML(body)
		} else {
			b.TriggerAlert(page.MsgRateLimited)
		}
	}
	b.Write(w)
}
