package page

import (
	"context"
	"fmt"
	"strings"

	"xiaofei/internal/api"
	"xiaofei/internal/core"
	"xiaofei/internal/log"
	"xiaofei/internal/ui"
)

// Flow names used in logs.
const (
	FlowCreate     = "create_record"
	FlowDelete     = "delete_record"
	FlowRetag      = "retag_record"
	FlowDailyPrice = "daily_price"
	FlowReceive    = "confirm_receipt"
	FlowPriceQuery = "price_query"
	FlowRemoveTag  = "remove_tag"
)

// Counter reads the pending badge count, zero on failure.
type Counter interface {
	Count(ctx context.Context) int
}

// Flows runs the page interactions against the backend. Every flow ends in a
// ui.Effect; none of them return errors, failures become notifications.
type Flows struct {
	backend api.Backend
	counter Counter
	log     *log.StructuredLogger
}

func NewFlows(backend api.Backend, counter Counter, logger *log.Logger) *Flows {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Flows{
		backend: backend,
		counter: counter,
		log:     log.NewStructuredLogger(logger.WithComponent(log.ComponentPage)),
	}
}

// CreateRecord submits the create form. On success the form is reset; on
// failure the form keeps its values.
func (f *Flows) CreateRecord(ctx context.Context, nc core.NewConsumption) ui.Effect {
	if err := f.backend.Create(ctx, nc); err != nil {
		return f.fail(ctx, FlowCreate, "", err, MsgCreateFailed, MsgCreateNetwork)
	}
	return ui.Notify(MsgCreated, ui.Success).AndResetForm()
}

// DeleteRecord asks for confirmation and deletes id when the user agrees. On
// mobile the effect arrives later through the dialog's Resolve.
func (f *Flows) DeleteRecord(ctx context.Context, dialogs *ui.Slot[ui.Effect], width int, id string, native func(string) bool) (ui.Effect, *ui.Overlay) {
	msg := fmt.Sprintf(MsgDeleteConfirm, id)
	return dialogs.Confirm(ctx, width, msg, native, func(ctx context.Context, ok bool) ui.Effect {
		if !ok {
			return ui.Effect{}
		}
		return f.deleteNow(ctx, id)
	})
}

func (f *Flows) deleteNow(ctx context.Context, id string) ui.Effect {
	if err := f.backend.Delete(ctx, id); err != nil {
		return f.fail(ctx, FlowDelete, id, err, MsgDeleteFailed, MsgDeleteNetwork)
	}
	return ui.Notify(MsgDeleted, ui.Success).AndReload()
}

// Retag replaces the record's tag. Success is silent.
func (f *Flows) Retag(ctx context.Context, id, tag string) ui.Effect {
	if err := f.backend.Update(ctx, id, core.TagPatch(tag)); err != nil {
		return f.fail(ctx, FlowRetag, id, err, MsgRetagFailed, MsgRetagNetwork)
	}
	return ui.Effect{}
}

// DailyPriceForm pre-fills the daily-price modal. ID travels with the form,
// so the save targets the record this modal was opened for.
type DailyPriceForm struct {
	ID         string
	TotalPrice string
	Open       bool
}

// OpenDailyPrice returns the modal pre-filled for id.
func (f *Flows) OpenDailyPrice(id, totalPrice string) DailyPriceForm {
	return DailyPriceForm{ID: id, TotalPrice: totalPrice, Open: true}
}

// SaveDailyPrice validates the window and stores it on id, the record the
// submitted modal was opened for. Validation failures never reach the backend.
func (f *Flows) SaveDailyPrice(ctx context.Context, id, start, end string) ui.Effect {
	if err := core.ValidateUseWindow(start, end); err != nil {
		return ui.Notify(MsgUseWindowRequired, ui.Error)
	}
	if id == "" {
		return ui.Notify(MsgNoModalTarget, ui.Error)
	}
	if err := f.backend.Update(ctx, id, core.UseWindowPatch(start, end)); err != nil {
		return f.fail(ctx, FlowDailyPrice, id, err, MsgDailyPriceFailed, MsgDailyPriceNetwork)
	}
	return ui.Notify(MsgDailyPriceSaved, ui.Success).AndHideModal().AndReload()
}

// ConfirmReceipt asks for confirmation and marks id received.
func (f *Flows) ConfirmReceipt(ctx context.Context, dialogs *ui.Slot[ui.Effect], width int, id string, native func(string) bool) (ui.Effect, *ui.Overlay) {
	return dialogs.Confirm(ctx, width, MsgReceiveConfirm, native, func(ctx context.Context, ok bool) ui.Effect {
		if !ok {
			return ui.Effect{}
		}
		if err := f.backend.Update(ctx, id, core.ReceivedPatch()); err != nil {
			return f.fail(ctx, FlowReceive, id, err, MsgReceiveFailed, MsgReceiveNetwork)
		}
		return ui.Notify(MsgReceived, ui.Success).AndReload()
	})
}

// PriceRow is one line of the historical price table.
type PriceRow struct {
	CreateTime   string
	Content      string
	Quantity     string
	TotalPrice   string
	MinUnitPrice string
	Tag          string
}

// PriceResult is the price table fragment. Exactly one of the table and the
// empty tip is shown once a query has run.
type PriceResult struct {
	Queried   bool
	SubType   string
	Rows      []PriceRow
	EmptyText string
}

// ShowTable reports whether the table is visible.
func (r PriceResult) ShowTable() bool { return len(r.Rows) > 0 }

// QueryPrice loads the purchase history of one sub type. A blank sub type is
// rejected before any backend call. An empty result and a backend rejection
// both show the fixed empty text. A transport failure leaves the table as it
// was, reported by a false second result.
func (f *Flows) QueryPrice(ctx context.Context, subType string) (PriceResult, bool, ui.Effect) {
	subType = strings.TrimSpace(subType)
	if subType == "" {
		return PriceResult{}, false, ui.Notify(MsgSubTypeRequired, ui.Error)
	}

	rows, err := f.backend.ListBySubType(ctx, subType)
	if err != nil {
		if _, ok := api.Message(err); ok {
			f.log.LogFlowFailed(ctx, FlowPriceQuery, "", log.ErrorTypeAPI, err)
			return PriceResult{Queried: true, SubType: subType, EmptyText: MsgPriceEmpty}, true, ui.Effect{}
		}
		return PriceResult{}, false, f.fail(ctx, FlowPriceQuery, "", err, "", MsgPriceNetwork)
	}

	res := PriceResult{Queried: true, SubType: subType}
	if len(rows) == 0 {
		res.EmptyText = MsgPriceEmpty
		return res, true, ui.Effect{}
	}
	for _, c := range rows {
		res.Rows = append(res.Rows, PriceRow{
			CreateTime:   c.CreateTime,
			Content:      c.Content,
			Quantity:     c.Quantity.String(),
			TotalPrice:   c.TotalPrice.String(),
			MinUnitPrice: ui.FormatCurrency(c.MinUnitPrice, 2),
			Tag:          c.Tag.Label(),
		})
	}
	return res, true, ui.Effect{}
}

// PendingCount is the badge value for this page load.
func (f *Flows) PendingCount(ctx context.Context) int {
	if f.counter == nil {
		return 0
	}
	return f.counter.Count(ctx)
}

// RemoveTag opens the markup confirmation for clearing id's tag.
func (f *Flows) RemoveTag(dialogs *ui.Slot[ui.Effect], id string) ui.Overlay {
	return dialogs.OpenConfirm(MsgRemoveTagTitle, MsgRemoveTagConfirm, ui.Warning, func(ctx context.Context) ui.Effect {
		if err := f.backend.Update(ctx, id, core.TagPatch(string(core.NoTag))); err != nil {
			return f.fail(ctx, FlowRemoveTag, id, err, MsgRetagFailed, MsgRetagNetwork)
		}
		return ui.Notify(MsgTagRemoved, ui.Success).AndReload()
	})
}

// fail turns err into the flow's notification: the server message behind
// prefix for a backend rejection, networkMsg for anything else.
func (f *Flows) fail(ctx context.Context, flow, id string, err error, prefix, networkMsg string) ui.Effect {
	if msg, ok := api.Message(err); ok {
		f.log.LogFlowFailed(ctx, flow, id, log.ErrorTypeAPI, err)
		return ui.Notify(prefix+msg, ui.Error)
	}
	errorType := log.ErrorTypeInternal
	if api.IsTransport(err) {
		errorType = log.ErrorTypeNetwork
	}
	f.log.LogFlowFailed(ctx, flow, id, errorType, err)
	return ui.Notify(networkMsg, ui.Error)
}
