// Package alert defines routes for alerts
package alert

import (
	"context"
	"net/http"
	"regexp"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	alertstore "github.com/dense-analysis/stockwarp/internal/alert"
	"github.com/dense-analysis/stockwarp/internal/model"
	"github.com/dense-analysis/stockwarp/pkg/lax"
)

// UserSource resolves the authenticated user for a request, returning nil
// when no identity is attached.
type UserSource interface {
	LoadUser(request *http.Request) (*model.User, error)
}

// QuoteSource serves the latest known price per symbol.
type QuoteSource interface {
	LatestPrices(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error)
}

// Handler serves the alert API.
type Handler struct {
	Store alertstore.Store
	Users UserSource
	// Quotes may be nil, in which case the list is served without prices.
	Quotes QuoteSource
}

// Register attaches the alert routes to a router.
func (handler *Handler) Register(router *mux.Router) {
	router.Handle("/api/alerts", lax.Wrap(lax.View{
		Get: handler.handleList,
	}))
	router.Handle("/api/alerts/delete", lax.Wrap(lax.View{
		Post: handler.handleDelete,
	}))
	router.Handle("/api/alerts/{id}/note", lax.Wrap(lax.View{
		Get: handler.handleGetNote,
		Put: handler.handleUpdateNote,
	}))
}

var idPattern = regexp.MustCompile(`^[A-Za-z0-9:_-]{1,80}$`)

func internalError(message string, err error) *lax.Response {
	zap.L().Error(message, zap.Error(err))

	return lax.MakeResponse(http.StatusInternalServerError, "Internal Server Error")
}

func (handler *Handler) authenticate(request *lax.Request) (*model.User, *lax.Response) {
	user, err := handler.Users.LoadUser(request.Request)

	if err != nil {
		return nil, internalError("session user load failed", err)
	}

	if user == nil {
		return nil, lax.MakeForbiddenResponse()
	}

	return user, nil
}

func requestID(request *lax.Request) (string, *lax.Response) {
	id := mux.Vars(request.Request)["id"]

	if !idPattern.MatchString(id) {
		return "", lax.MakeErrorListResponse(lax.Issue("id", "invalid alert id"))
	}

	return id, nil
}

type alertListItem struct {
	model.AlertEntry
	CurrentPrice *model.Price `json:"currentPrice"`
}

func (handler *Handler) handleList(request *lax.Request) interface{} {
	user, failure := handler.authenticate(request)

	if failure != nil {
		return failure
	}

	entries, err := alertstore.ListEntries(request.Context(), handler.Store, user.ID)

	if err != nil {
		return internalError("alert list failed", err)
	}

	var prices map[string]decimal.Decimal

	if handler.Quotes != nil && len(entries) > 0 {
		symbols := make([]string, 0, len(entries))
		seen := map[string]bool{}

		for _, entry := range entries {
			if !seen[entry.Symbol] {
				seen[entry.Symbol] = true
				symbols = append(symbols, entry.Symbol)
			}
		}

		prices, err = handler.Quotes.LatestPrices(request.Context(), symbols)

		if err != nil {
			// The list is still useful without prices.
			zap.L().Warn("quote lookup failed", zap.Error(err))
			prices = nil
		}
	}

	items := make([]alertListItem, 0, len(entries))

	for _, entry := range entries {
		item := alertListItem{AlertEntry: entry}

		if value, ok := prices[entry.Symbol]; ok {
			item.CurrentPrice = model.NewPrice(value)
		}

		items = append(items, item)
	}

	return items
}

type noteResponse struct {
	ID   string `json:"id"`
	Note string `json:"note"`
}

func (handler *Handler) handleGetNote(request *lax.Request) interface{} {
	user, failure := handler.authenticate(request)

	if failure != nil {
		return failure
	}

	id, failure := requestID(request)

	if failure != nil {
		return failure
	}

	note, found, err := alertstore.GetNote(request.Context(), handler.Store, user.ID, id)

	if err != nil {
		return internalError("note lookup failed", err)
	}

	if !found {
		return lax.MakeNotFoundResponse()
	}

	return noteResponse{ID: id, Note: note}
}

type noteUpdateBody struct {
	Mode string `json:"mode"`
	Note string `json:"note"`
}

type noteStatusResponse struct {
	ID      string `json:"id"`
	HasNote bool   `json:"hasNote"`
}

func (handler *Handler) handleUpdateNote(request *lax.Request) interface{} {
	user, failure := handler.authenticate(request)

	if failure != nil {
		return failure
	}

	id, failure := requestID(request)

	if failure != nil {
		return failure
	}

	var body noteUpdateBody

	if err := request.JSON(&body); err != nil {
		return lax.MakeBadRequestResponse(err)
	}

	if body.Mode != "note" {
		return lax.MakeErrorListResponse(lax.Issue("mode", `mode must be "note"`))
	}

	updated, err := alertstore.SetNote(request.Context(), handler.Store, user.ID, id, body.Note)

	if err != nil {
		return internalError("note update failed", err)
	}

	if !updated {
		return lax.MakeNotFoundResponse()
	}

	return noteStatusResponse{
		ID:      id,
		HasNote: alertstore.ClampNote(body.Note) != "",
	}
}

type deleteBody struct {
	IDs []string `json:"ids"`
}

type deleteResponse struct {
	Deleted bool `json:"deleted"`
}

func (handler *Handler) handleDelete(request *lax.Request) interface{} {
	user, failure := handler.authenticate(request)

	if failure != nil {
		return failure
	}

	var body deleteBody

	if err := request.JSON(&body); err != nil {
		return lax.MakeBadRequestResponse(err)
	}

	for _, id := range body.IDs {
		if !idPattern.MatchString(id) {
			return lax.MakeErrorListResponse(lax.Issue("ids", "invalid alert id"))
		}
	}

	// An empty id list is not a no-op: the full consolidation pass still
	// runs, which is what migrates old rows forward.
	if err := alertstore.DeleteAlerts(request.Context(), handler.Store, user.ID, body.IDs); err != nil {
		return internalError("alert delete failed", err)
	}

	return lax.MakeResponse(http.StatusOK, deleteResponse{Deleted: true})
}
