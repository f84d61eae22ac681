package web

import (
	"fmt"
	"net/http"

	"github.com/erazemk/stockroom/internal/model"
	"github.com/erazemk/stockroom/internal/tracker"
)

type removeData struct {
	PageData
	Pending  tracker.PendingRemoval
	Stores   []string
	Employee string
	Purpose  string
	Store    string
	Amount   int
}

func (s *Server) renderRemove(w http.ResponseWriter, r *http.Request, status int, data *removeData) {
	data.PageData.Title = "Remove " + data.Pending.ItemName
	data.PageData.Active = "inventory"
	data.PageData.User = GetWebClaims(r.Context())
	data.Stores = s.Stores
	if data.Amount == 0 {
		data.Amount = data.Pending.Amount
	}
	s.Templates.Render(w, status, "remove.html", data)
}

// StageRemovalSubmit handles POST /inventory/remove. It checks the amount
// and shows the confirmation form without changing anything.
func (s *Server) StageRemovalSubmit(w http.ResponseWriter, r *http.Request) {
	upc := r.FormValue("upc")
	requested := tracker.ParseQuantity(r.FormValue("amount"), 1)

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.openSession(r.Context(), tracker.ViewNone)
	if err != nil {
		s.Logger.Warn("staging removal with partial collections", "error", err)
	}

	pending, err := sess.StageRemoval(upc, requested)
	if err != nil {
		s.renderInventory(w, r, statusFor(err), sess.Snapshot(), addForm{}, userMessage(err, addFieldsMissing), "")
		return
	}
	s.renderRemove(w, r, http.StatusOK, &removeData{Pending: pending})
}

// ConfirmRemovalSubmit handles POST /inventory/remove/confirm. The removal
// is staged again against the current state before it is applied.
func (s *Server) ConfirmRemovalSubmit(w http.ResponseWriter, r *http.Request) {
	upc := r.FormValue("upc")
	details := tracker.RemovalDetails{
		Employee: r.FormValue("employee"),
		Purpose:  r.FormValue("purpose"),
		Store:    r.FormValue("store"),
	}
	amount, amountOK := formQuantity(r.FormValue("amount"))
	details.Amount = amount

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.mutableSession(r.Context(), tracker.ViewInventory)
	if err != nil {
		s.renderInventory(w, r, http.StatusServiceUnavailable, model.Snapshot{}, addForm{}, err.Error(), "")
		return
	}

	formErr := ""
	switch {
	case !amountOK:
		formErr = confirmFieldsMissing
	case amount < 1:
		formErr = "Amount must be at least 1."
	}
	if formErr != "" {
		pending, err := sess.StageRemoval(upc, 1)
		if err != nil {
			s.renderInventory(w, r, statusFor(err), sess.Snapshot(), addForm{}, userMessage(err, addFieldsMissing), "")
			return
		}
		s.renderRemove(w, r, http.StatusBadRequest, &removeData{
			PageData: PageData{Error: formErr},
			Pending:  pending,
			Employee: details.Employee,
			Purpose:  details.Purpose,
			Store:    details.Store,
		})
		return
	}

	pending, err := sess.StageRemoval(upc, details.Amount)
	if err != nil {
		s.renderInventory(w, r, statusFor(err), sess.Snapshot(), addForm{}, userMessage(err, addFieldsMissing), "")
		return
	}

	rec, err := sess.ConfirmRemoval(r.Context(), pending, details)
	if err != nil {
		s.renderRemove(w, r, statusFor(err), &removeData{
			PageData: PageData{Error: userMessage(err, confirmFieldsMissing)},
			Pending:  pending,
			Employee: details.Employee,
			Purpose:  details.Purpose,
			Store:    details.Store,
			Amount:   details.Amount,
		})
		return
	}

	redirectWithFlash(w, r, "/inventory",
		fmt.Sprintf("Removed %d units of %s.", rec.Amount, rec.ItemName), sess)
}
