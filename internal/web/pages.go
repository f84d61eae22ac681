package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/erazemk/stockroom/internal/model"
	"github.com/erazemk/stockroom/internal/store"
	"github.com/erazemk/stockroom/internal/tracker"
)

type inventoryData struct {
	PageData
	Items []model.InventoryItem
	Total int
	Form  addForm
}

type addForm struct {
	Name     string
	UPC      string
	Model    string
	Quantity string
}

type removalsData struct {
	PageData
	Removals []model.RemovalRecord
	UPC      string
}

type activityData struct {
	PageData
	Entries []model.ActivityEntry
}

// openSession loads the collections into a fresh session. The caller must
// hold s.mu. A load error is returned with the partial session.
func (s *Server) openSession(ctx context.Context, page tracker.View) (*tracker.Session, error) {
	sess := tracker.NewSession(store.SessionStore{C: s.Collections},
		tracker.WithLogger(s.Logger),
		tracker.WithStores(s.Stores),
		tracker.WithPage(page))
	return sess, sess.Load(ctx)
}

// mutableSession is openSession for handlers that write. Saving a partially
// loaded session would overwrite the collections that failed to load, so a
// load error is reported instead.
func (s *Server) mutableSession(ctx context.Context, page tracker.View) (*tracker.Session, error) {
	sess, err := s.openSession(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("collections unavailable, try again later: %w", err)
	}
	return sess, nil
}

func basePage(r *http.Request, title, active string) PageData {
	return PageData{
		Title:   title,
		Active:  active,
		User:    GetWebClaims(r.Context()),
		Success: r.URL.Query().Get("ok"),
		Warning: r.URL.Query().Get("warn"),
	}
}

// redirectWithFlash redirects with a success message, plus a warning when
// the session could not be saved.
func redirectWithFlash(w http.ResponseWriter, r *http.Request, target, msg string, sess *tracker.Session) {
	q := url.Values{}
	q.Set("ok", msg)
	if sess.Dirty() {
		q.Set("warn", "Changes could not be saved: "+sess.SaveError().Error())
	}
	http.Redirect(w, r, target+"?"+q.Encode(), http.StatusSeeOther)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, tracker.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, tracker.ErrItemNotFound):
		return http.StatusNotFound
	case errors.Is(err, tracker.ErrInsufficientStock):
		return http.StatusConflict
	default:
		return http.StatusServiceUnavailable
	}
}

// Messages for blank required fields on the add and confirm forms.
const (
	addFieldsMissing     = "Please fill in all fields."
	confirmFieldsMissing = "Fill all fields."
)

// userMessage turns an operation error into the text shown on the page.
// Blank required fields get the form's missing text.
func userMessage(err error, missing string) string {
	switch {
	case errors.Is(err, tracker.ErrMissingField):
		return missing
	case errors.Is(err, tracker.ErrInvalidInput),
		errors.Is(err, tracker.ErrInsufficientStock),
		errors.Is(err, tracker.ErrItemNotFound):
		msg := err.Error()
		for _, sentinel := range []error{tracker.ErrInvalidInput, tracker.ErrInsufficientStock} {
			msg = strings.TrimPrefix(msg, sentinel.Error()+": ")
		}
		return strings.ToUpper(msg[:1]) + msg[1:] + "."
	default:
		return err.Error()
	}
}

// formQuantity parses a required whole-number form field.
func formQuantity(raw string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	return n, err == nil
}

func (s *Server) renderInventory(w http.ResponseWriter, r *http.Request, status int, snap model.Snapshot, form addForm, pageErr, warning string) {
	data := &inventoryData{
		PageData: basePage(r, "Inventory", "inventory"),
		Items:    snap.Inventory,
		Form:     form,
	}
	for _, item := range snap.Inventory {
		data.Total += item.Quantity
	}
	data.Error = pageErr
	if warning != "" {
		data.Warning = warning
	}
	s.Templates.Render(w, status, "inventory.html", data)
}

// InventoryPage handles GET /inventory.
func (s *Server) InventoryPage(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.openSession(r.Context(), tracker.ViewInventory)
	warning := ""
	if err != nil {
		warning = "Some collections could not be loaded: " + err.Error()
	}
	s.renderInventory(w, r, http.StatusOK, sess.Snapshot(), addForm{}, "", warning)
}

// AddItemSubmit handles POST /inventory.
func (s *Server) AddItemSubmit(w http.ResponseWriter, r *http.Request) {
	form := addForm{
		Name:     r.FormValue("name"),
		UPC:      r.FormValue("upc"),
		Model:    r.FormValue("model"),
		Quantity: r.FormValue("quantity"),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.mutableSession(r.Context(), tracker.ViewInventory)
	if err != nil {
		s.renderInventory(w, r, http.StatusServiceUnavailable, model.Snapshot{}, form, err.Error(), "")
		return
	}

	qty, ok := formQuantity(form.Quantity)
	if !ok {
		s.renderInventory(w, r, http.StatusBadRequest, sess.Snapshot(), form, addFieldsMissing, "")
		return
	}
	item, err := sess.AddItem(r.Context(), tracker.NewItem{
		Name:     form.Name,
		UPC:      form.UPC,
		Model:    form.Model,
		Quantity: qty,
	})
	if err != nil {
		s.renderInventory(w, r, statusFor(err), sess.Snapshot(), form, userMessage(err, addFieldsMissing), "")
		return
	}

	redirectWithFlash(w, r, "/inventory",
		fmt.Sprintf("Added %d units of %s.", qty, item.Name), sess)
}

// AdjustSubmit handles POST /inventory/adjust.
func (s *Server) AdjustSubmit(w http.ResponseWriter, r *http.Request) {
	upc := r.FormValue("upc")
	delta := tracker.ParseQuantity(r.FormValue("delta"), 1)

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.mutableSession(r.Context(), tracker.ViewInventory)
	if err != nil {
		s.renderInventory(w, r, http.StatusServiceUnavailable, model.Snapshot{}, addForm{}, err.Error(), "")
		return
	}

	res, err := sess.AdjustQuantity(r.Context(), upc, delta)
	if err != nil {
		s.renderInventory(w, r, statusFor(err), sess.Snapshot(), addForm{}, userMessage(err, addFieldsMissing), "")
		return
	}

	msg := fmt.Sprintf("%s now at %d.", res.Item.Name, res.Item.Quantity)
	if res.Clamped {
		msg = fmt.Sprintf("%s cannot go below zero, now at 0.", res.Item.Name)
	}
	redirectWithFlash(w, r, "/inventory", msg, sess)
}

// RemovalsPage handles GET /removals. An optional upc query parameter
// filters the history to one item.
func (s *Server) RemovalsPage(w http.ResponseWriter, r *http.Request) {
	upc := strings.TrimSpace(r.URL.Query().Get("upc"))
	data := &removalsData{
		PageData: basePage(r, "Removals", "removals"),
		UPC:      upc,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	removals, err := s.Collections.Removals(r.Context(), upc)
	if err != nil {
		s.Logger.Warn("could not load removals", "error", err)
		data.Warning = "Removal history could not be loaded: " + err.Error()
	}
	data.Removals = removals
	s.Templates.Render(w, http.StatusOK, "removals.html", data)
}

// ActivityPage handles GET /activity.
func (s *Server) ActivityPage(w http.ResponseWriter, r *http.Request) {
	data := &activityData{PageData: basePage(r, "Activity", "activity")}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.Collections.Activity(r.Context())
	if err != nil {
		s.Logger.Warn("could not load activity", "error", err)
		data.Warning = "Activity log could not be loaded: " + err.Error()
	}
	data.Entries = entries
	s.Templates.Render(w, http.StatusOK, "activity.html", data)
}
