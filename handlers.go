package main

// handlers.go is the CRUD plumbing shared by every resource

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// resource describes one entity type: how it is looked up, filtered,
// decoded, validated and projected for each audience. E is the model, In the
// writable input shape.
type resource[E any, In any] struct {
	srv *Server

	// key is both the URL parameter and the column used for detail routes.
	key     string
	order   string
	preload func(*gorm.DB) *gorm.DB

	fresh func() *E
	input func(*E) In
	check func(tx *gorm.DB, in *In) fieldErrors
	apply func(*E, *In)

	public func(*E) any
	admin  func(*E) any

	filter  func(*gorm.DB, url.Values) *gorm.DB
	params  []string // query parameters filter reads
	visible func(*gorm.DB) *gorm.DB

	insert func(*gorm.DB, *E) error
	remove func(*gorm.DB, *E) error
}

func asView[E, V any](view func(*E) V) func(*E) any {
	return func(e *E) any { return view(e) }
}

func (res *resource[E, In]) query(ctx context.Context, admin bool) *gorm.DB {
	q := res.srv.db.WithContext(ctx)
	if res.preload != nil {
		q = res.preload(q)
	}
	if !admin && res.visible != nil {
		q = res.visible(q)
	}
	return q
}

func (res *resource[E, In]) find(r *http.Request, admin bool, scope func(*gorm.DB) *gorm.DB) ([]E, error) {
	q := res.query(r.Context(), admin)
	if res.filter != nil {
		q = res.filter(q, r.URL.Query())
	}
	if scope != nil {
		q = scope(q)
	}
	var items []E
	if err := q.Order(res.order).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (res *resource[E, In]) load(r *http.Request, admin bool) (*E, error) {
	raw := chi.URLParam(r, res.key)
	var value any = raw
	if res.key == "id" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return nil, errNotFound
		}
		value = id
	}

	var e E
	err := res.query(r.Context(), admin).
		Where(clause.Eq{Column: clause.Column{Name: res.key}, Value: value}).
		First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func viewAll[E any](items []E, view func(*E) any) []any {
	out := make([]any, len(items))
	for i := range items {
		out[i] = view(&items[i])
	}
	return out
}

func (res *resource[E, In]) publicList(w http.ResponseWriter, r *http.Request) {
	res.srv.cachedJSON(w, r, res.params, func() (any, error) {
		items, err := res.find(r, false, nil)
		if err != nil {
			return nil, err
		}
		return viewAll(items, res.public), nil
	})
}

func (res *resource[E, In]) publicDetail(w http.ResponseWriter, r *http.Request) {
	res.srv.cachedJSON(w, r, nil, func() (any, error) {
		e, err := res.load(r, false)
		if err != nil {
			return nil, err
		}
		return res.public(e), nil
	})
}

func (res *resource[E, In]) adminList(w http.ResponseWriter, r *http.Request) {
	res.adminListWith(nil)(w, r)
}

// adminListWith narrows the admin list with a per-request scope, used by
// nested routes such as a project's images. A scope error (unknown parent)
// is reported instead of an empty list.
func (res *resource[E, In]) adminListWith(scope func(*http.Request) (func(*gorm.DB) *gorm.DB, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var narrow func(*gorm.DB) *gorm.DB
		if scope != nil {
			var err error
			if narrow, err = scope(r); err != nil {
				writeError(w, err)
				return
			}
		}
		items, err := res.find(r, true, narrow)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, viewAll(items, res.admin))
	}
}

func (res *resource[E, In]) adminDetail(w http.ResponseWriter, r *http.Request) {
	e, err := res.load(r, true)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res.admin(e))
}

func (res *resource[E, In]) create(w http.ResponseWriter, r *http.Request) {
	res.createWith(nil)(w, r)
}

// createWith lets a nested route override input fields from the URL after
// the body is decoded and before it is validated.
func (res *resource[E, In]) createWith(prepare func(*http.Request, *In) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e := res.fresh()
		in := res.input(e)
		if err := decodeInput(r, &in); err != nil {
			writeError(w, err)
			return
		}
		if prepare != nil {
			if err := prepare(r, &in); err != nil {
				writeError(w, err)
				return
			}
		}
		if err := res.validate(r, &in); err != nil {
			writeError(w, err)
			return
		}
		res.apply(e, &in)

		db := res.srv.db.WithContext(r.Context())
		var err error
		if res.insert != nil {
			err = res.insert(db, e)
		} else {
			err = db.Create(e).Error
		}
		if err != nil {
			writeError(w, err)
			return
		}

		res.srv.afterWrite(r.Context())
		writeJSON(w, http.StatusCreated, res.admin(e))
	}
}

func (res *resource[E, In]) update(w http.ResponseWriter, r *http.Request) {
	e, err := res.load(r, true)
	if err != nil {
		writeError(w, err)
		return
	}
	in := res.input(e)
	if err := decodeInput(r, &in); err != nil {
		writeError(w, err)
		return
	}
	if err := res.validate(r, &in); err != nil {
		writeError(w, err)
		return
	}
	res.apply(e, &in)

	if err := res.srv.db.WithContext(r.Context()).Omit(clause.Associations).Save(e).Error; err != nil {
		writeError(w, err)
		return
	}

	res.srv.afterWrite(r.Context())
	writeJSON(w, http.StatusOK, res.admin(e))
}

func (res *resource[E, In]) destroy(w http.ResponseWriter, r *http.Request) {
	e, err := res.load(r, true)
	if err != nil {
		writeError(w, err)
		return
	}

	db := res.srv.db.WithContext(r.Context())
	if res.remove != nil {
		err = res.remove(db, e)
	} else {
		err = db.Delete(e).Error
	}
	if err != nil {
		writeError(w, err)
		return
	}

	res.srv.afterWrite(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (res *resource[E, In]) validate(r *http.Request, in *In) error {
	var extra fieldErrors
	if res.check != nil {
		extra = res.check(res.srv.db.WithContext(r.Context()), in)
	}
	return checkInput(in, extra)
}
