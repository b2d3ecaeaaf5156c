package console

import (
	"context"
	"errors"

	"github.com/goliatone/go-pos-console/api"
	"github.com/goliatone/go-pos-console/apperror"
	"github.com/goliatone/go-pos-console/form"
	"github.com/goliatone/go-pos-console/mutation"
	"github.com/goliatone/go-pos-console/resourcecache"
)

// Notices of the account forms.
const (
	NoticeCustomerAdded  = "Add customer successfully !"
	NoticeAdminAdded     = "Add admin successfully !"
	NoticeUsernameTaken  = "Username already exists !"
	NoticeRegisterFailed = "Register failed !"
	NoticeAccountDeleted = "Account inactive !"
)

// MenuSaver writes a menu with its optional image.
type MenuSaver interface {
	Save(ctx context.Context, in api.MenuInput, image *api.Upload) (api.Menu, error)
}

// Writer creates and updates records of one collection.
type Writer[T any] interface {
	Create(ctx context.Context, payload any) (T, error)
	Update(ctx context.Context, payload any) (T, error)
}

// Registrar creates accounts.
type Registrar interface {
	RegisterAdmin(ctx context.Context, reg form.Registration) (api.User, error)
	RegisterCustomer(ctx context.Context, reg form.Registration) (api.User, error)
}

// Editor submits the add and edit forms drawn over the list screens. Every
// submission validates first, then writes through the resource's mutator and
// notifies the outcome.
type Editor struct {
	notifier Notifier
	keepOpen bool
}

// NewEditor returns an editor. keepOpen keeps a form open after a failed
// write instead of returning to the list.
func NewEditor(notifier Notifier, keepOpen bool) *Editor {
	return &Editor{notifier: notifier, keepOpen: keepOpen}
}

// SaveMenu creates or updates a menu from its form.
func (e *Editor) SaveMenu(ctx context.Context, menus *resourcecache.CachedResource[api.Menu], saver MenuSaver, in form.MenuForm, image *api.Upload) mutation.Result[api.Menu] {
	op := operationFor(in.ID)
	success, failure := mutation.Messages("menu", op)
	if image != nil && in.ImageType == "" {
		in.ImageType = image.ContentType
	}

	return finish(ctx, e, menus, mutation.Request[api.Menu]{
		Operation: op,
		Input:     in,
		Call: func(ctx context.Context) (api.Menu, error) {
			return saver.Save(ctx, api.MenuInput{ID: in.ID, Name: in.Name, Price: in.Amount()}, image)
		},
		SuccessMessage: success,
		FailureMessage: failure,
		ReturnTo:       PathMenus,
	})
}

// SaveTable creates or updates a table from its form.
func (e *Editor) SaveTable(ctx context.Context, tables *resourcecache.CachedResource[api.Table], w Writer[api.Table], in form.TableForm) mutation.Result[api.Table] {
	op := operationFor(in.ID)
	success, failure := mutation.Messages("table", op)

	return finish(ctx, e, tables, mutation.Request[api.Table]{
		Operation: op,
		Input:     in,
		Call: func(ctx context.Context) (api.Table, error) {
			payload := api.Table{ID: in.ID, Name: in.Name}
			if op == mutation.Create {
				return w.Create(ctx, payload)
			}
			return w.Update(ctx, payload)
		},
		SuccessMessage: success,
		FailureMessage: failure,
		ReturnTo:       PathTables,
	})
}

// UpdateUser edits a user's profile.
func (e *Editor) UpdateUser(ctx context.Context, users *resourcecache.CachedResource[api.User], w Writer[api.User], in form.UserForm) mutation.Result[api.User] {
	success, failure := mutation.Messages("user", mutation.Update)

	return finish(ctx, e, users, mutation.Request[api.User]{
		Operation: mutation.Update,
		Input:     in,
		Call: func(ctx context.Context) (api.User, error) {
			return w.Update(ctx, in)
		},
		SuccessMessage: success,
		FailureMessage: failure,
		ReturnTo:       PathUsers,
	})
}

// RegisterCustomer creates a customer account.
func (e *Editor) RegisterCustomer(ctx context.Context, users *resourcecache.CachedResource[api.User], r Registrar, reg form.Registration) mutation.Result[api.User] {
	return e.register(ctx, users, reg, r.RegisterCustomer, NoticeCustomerAdded)
}

// RegisterAdmin creates an admin account.
func (e *Editor) RegisterAdmin(ctx context.Context, users *resourcecache.CachedResource[api.User], r Registrar, reg form.Registration) mutation.Result[api.User] {
	return e.register(ctx, users, reg, r.RegisterAdmin, NoticeAdminAdded)
}

func (e *Editor) register(ctx context.Context, users *resourcecache.CachedResource[api.User], reg form.Registration, call func(context.Context, form.Registration) (api.User, error), success string) mutation.Result[api.User] {
	return finish(ctx, e, users, mutation.Request[api.User]{
		Operation: mutation.Create,
		Input:     reg,
		Call: func(ctx context.Context) (api.User, error) {
			return call(ctx, reg)
		},
		SuccessMessage: success,
		FailureMessage: NoticeRegisterFailed,
		FailureNotice:  usernameTaken,
		ReturnTo:       PathUsers,
	})
}

// usernameTaken turns the API's duplicate answer into the username notice.
func usernameTaken(err error) string {
	var appErr *apperror.Error
	if apperror.KindOf(err) == apperror.KindConflict {
		return NoticeUsernameTaken
	}
	if errors.As(err, &appErr) && appErr.Message == "Data already exist" {
		return NoticeUsernameTaken
	}
	return ""
}

func finish[T any](ctx context.Context, e *Editor, res *resourcecache.CachedResource[T], req mutation.Request[T]) mutation.Result[T] {
	req.KeepOpenOnFailure = e.keepOpen
	out := res.Mutate(ctx, req)
	notify(ctx, e.notifier, out.Outcome.Notice)
	return out
}

func operationFor(id string) mutation.Operation {
	if id == "" {
		return mutation.Create
	}
	return mutation.Update
}
