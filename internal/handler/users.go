// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/olegiv/companion/internal/auth"
	"github.com/olegiv/companion/internal/middleware"
	"github.com/olegiv/companion/internal/model"
	"github.com/olegiv/companion/internal/render"
	"github.com/olegiv/companion/internal/service"
	"github.com/olegiv/companion/internal/store"
)

const collectionUsers = "users"

// UsersPerPage is the number of users to display per page.
const UsersPerPage = 10

// UsersHandler handles user management routes.
type UsersHandler struct {
	contentBase
}

// NewUsersHandler creates a new UsersHandler.
func NewUsersHandler(db *sql.DB, renderer *render.Renderer, events *service.EventService) *UsersHandler {
	return &UsersHandler{contentBase: newContentBase(db, renderer, events)}
}

// UserFormData holds data for the user form template.
type UserFormData struct {
	IsNew         bool
	User          store.User
	Errors        map[string]string
	Roles         []string
	CanChangeRole bool
	CanDelete     bool
}

// List handles GET /admin/users. Friends only see their own account.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	viewer := middleware.GetViewer(r)
	if !model.CanReadUsers(viewer) {
		h.forbid(w, r, "list users")
		return
	}

	var (
		users []store.User
		total int64
		page  = 1
		err   error
	)
	if viewer.IsAdmin() {
		total, err = h.queries.CountUsers(r.Context())
		if err != nil {
			logAndInternalError(w, "failed to count users", "error", err)
			return
		}
		var offset int64
		page, offset = pageOffset(r, total, UsersPerPage)
		users, err = h.queries.ListUsers(r.Context(), store.ListUsersParams{Limit: UsersPerPage, Offset: offset})
		if err != nil {
			logAndInternalError(w, "failed to list users", "error", err)
			return
		}
	} else if self := middleware.GetUser(r); self != nil {
		users = []store.User{*self}
		total = 1
	}

	h.render(w, r, http.StatusOK, "admin/users", render.TemplateData{
		Title: "Users",
		Data: adminList[store.User]{
			Items:      users,
			Pagination: BuildAdminPagination(page, int(total), UsersPerPage, redirectAdminUsers, r.URL.Query()),
			CanDelete:  model.CanDeleteUser(viewer),
		},
	})
}

// NewForm handles GET /admin/users/new.
func (h *UsersHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	if !middleware.GetViewer(r).IsAdmin() {
		h.forbid(w, r, "create user")
		return
	}
	h.renderForm(w, r, http.StatusOK, UserFormData{
		IsNew: true,
		User:  store.User{Role: model.DefaultRole},
	})
}

// Create handles POST /admin/users.
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	viewer := middleware.GetViewer(r)
	count, err := h.queries.CountUsers(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to count users", "error", err)
		return
	}
	if !model.CanCreateUser(viewer, count) {
		h.forbid(w, r, "create user")
		return
	}
	if !parseFormOrRedirect(w, r, h.renderer, redirectAdminUsersNew) {
		return
	}

	u := store.User{
		Name:  formString(r, "name"),
		Email: strings.ToLower(formString(r, "email")),
		Role:  formString(r, "role"),
	}
	if u.Role == "" {
		u.Role = model.DefaultRole
	}
	password := r.FormValue("password")

	errs := h.validateUser(r.Context(), u, 0)
	if err := auth.ValidatePassword(password); err != nil {
		errs["password"] = passwordMessage(err)
	}
	if len(errs) > 0 {
		h.renderForm(w, r, http.StatusUnprocessableEntity, UserFormData{IsNew: true, User: u, Errors: errs})
		return
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		slog.Error("failed to hash password", "error", err)
		flashError(w, r, h.renderer, redirectAdminUsersNew, "Error creating user")
		return
	}

	now := h.timestamp()
	created, err := h.queries.CreateUser(r.Context(), store.CreateUserParams{
		Email:        u.Email,
		PasswordHash: hash,
		Name:         u.Name,
		Role:         u.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		slog.Error("failed to create user", "error", err)
		flashError(w, r, h.renderer, redirectAdminUsersNew, "Error creating user")
		return
	}

	slog.Info("user created", "user_id", created.ID, "email", created.Email, "role", created.Role, "created_by", viewer.UserID)
	h.logContent(r, actionCreate, collectionUsers, created.ID, created.Email)
	flashSuccess(w, r, h.renderer, redirectAdminUsers, "User created successfully")
}

// EditForm handles GET /admin/users/{id}.
func (h *UsersHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	id, err := ParseIDParam(r)
	if err != nil {
		flashError(w, r, h.renderer, redirectAdminUsers, "Invalid user ID")
		return
	}
	if !model.CanUpdateUser(middleware.GetViewer(r), id) {
		h.forbid(w, r, "edit user")
		return
	}
	u, ok := loadOrRedirect(w, r, h.renderer, redirectAdminUsers, "User", id,
		func(id int64) (store.User, error) { return h.queries.GetUserByID(r.Context(), id) })
	if !ok {
		return
	}
	h.renderForm(w, r, http.StatusOK, UserFormData{User: u})
}

// Update handles PUT and POST /admin/users/{id}. Only admins change roles.
func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	viewer := middleware.GetViewer(r)
	id, err := ParseIDParam(r)
	if err != nil {
		flashError(w, r, h.renderer, redirectAdminUsers, "Invalid user ID")
		return
	}
	if !model.CanUpdateUser(viewer, id) {
		h.forbid(w, r, "update user")
		return
	}
	existing, ok := loadOrRedirect(w, r, h.renderer, redirectAdminUsers, "User", id,
		func(id int64) (store.User, error) { return h.queries.GetUserByID(r.Context(), id) })
	if !ok {
		return
	}
	editURL := fmt.Sprintf(redirectAdminUsersID, id)
	if !parseFormOrRedirect(w, r, h.renderer, editURL) {
		return
	}

	u := existing
	u.Name = formString(r, "name")
	u.Email = strings.ToLower(formString(r, "email"))
	if model.CanChangeRole(viewer) {
		u.Role = formString(r, "role")
	}
	password := r.FormValue("password")

	errs := h.validateUser(r.Context(), u, id)
	if password != "" {
		if err := auth.ValidatePassword(password); err != nil {
			errs["password"] = passwordMessage(err)
		}
	}
	if existing.Role == model.RoleAdmin && u.Role != model.RoleAdmin {
		if last, err := h.isLastAdmin(r.Context()); err != nil {
			slog.Error("failed to count admins", "error", err)
			errs["role"] = "Error checking admin count"
		} else if last {
			errs["role"] = "Cannot demote the last admin"
		}
	}
	if len(errs) > 0 {
		h.renderForm(w, r, http.StatusUnprocessableEntity, UserFormData{User: u, Errors: errs})
		return
	}

	now := h.timestamp()
	err = h.withTx(r.Context(), func(q *store.Queries) error {
		if _, err := q.UpdateUser(r.Context(), store.UpdateUserParams{
			ID:        id,
			Email:     u.Email,
			Name:      u.Name,
			Role:      u.Role,
			AvatarID:  u.AvatarID,
			UpdatedAt: now,
		}); err != nil {
			return err
		}
		if password == "" {
			return nil
		}
		hash, err := auth.HashPassword(password)
		if err != nil {
			return fmt.Errorf("hashing password: %w", err)
		}
		return q.UpdateUserPassword(r.Context(), store.UpdateUserPasswordParams{
			ID:           id,
			PasswordHash: hash,
			UpdatedAt:    now,
		})
	})
	if err != nil {
		slog.Error("failed to update user", "error", err, "user_id", id)
		flashError(w, r, h.renderer, editURL, "Error saving user")
		return
	}

	if existing.Role != u.Role {
		slog.Info("user role changed", "user_id", id, "from", existing.Role, "to", u.Role, "changed_by", viewer.UserID)
	}
	h.logContent(r, actionUpdate, collectionUsers, id, u.Email)
	flashSuccess(w, r, h.renderer, editURL, "User saved successfully")
}

// Delete handles DELETE /admin/users/{id} and POST /admin/users/{id}/delete.
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	viewer := middleware.GetViewer(r)
	if !model.CanDeleteUser(viewer) {
		h.forbid(w, r, "delete user")
		return
	}
	id, err := ParseIDParam(r)
	if err != nil {
		flashError(w, r, h.renderer, redirectAdminUsers, "Invalid user ID")
		return
	}
	if viewer.UserID == id {
		flashError(w, r, h.renderer, redirectAdminUsers, "Cannot delete your own account")
		return
	}
	u, ok := loadOrRedirect(w, r, h.renderer, redirectAdminUsers, "User", id,
		func(id int64) (store.User, error) { return h.queries.GetUserByID(r.Context(), id) })
	if !ok {
		return
	}
	if u.Role == model.RoleAdmin {
		last, err := h.isLastAdmin(r.Context())
		if err != nil {
			slog.Error("failed to count admins", "error", err)
			flashError(w, r, h.renderer, redirectAdminUsers, "Error checking admin count")
			return
		}
		if last {
			flashError(w, r, h.renderer, redirectAdminUsers, "Cannot delete the last admin")
			return
		}
	}

	if err := h.queries.DeleteUser(r.Context(), id); err != nil {
		slog.Error("failed to delete user", "error", err, "user_id", id)
		flashError(w, r, h.renderer, redirectAdminUsers, "Error deleting user")
		return
	}

	h.logContent(r, actionDelete, collectionUsers, id, u.Email)
	flashSuccess(w, r, h.renderer, redirectAdminUsers, "User deleted successfully")
}

// validateUser checks name, email and role. excludeID skips the user's own
// row in the email uniqueness check.
func (h *UsersHandler) validateUser(ctx context.Context, u store.User, excludeID int64) map[string]string {
	errs := make(map[string]string)
	if u.Name == "" {
		errs["name"] = "Name is required"
	}
	if msg := validateEmail(u.Email); msg != "" {
		errs["email"] = msg
	} else {
		other, err := h.queries.GetUserByEmail(ctx, u.Email)
		switch {
		case err == nil && other.ID != excludeID:
			errs["email"] = "Email already exists"
		case err != nil && !errors.Is(err, sql.ErrNoRows):
			slog.Error("database error checking email", "error", err)
			errs["email"] = "Error checking email"
		}
	}
	if !model.IsValidRole(u.Role) {
		errs["role"] = "Invalid role"
	}
	return errs
}

func (h *UsersHandler) isLastAdmin(ctx context.Context) (bool, error) {
	n, err := h.queries.CountUsersByRole(ctx, model.RoleAdmin)
	return n <= 1, err
}

func (h *UsersHandler) renderForm(w http.ResponseWriter, r *http.Request, status int, data UserFormData) {
	viewer := middleware.GetViewer(r)
	data.Roles = model.ValidRoles
	data.CanChangeRole = model.CanChangeRole(viewer)
	data.CanDelete = model.CanDeleteUser(viewer) && data.User.ID != viewer.UserID

	title := "New User"
	if !data.IsNew {
		title = "Edit User"
	}
	h.render(w, r, status, "admin/user_form", render.TemplateData{
		Title: title,
		Data:  data,
	})
}

// passwordMessage turns a password policy error into a form message.
func passwordMessage(err error) string {
	switch {
	case errors.Is(err, auth.ErrPasswordTooShort):
		return fmt.Sprintf("Password must be at least %d characters", auth.MinPasswordLength)
	case errors.Is(err, auth.ErrPasswordTooLong):
		return fmt.Sprintf("Password must be at most %d characters", auth.MaxPasswordLength)
	}
	return "Invalid password"
}
