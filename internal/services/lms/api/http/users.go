package httpapi

import (
	"net/http"

	"github.com/louisbranch/lms/internal/services/lms/access"
	"github.com/louisbranch/lms/internal/services/lms/account"
)

type createUserRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Locale   string `json:"locale"`
}

type updateUserRequest struct {
	Email    *string `json:"email"`
	Name     *string `json:"name"`
	Password *string `json:"password"`
	Role     *string `json:"role"`
	Locale   *string `json:"locale"`
}

func (req updateUserRequest) input() account.UpdateInput {
	return account.UpdateInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
		Role:     req.Role,
		Locale:   req.Locale,
	}
}

func (h *Handler) currentUser(w http.ResponseWriter, r *http.Request, actor access.Actor) error {
	user, err := h.svc.Accounts.Get(r.Context(), actor, actor.UserID)
	if err != nil {
		return err
	}
	respond(w, http.StatusOK, "User retrieved successfully", toUser(user))
	return nil
}

func (h *Handler) updateCurrentUser(w http.ResponseWriter, r *http.Request, actor access.Actor) error {
	var req updateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	user, err := h.svc.Accounts.Update(r.Context(), actor, actor.UserID, req.input())
	if err != nil {
		return err
	}
	respond(w, http.StatusOK, "User updated successfully", toUser(user))
	return nil
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request, actor access.Actor) error {
	users, err := h.svc.Accounts.List(r.Context(), actor)
	if err != nil {
		return err
	}
	respond(w, http.StatusOK, "Users retrieved successfully", mapSlice(users, toUser))
	return nil
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request, actor access.Actor) error {
	var req createUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	user, err := h.svc.Accounts.Create(r.Context(), actor, account.CreateInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
		Role:     req.Role,
		Locale:   req.Locale,
	})
	if err != nil {
		return err
	}
	respond(w, http.StatusCreated, "User created successfully", toUser(user))
	return nil
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request, actor access.Actor) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	user, err := h.svc.Accounts.Get(r.Context(), actor, id)
	if err != nil {
		return err
	}
	respond(w, http.StatusOK, "User retrieved successfully", toUser(user))
	return nil
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request, actor access.Actor) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	var req updateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	user, err := h.svc.Accounts.Update(r.Context(), actor, id, req.input())
	if err != nil {
		return err
	}
	respond(w, http.StatusOK, "User updated successfully", toUser(user))
	return nil
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request, actor access.Actor) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	if err := h.svc.Accounts.Delete(r.Context(), actor, id); err != nil {
		return err
	}
	respond(w, http.StatusOK, "User deleted successfully", nil)
	return nil
}
