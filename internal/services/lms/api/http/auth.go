package httpapi

import (
	"net/http"
	"slices"
	"strings"

	apperrors "github.com/louisbranch/lms/internal/platform/errors"
	"github.com/louisbranch/lms/internal/platform/requestctx"
	"github.com/louisbranch/lms/internal/services/lms/access"
	"github.com/louisbranch/lms/internal/services/lms/account"
	"github.com/louisbranch/lms/internal/services/lms/authn"
	"github.com/louisbranch/lms/internal/services/lms/model"
)

var (
	errNotAuthenticated = apperrors.New(apperrors.CodeUnauthenticated, "authentication is required")
	errRoleForbidden    = apperrors.New(apperrors.CodePermissionDenied, "your role cannot access this resource")
	errRouteNotFound    = apperrors.New(apperrors.CodeNotFound, "route not found")
)

// publicFunc handles a request that needs no caller.
type publicFunc func(w http.ResponseWriter, r *http.Request) error

// actionFunc handles a request on behalf of an authenticated caller.
type actionFunc func(w http.ResponseWriter, r *http.Request, actor access.Actor) error

func (h *Handler) public(mux *http.ServeMux, pattern string, fn publicFunc) {
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			h.fail(w, r, err)
		}
	})
}

func (h *Handler) private(mux *http.ServeMux, pattern string, roles []model.Role, fn actionFunc) {
	mux.Handle(pattern, h.guard(roles, fn))
}

// guard authenticates the caller, checks its role against roles and runs fn.
func (h *Handler) guard(roles []model.Role, fn actionFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := h.authenticate(r)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		if len(roles) > 0 && !slices.Contains(roles, user.Role) {
			h.fail(w, r, errRoleForbidden)
			return
		}
		ctx := requestctx.WithPrincipal(r.Context(), requestctx.Principal{UserID: user.ID, Role: string(user.Role)})
		r = r.WithContext(ctx)
		if err := fn(w, r, access.Actor{UserID: user.ID, Role: user.Role}); err != nil {
			h.fail(w, r, err)
		}
	})
}

// authenticate verifies the session token and reloads its user so role
// changes and deletions apply to tokens already issued.
func (h *Handler) authenticate(r *http.Request) (model.User, error) {
	value := bearerToken(r)
	if value == "" {
		return model.User{}, errNotAuthenticated
	}
	if h.svc.Tokens == nil {
		return model.User{}, errNotAuthenticated
	}
	claims, err := h.svc.Tokens.Verify(value)
	if err != nil {
		return model.User{}, err
	}
	user, err := h.svc.Accounts.Lookup(r.Context(), claims.UserID)
	if err != nil {
		if apperrors.HasCode(err, apperrors.CodeNotFound) {
			return model.User{}, errNotAuthenticated
		}
		return model.User{}, err
	}
	return user, nil
}

func bearerToken(r *http.Request) string {
	if header := strings.TrimSpace(r.Header.Get("Authorization")); header != "" {
		scheme, value, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(value)
		}
		return ""
	}
	if cookie, err := r.Cookie(authn.CookieName); err == nil {
		return strings.TrimSpace(cookie.Value)
	}
	return ""
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string  `json:"token"`
	ExpiresAt string  `json:"expiresAt"`
	User      userDTO `json:"user"`
}

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Locale   string `json:"locale"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) error {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	user, err := h.svc.Accounts.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	token, err := h.svc.Tokens.Issue(user)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     authn.CookieName,
		Value:    token.Value,
		Path:     "/",
		Expires:  token.ExpiresAt,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	respond(w, http.StatusOK, "Login successful", loginResponse{
		Token:     token.Value,
		ExpiresAt: formatTime(token.ExpiresAt),
		User:      toUser(user),
	})
	return nil
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) error {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	user, err := h.svc.Accounts.Register(r.Context(), account.RegisterInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
		Locale:   req.Locale,
	})
	if err != nil {
		return err
	}
	respond(w, http.StatusCreated, "User registered successfully", toUser(user))
	return nil
}
