package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/isdelr/taskdeck-be/internal/api/respond"
	"github.com/isdelr/taskdeck-be/internal/auth"
	"github.com/isdelr/taskdeck-be/internal/services"
	"github.com/rs/zerolog/log"
)

var usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// AuthHandler handles signup and login.
type AuthHandler struct {
	users    services.UserServiceProvider
	tokens   *auth.TokenService
	validate *validator.Validate
	debug    bool
}

// NewAuthHandler creates a new AuthHandler. debug controls whether internal
// error detail leaks into 500 responses.
func NewAuthHandler(users services.UserServiceProvider, tokens *auth.TokenService, debug bool) *AuthHandler {
	v := validator.New()
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernameRe.MatchString(fl.Field().String())
	})
	return &AuthHandler{users: users, tokens: tokens, validate: v, debug: debug}
}

// SignupPayload defines the structure for registration requests.
type SignupPayload struct {
	Username string `json:"username" validate:"required,min=3,max=30,username"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginPayload defines the structure for login requests.
type LoginPayload struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Signup handles new user registration and issues a token on success.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var payload SignupPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respond.Fail(w, http.StatusBadRequest, "Invalid request body", "")
		return
	}

	if errs := h.fieldErrors(payload); len(errs) > 0 {
		respond.Invalid(w, errs)
		return
	}

	user, err := h.users.CreateUser(r.Context(), payload.Username, payload.Email, payload.Password)
	if err != nil {
		if errors.Is(err, services.ErrDuplicateIdentity) {
			respond.Fail(w, http.StatusConflict, "Username or email already in use", "")
			return
		}
		log.Error().Err(err).Str("email", payload.Email).Msg("Failed to register user")
		h.serverError(w, err)
		return
	}

	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to issue token")
		h.serverError(w, err)
		return
	}

	respond.OK(w, http.StatusCreated, "User registered", map[string]interface{}{
		"user":  user,
		"token": token,
	})
}

// Login handles user authentication and token issuance. Unknown email and
// wrong password produce the same generic 401.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload LoginPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respond.Fail(w, http.StatusBadRequest, "Invalid request body", "")
		return
	}

	if errs := h.fieldErrors(payload); len(errs) > 0 {
		respond.Invalid(w, errs)
		return
	}

	user, err := h.users.Authenticate(r.Context(), payload.Email, payload.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			log.Warn().Str("email", payload.Email).Msg("Failed authentication attempt")
			respond.Fail(w, http.StatusUnauthorized, "Authentication required", "")
			return
		}
		log.Error().Err(err).Str("email", payload.Email).Msg("Authentication lookup failed")
		h.serverError(w, err)
		return
	}

	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to issue token")
		h.serverError(w, err)
		return
	}

	respond.OK(w, http.StatusOK, "Logged in", map[string]interface{}{
		"user":  user,
		"token": token,
	})
}

func (h *AuthHandler) serverError(w http.ResponseWriter, err error) {
	detail := ""
	if h.debug {
		detail = err.Error()
	}
	respond.Fail(w, http.StatusInternalServerError, "Something went wrong", detail)
}

// fieldErrors maps validator failures to per-field messages.
func (h *AuthHandler) fieldErrors(payload interface{}) []respond.FieldError {
	err := h.validate.Struct(payload)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []respond.FieldError{{Field: "", Message: "invalid input"}}
	}

	out := make([]respond.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, respond.FieldError{Field: jsonFieldName(fe), Message: fieldMessage(fe)})
	}
	return out
}

func jsonFieldName(fe validator.FieldError) string {
	switch fe.Field() {
	case "Username":
		return "username"
	case "Email":
		return "email"
	case "Password":
		return "password"
	}
	return fe.Field()
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "username":
		return "may only contain letters, digits and underscores"
	}
	return "is invalid"
}
