package fakebackend

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-blog-auth/gateway"
	"github.com/jrsteele09/go-blog-auth/users"
)

type loginResponse struct {
	Access  string          `json:"access"`
	Refresh string          `json:"refresh"`
	User    *users.Identity `json:"user"`
}

func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req gateway.LoginCredentials
		if !decodeJSON(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.Email) == "" || req.Password == "" {
			writeDetail(w, http.StatusBadRequest, "Email and password are required.")
			return
		}

		account, err := s.users.GetByEmail(req.Email)
		if err != nil || !users.CheckPasswordHash(req.Password, account.PasswordHash) {
			writeDetail(w, http.StatusBadRequest, "Invalid credentials.")
			return
		}
		if s.verifyReq && !account.Verified {
			writeFieldErrors(w, fieldErrors{"non_field_errors": {"E-mail is not verified."}})
			return
		}

		s.writeTokens(w, http.StatusOK, account)
	}
}

func (s *Server) RegistrationHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req gateway.RegistrationData
		if !decodeJSON(w, r, &req) {
			return
		}

		errs := fieldErrors{}
		required := map[string]string{
			"email":        req.Email,
			"first_name":   req.FirstName,
			"last_name":    req.LastName,
			"phone_number": req.PhoneNumber,
			"password1":    req.Password1,
			"password2":    req.Password2,
		}
		for field, value := range required {
			if strings.TrimSpace(value) == "" {
				errs.add(field, msgRequired)
			}
		}
		if len(errs) > 0 {
			writeFieldErrors(w, errs)
			return
		}

		if _, err := s.users.GetByEmail(req.Email); err == nil {
			writeFieldErrors(w, fieldErrors{"email": {"A user is already registered with this e-mail address."}})
			return
		}
		if req.Password1 != req.Password2 {
			writeFieldErrors(w, fieldErrors{"non_field_errors": {msgPasswordMatch}})
			return
		}
		if err := users.ValidatePasswordStrength(req.Password1, req.Email); err != nil {
			writeFieldErrors(w, fieldErrors{"password1": {err.Error()}})
			return
		}

		hash, err := users.HashPassword(req.Password1)
		if err != nil {
			writeDetail(w, http.StatusInternalServerError, "A server error occurred.")
			return
		}
		joined := s.nowTime().UTC()
		account := &users.Account{
			PasswordHash: hash,
			Identity: users.Identity{
				Email:       strings.TrimSpace(req.Email),
				FirstName:   req.FirstName,
				LastName:    req.LastName,
				PhoneNumber: req.PhoneNumber,
				Role:        users.RoleCustomer,
				Profile:     &users.Profile{},
				DateJoined:  &joined,
			},
		}
		if err := s.users.Upsert(account); err != nil {
			writeDetail(w, http.StatusInternalServerError, "A server error occurred.")
			return
		}
		s.sendVerification(account.Identity.Email)

		if s.verifyReq {
			writeDetail(w, http.StatusCreated, "Verification e-mail sent.")
			return
		}
		writeDetail(w, http.StatusCreated, "User successfully registered.")
	}
}

// LogoutHandler blacklists the presented access and refresh tokens. Both are optional.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if raw, ok := bearerToken(r); ok {
			claims, err := s.tokens.parse(raw, tokenTypeAccess)
			if err != nil {
				writeDetail(w, http.StatusUnauthorized, err.Error())
				return
			}
			s.tokens.revoke(claims)
		}

		var req struct {
			Refresh string `json:"refresh"`
		}
		if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
			return
		}
		if req.Refresh != "" {
			claims, err := s.tokens.parse(req.Refresh, tokenTypeRefresh)
			if err != nil {
				writeDetail(w, http.StatusUnauthorized, "Token is invalid or expired")
				return
			}
			s.tokens.revoke(claims)
		}

		writeDetail(w, http.StatusOK, "Successfully logged out.")
	}
}

// SocialLoginHandler accepts {"access_token"} for Google and {"code"} for GitHub.
// Unknown credentials are rejected; known ones sign in or create a verified account.
func (s *Server) SocialLoginHandler(provider Provider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			AccessToken string `json:"access_token"`
			Code        string `json:"code"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		credential := req.AccessToken
		if provider == ProviderGithub {
			credential = req.Code
		}
		if credential == "" {
			writeFieldErrors(w, fieldErrors{"non_field_errors": {"Incorrect input. access_token or code is required."}})
			return
		}

		s.lock.Lock()
		identity, ok := s.social[socialKey{provider: provider, credential: credential}]
		s.lock.Unlock()
		if !ok {
			writeFieldErrors(w, fieldErrors{"non_field_errors": {"Incorrect value"}})
			return
		}

		account, err := s.users.GetByEmail(identity.Email)
		if err != nil {
			if identity.Role == "" {
				identity.Role = users.RoleCustomer
			}
			if identity.Profile == nil {
				identity.Profile = &users.Profile{}
			}
			account = &users.Account{
				// Social accounts have no usable password
				PasswordHash: "!" + uuid.New().String(),
				Verified:     true,
				Identity:     identity,
			}
			if err := s.users.Upsert(account); err != nil {
				writeDetail(w, http.StatusInternalServerError, "A server error occurred.")
				return
			}
		}

		s.writeTokens(w, http.StatusOK, account)
	}
}

func (s *Server) writeTokens(w http.ResponseWriter, status int, account *users.Account) {
	pair, err := s.tokens.issue(account)
	if err != nil {
		s.log.Error().Err(err).Msg("issue tokens")
		writeDetail(w, http.StatusInternalServerError, "A server error occurred.")
		return
	}
	identity := account.Identity
	writeJSON(w, status, loginResponse{Access: pair.Access, Refresh: pair.Refresh, User: &identity})
}
