package fakebackend

import (
	"net/http"
	"strings"

	"github.com/jrsteele09/go-blog-auth/gateway"
	"github.com/jrsteele09/go-blog-auth/internal/utils"
	"github.com/jrsteele09/go-blog-auth/users"
)

func (s *Server) GetUserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account := accountFromContext(r.Context())
		writeJSON(w, http.StatusOK, account.Identity)
	}
}

// UpdateUserHandler serves PATCH, and PUT when full is set; PUT requires every identity field.
func (s *Server) UpdateUserHandler(full bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account := accountFromContext(r.Context())

		var update users.ProfileUpdate
		if !decodeJSON(w, r, &update) {
			return
		}

		if full {
			errs := fieldErrors{}
			for field, value := range map[string]*string{
				"email":        update.Email,
				"first_name":   update.FirstName,
				"last_name":    update.LastName,
				"phone_number": update.PhoneNumber,
			} {
				if value == nil {
					errs.add(field, msgRequired)
				}
			}
			if len(errs) > 0 {
				writeFieldErrors(w, errs)
				return
			}
		}

		if update.Email != nil {
			email := strings.TrimSpace(*update.Email)
			if email == "" {
				writeFieldErrors(w, fieldErrors{"email": {"This field may not be blank."}})
				return
			}
			if other, err := s.users.GetByEmail(email); err == nil && other.ID != account.ID {
				writeFieldErrors(w, fieldErrors{"email": {"user with this email address already exists."}})
				return
			}
			account.Identity.Email = email
		}
		account.Identity.FirstName = utils.ValueOr(update.FirstName, account.Identity.FirstName)
		account.Identity.LastName = utils.ValueOr(update.LastName, account.Identity.LastName)
		account.Identity.PhoneNumber = utils.ValueOr(update.PhoneNumber, account.Identity.PhoneNumber)
		if update.Profile != nil {
			account.Identity.Profile = s.applyProfile(account.Identity.Profile, update.Profile)
		}

		if err := s.users.Upsert(account); err != nil {
			writeDetail(w, http.StatusInternalServerError, "A server error occurred.")
			return
		}
		writeJSON(w, http.StatusOK, account.Identity)
	}
}

// applyProfile returns a copy of current with the non-nil fields of update applied.
func (s *Server) applyProfile(current *users.Profile, update *users.ProfileFields) *users.Profile {
	var p users.Profile
	if current != nil {
		p = *current
	}
	p.Bio = utils.ValueOr(update.Bio, p.Bio)
	if update.DateOfBirth != nil {
		p.DateOfBirth = utils.PtrOrNil(*update.DateOfBirth)
	}
	if update.Location != nil {
		p.Location = utils.PtrOrNil(*update.Location)
	}
	if update.Signature != nil {
		p.Signature = utils.PtrOrNil(*update.Signature)
	}
	if update.Website != nil {
		p.Website = utils.PtrOrNil(*update.Website)
	}
	if update.LinkedIn != nil {
		p.LinkedIn = utils.PtrOrNil(*update.LinkedIn)
	}
	if update.Twitter != nil {
		p.Twitter = utils.PtrOrNil(*update.Twitter)
	}
	updated := s.nowTime().UTC()
	p.UpdatedAt = &updated
	return &p
}

func (s *Server) DeleteUserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account := accountFromContext(r.Context())
		if err := s.users.Delete(account.Identity.Email); err != nil {
			writeDetail(w, http.StatusNotFound, "Not found.")
			return
		}
		s.tokens.revoke(claimsFromContext(r.Context()))
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) ChangePasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account := accountFromContext(r.Context())

		var req gateway.PasswordChange
		if !decodeJSON(w, r, &req) {
			return
		}
		if !s.setPassword(w, account, req.NewPassword1, req.NewPassword2) {
			return
		}
		writeDetail(w, http.StatusOK, "New password has been saved.")
	}
}

// setPassword validates and stores a new password, writing the validation error when it fails.
func (s *Server) setPassword(w http.ResponseWriter, account *users.Account, password1, password2 string) bool {
	errs := fieldErrors{}
	if password1 == "" {
		errs.add("new_password1", msgRequired)
	}
	if password2 == "" {
		errs.add("new_password2", msgRequired)
	}
	if len(errs) > 0 {
		writeFieldErrors(w, errs)
		return false
	}
	if password1 != password2 {
		writeFieldErrors(w, fieldErrors{"new_password2": {msgPasswordMatch}})
		return false
	}
	if err := users.ValidatePasswordStrength(password2, account.Identity.Email); err != nil {
		writeFieldErrors(w, fieldErrors{"new_password2": {err.Error()}})
		return false
	}

	hash, err := users.HashPassword(password1)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "A server error occurred.")
		return false
	}
	account.PasswordHash = hash
	if err := s.users.Upsert(account); err != nil {
		writeDetail(w, http.StatusInternalServerError, "A server error occurred.")
		return false
	}
	return true
}
