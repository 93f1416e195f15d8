package fakebackend

import (
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-blog-auth/gateway"
)

const resetTicketTTL = 3 * 24 * time.Hour

type emailBody struct {
	Email string `json:"email"`
}

// ResetPasswordHandler answers the same way whether or not the address is known.
func (s *Server) ResetPasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req emailBody
		if !decodeJSON(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.Email) == "" {
			writeFieldErrors(w, fieldErrors{"email": {msgRequired}})
			return
		}

		if account, err := s.users.GetByEmail(req.Email); err == nil {
			uid := base64.RawURLEncoding.EncodeToString([]byte(account.ID))
			ticket := resetTicket{
				email:   account.Identity.Email,
				token:   uuid.New().String(),
				expires: s.nowTime().Add(resetTicketTTL),
			}
			s.lock.Lock()
			s.resets[uid] = ticket
			s.lock.Unlock()
			s.sendMail(Mail{To: ticket.email, Kind: MailPasswordReset, UID: uid, Token: ticket.token})
		}

		writeDetail(w, http.StatusOK, "Password reset e-mail has been sent.")
	}
}

func (s *Server) ConfirmResetPasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req gateway.PasswordResetConfirm
		if !decodeJSON(w, r, &req) {
			return
		}

		s.lock.Lock()
		ticket, ok := s.resets[req.UID]
		s.lock.Unlock()
		if !ok {
			writeFieldErrors(w, fieldErrors{"uid": {msgInvalidValue}})
			return
		}
		if ticket.token != req.Token || s.nowTime().After(ticket.expires) {
			writeFieldErrors(w, fieldErrors{"token": {msgInvalidValue}})
			return
		}
		account, err := s.users.GetByEmail(ticket.email)
		if err != nil {
			writeFieldErrors(w, fieldErrors{"uid": {msgInvalidValue}})
			return
		}
		if !s.setPassword(w, account, req.NewPassword1, req.NewPassword2) {
			return
		}

		s.lock.Lock()
		delete(s.resets, req.UID)
		s.lock.Unlock()
		writeDetail(w, http.StatusOK, "Password has been reset with the new password.")
	}
}

func (s *Server) ConfirmEmailHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := r.PathValue("key")

		s.lock.Lock()
		email, ok := s.verifications[key]
		delete(s.verifications, key)
		s.lock.Unlock()
		if !ok {
			writeDetail(w, http.StatusNotFound, "Not found.")
			return
		}
		if err := s.users.SetVerified(email, true); err != nil {
			writeDetail(w, http.StatusNotFound, "Not found.")
			return
		}
		writeDetail(w, http.StatusOK, "ok")
	}
}

func (s *Server) ResendEmailHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req emailBody
		if !decodeJSON(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.Email) == "" {
			writeFieldErrors(w, fieldErrors{"email": {msgRequired}})
			return
		}
		if account, err := s.users.GetByEmail(req.Email); err == nil && !account.Verified {
			s.sendVerification(account.Identity.Email)
		}
		writeDetail(w, http.StatusOK, "ok")
	}
}

func (s *Server) sendVerification(email string) {
	key := strings.ReplaceAll(uuid.New().String(), "-", "")
	s.lock.Lock()
	s.verifications[key] = email
	s.lock.Unlock()
	s.sendMail(Mail{To: email, Kind: MailVerification, Key: key})
}
