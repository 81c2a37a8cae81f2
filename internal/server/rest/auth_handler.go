package rest

import (
	"net/http"

	"github.com/dmitrijs2005/todoapi/internal/server/models"
)

type registerRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,password"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type refreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type authResponse struct {
	User   *models.User       `json:"user"`
	Tokens *models.AuthTokens `json:"tokens"`
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := s.decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	user, err := s.users.CreateUser(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	tokens, err := s.tokens.GenerateAuthTokens(r.Context(), user)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.Info(r.Context(), "Registered", "user_id", user.ID)
	writeJSON(w, http.StatusCreated, authResponse{User: user, Tokens: tokens}, "User has been created successfully!")
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := s.decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	user, err := s.auth.LoginUserWithEmailAndPassword(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	tokens, err := s.tokens.GenerateAuthTokens(r.Context(), user)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, authResponse{User: user, Tokens: tokens}, "User logged in successfully!")
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	var req refreshTokenRequest
	if err := s.decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.auth.Logout(r.Context(), req.RefreshToken); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil, "User logged out successfully!")
}

func (s *Server) refreshTokens(w http.ResponseWriter, r *http.Request) {
	var req refreshTokenRequest
	if err := s.decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	tokens, err := s.auth.RefreshAuth(r.Context(), req.RefreshToken)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokens, "")
}
