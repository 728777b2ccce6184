package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/petermazzocco/cloud-vault/internal/httpx"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (a *API) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteMessage(w, http.StatusBadRequest, "Invalid request")
		return
	}

	user, err := a.auth.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		a.logFailure(r, "registration failed", err)
		httpx.WriteError(w, err, "Registration failed")
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, user)
}

func (a *API) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteMessage(w, http.StatusBadRequest, "Invalid request")
		return
	}

	user, err := a.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		a.logFailure(r, "login failed", err)
		httpx.WriteError(w, err, "Login failed")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, user)
}
