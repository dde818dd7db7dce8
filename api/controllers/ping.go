package controllers

import (
	"net/http"

	"github.com/salonflow/backend/api/responses"
)

func AdminPing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{"scope": "admin"})
	}
}
