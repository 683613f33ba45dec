package controllers

import (
	"net/http"

	"github.com/angelmondragon/catering-backend/api/responses"
	"github.com/angelmondragon/catering-backend/internal/menu"
)

// PublicMenu lists the selectable menu items for the quote form.
func PublicMenu() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=300")
		responses.WriteSuccess(w, map[string]any{"items": menu.Catalog()})
	}
}
