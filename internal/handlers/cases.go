package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Acterion/forum-helper/internal/db"
	"github.com/Acterion/forum-helper/internal/models"
)

type caseView struct {
	ID      string        `json:"id"`
	Title   string        `json:"title"`
	Main    models.Post   `json:"mainPost"`
	Replies []models.Post `json:"replies"`
}

// caseViewOf decodes a case's stored JSON content; on a decode failure
// it writes the error and returns nil.
func caseViewOf(c models.Case, w http.ResponseWriter) any {
	main, err := c.Post()
	if err != nil {
		writeError(w, err)
		return nil
	}
	replies, err := c.ReplyPosts()
	if err != nil {
		writeError(w, err)
		return nil
	}
	return caseView{ID: c.ID, Title: c.Title, Main: main, Replies: replies}
}

// GET /api/cases/{id}
func GetCase(w http.ResponseWriter, r *http.Request) {
	var c models.Case
	if err := db.Conn().First(&c, "id = ?", chi.URLParam(r, "id")).Error; err != nil {
		writeError(w, err)
		return
	}
	if v := caseViewOf(c, w); v != nil {
		writeJSON(w, http.StatusOK, v)
	}
}
