package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/Acterion/forum-helper/internal/db"
	"github.com/Acterion/forum-helper/internal/models"
)

// GET /qr/{code}.png — the completion code as a QR image, so lab-run
// participants finishing on a shared machine can carry their code away
// on a phone.
func QR(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if code == "" {
		http.NotFound(w, r)
		return
	}
	// only render codes we actually issued
	var sub models.Submission
	if err := db.Conn().Where("completion_code = ?", code).First(&sub).Error; err != nil {
		http.NotFound(w, r)
		return
	}

	png, err := qrcode.Encode(code, qrcode.Medium, 256)
	if err != nil {
		http.Error(w, "failed to generate qr", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

// GET /healthz
func Health(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
