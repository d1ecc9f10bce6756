package api

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"net/http"
)

func generateRandomString(length int) string {
	// base64 encoding increases size by ~4/3, so we need fewer input bytes
	byteLength := (length * 3) / 4
	if byteLength < length {
		byteLength = length
	}

	b := make([]byte, byteLength)
	rand.Read(b)
	encoded := base64.URLEncoding.EncodeToString(b)
	if len(encoded) > length {
		return encoded[:length]
	}
	return encoded
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
