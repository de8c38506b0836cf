package response

import (
	"encoding/json"
	"net/http"
)

type APIResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Code    string      `json:"code,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func JSON(w http.ResponseWriter, status int, data interface{}) {
	write(w, status, APIResponse{Status: "success", Data: data})
}

func Error(w http.ResponseWriter, status int, msg string) {
	write(w, status, APIResponse{Status: "error", Message: msg})
}

// ErrorWithCode adds a machine-readable code so clients can branch without parsing msg.
func ErrorWithCode(w http.ResponseWriter, status int, code, msg string) {
	write(w, status, APIResponse{Status: "error", Code: code, Message: msg})
}

func write(w http.ResponseWriter, status int, resp APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
