// Package respond writes the service's JSON response envelope.
package respond

import (
	"encoding/json"
	"net/http"
)

type response struct {
	Status string `json:"status"`
	Data   any    `json:"data,omitempty"`
	Error  string `json:"error,omitempty"`
}

func write(w http.ResponseWriter, code int, resp response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}

// OK writes a 200 success envelope around data.
func OK(w http.ResponseWriter, data any) {
	write(w, http.StatusOK, response{Status: "success", Data: data})
}

// Created writes a 201 success envelope around data.
func Created(w http.ResponseWriter, data any) {
	write(w, http.StatusCreated, response{Status: "success", Data: data})
}

// Fail writes an error envelope with the given status code.
func Fail(w http.ResponseWriter, code int, err error) {
	write(w, code, response{Status: "error", Error: err.Error()})
}
