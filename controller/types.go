package controller

import "time"

type healthResponse struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
}

type errorResponse struct {
	Error string `json:"error"`
}

var startedAt = time.Now()
