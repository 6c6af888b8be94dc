package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/Tomlord1122/goal-tracker/internal/auth"
	"github.com/Tomlord1122/goal-tracker/internal/database"
	"github.com/Tomlord1122/goal-tracker/internal/service"
)

type Server struct {
	port        int
	goalService service.GoalService
	verifier    *auth.Verifier
	// db is nil when goals are kept in memory.
	db      database.Service
	backend string
}

// NewServer wires the HTTP handlers. backend names the active goal store and
// is reported by the health endpoint.
func NewServer(port int, goalService service.GoalService, verifier *auth.Verifier, dbService database.Service, backend string) *http.Server {
	appServer := &Server{
		port:        port,
		goalService: goalService,
		verifier:    verifier,
		db:          dbService,
		backend:     backend,
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", appServer.port),
		Handler:      appServer.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return server
}
