package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/ajayraj/pawnledger/pkg/config"
	"github.com/ajayraj/pawnledger/pkg/events"
	"github.com/ajayraj/pawnledger/pkg/ledger"
	"github.com/ajayraj/pawnledger/pkg/models"
	"github.com/ajayraj/pawnledger/pkg/store"
)

// Server holds the ledger instance.
type Server struct {
	ledger  *ledger.Ledger
	storage store.Storage // Keep a reference to the storage to close it
	logger  *logrus.Logger
}

func NewServer(s store.Storage, pub events.Publisher, logger *logrus.Logger) *Server {
	return &Server{
		ledger:  ledger.NewLedger(s, pub, logger),
		storage: s,
		logger:  logger,
	}
}

// Routes registers all handlers on the given router.
func (s *Server) Routes(router *mux.Router) {
	router.HandleFunc("/customers/{customerId}/loans", s.originateLoanHandler).Methods("POST")
	router.HandleFunc("/loans", s.listLoansHandler).Methods("GET")
	router.HandleFunc("/loans/{id}", s.getLoanHandler).Methods("GET")
	router.HandleFunc("/loans/{id}", s.deleteLoanHandler).Methods("DELETE")
	router.HandleFunc("/loans/{id}/snapshot", s.getSnapshotHandler).Methods("GET")
	router.HandleFunc("/loans/{id}/payments", s.recordPaymentHandler).Methods("POST")
	router.HandleFunc("/loans/{id}/transactions", s.listTransactionsHandler).Methods("GET")
}

// statusForError maps the ledger's failure taxonomy onto HTTP statuses.
// Conflict is the one status callers are expected to retry.
func statusForError(err error) int {
	switch {
	case errors.Is(err, ledger.ErrLoanNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ledger.ErrLoanClosed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ledger.ErrInvalidLoanTerms),
		errors.Is(err, ledger.ErrInvalidPayment),
		errors.Is(err, ledger.ErrInvalidAmount):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		s.logger.WithError(err).Error("request failed")
	}
	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) originateLoanHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var terms models.LoanTerms
	if err := json.NewDecoder(r.Body).Decode(&terms); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	terms.CustomerID = vars["customerId"]

	loan, err := s.ledger.OriginateLoan(terms)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, loan)
}

func (s *Server) getLoanHandler(w http.ResponseWriter, r *http.Request) {
	loanID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid loan ID", http.StatusBadRequest)
		return
	}

	loan, err := s.ledger.GetLoan(loanID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, loan)
}

func (s *Server) getSnapshotHandler(w http.ResponseWriter, r *http.Request) {
	loanID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid loan ID", http.StatusBadRequest)
		return
	}

	snapshot, err := s.ledger.GetSnapshot(loanID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snapshot)
}

func (s *Server) listLoansHandler(w http.ResponseWriter, r *http.Request) {
	loans, err := s.ledger.GetAllLoans()
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, loans)
}

func (s *Server) recordPaymentHandler(w http.ResponseWriter, r *http.Request) {
	loanID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid loan ID", http.StatusBadRequest)
		return
	}

	var payment models.Payment
	if err := json.NewDecoder(r.Body).Decode(&payment); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	snapshot, err := s.ledger.RecordPayment(loanID, payment)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, snapshot)
}

func (s *Server) listTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	loanID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid loan ID", http.StatusBadRequest)
		return
	}

	transactions, err := s.ledger.GetTransactionsForLoan(loanID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, transactions)
}

// deleteLoanHandler removes a loan record entirely. This is a repository
// operation, not a ledger one; closed loans normally stay on file.
func (s *Server) deleteLoanHandler(w http.ResponseWriter, r *http.Request) {
	loanID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid loan ID", http.StatusBadRequest)
		return
	}

	if err := s.storage.DeleteLoan(loanID); err != nil {
		s.writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func main() {
	cfg := config.Load()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	sqliteStore, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		logger.Fatalf("Failed to initialize SQLite store: %v", err)
	}
	defer sqliteStore.Close()

	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
		logger.WithField("topic", cfg.KafkaTopic).Info("kafka event publishing enabled")
	}

	server := NewServer(sqliteStore, publisher, logger)
	router := mux.NewRouter()
	server.Routes(router)

	// Scheduled overdue review, replacing manual follow-up on return dates.
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.OverdueCron, func() {
		if _, err := server.ledger.ReviewOverdue(time.Now()); err != nil {
			logger.WithError(err).Error("overdue review failed")
		}
	}); err != nil {
		logger.Fatalf("Invalid overdue review schedule %q: %v", cfg.OverdueCron, err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: router,
	}

	go func() {
		logger.WithField("addr", cfg.ListenAddr).Info("server starting")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("shutdown failed")
	}
	logger.Info("server stopped")
}
