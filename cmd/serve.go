package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	helpers "github.com/Lineblocs/go-helpers"
	"github.com/sirupsen/logrus"
	"teknologiumum.com/pesto/handlers/api"
	"teknologiumum.com/pesto/internal/approval"
	"teknologiumum.com/pesto/internal/gate"
	"teknologiumum.com/pesto/internal/metrics"
	"teknologiumum.com/pesto/internal/quota"
	"teknologiumum.com/pesto/internal/registry"
	"teknologiumum.com/pesto/internal/trial"
	"teknologiumum.com/pesto/internal/waitinglist"
	"teknologiumum.com/pesto/models"
	"teknologiumum.com/pesto/repository"
	"teknologiumum.com/pesto/utils"
)

const shutdownTimeout = 30 * time.Second

// Serve runs the HTTP gateway until SIGINT or SIGTERM.
func Serve() error {
	settings := utils.LoadSettings()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := utils.CreateRecordStore(ctx, settings)
	if err != nil {
		return err
	}
	defer closeStore()

	db, err := utils.GetDBConnection(settings)
	if err != nil {
		return err
	}
	audit := repository.NewAuditRepository(db)

	notifier, closeNotifier, err := CreateNotifier(settings, models.TaskKindTokenIssued)
	if err != nil {
		return err
	}
	defer closeNotifier()

	recorder := metrics.NewPrometheusRecorder()
	waitingList := waitinglist.NewWaitingListService(store)
	workflow := approval.NewWorkflow(waitingList, approval.NewApprovalService(store), notifier, audit, settings.NotifyTimeout)
	gateSvc := gate.NewGateService(
		registry.NewRegistryService(store),
		quota.NewLedgerService(store, settings.TrialDomain),
		recorder,
		settings.RequestTimeout,
	)
	trialSvc := trial.NewTrialService(store, audit, settings.TrialDomain)

	h := api.NewHandler(gateSvc, waitingList, workflow, trialSvc, store, settings.RequestTimeout)
	srv := &http.Server{
		Addr:              ":" + settings.Port,
		Handler:           api.NewRouter(h, recorder.Handler()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		helpers.Log(logrus.InfoLevel, "listening on "+srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	helpers.Log(logrus.InfoLevel, "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		helpers.Log(logrus.ErrorLevel, "could not shut down server: "+err.Error())
	}
	if err := workflow.Drain(shutdownCtx); err != nil {
		helpers.Log(logrus.ErrorLevel, "notifications still in flight at exit: "+err.Error())
	}
	return nil
}
