package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/zondarr/zondarr-api/api"
	"github.com/zondarr/zondarr-api/api/scheduler"
	"github.com/zondarr/zondarr-api/config"
	"github.com/zondarr/zondarr-api/databases"
	"github.com/zondarr/zondarr-api/media"
	"github.com/zondarr/zondarr-api/models"
	"github.com/zondarr/zondarr-api/services"
)

// App stores the router, db connection, media client registry and background
// scheduler, so it can be reused
type App struct {
	Router    *mux.Router
	Config    config.Config
	Registry  *media.Registry
	Scheduler *scheduler.Scheduler
	dbHelper  databases.DatabaseHelper
	dbClient  databases.ClientHelper
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	// setup go-guardian for middleware
	m := api.MiddlewareDB{DB: databases.NewAdminDatabase(a.dbHelper)}
	m.SetupGoGuardian()

	r := mux.NewRouter()
	r.Use(api.TimeoutMiddleware(60 * time.Second))

	iDB := databases.NewInvitationDatabase(a.dbHelper)
	msDB := databases.NewMediaServerDatabase(a.dbHelper)
	lDB := databases.NewLibraryDatabase(a.dbHelper)
	idDB := databases.NewIdentityDatabase(a.dbHelper)
	eaDB := databases.NewExternalAccountDatabase(a.dbHelper)
	srDB := databases.NewSyncRunDatabase(a.dbHelper)

	invitationService := services.NewInvitationService(iDB)
	reconciler := services.NewReconciliationService(a.Registry, msDB, eaDB)
	redemption := &services.RedemptionService{
		Registry:    a.Registry,
		Invitations: invitationService,
		IDB:         iDB,
		IdentityDB:  idDB,
		AccountDB:   eaDB,
		ServerDB:    msDB,
		LibraryDB:   lDB,
		Notifier:    services.NewNotifier(),
	}

	inv := Invitation{DB: iDB, Service: invitationService, Redemption: redemption, Config: a.Config}
	srv := MediaServer{DB: msDB, LDB: lDB, SRDB: srDB, Registry: a.Registry, Reconciler: reconciler}
	idn := Identity{DB: idDB, ADB: eaDB, MSDB: msDB, Registry: a.Registry}

	// healthchex
	r.HandleFunc("/health", healthCheckHandler)

	apiCreate := r.PathPrefix("/api/v1").Subrouter()

	apiCreate.Handle("/auth/token", http.HandlerFunc(m.CreateToken)).Methods("POST")
	apiCreate.Handle("/auth/logout", api.Middleware(http.HandlerFunc(api.RevokeToken))).Methods("DELETE")

	// public invitation flow
	apiCreate.Handle("/invitation/{code}", http.HandlerFunc(inv.ValidateInvitationHandler)).Methods("GET")
	apiCreate.Handle("/invitation/{code}/redeem", http.HandlerFunc(inv.RedeemInvitationHandler)).Methods("POST")

	// admin invitation management
	apiCreate.Handle("/invitation", api.Middleware(http.HandlerFunc(inv.CreateInvitationHandler))).Methods("POST")
	apiCreate.Handle("/invitations", api.Middleware(http.HandlerFunc(inv.ListInvitationsHandler))).Methods("GET")
	apiCreate.Handle("/invitation/{invitation_id}", api.Middleware(http.HandlerFunc(inv.DeleteInvitationHandler))).Methods("DELETE")

	// admin server management
	apiCreate.Handle("/server", api.Middleware(http.HandlerFunc(srv.CreateServerHandler))).Methods("POST")
	apiCreate.Handle("/servers", api.Middleware(http.HandlerFunc(srv.ListServersHandler))).Methods("GET")
	apiCreate.Handle("/server/{server_id}", api.Middleware(http.HandlerFunc(srv.DeleteServerHandler))).Methods("DELETE")
	apiCreate.Handle("/server/{server_id}/libraries", api.Middleware(http.HandlerFunc(srv.ServerLibrariesHandler))).Methods("GET")
	apiCreate.Handle("/server/{server_id}/sync-libraries", api.Middleware(http.HandlerFunc(srv.SyncLibrariesHandler))).Methods("POST")
	apiCreate.Handle("/server/{server_id}/reconcile", api.Middleware(http.HandlerFunc(srv.ReconcileHandler))).Methods("POST")
	apiCreate.Handle("/server/{server_id}/sync-runs", api.Middleware(http.HandlerFunc(srv.SyncRunsHandler))).Methods("GET")

	// admin identity/account management
	apiCreate.Handle("/identities", api.Middleware(http.HandlerFunc(idn.ListIdentitiesHandler))).Methods("GET")
	apiCreate.Handle("/account/{account_id}/enabled", api.Middleware(http.HandlerFunc(idn.SetAccountEnabledHandler))).Methods("PUT")
	apiCreate.Handle("/account/{account_id}", api.Middleware(http.HandlerFunc(idn.DeleteAccountHandler))).Methods("DELETE")

	return r
}

// Initialize connects the database, builds the media client registry and
// wires the router and background scheduler
func (a *App) Initialize() error {

	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return err
	}
	a.dbClient = client

	a.dbHelper = databases.NewDatabase(&a.Config, client)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err = client.Connect(ctx)
	if err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	zap.S().Info("zondarr-api has connected to the database")

	a.Registry = media.NewDefaultRegistry()

	a.Router = a.New()

	iDB := databases.NewInvitationDatabase(a.dbHelper)
	msDB := databases.NewMediaServerDatabase(a.dbHelper)
	eaDB := databases.NewExternalAccountDatabase(a.dbHelper)
	srDB := databases.NewSyncRunDatabase(a.dbHelper)
	reconciler := services.NewReconciliationService(a.Registry, msDB, eaDB)
	a.Scheduler = scheduler.NewScheduler(&a.Config, reconciler, iDB, msDB, srDB)

	return nil
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}
