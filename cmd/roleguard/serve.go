package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/jihwankim/roleguard/pkg/identity"
	"github.com/jihwankim/roleguard/pkg/metrics"
	"github.com/jihwankim/roleguard/pkg/reporting"
	"github.com/jihwankim/roleguard/pkg/rolespec"
	"github.com/jihwankim/roleguard/pkg/shutdown"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Args:  cobra.NoArgs,
	Short: "Run roleguard as an HTTP service",
	Long: `Serves a JSON role-check API on server.addr and Prometheus metrics on
metrics.addr, both read from configuration. Exits cleanly on SIGINT/SIGTERM
or on an operator-dropped stop file.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("stop-file", "", "path to watch for a drop-file shutdown request (default /tmp/roleguard-stop)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := newLogger(cfg)
	logger.Info("roleguard starting", "version", version)

	rt, err := buildRuntime(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize plugin runtime: %w", err)
	}
	defer rt.Close()

	reg := metrics.New()

	mux := http.NewServeMux()
	mux.Handle("/v1/check", checkHandler(rt, reg, logger))
	mux.Handle("/healthz", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", reg.Handler())

	apiServer := &http.Server{Addr: cfg.Server.Addr, Handler: mux}
	metricsServer := &http.Server{Addr: cfg.Metrics.Addr, Handler: metricsMux}

	stopFile, _ := cmd.Flags().GetString("stop-file")
	stopCtrl := shutdown.New(shutdown.Config{StopFile: stopFile})
	stopCtrl.OnStop(func(reason string) {
		logger.Warn("shutting down", "reason", reason)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		apiServer.Shutdown(ctx)
		metricsServer.Shutdown(ctx)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stopCtrl.Start(ctx)

	errc := make(chan error, 2)
	go func() {
		logger.Info("metrics server listening", "addr", cfg.Metrics.Addr)
		if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
			errc <- err
		}
	}()
	go func() {
		logger.Info("api server listening", "addr", cfg.Server.Addr)
		if err := apiServer.ListenAndServe(); err != http.ErrServerClosed {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		return err
	case <-stopCtrl.Done():
		return nil
	}
}

type checkRequest struct {
	Role  rolespec.RoleDoc `json:"role"`
	Users []identity.User  `json:"users"`
}

type checkResponse struct {
	RoleID   string        `json:"role_id"`
	Verdicts []userVerdict `json:"verdicts"`
	Error    string        `json:"error,omitempty"`
	Duration string        `json:"duration"`
}

type userVerdict struct {
	UserID uint64 `json:"user_id"`
	Access bool   `json:"access"`
}

func checkHandler(rt *runtime, reg *metrics.Registry, logger *reporting.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req checkRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
			return
		}

		role, err := rolespec.ToRole(&req.Role)
		if err != nil {
			http.Error(w, fmt.Sprintf("invalid role: %v", err), http.StatusBadRequest)
			return
		}

		roleLogger := logger.WithRole(role.ID)

		start := time.Now()
		verdicts, _, err := rt.evaluator.CheckBatchDetailed(*role, http.DefaultClient, req.Users)
		duration := time.Since(start)

		outcome := "allow"
		if err != nil {
			outcome = "error"
		}
		reg.EvaluationsTotal.WithLabelValues(role.ID, outcome).Inc()
		reg.EvaluationDuration.WithLabelValues(role.ID).Observe(duration.Seconds())
		reg.UsersEvaluated.Add(float64(len(req.Users)))

		resp := checkResponse{RoleID: role.ID, Duration: duration.String()}
		if err != nil {
			resp.Error = err.Error()
			roleLogger.Error("role check failed", "error", err)
			w.WriteHeader(http.StatusInternalServerError)
		} else {
			resp.Verdicts = make([]userVerdict, len(verdicts))
			for i, v := range verdicts {
				resp.Verdicts[i] = userVerdict{UserID: req.Users[i].ID, Access: v}
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	})
}
