package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/fieldscout/internal/config"
	"github.com/okian/fieldscout/pkg/logger"
	"github.com/okian/fieldscout/pkg/metrics"
)

func init() {
	_ = logger.Init()
	_ = logger.SetLevelString("error")
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	_ = os.Setenv("FIELDSCOUT_ADDR", ":0")
	_ = os.Setenv("FIELDSCOUT_JWT_SECRET", "main-test-secret")
	_ = os.Setenv("FIELDSCOUT_BOLT_PATH", filepath.Join(t.TempDir(), "main.db"))
	_ = os.Setenv("FIELDSCOUT_BCRYPT_COST", "4")
	_ = os.Setenv("FIELDSCOUT_CORS_ORIGINS", "https://scouts.example")
	t.Cleanup(func() {
		for _, k := range []string{"FIELDSCOUT_ADDR", "FIELDSCOUT_JWT_SECRET", "FIELDSCOUT_BOLT_PATH", "FIELDSCOUT_BCRYPT_COST", "FIELDSCOUT_CORS_ORIGINS"} {
			_ = os.Unsetenv(k)
		}
	})
	cfg, err := config.Load(context.Background())
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	return cfg
}

func TestMainWiring(t *testing.T) {
	convey.Convey("Given configuration from the environment", t, func() {
		cfg := testConfig(t)
		convey.So(cfg.BcryptCost, convey.ShouldEqual, 4)
		convey.So(cfg.CORSOrigins, convey.ShouldResemble, []string{"https://scouts.example"})

		convey.Convey("When the service is built and started", func() {
			ctx := context.Background()
			svc := newService(cfg, logger.Discard())
			convey.So(svc.Start(ctx), convey.ShouldBeNil)
			defer svc.Stop()

			handler := newHandler(ctx, cfg, svc, logger.Discard())

			convey.Convey("Then the API is routed", func() {
				req := httptest.NewRequest(http.MethodGet, "/events", http.NoBody)
				w := httptest.NewRecorder()
				handler.ServeHTTP(w, req)
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(w.Body.String(), convey.ShouldContainSubstring, `"data":[]`)
			})

			convey.Convey("Then the docs are routed", func() {
				req := httptest.NewRequest(http.MethodGet, "/openapi.yaml", http.NoBody)
				w := httptest.NewRecorder()
				handler.ServeHTTP(w, req)
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			})

			convey.Convey("Then the CORS policy wraps every route", func() {
				req := httptest.NewRequest(http.MethodOptions, "/events", http.NoBody)
				req.Header.Set("Origin", "https://scouts.example")
				w := httptest.NewRecorder()
				handler.ServeHTTP(w, req)
				convey.So(w.Code, convey.ShouldEqual, http.StatusNoContent)
				convey.So(w.Header().Get("Access-Control-Allow-Origin"), convey.ShouldEqual, "https://scouts.example")
			})

			convey.Convey("Then the service metrics reflect the store", func() {
				updateServiceMetrics(ctx, svc, logger.Discard())
				count, err := testutil.GatherAndCount(metrics.GetRegistry(), "fieldscout_api_store_records")
				convey.So(err, convey.ShouldBeNil)
				convey.So(count, convey.ShouldEqual, 4)
			})

			convey.Convey("Then the service metrics updater stops with its context", func() {
				runCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
				defer cancel()
				convey.So(func() { startServiceMetricsUpdater(runCtx, svc, logger.Discard()) }, convey.ShouldNotPanic)
			})
		})
	})
}

func TestSystemMetrics(t *testing.T) {
	convey.Convey("Given the system metrics updater", t, func() {
		convey.Convey("Then a single update does not panic", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
		})

		convey.Convey("Then the updater stops with its context", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()
			convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
		})
	})
}

func TestInvalidConfiguration(t *testing.T) {
	convey.Convey("Given a configuration without a JWT secret", t, func() {
		_ = os.Unsetenv("FIELDSCOUT_JWT_SECRET")
		_ = os.Setenv("FIELDSCOUT_ADDR", ":9080")
		defer func() { _ = os.Unsetenv("FIELDSCOUT_ADDR") }()

		convey.Convey("Then loading fails", func() {
			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(cfg, convey.ShouldBeNil)
		})
	})
}
