// routes.go - HTTP-Endpunkt fuer Monitoring-Werte
//
// Enthaelt:
// - Routes: Baut den gin-Router mit dem Metrics-Handler
// - Serve: Startet den Endpunkt bis der Kontext endet
package monitor

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Routes erstellt den Router des Monitoring-Endpunkts
func Routes(w *Writer) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.HEAD("/", func(c *gin.Context) { c.String(http.StatusOK, "") })
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, "vaeflow monitor is running") })
	r.GET("/api/metrics", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"metrics": w.Latest()})
	})

	return r
}

// Serve startet den Monitoring-Endpunkt auf addr und beendet ihn,
// wenn der Kontext endet
func Serve(ctx context.Context, w *Writer, addr string) error {
	srv := &http.Server{Addr: addr, Handler: Routes(w)}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("monitor listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
