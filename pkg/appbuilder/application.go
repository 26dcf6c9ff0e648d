package appbuilder

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/id-Mask/smart-contracts/pkg/logger"
	"github.com/id-Mask/smart-contracts/pkg/rabbitmq"
	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

type ApplicationInterface interface {
	Start(ctx context.Context) error
	Handler() http.Handler
}

// Application is the assembled runtime: one HTTP server plus the broker
// backed worker services.
type Application struct {
	Logger         *logger.Logger
	Addr           string
	Conn           *amqp.Connection
	WorkerServices []rabbitmq.WorkerService
	Engine         *gin.Engine
}

func (a *Application) Handler() http.Handler {
	return a.Engine
}

// Start serves HTTP and runs the worker services until ctx is cancelled or
// the server fails. Closing the broker connection ends the workers' delivery
// loops, so Start returns only after they drain.
func (a *Application) Start(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	server := &http.Server{Addr: a.Addr, Handler: a.Engine}

	g.Go(func() error {
		a.Logger.Infof("REST API listening on %s", a.Addr)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "serve http")
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.Logger.Info("Shutting down application")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := server.Shutdown(shutdownCtx)
		a.closeConn()
		return err
	})

	for _, ws := range a.WorkerServices {
		g.Go(func() error {
			a.Logger.Infof("Starting worker %s", ws.GetServiceName())
			if err := ws.StartService(); err != nil {
				a.Logger.Errorf(err, "Worker %s stopped", ws.GetServiceName())
			}
			return nil
		})
	}

	return g.Wait()
}

func (a *Application) closeConn() {
	if a.Conn == nil || a.Conn.IsClosed() {
		return
	}
	if err := a.Conn.Close(); err != nil {
		a.Logger.Warnf("Closing Rabbitmq connection: %v", err)
	}
}
