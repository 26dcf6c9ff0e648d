package appbuilder

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/id-Mask/smart-contracts/pkg/logger"
	"github.com/id-Mask/smart-contracts/pkg/rabbitmq"
	"github.com/id-Mask/smart-contracts/pkg/rest"
	"github.com/id-Mask/smart-contracts/pkg/utilities"
	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
)

const healthPath = "/healthz"

type AppConfig interface {
	GetLoggerConfig() logger.LoggerConfig
	GetRabbitmqConfig() rabbitmq.RabbitmqConfig
	GetRestApiPort() uint16
}

type AppBuilderInterface[T utilities.JsonConfigObj[U], U AppConfig] interface {
	InitLogger(loggerArgs logger.GlobalLoggerConfig) AppBuilderInterface[T, U]
	WithContext(ctx context.Context) AppBuilderInterface[T, U]
	LoadConfig(configPath string) AppBuilderInterface[T, U]
	WithConfig(config U) AppBuilderInterface[T, U]
	Config() U
	InitRabbitmqConnection() AppBuilderInterface[T, U]
	InitRabbitmqRegistries() AppBuilderInterface[T, U]
	AddWorkerServices(workerServices ...rabbitmq.WorkerService) AppBuilderInterface[T, U]
	AddGinRoutes(routes ...rest.Route) AppBuilderInterface[T, U]
	AddMiddlewares(middlewares ...rest.Middleware) AppBuilderInterface[T, U]
	InitGinRouter() AppBuilderInterface[T, U]
	Build() (ApplicationInterface, error)
}

// appBuilder assembles an Application. The first failing step records its
// error and every later step becomes a no-op, so Build reports it.
type appBuilder[T utilities.JsonConfigObj[U], U AppConfig] struct {
	ctx    context.Context
	logger *logger.Logger
	config U
	conn   *amqp.Connection

	workers     []rabbitmq.WorkerService
	routes      []rest.Route
	middlewares []rest.Middleware
	engine      *gin.Engine
	err         error
}

func New[T utilities.JsonConfigObj[U], U AppConfig]() AppBuilderInterface[T, U] {
	return &appBuilder[T, U]{ctx: context.Background(), logger: logger.OrDefault(nil)}
}

func (a *appBuilder[T, U]) step(name string, fn func() error) AppBuilderInterface[T, U] {
	if a.err != nil {
		return a
	}
	if err := fn(); err != nil {
		a.logger.Errorf(err, "Application setup failed at %s", name)
		a.err = errors.Wrap(err, name)
	}
	return a
}

func (a *appBuilder[T, U]) InitLogger(args logger.GlobalLoggerConfig) AppBuilderInterface[T, U] {
	logger.InitDefaultLogger(args)
	a.logger = logger.Default()
	return a
}

// WithContext bounds the blocking setup steps, such as dialing the broker.
func (a *appBuilder[T, U]) WithContext(ctx context.Context) AppBuilderInterface[T, U] {
	a.ctx = ctx
	return a
}

func (a *appBuilder[T, U]) LoadConfig(path string) AppBuilderInterface[T, U] {
	return a.step("load config", func() error {
		cfg, err := utilities.ReadConfig[T, U](path)
		if err != nil {
			return err
		}
		a.config = cfg
		a.logger.Infof("Loaded config from %s", path)
		return nil
	})
}

func (a *appBuilder[T, U]) WithConfig(config U) AppBuilderInterface[T, U] {
	a.config = config
	return a
}

func (a *appBuilder[T, U]) Config() U {
	return a.config
}

// InitRabbitmqConnection is a no-op when the config declares no broker.
func (a *appBuilder[T, U]) InitRabbitmqConnection() AppBuilderInterface[T, U] {
	return a.step("connect rabbitmq", func() error {
		cfg := a.config.GetRabbitmqConfig()
		if !cfg.Enabled() {
			a.logger.Info("Rabbitmq not configured, running without a broker")
			return nil
		}
		conn, err := rabbitmq.Connect(a.ctx, cfg)
		if err != nil {
			return err
		}
		a.conn = conn
		a.logger.Infof("Connected to Rabbitmq at %s:%d", cfg.Host, cfg.Port)
		return nil
	})
}

func (a *appBuilder[T, U]) InitRabbitmqRegistries() AppBuilderInterface[T, U] {
	return a.step("rabbitmq registries", func() error {
		if a.conn == nil {
			return nil
		}
		cfg := a.config.GetRabbitmqConfig()
		if err := rabbitmq.InitializeConsumerRegistry(a.conn, cfg.ConsumersConfig); err != nil {
			return err
		}
		if err := rabbitmq.InitializePublisherRegistry(a.conn, cfg.PublishersConfig); err != nil {
			return err
		}
		a.logger.Infof("Registered %d consumers and %d publishers", len(cfg.ConsumersConfig), len(cfg.PublishersConfig))
		return nil
	})
}

func (a *appBuilder[T, U]) AddWorkerServices(services ...rabbitmq.WorkerService) AppBuilderInterface[T, U] {
	a.workers = append(a.workers, services...)
	return a
}

func (a *appBuilder[T, U]) AddGinRoutes(routes ...rest.Route) AppBuilderInterface[T, U] {
	a.routes = append(a.routes, routes...)
	return a
}

func (a *appBuilder[T, U]) AddMiddlewares(middlewares ...rest.Middleware) AppBuilderInterface[T, U] {
	a.middlewares = append(a.middlewares, middlewares...)
	return a
}

func (a *appBuilder[T, U]) InitGinRouter() AppBuilderInterface[T, U] {
	return a.step("gin router", func() error {
		router := gin.New()
		router.Use(gin.Recovery(), rest.RequestLogger(a.logger))
		router.GET(healthPath, a.health)

		if err := rest.Register(router, a.routes, a.middlewares); err != nil {
			return err
		}
		a.engine = router
		a.logger.Infof("Registered %d REST routes", len(a.routes))
		return nil
	})
}

// health reports 503 once a configured broker connection has dropped.
func (a *appBuilder[T, U]) health(c *gin.Context) {
	broker := "disabled"
	status := http.StatusOK
	if a.conn != nil {
		broker = "connected"
		if a.conn.IsClosed() {
			broker = "closed"
			status = http.StatusServiceUnavailable
		}
	}
	c.JSON(status, gin.H{"rabbitmq": broker, "workers": len(a.workers)})
}

func (a *appBuilder[T, U]) Build() (ApplicationInterface, error) {
	if a.err != nil {
		return nil, a.err
	}
	if a.engine == nil {
		return nil, errors.New("gin router not initialized: call InitGinRouter() before Build()")
	}

	return &Application{
		Logger:         a.logger,
		Addr:           fmt.Sprintf("0.0.0.0:%d", a.config.GetRestApiPort()),
		Conn:           a.conn,
		WorkerServices: a.workers,
		Engine:         a.engine,
	}, nil
}
