package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/salonbook/agenda/libs/config"
	"github.com/salonbook/agenda/libs/db"
	"github.com/salonbook/agenda/libs/grpcx"
	"github.com/salonbook/agenda/libs/httpx"
	"github.com/salonbook/agenda/libs/kafkax"
	otelx "github.com/salonbook/agenda/libs/otel"
	"github.com/salonbook/agenda/libs/runtime"
	"github.com/salonbook/agenda/services/booking-service/internal/agenda"
	"github.com/salonbook/agenda/services/booking-service/internal/availability"
	"github.com/salonbook/agenda/services/booking-service/internal/booking"
	"github.com/salonbook/agenda/services/booking-service/internal/calendar"
	"github.com/salonbook/agenda/services/booking-service/internal/grpcserver"
	"github.com/salonbook/agenda/services/booking-service/internal/handlers"
	"github.com/salonbook/agenda/services/booking-service/internal/model"
	"github.com/salonbook/agenda/services/booking-service/internal/notify"
	"github.com/salonbook/agenda/services/booking-service/internal/outbox"
	"github.com/salonbook/agenda/services/booking-service/internal/storage"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"google.golang.org/grpc"
)

type subscriptionStore interface {
	notify.SubscriptionStore
	handlers.SubscriptionSaver
}

type stores struct {
	appointments  booking.Store
	users         handlers.UserStore
	subscriptions subscriptionStore
}

func runServer() error {
	service := config.String("SERVICE_NAME", "booking-service")
	port, err := config.Port("PORT", "8080")
	if err != nil {
		return err
	}
	secret, err := config.RequiredString("JWT_SECRET")
	if err != nil {
		return err
	}
	closed, err := booking.ParseWeekdays(config.List("CLOSED_WEEKDAYS", nil))
	if err != nil {
		return err
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	var (
		st     stores
		pool   *db.Pool
		checks []runtime.ReadyCheck
	)
	if strings.EqualFold(config.String("STORE", "postgres"), "memory") {
		logger.Warn("using in-memory store; data is lost on restart")
		mem := storage.NewMemory()
		st = stores{appointments: mem.Appointments, users: mem.Users, subscriptions: mem.Subscriptions}
	} else {
		pool, err = openPool(ctx)
		if err != nil {
			logger.Error("db connection failed", "err", err)
			return err
		}
		defer pool.Close()

		if config.Bool("MIGRATE_ON_START", true) {
			n, err := db.NewMigrator(pool, storage.Migrations).Up(ctx)
			if err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			logger.Info("migrations applied", "count", n)
		}
		outboxRepo := outbox.NewRepository()
		st = stores{
			appointments:  storage.NewAppointmentRepository(pool, outboxRepo),
			users:         storage.NewUserRepository(pool),
			subscriptions: storage.NewSubscriptionRepository(pool),
		}
		checks = append(checks, runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)})

		brokers := kafkax.SplitBrokers(config.String("KAFKA_BROKERS", ""))
		if len(brokers) > 0 {
			checks = append(checks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)})
		}
		publisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
			Brokers:   brokers,
			PollEvery: 2 * time.Second,
			BatchSize: 50,
		})
		go publisher.Run(ctx)
	}

	loc := availability.Location()
	cal, icsFeed, err := newCalendar(ctx, st.appointments, loc, logger)
	if err != nil {
		return err
	}

	vapid := notify.VAPIDConfig{
		PublicKey:  config.String("VAPID_PUBLIC_KEY", ""),
		PrivateKey: config.String("VAPID_PRIVATE_KEY", ""),
		Subscriber: config.String("VAPID_SUBJECT", "mailto:admin@example.com"),
	}
	var senders []notify.Sender
	if vapid.PublicKey != "" && vapid.PrivateKey != "" {
		senders = append(senders, notify.NewWebPushSender(vapid))
	} else {
		logger.Warn("web push disabled (VAPID keys not configured)")
	}
	if config.Bool("EXPO_ENABLED", true) {
		senders = append(senders, notify.NewExpoSender(nil))
	}
	dispatcher := notify.NewDispatcher(st.subscriptions, logger, 15*time.Second, senders...)

	allocator := booking.NewAllocator(st.appointments, dispatcher, logger, booking.AllocatorConfig{
		ClosedWeekdays: closed,
		RejectPast:     config.Bool("BOOKING_REJECT_PAST", false),
		Location:       loc,
	})
	lifecycle := booking.NewLifecycle(st.appointments, cal, logger, loc)

	loginLimit, bookingLimit, rdb, err := rateLimits(logger)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
		checks = append(checks, runtime.ReadyCheck{Name: "redis", Check: httpx.RedisReadyCheck(rdb)})
	}

	mux := runtime.NewBaseMuxWithReady(checks...)
	routes := handlers.Routes{
		Auth:         handlers.NewAuthHandler(st.users, logger, secret, 7*24*time.Hour),
		Users:        handlers.NewUsersHandler(st.users, logger),
		Appointments: handlers.NewAppointmentsHandler(allocator, lifecycle, st.appointments, logger),
		Push:         handlers.NewPushHandler(st.subscriptions, vapid.PublicKey, logger),
		JWTSecret:    secret,
		LoginLimit:   loginLimit,
		BookingLimit: bookingLimit,
	}
	if icsFeed != nil {
		routes.Calendar = icsFeed
	}
	routes.Register(mux)

	requestTimeout, err := config.Duration("HTTP_REQUEST_TIMEOUT", 15*time.Second)
	if err != nil {
		return err
	}
	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithRecover(logger),
		httpx.WithAccessLog(logger),
		httpx.WithCORS(httpx.CORSPolicy{AllowedOrigins: config.List("CORS_ALLOWED_ORIGINS", nil)}),
		httpx.WithBodyLimit(1<<20),
		httpx.WithTimeout(requestTimeout),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "booking")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	if err := startGrpcServer(ctx, logger, allocator); err != nil {
		return err
	}

	var stopAgenda func(context.Context) error
	if spec := config.String("AGENDA_CRON", "0 7 * * *"); spec != "" {
		c, err := agenda.NewDigest(st.appointments, dispatcher, logger, loc).Schedule(ctx, spec)
		if err != nil {
			return err
		}
		c.Start()
		logger.Info("agenda digest scheduled", "cron", spec)
		stopAgenda = func(ctx context.Context) error {
			select {
			case <-c.Stop().Done():
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	runtime.Shutdown(10*time.Second, logger, shutdownSteps(srv.Shutdown, stopAgenda, dispatcher.Wait)...)
	return nil
}

// shutdownSteps stops intake first: HTTP, then the agenda cron, so no digest
// can start after the notification drain begins. stopAgenda may be nil.
func shutdownSteps(stopHTTP, stopAgenda, drainNotifications func(context.Context) error) []runtime.Stopper {
	steps := []runtime.Stopper{{Name: "http", Stop: stopHTTP}}
	if stopAgenda != nil {
		steps = append(steps, runtime.Stopper{Name: "agenda", Stop: stopAgenda})
	}
	return append(steps, runtime.Stopper{Name: "notifications", Stop: drainNotifications})
}

// newCalendar picks the confirmation side effect from CALENDAR_PROVIDER.
// The ICS feed is returned separately so it can be served over HTTP.
func newCalendar(ctx context.Context, store booking.Store, loc *time.Location, logger *slog.Logger) (calendar.Creator, *calendar.ICSFeed, error) {
	switch provider := strings.ToLower(config.String("CALENDAR_PROVIDER", "none")); provider {
	case "google":
		g, err := calendar.NewGoogle(ctx, calendar.GoogleConfig{
			CredentialsFile: config.String("GOOGLE_CREDENTIALS_FILE", "credentials.json"),
			TokenFile:       config.String("GOOGLE_TOKEN_FILE", "token.json"),
			CalendarID:      config.String("GOOGLE_CALENDAR_ID", "primary"),
		})
		if err != nil {
			return nil, nil, fmt.Errorf("google calendar: %w", err)
		}
		return g, nil, nil
	case "ics":
		feed := calendar.NewICSFeed(config.String("ICS_CALENDAR_NAME", "Salon agenda"), loc.String())
		if err := seedFeed(ctx, feed, store, loc); err != nil {
			logger.Error("ics feed seed failed", "err", err)
		}
		logger.Info("ics calendar feed enabled", "events", feed.Len())
		return feed, feed, nil
	case "none", "":
		return calendar.Noop{}, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown CALENDAR_PROVIDER %q", provider)
	}
}

func seedFeed(ctx context.Context, feed *calendar.ICSFeed, store booking.Store, loc *time.Location) error {
	appts, err := store.ListByStatus(ctx, model.StatusConfirmed, "")
	if err != nil {
		return err
	}
	for _, a := range appts {
		start, err := availability.SlotStart(a.Date, a.Time, loc)
		if err != nil {
			continue
		}
		id := a.CalendarEventID
		if id == "" {
			id = a.ID
		}
		feed.Add(id, booking.EventFor(a, start))
	}
	return nil
}

func rateLimits(logger *slog.Logger) (login, book httpx.Middleware, rdb *redis.Client, err error) {
	window, err := config.Duration("RATE_LIMIT_WINDOW", time.Minute)
	if err != nil {
		return nil, nil, nil, err
	}
	loginMax, err := config.Int("RATE_LIMIT_LOGIN", 10)
	if err != nil {
		return nil, nil, nil, err
	}
	bookMax, err := config.Int("RATE_LIMIT_BOOKING", 30)
	if err != nil {
		return nil, nil, nil, err
	}
	failOpen := config.Bool("RATE_LIMIT_FAIL_OPEN", true)

	newLimiter := func(limit int, prefix string) httpx.Limiter {
		if rdb != nil {
			return httpx.NewRedisLimiter(rdb, limit, window, prefix)
		}
		return httpx.NewMemoryLimiter(limit, window)
	}
	if addr := config.String("REDIS_ADDR", ""); addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: config.String("REDIS_PASSWORD", ""),
		})
		logger.Info("redis rate limiting enabled", "addr", addr)
	}

	if loginMax > 0 {
		login = httpx.RateLimit(newLimiter(loginMax, "rl:login"), "login", logger, failOpen)
	}
	if bookMax > 0 {
		book = httpx.RateLimit(newLimiter(bookMax, "rl:book"), "booking", logger, failOpen)
	}
	return login, book, rdb, nil
}

func startGrpcServer(ctx context.Context, logger *slog.Logger, slots grpcserver.SlotLister) error {
	port, err := config.Port("GRPC_PORT", "9090")
	if err != nil {
		return err
	}
	lis, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return err
	}

	srv := grpc.NewServer(grpcx.ServerOptions(grpcx.UnaryServerLogInterceptor(logger))...)
	health := grpcserver.Register(srv, slots)

	go func() {
		logger.Info("grpc server starting", "addr", lis.Addr().String())
		if err := srv.Serve(lis); err != nil {
			logger.Error("grpc server error", "err", err)
		}
	}()

	go func() {
		<-ctx.Done()
		health.Shutdown()
		srv.GracefulStop()
	}()

	return nil
}
