package core

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/adarbari/AssetTagRepo-sub000/module/core/domain"
	handler "github.com/adarbari/AssetTagRepo-sub000/module/core/internal/handler/http"
	"github.com/adarbari/AssetTagRepo-sub000/module/core/internal/handler/subscriber"
	"github.com/adarbari/AssetTagRepo-sub000/module/core/internal/repository/database"
	"github.com/adarbari/AssetTagRepo-sub000/module/core/internal/repository/database/postgres"
	"github.com/adarbari/AssetTagRepo-sub000/module/core/internal/repository/publisher"
	"github.com/adarbari/AssetTagRepo-sub000/module/core/internal/repository/publisher/rabbitmq"
	"github.com/adarbari/AssetTagRepo-sub000/module/core/internal/repository/publisher/rediscache"
	"github.com/adarbari/AssetTagRepo-sub000/module/core/internal/scorer"
	"github.com/adarbari/AssetTagRepo-sub000/module/core/service"
)

type Module struct {
	Estimator   *service.LocationEstimator
	LocProc     *service.LocationProcessor
	GeofenceSvc *service.GeofenceProcessor
	AnomalySvc  *service.AnomalyProcessor
	RulesEngine *service.AlertRulesEngine

	handler    *handler.AssetHandler
	subscriber *subscriber.ObservationSubscriber
}

func Build(db *sql.DB, amqpConn *amqp.Connection, mqttClient mqtt.Client, redisClient *redis.Client, scorerURL string) (*Module, error) {
	locationRepo := postgres.NewLocationRepo(db)
	gatewayRepo := postgres.NewGatewayRepo(db)
	geofenceRepo := postgres.NewGeofenceRepo(db)
	featureRepo := postgres.NewFeatureRepo(db)

	alertPub, err := rabbitmq.NewAlertPublisher(amqpConn)
	if err != nil {
		return nil, fmt.Errorf("alert publisher: %w", err)
	}
	locationPub := rediscache.NewLocationPublisher(redisClient)

	estimator := service.NewLocationEstimator()
	geofenceSvc := service.NewGeofenceProcessor(geofenceRepo, alertPub)
	anomalySvc := service.NewAnomalyProcessor(featureRepo, locationRepo, scorer.NewHTTPScorer(scorerURL), alertPub)
	rulesEngine := service.NewAlertRulesEngine()

	recorder := &locationRecorder{repo: locationRepo, pub: locationPub}
	locProc := service.NewLocationProcessor(estimator, gatewayRepo, recorder, geofenceSvc, anomalySvc)

	h := handler.NewAssetHandler(locationRepo, anomalySvc, geofenceSvc, rulesEngine)
	sub := subscriber.NewObservationSubscriber(mqttClient, locProc)

	return &Module{
		Estimator:   estimator,
		LocProc:     locProc,
		GeofenceSvc: geofenceSvc,
		AnomalySvc:  anomalySvc,
		RulesEngine: rulesEngine,
		handler:     h,
		subscriber:  sub,
	}, nil
}

func (m *Module) RegisterRoutes(r *gin.RouterGroup) {
	m.handler.Register(r)
}

func (m *Module) StartSubscribers() error {
	return m.subscriber.Start()
}

// StartProcessors launches the background loops: buffer flushing, geofence
// cache refresh, anomaly sweeps.
func (m *Module) StartProcessors(ctx context.Context) error {
	if err := m.GeofenceSvc.Start(ctx); err != nil {
		return err
	}
	m.LocProc.Start(ctx)
	m.AnomalySvc.Start(ctx)
	return nil
}

// StopProcessors lets each in-flight tick finish before returning.
func (m *Module) StopProcessors() {
	m.LocProc.Stop()
	m.AnomalySvc.Stop()
	m.GeofenceSvc.Stop()
}

// locationRecorder persists each estimate and mirrors it into the live cache.
type locationRecorder struct {
	repo database.LocationRepository
	pub  publisher.LocationPublisher
}

func (r *locationRecorder) OnLocation(ctx context.Context, loc *domain.EstimatedLocation) {
	if err := r.repo.Insert(ctx, loc); err != nil {
		log.Printf("persist location for %s: %v", loc.AssetID, err)
	}
	if err := r.pub.PublishLocation(ctx, loc); err != nil {
		log.Printf("publish location for %s: %v", loc.AssetID, err)
	}
}
