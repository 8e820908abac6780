package subscriber

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/adarbari/AssetTagRepo-sub000/module/core/domain"
)

const topicPattern = "/assets/tag/+/observation"

type observationSink interface {
	Ingest(obs domain.RawObservation)
}

type observationMessage struct {
	AssetTagID   string   `json:"asset_tag_id"`
	GatewayID    string   `json:"gateway_id"`
	RSSI         int      `json:"rssi"`
	BatteryLevel *float64 `json:"battery_level,omitempty"`
	Temperature  *float64 `json:"temperature,omitempty"`
	Timestamp    int64    `json:"timestamp"`
}

// ObservationSubscriber feeds the raw gateway observation stream into the
// location processor's buffers. Invalid messages are logged and dropped.
type ObservationSubscriber struct {
	client mqtt.Client
	sink   observationSink
}

func NewObservationSubscriber(client mqtt.Client, sink observationSink) *ObservationSubscriber {
	return &ObservationSubscriber{
		client: client,
		sink:   sink,
	}
}

func (s *ObservationSubscriber) Start() error {
	token := s.client.Subscribe(topicPattern, 1, s.handleMessage)
	token.Wait()
	return token.Error()
}

func (s *ObservationSubscriber) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	var raw observationMessage
	if err := json.Unmarshal(msg.Payload(), &raw); err != nil {
		log.Printf("invalid observation message: %v", err)
		return
	}

	if err := validateObservationMessage(&raw); err != nil {
		log.Printf("validation error: %v", err)
		return
	}

	s.sink.Ingest(domain.RawObservation{
		AssetTagID:   raw.AssetTagID,
		GatewayID:    raw.GatewayID,
		RSSI:         raw.RSSI,
		BatteryLevel: raw.BatteryLevel,
		Temperature:  raw.Temperature,
		Timestamp:    time.Unix(raw.Timestamp, 0),
	})
}

func validateObservationMessage(msg *observationMessage) error {
	if msg.AssetTagID == "" {
		return fmt.Errorf("asset_tag_id: required")
	}
	if msg.GatewayID == "" {
		return fmt.Errorf("gateway_id: required")
	}
	if msg.RSSI > 0 || msg.RSSI < -120 {
		return fmt.Errorf("rssi: must be between -120 and 0 dBm")
	}
	if msg.Timestamp <= 0 {
		return fmt.Errorf("timestamp: must be positive")
	}
	return nil
}
