package main

import (
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strconv"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type observationMessage struct {
	AssetTagID   string   `json:"asset_tag_id"`
	GatewayID    string   `json:"gateway_id"`
	RSSI         int      `json:"rssi"`
	BatteryLevel *float64 `json:"battery_level,omitempty"`
	Temperature  *float64 `json:"temperature,omitempty"`
	Timestamp    int64    `json:"timestamp"`
}

func randomTagID() string {
	return fmt.Sprintf("TAG-%04d", rand.Intn(10000))
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <interval_seconds>\n", os.Args[0])
		os.Exit(1)
	}

	intervalSec, err := strconv.Atoi(os.Args[1])
	if err != nil || intervalSec <= 0 {
		fmt.Fprintf(os.Stderr, "error: interval must be a positive integer\n")
		os.Exit(1)
	}

	broker := "tcp://localhost:1883"
	if v := os.Getenv("MQTT_BROKER"); v != "" {
		broker = v
	}

	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID("asset-mock-publisher")

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalf("mqtt connect: %v", token.Error())
	}
	defer client.Disconnect(250)

	tagPool := make([]string, 5)
	for i := range tagPool {
		tagPool[i] = randomTagID()
	}
	gatewayPool := []string{"GW-01", "GW-02", "GW-03", "GW-04"}

	log.Printf("connected to %s, publishing every %ds...", broker, intervalSec)
	log.Printf("tag pool: %v", tagPool)

	ticker := time.NewTicker(time.Duration(intervalSec) * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		tag := tagPool[rand.Intn(len(tagPool))]

		// A tag near a gateway cluster is heard by several gateways in one
		// burst, each with its own RSSI. Three or more sightings let the
		// server trilaterate.
		heard := 3 + rand.Intn(len(gatewayPool)-2)
		for _, gw := range rand.Perm(len(gatewayPool))[:heard] {
			battery := 20 + rand.Float64()*80

			msg := observationMessage{
				AssetTagID:   tag,
				GatewayID:    gatewayPool[gw],
				RSSI:         -45 - rand.Intn(45),
				BatteryLevel: &battery,
				Timestamp:    time.Now().Unix(),
			}

			payload, _ := json.Marshal(msg)
			topic := fmt.Sprintf("/assets/tag/%s/observation", tag)

			token := client.Publish(topic, 1, false, payload)
			token.Wait()

			log.Printf("published to %s: %s", topic, payload)
		}
	}
}
