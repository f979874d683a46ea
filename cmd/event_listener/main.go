package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/nandanugg/fleet-sentinel/config"
	"github.com/nandanugg/fleet-sentinel/module/core"
)

func main() {
	cfg := config.Load()

	conn, err := config.NewRabbitMQ(cfg)
	if err != nil {
		log.Fatalf("rabbitmq connect: %v", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatalf("rabbitmq channel: %v", err)
	}
	defer func() { _ = ch.Close() }()

	if err := core.DeclareEvents(ch); err != nil {
		log.Fatalf("declare: %v", err)
	}

	msgs, err := ch.Consume(core.EventQueue, "", true, false, false, false, nil)
	if err != nil {
		log.Fatalf("consume: %v", err)
	}

	log.Printf("consuming from queue '%s', waiting for fleet events...", core.EventQueue)

	go func() {
		for msg := range msgs {
			var env core.EventEnvelope
			if err := json.Unmarshal(msg.Body, &env); err != nil {
				log.Printf("skipping malformed message: %v", err)
				continue
			}
			fmt.Println(describe(env))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Println("shutting down")
}

func describe(env core.EventEnvelope) string {
	switch {
	case env.Kind == core.EventKindGeofence && env.Geofence != nil:
		e := env.Geofence
		return fmt.Sprintf("[%s] %s %s %s", env.Kind, e.VehicleID, e.Type, e.GeofenceName)
	case env.Kind == core.EventKindIncident && env.Incident != nil:
		inc := env.Incident
		return fmt.Sprintf("[%s] %s %s %s level=%d status=%s: %s",
			env.Kind, inc.ID, inc.VehicleID, inc.Type, inc.EscalationLevel, inc.Status, inc.Message)
	default:
		return fmt.Sprintf("[%s] unrecognised envelope", env.Kind)
	}
}
