package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nandanugg/fleet-sentinel/config"
)

type locationMessage struct {
	VehicleID    string  `json:"vehicle_id"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	Speed        float64 `json:"speed"`
	Heading      float64 `json:"heading"`
	FuelLevel    float64 `json:"fuel_level"`
	Timestamp    int64   `json:"timestamp"`
	DriverName   string  `json:"driver_name"`
	DriverPhone  string  `json:"driver_phone"`
	LicensePlate string  `json:"license_plate"`
	VehicleType  string  `json:"vehicle_type"`
}

var (
	interval time.Duration
	vehicles int
	stopped  int
	speeding int
	lowFuel  int
	deviated int

	rootCmd = &cobra.Command{
		Use:   "publisher",
		Short: "Simulate coal trucks on the Talcher haul route",
		Long: `publisher drives a fleet of simulated trucks along the default route
and publishes their positions to /fleet/vehicle/<id>/location.

Individual trucks can be made to stop, speed, run low on fuel or leave the
route so the server raises the matching incidents.`,
		RunE: run,
	}
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	f := rootCmd.Flags()
	f.DurationVarP(&interval, "interval", "i", 5*time.Second, "publish interval")
	f.IntVarP(&vehicles, "vehicles", "n", 5, "number of trucks")
	f.IntVar(&stopped, "stop", -1, "index of a truck that stops after leaving the plant")
	f.IntVar(&speeding, "speeding", -1, "index of a truck that drives over the limit")
	f.IntVar(&lowFuel, "low-fuel", -1, "index of a truck whose fuel drains quickly")
	f.IntVar(&deviated, "deviate", -1, "index of a truck that drifts off the route")
}

func run(cmd *cobra.Command, _ []string) error {
	if interval <= 0 {
		return fmt.Errorf("interval must be positive")
	}
	if vehicles <= 0 {
		return fmt.Errorf("vehicles must be positive")
	}

	cfg := config.Load()
	client, err := config.NewMQTTWithID(cfg, "fleet-simulator")
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	route := config.DefaultRoute()
	fleet := make([]*truck, vehicles)
	for i := range fleet {
		t := newTruck(i, route.Waypoints)
		switch i {
		case stopped:
			t.behavior = behaviorStop
		case speeding:
			t.behavior = behaviorSpeeding
		case lowFuel:
			t.behavior = behaviorLowFuel
		case deviated:
			t.behavior = behaviorDeviate
		}
		fleet[i] = t
	}

	log.Printf("connected to %s, %d trucks, publishing every %s", cfg.MQTTBroker, len(fleet), interval)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-sig:
			log.Println("shutting down")
			return nil
		case now := <-ticker.C:
			for _, t := range fleet {
				t.step(interval)
				msg := t.message(now)
				payload, err := json.Marshal(msg)
				if err != nil {
					return err
				}
				topic := fmt.Sprintf("/fleet/vehicle/%s/location", msg.VehicleID)
				token := client.Publish(topic, 1, false, payload)
				token.Wait()
				if err := token.Error(); err != nil {
					log.Printf("publish %s: %v", topic, err)
					continue
				}
				log.Printf("published to %s: %s", topic, payload)
			}
		}
	}
}
