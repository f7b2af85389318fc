// Command bay-monitor samples the car wash bay relays, records sessions and
// maintenance coins to SQLite, and publishes bay events to MQTT.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/carwash-monitor/internal/gpio"
	"github.com/sweeney/carwash-monitor/internal/logic"
	"github.com/sweeney/carwash-monitor/internal/mqtt"
	"github.com/sweeney/carwash-monitor/internal/status"
	"github.com/sweeney/carwash-monitor/internal/store"
	"github.com/sweeney/carwash-monitor/internal/system"
	"github.com/sweeney/carwash-monitor/internal/web"
)

type config struct {
	poll            time.Duration
	relayThreshold  int
	insertThreshold int
	runtimeEvery    int
	dbPath          string
	storeRetries    int
	storeBackoff    time.Duration
	broker          string
	heartbeat       time.Duration
	httpAddr        string
	chip            string
	dryRun          bool
	printState      bool
	pricing         web.Pricing
}

func main() {
	var cfg config
	pricing := web.DefaultPricing()

	flag.DurationVar(&cfg.poll, "poll", 10*time.Millisecond, "GPIO polling interval")
	flag.IntVar(&cfg.relayThreshold, "relay-threshold", logic.DefaultRelayThreshold, "Polls a timer or pump relay must hold a new level")
	flag.IntVar(&cfg.insertThreshold, "insert-threshold", logic.DefaultInsertThreshold, "Polls the maintenance coin line must hold a new level")
	flag.IntVar(&cfg.runtimeEvery, "runtime-every", logic.DefaultRuntimeEvery, "Polls between live runtime updates")
	flag.StringVar(&cfg.dbPath, "db", "/var/lib/carwash/carwash.db", "SQLite database path")
	flag.IntVar(&cfg.storeRetries, "store-retries", 0, "Retries for a failed database write before exiting (0 exits on first failure)")
	flag.DurationVar(&cfg.storeBackoff, "store-backoff", 250*time.Millisecond, "Wait before the first database retry")
	flag.StringVar(&cfg.broker, "broker", "tcp://localhost:1883", "MQTT broker address (empty to disable)")
	flag.DurationVar(&cfg.heartbeat, "heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	flag.StringVar(&cfg.httpAddr, "http", ":80", "HTTP dashboard address (empty to disable)")
	flag.StringVar(&cfg.chip, "chip", "gpiochip0", "GPIO character device")
	flag.BoolVar(&cfg.dryRun, "dry-run", false, "Log restart and power-off requests instead of running them")
	flag.BoolVar(&cfg.printState, "print-state", false, "Print current line levels and exit")
	flag.Float64Var(&pricing.PricePerMinute, "price-per-minute", pricing.PricePerMinute, "Dashboard revenue per minute of timer time")
	flag.Float64Var(&pricing.CoinValue, "coin-value", pricing.CoinValue, "Dashboard value of one maintenance coin")

	flag.Parse()
	cfg.pricing = pricing

	if err := run(cfg); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(cfg config) error {
	// Initialize GPIO
	gpioReader, err := gpio.NewRealReader(cfg.chip, gpio.DefaultPins())
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer gpioReader.Close()

	// Print state mode
	if cfg.printState {
		sample, err := gpioReader.Read()
		if err != nil {
			return fmt.Errorf("read gpio: %w", err)
		}
		printSample(os.Stdout, sample)
		return nil
	}

	// Initialize database
	db, err := store.Open(cfg.dbPath)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := store.Migrate(db); err != nil {
		return err
	}
	st, err := store.New(db)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	if err := st.ResetLiveStatus(); err != nil {
		return err
	}
	gateway := store.NewGuarded(st, store.Policy{Retries: cfg.storeRetries, Backoff: cfg.storeBackoff})

	var actions system.Actions = system.NewShell(nil, nil)
	if cfg.dryRun {
		actions = system.DryRun{}
	}

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		PollMs:          cfg.poll.Milliseconds(),
		RelayThreshold:  cfg.relayThreshold,
		InsertThreshold: cfg.insertThreshold,
		RuntimeEvery:    cfg.runtimeEvery,
		HeartbeatMs:     cfg.heartbeat.Milliseconds(),
		DB:              cfg.dbPath,
		Broker:          cfg.broker,
		HTTPAddr:        cfg.httpAddr,
		DryRun:          cfg.dryRun,
	})

	// Initialize MQTT
	var publisher mqtt.Publisher
	var mqttStatus mqtt.ConnectionStatus
	if cfg.broker != "" {
		pub, err := mqtt.NewRealPublisher(cfg.broker)
		if err != nil {
			log.Printf("mqtt: disabled: %v", err)
		} else {
			defer pub.Close()
			publisher, mqttStatus = pub, pub

			snap := tracker.Snapshot()
			startupEvent := mqtt.SystemEvent{
				Timestamp:  snap.Now,
				Event:      "STARTUP",
				Retained:   true,
				RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
			}
			if err := publisher.PublishSystem(startupEvent); err != nil {
				log.Printf("failed to publish startup event: %v", err)
			} else {
				log.Printf("published startup event")
			}
		}
	}

	// Start HTTP dashboard on its own read-only connection
	if cfg.httpAddr != "" {
		roDB, err := store.OpenReadOnly(cfg.dbPath)
		if err != nil {
			return fmt.Errorf("init dashboard: %w", err)
		}
		defer roDB.Close()
		reader, err := store.New(roDB)
		if err != nil {
			return fmt.Errorf("init dashboard: %w", err)
		}

		srv := web.New(cfg.httpAddr, tracker, reader, cfg.pricing)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http dashboard listening on %s", cfg.httpAddr)
	}

	log.Printf("started: poll=%v relay-threshold=%d insert-threshold=%d db=%s broker=%s heartbeat=%v dry-run=%v",
		cfg.poll, cfg.relayThreshold, cfg.insertThreshold, cfg.dbPath, cfg.broker, cfg.heartbeat, cfg.dryRun)

	ticker := time.NewTicker(cfg.poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGUSR1)

	monitorCfg := logic.DefaultConfig()
	monitorCfg.RelayThreshold = cfg.relayThreshold
	monitorCfg.InsertThreshold = cfg.insertThreshold
	monitorCfg.RuntimeEvery = cfg.runtimeEvery

	return runLoop(gpioReader, gateway, actions, publisher, mqttStatus, tracker, monitorCfg, cfg.heartbeat, time.Now, ticker.C, sigCh)
}

func runLoop(gpioReader gpio.Reader, gateway store.Gateway, actions system.Actions, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, cfg logic.Config, heartbeat time.Duration, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	monitor := logic.NewMonitor(cfg, now())

	refresh := func() {
		if tracker == nil {
			return
		}
		reboot, wipe := monitor.WatchdogCounts()
		tracker.Update(monitor.Bays(), monitor.EventCountsSnapshot(), status.WatchdogCounts{Reboot: reboot, Wipe: wipe})
		if mqttStatus != nil {
			tracker.SetMQTTConnected(mqttStatus.IsConnected())
		}
	}

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			if publisher == nil {
				return nil
			}
			reason := signalName(s)
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    reason,
				Retained:  true,
			}
			if tracker != nil {
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
				event.RawPayload = status.FormatStatusEvent(tracker.Snapshot(), "SHUTDOWN", reason)
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case <-tick:
			t := now()
			sample, err := gpioReader.Read()
			if err != nil {
				log.Printf("gpio read error: %v", err)
				continue
			}

			events := monitor.Process(toInput(sample, t))
			for i := range events {
				event := &events[i]
				if err := apply(event, gateway, actions); err != nil {
					return err
				}
				if event.Type != logic.EventLiveRuntime {
					logEvent(*event)
				}
				if publisher != nil && mqtt.Published(event.Type) {
					if err := publisher.Publish(*event); err != nil {
						log.Printf("publish error: %v", err)
						// Don't crash on publish failure
					}
				}
			}

			// Update status tracker for HTTP consumers
			refresh()

			// Check for heartbeat
			if hbData := monitor.CheckHeartbeat(t, heartbeat); hbData != nil {
				log.Printf("heartbeat: uptime=%v sessions=%d inserts=%d restarts=%d power_offs=%d wipes=%d",
					hbData.Uptime, hbData.Counts.Sessions, hbData.Counts.MaintenanceInserts,
					hbData.Counts.Restarts, hbData.Counts.PowerOffs, hbData.Counts.Wipes)

				if publisher != nil {
					hbEvent := mqtt.SystemEvent{
						Timestamp: hbData.Timestamp,
						Event:     "HEARTBEAT",
					}
					if tracker != nil {
						hbEvent.RawPayload = status.FormatStatusEvent(tracker.Snapshot(), "HEARTBEAT", "")
					}
					if err := publisher.PublishSystem(hbEvent); err != nil {
						log.Printf("heartbeat publish error: %v", err)
					}
				}
			}
		}
	}
}

// apply performs the persistence call or system action an event asks for.
// A persistence error is returned; system action errors are only logged.
func apply(event *logic.Event, gateway store.Gateway, actions system.Actions) error {
	switch event.Type {
	case logic.EventTimerOn, logic.EventTimerOff, logic.EventPumpOn, logic.EventPumpOff:
		if err := gateway.UpsertLiveStatus(event.Bay, event.TimerRunning, event.PumpRunning); err != nil {
			return fmt.Errorf("bay %d %s: %w", event.Bay, event.Type, err)
		}

	case logic.EventLiveRuntime:
		if err := gateway.UpsertLiveRuntime(event.Bay, event.TimerSeconds, event.PumpSeconds); err != nil {
			return fmt.Errorf("bay %d %s: %w", event.Bay, event.Type, err)
		}

	case logic.EventSession:
		session, err := gateway.RecordSession(event.Bay, event.TimerSeconds, event.PumpSeconds)
		if err != nil {
			return fmt.Errorf("bay %d %s: %w", event.Bay, event.Type, err)
		}
		event.ID = session.ID

	case logic.EventMaintenanceInsert:
		insert, err := gateway.RecordMaintenanceInsert(event.Bay)
		if err != nil {
			return fmt.Errorf("bay %d %s: %w", event.Bay, event.Type, err)
		}
		event.ID = insert.ID

	case logic.EventWipe:
		if err := gateway.WipeHistoricalData(); err != nil {
			return fmt.Errorf("%s: %w", event.Type, err)
		}

	case logic.EventRestart:
		if err := actions.Restart(); err != nil {
			log.Printf("watchdog: restart failed: %v", err)
		}

	case logic.EventPowerOff:
		if err := actions.PowerOff(); err != nil {
			log.Printf("watchdog: power off failed: %v", err)
		}
	}
	return nil
}

func logEvent(e logic.Event) {
	switch {
	case e.Type.IsSystem():
		log.Printf("watchdog: %s", e.Type)
	case e.Type == logic.EventSession:
		log.Printf("event: bay %d %s timer=%.0fs pump=%.1fs id=%s", e.Bay, e.Type, e.TimerSeconds, e.PumpSeconds, e.ID)
	case e.Type == logic.EventMaintenanceInsert:
		log.Printf("event: bay %d %s id=%s", e.Bay, e.Type, e.ID)
	default:
		log.Printf("event: bay %d %s (timer=%v pump=%v)", e.Bay, e.Type, e.TimerRunning, e.PumpRunning)
	}
}

func toInput(s gpio.Sample, t time.Time) logic.Input {
	in := logic.Input{
		Reboot: logic.Level(s.Reboot),
		Wipe:   logic.Level(s.Wipe),
		Time:   t,
	}
	for i, b := range s.Bays {
		in.Bays[i] = logic.BayInput{
			Timer:  logic.Level(b.Timer),
			Pump:   logic.Level(b.Pump),
			Insert: logic.Level(b.Insert),
		}
	}
	return in
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	case syscall.SIGUSR1:
		return "SIGUSR1"
	}
	return "UNKNOWN"
}

func printSample(w io.Writer, s gpio.Sample) {
	for i, b := range s.Bays {
		fmt.Fprintf(w, "bay %d: timer=%s pump=%s insert=%s\n",
			i+1, logic.Level(b.Timer), logic.Level(b.Pump), logic.Level(b.Insert))
	}
	fmt.Fprintf(w, "reboot=%s wipe=%s\n", logic.Level(s.Reboot), logic.Level(s.Wipe))
}
