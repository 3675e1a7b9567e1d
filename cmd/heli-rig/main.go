package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"heli-rig/internal/config"
)

func defaultConfigPath() string {
	if p := os.Getenv("HELI_RIG_CONFIG"); p != "" {
		return p
	}
	return "./heli-rig.yaml"
}

func main() {
	// A missing .env is normal.
	_ = godotenv.Load()

	var (
		configPath string
		simulate   bool
		summarize  string
	)
	flag.StringVar(&configPath, "config", defaultConfigPath(), "Path to YAML config (env HELI_RIG_CONFIG)")
	flag.BoolVar(&simulate, "sim", false, "Run against the simulated rig")
	flag.StringVar(&summarize, "summarize", "", "Print a summary of a flight log and exit")
	flag.Parse()

	if summarize != "" {
		if err := printLogSummary(os.Stdout, summarize); err != nil {
			log.Fatalf("summarize failed: %v", err)
		}
		return
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if simulate && !cfg.Sim.Enable {
		cfg.Sim.Enable = true
		if err := config.DefaultAndValidate(&cfg); err != nil {
			log.Fatalf("config invalid for sim: %v", err)
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rt, err := newRigRuntime(cfg, os.Stdin)
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}
	log.Printf("heli-rig starting config=%s sim=%t dt=%s precedence=%s", configPath, cfg.Sim.Enable, cfg.Loop.DT, cfg.Flight.DutyPrecedence)

	rt.run(ctx)

	if err := rt.Close(); err != nil {
		log.Printf("shutdown: %v", err)
	}
	log.Printf("heli-rig stopped")
}
