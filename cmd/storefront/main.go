package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/orangeboy/storefront/config"
	"github.com/orangeboy/storefront/internal/adminapi"
	"github.com/orangeboy/storefront/internal/app"
	"github.com/orangeboy/storefront/internal/webserver"
	"go.uber.org/zap"
)

var version = "develop"

var (
	h        = flag.Bool("h", false, "help usage")
	showVer  = flag.Bool("v", false, "show version")
	conffile = flag.String("c", "", "config yaml file")
	debug    = flag.Bool("debug", false, "debug mode")
	initcfg  = flag.Bool("initcfg", false, "write default config > /etc/storefront.yml")
	initdb   = flag.Bool("initdb", false, "drop and recreate the product tables, then exit")
	seed     = flag.Bool("seed", false, "load the demo catalog when the store is empty")
)

func printHelp() {
	if *h {
		ustr := fmt.Sprintf("storefront version: %s, Usage: storefront -h\nOptions:", version)
		fmt.Fprint(os.Stderr, ustr)
		flag.PrintDefaults()
		os.Exit(0)
	}
}

func main() {
	flag.Parse()

	if *showVer {
		fmt.Println(version)
		os.Exit(0)
	}

	printHelp()

	if *initcfg {
		if err := config.DefaultAppConfig.SaveConfig("/etc/storefront.yml"); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	cfg, err := config.LoadConfig(*conffile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *debug {
		cfg.System.Debug = true
	}
	if *seed {
		cfg.System.SeedDemo = true
	}

	application := app.NewApplication(cfg)

	if *initdb {
		application.Init(cfg)
		defer application.Release()
		if application.DB() == nil {
			zap.S().Error("initdb requires a database section in the config")
			return
		}
		application.DropAll()
		if err := application.MigrateDB(true); err != nil {
			zap.S().Errorf("initdb failed: %v", err)
		}
		return
	}

	application.Init(cfg)
	defer application.Release()

	webserver.Init(application)
	adminapi.Init()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := webserver.Start(ctx); err != nil {
		zap.S().Errorf("web server stopped: %v", err)
	}
}
