package main

import (
	"flag"
	"fmt"

	"github.com/zeromicro/go-zero/rest"

	"github.com/VikasCh3108/Solar-AI/internal/cli"
	"github.com/VikasCh3108/Solar-AI/internal/config"
	"github.com/VikasCh3108/Solar-AI/internal/handler"
	"github.com/VikasCh3108/Solar-AI/internal/svc"
)

var configFile = flag.String("f", "etc/solarai.yaml", "the config file")

func main() {
	flag.Parse()

	cfg := config.MustLoad(*configFile)
	cli.LogConfigSummary(cfg)

	server := rest.MustNewServer(cfg.RestConf, rest.WithCors())
	defer server.Stop()

	ctx := svc.NewServiceContext(*cfg, cfg.MainPath())
	defer ctx.Close()
	handler.RegisterHandlers(server, ctx)

	fmt.Printf("Starting server at %s:%d...\n", cfg.Host, cfg.Port)
	server.Start()
}
