package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/spellex-network/spellex-daemon/internal/config"
	"github.com/spellex-network/spellex-daemon/internal/core/application"
	"github.com/spellex-network/spellex-daemon/pkg/crawler"
	"github.com/spellex-network/spellex-daemon/pkg/explorer/esplora"
	"github.com/spellex-network/spellex-daemon/pkg/prover"
	"github.com/spellex-network/spellex-daemon/pkg/stats"
)

func main() {
	if err := config.InitConfig(); err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	mnemonic := config.GetString(config.MnemonicKey)
	if len(mnemonic) <= 0 {
		log.Fatalf(
			"SPELLEX_%s must be set in the environment", config.MnemonicKey,
		)
	}
	proverEndpoint := config.GetString(config.ProverEndpointKey)
	if len(proverEndpoint) <= 0 {
		log.Fatalf(
			"SPELLEX_%s must be set in the environment",
			config.ProverEndpointKey,
		)
	}

	network, err := config.GetNetwork()
	if err != nil {
		log.WithError(err).Fatal("invalid network")
	}

	explorerSvc, err := esplora.NewService(esplora.NewServiceOpts{
		APIURL:          config.GetString(config.ExplorerEndpointKey),
		PackageRelayURL: config.GetString(config.PackageRelayEndpointKey),
		FallbackFeeRate: config.GetFloat(config.FallbackFeeRateKey),
	})
	if err != nil {
		log.WithError(err).Fatal("error while connecting to explorer")
	}

	proverSvc, err := prover.NewClient(prover.NewClientOpts{
		Endpoint: proverEndpoint,
		Timeout:  config.GetDuration(config.ProverTimeoutKey),
	})
	if err != nil {
		log.WithError(err).Fatal("error while setting up prover client")
	}

	walletSvc, err := application.NewWalletService(
		application.NewWalletServiceOpts{
			Mnemonic:         mnemonic,
			Network:          network,
			ExplorerSvc:      explorerSvc,
			ProverSvc:        proverSvc,
			PropagationDelay: config.GetDuration(config.PropagationDelayKey),
			DustFloor:        uint64(config.GetInt(config.DustFloorKey)),
		},
	)
	if err != nil {
		log.WithError(err).Fatal("error while setting up wallet service")
	}

	crawlerSvc := crawler.NewService(crawler.Opts{
		ExplorerSvc:            explorerSvc,
		IntervalInMilliseconds: config.GetInt(config.CrawlIntervalKey),
		ErrorHandler: func(err error) {
			log.WithError(err).Warn("chain watcher error")
		},
	})
	go crawlerSvc.Start()
	go handleEvents(crawlerSvc)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if interval := config.GetDuration(config.StatsIntervalKey); interval > 0 {
		stats.EnableMemoryStatistics(ctx, interval)
	}

	addrInfo, err := walletSvc.DeriveAddress(ctx, 0, 0)
	if err != nil {
		log.WithError(err).Fatal("error while deriving funding address")
	}
	log.WithFields(log.Fields{
		"address": addrInfo.Address,
		"path":    addrInfo.DerivationPath,
	}).Info("watching funding address")
	crawlerSvc.AddObservable(&crawler.AddressObservable{
		Address: addrInfo.Address,
	})

	log.Info("daemon started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	<-sigChan

	crawlerSvc.Stop()
	log.Info("exiting")
}

func handleEvents(crawlerSvc crawler.Service) {
	for event := range crawlerSvc.GetEventChannel() {
		switch e := event.(type) {
		case crawler.AddressEvent:
			var total uint64
			for _, u := range e.Utxos {
				total += u.Value()
			}
			log.WithFields(log.Fields{
				"address": e.Address,
				"utxos":   len(e.Utxos),
				"total":   total,
			}).Info("spendable coins on funding address")
		case crawler.TransactionEvent:
			if e.Type() == crawler.TransactionConfirmed {
				log.WithFields(log.Fields{
					"txid":         e.Txid,
					"block_height": e.BlockHeight,
				}).Info("transaction confirmed")
			}
		case crawler.QuitEvent:
			return
		}
	}
}
