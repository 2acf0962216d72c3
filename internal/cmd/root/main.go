package root

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"elmdiag/internal/displayer"
	"elmdiag/internal/elm"
	"elmdiag/internal/elm/mock"
	"elmdiag/internal/pid"
	"elmdiag/internal/publish"
	"elmdiag/internal/report"
	"elmdiag/internal/scan"
	"elmdiag/internal/store"
	"elmdiag/pkg/log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func Run(cmd *cobra.Command, args []string) {
	catalog := pid.Build()

	var transport elm.Transport
	if viper.GetBool("mock") {
		transport = mock.New()
	} else {
		transport = elm.NewSerial(viper.GetString("device"), viper.GetInt("baud"))
	}
	transport.SetTimeout(time.Duration(viper.GetInt("timeout")) * time.Millisecond)

	log.Info("initializing connection", zap.String("device", viper.GetString("device")))
	if err := transport.Connect(context.Background()); err != nil {
		log.Fatal("failed to connect to adapter", zap.Error(err))
	}

	out, err := report.Create(viper.GetString("file"))
	if err != nil {
		transport.Close()
		log.Fatal("failed to open report sink", zap.Error(err))
	}

	log.Info("gathering data", zap.Int("parameters", len(catalog.Active())))
	dispatcher := scan.NewDispatcher(catalog, transport)
	readings, sweepErr := dispatcher.Sweep(out)

	if err := out.Close(); err != nil {
		log.Error("failed to close report sink", zap.Error(err))
	}
	transport.Close()

	if path := viper.GetString("history"); path != "" {
		saveHistory(path, readings)
	}
	if broker := viper.GetString("broker"); broker != "" && sweepErr == nil {
		publishSweep(broker, viper.GetString("topic"), readings)
	}

	if sweepErr != nil {
		switch {
		case errors.Is(sweepErr, elm.ErrSend):
			log.Error("sweep aborted: request could not be sent",
				zap.Error(sweepErr), zap.Int("readings", len(readings)))
		case errors.Is(sweepErr, elm.ErrReceive):
			log.Error("sweep aborted: no response from vehicle",
				zap.Error(sweepErr), zap.Int("readings", len(readings)))
		default:
			log.Error("sweep aborted", zap.Error(sweepErr))
		}
		os.Exit(1)
	}

	log.Info("done",
		zap.String("file", viper.GetString("file")),
		zap.Int("readings", len(readings)))

	if viper.GetBool("tui") {
		if err := displayer.New().Run(catalog, readings); err != nil {
			fmt.Printf("error: %v\n", err)
		}
	}
}

func saveHistory(path string, readings []scan.Reading) {
	st, err := store.Open(path)
	if err != nil {
		log.Warn("failed to open history store", zap.Error(err))
		return
	}
	defer st.Close()
	if err := st.SaveSweep(time.Now(), readings); err != nil {
		log.Warn("failed to record sweep", zap.Error(err))
	}
}

func publishSweep(broker, topic string, readings []scan.Reading) {
	pub, err := publish.Connect(broker, topic)
	if err != nil {
		log.Warn("failed to connect to MQTT broker", zap.Error(err))
		return
	}
	defer pub.Disconnect()
	if err := pub.PublishSweep(readings); err != nil {
		log.Warn("failed to publish sweep", zap.Error(err))
	}
}
