package cmd

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/coder/serpent"

	"github.com/Emyrk/profreport/report/exporter"
)

func (r *Root) serveCmd() *serpent.Command {
	var (
		configPath string
	)
	return &serpent.Command{
		Use:   "serve",
		Short: "Periodically rebuild reports and serve them as metrics and text.",
		Options: serpent.OptionSet{
			serpent.Option{
				Name:          "config",
				Description:   "YAML config file to use.",
				Required:      false,
				Flag:          "config",
				FlagShorthand: "c",
				Default:       "config.yaml",
				Value:         serpent.StringOf(&configPath),
			},
		},
		Handler: func(i *serpent.Invocation) error {
			logger := r.Logger(i)
			ctx := i.Context()

			yamlData, err := os.ReadFile(configPath)
			if err != nil {
				logger.Error().Err(err).Str("config", configPath).Msg("read config")
				return fmt.Errorf("read config: %w", err)
			}

			var config exporter.Options
			err = yaml.Unmarshal(yamlData, &config)
			if err != nil {
				logger.Error().Err(err).Str("config", configPath).Msg("unmarshal config")
				return fmt.Errorf("unmarshal config: %w", err)
			}

			exp, err := exporter.New(config, logger.With().Str("service", "exporter").Logger())
			if err != nil {
				logger.Error().Err(err).Msg("new exporter")
				return fmt.Errorf("new exporter: %w", err)
			}

			logger.Info().
				Int("num_reports", len(config.Reports)).
				Str("listen", exp.Listen).
				Msg("serving")

			go exp.Watch(ctx)

			srv := &http.Server{
				Addr:              exp.Listen,
				Handler:           exp.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}
			go func() {
				<-ctx.Done()
				_ = srv.Close()
			}()
			err = srv.ListenAndServe()
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		},
	}
}
