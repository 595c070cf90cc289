package pyroscope

import (
	"bytes"
	"fmt"
	"time"

	"github.com/google/pprof/profile"
	"github.com/grafana/pyroscope-go/upstream"
	"github.com/grafana/pyroscope-go/upstream/remote"
	"github.com/rs/zerolog"
)

var _ remote.Logger = (*zerologWrapper)(nil)

type zerologWrapper struct {
	logger zerolog.Logger
}

func (z zerologWrapper) Infof(f string, args ...interface{})  { z.logger.Info().Msgf(f, args...) }
func (z zerologWrapper) Debugf(f string, args ...interface{}) { z.logger.Debug().Msgf(f, args...) }
func (z zerologWrapper) Errorf(f string, args ...interface{}) { z.logger.Error().Msgf(f, args...) }

type Options struct {
	Address           string
	AuthToken         string
	BasicAuthUser     string
	BasicAuthPassword string
	TenantID          string
	Timeout           time.Duration
}

// Pusher uploads report profiles to a Pyroscope server.
type Pusher struct {
	Address string
	Remote  *remote.Remote
	Logger  zerolog.Logger
}

func NewPusher(opts Options, logger zerolog.Logger) (*Pusher, error) {
	if opts.Address == "" {
		return nil, fmt.Errorf("missing pyroscope server address")
	}
	if opts.Timeout == 0 {
		opts.Timeout = time.Second * 20
	}

	rmt, err := remote.NewRemote(remote.Config{
		AuthToken:         opts.AuthToken,
		BasicAuthUser:     opts.BasicAuthUser,
		BasicAuthPassword: opts.BasicAuthPassword,
		TenantID:          opts.TenantID,
		HTTPHeaders:       nil,
		Threads:           1,
		Address:           opts.Address,
		Timeout:           opts.Timeout,
		Logger:            &zerologWrapper{logger: logger},
	})
	if err != nil {
		return nil, fmt.Errorf("new remote: %w", err)
	}

	// Start only spawns the upload workers.
	rmt.Start()
	return &Pusher{
		Address: opts.Address,
		Remote:  rmt,
		Logger:  logger,
	}, nil
}

// Stop waits for every queued upload to finish, then stops the remote.
func (p *Pusher) Stop() {
	p.Remote.Flush()
	p.Remote.Stop()
}

func (p *Pusher) Push(name string, pb *profile.Profile) error {
	job, err := Job(name, pb)
	if err != nil {
		return err
	}
	p.Remote.Upload(job)
	p.Logger.Debug().
		Str("name", name).
		Int("samples", len(pb.Sample)).
		Time("start", job.StartTime).
		Time("end", job.EndTime).
		Msg("queued profile upload")
	return nil
}

// Job builds the upload for a report profile. The profile holds every call of
// the run, so values are neither sampled nor cumulative.
func Job(name string, pb *profile.Profile) (*upstream.UploadJob, error) {
	var buf bytes.Buffer
	err := pb.Write(&buf)
	if err != nil {
		return nil, fmt.Errorf("write proto: %w", err)
	}

	start := time.Unix(0, pb.TimeNanos)
	end := start.Add(time.Duration(pb.DurationNanos))

	return &upstream.UploadJob{
		Name:            name,
		StartTime:       start,
		EndTime:         end,
		SpyName:         "profreport",
		Units:           "nanoseconds",
		AggregationType: "sum",
		Format:          upstream.FormatPprof,
		Profile:         buf.Bytes(),
		SampleTypeConfig: map[string]*upstream.SampleType{
			"cpu": {
				Units:       "nanoseconds",
				Aggregation: "sum",
				DisplayName: "cpu",
				Sampled:     false,
				Cumulative:  false,
			},
			"calls": {
				Units:       "count",
				Aggregation: "sum",
				DisplayName: "calls",
				Sampled:     false,
				Cumulative:  false,
			},
		},
	}, nil
}
