// SPDX-License-Identifier: MIT
//
// Copyright © 2024 Kent Gibson <warthog618@gmail.com>.

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/warthog618/bg770a/at"
	"github.com/warthog618/bg770a/internal/server"
	"github.com/warthog618/bg770a/metrics"
	"github.com/warthog618/bg770a/network"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the modem status and metrics over HTTP",
	Long: `Serves the modem status as JSON on /status and Prometheus metrics on
/metrics, polling the modem signal quality and registration periodically.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		addr, _ := f.GetString("addr")
		if !f.Changed("addr") && cfg.MetricsAddr != "" {
			addr = cfg.MetricsAddr
		}
		interval, _ := f.GetDuration("interval")
		doAttach, _ := f.GetBool("attach")

		c := metrics.New("bg770a")
		reg := prometheus.NewRegistry()
		reg.MustRegister(c)
		d, err := openDevice(c)
		if err != nil {
			return err
		}
		defer d.Close()
		if doAttach {
			n, err := attach(d, 3*time.Minute)
			if err != nil {
				return err
			}
			defer n.Close()
		}
		p := &poller{d: d, c: c}

		srv := &http.Server{
			Addr:              addr,
			Handler:           server.NewHandler(p.status, reg, logger),
			ReadHeaderTimeout: 5 * time.Second,
		}
		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("serving", "addr", srv.Addr, "port", cfg.Port)
			serverErrors <- srv.ListenAndServe()
		}()
		done := make(chan struct{})
		go p.run(interval, done)
		defer close(done)

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
		select {
		case err := <-serverErrors:
			return errors.Wrap(err, "serve")
		case sig := <-shutdown:
			logger.Info("shutting down", "signal", sig)
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				logger.Warn("graceful shutdown incomplete", "err", err)
				return srv.Close()
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", ":2112", "address to listen on")
	serveCmd.Flags().DurationP("interval", "i", 30*time.Second, "signal quality polling interval")
	serveCmd.Flags().Bool("attach", false, "bring up the network before serving")
}

// poller serialises access to the device between the HTTP handlers and the
// background polling.
type poller struct {
	mu sync.Mutex
	d  *device
	c  *metrics.Collector
}

// run samples the modem state every interval, and dispatches URCs as they
// arrive, until done is closed.
func (p *poller) run(interval time.Duration, done <-chan struct{}) {
	t := time.NewTicker(interval)
	defer t.Stop()
	p.sample()
	for {
		select {
		case <-done:
			return
		case <-p.d.uart.Received():
			p.mu.Lock()
			for p.d.uart.Buffered() > 0 {
				p.d.DoWork(10 * time.Millisecond)
			}
			p.mu.Unlock()
		case <-t.C:
			p.sample()
		}
	}
}

func (p *poller) sample() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if rssi, _, r := p.d.SignalQuality(); r == at.Ok {
		p.c.SetSignalQuality(rssi)
	}
	if stat, r := p.d.EpsNetworkRegistrationState(); r == at.Ok {
		p.c.SetRegistered(network.StateOf(stat) == network.Connected)
	}
}

func (p *poller) status() (server.Status, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := server.Status{Power: p.d.State().String()}
	stat, r := p.d.EpsNetworkRegistrationState()
	if err := p.d.check(r, "registration"); err != nil {
		return s, err
	}
	s.Registration = network.StateOf(stat).String()
	rssi, ber, r := p.d.SignalQuality()
	if err := p.d.check(r, "signal quality"); err != nil {
		return s, err
	}
	s.RSSI, s.BER = rssi, ber
	if op, r := p.d.Operator(); r == at.Ok {
		s.Operator = op.Name
	}
	if imei, r := p.d.IMEI(); r == at.Ok {
		s.IMEI = imei
	}
	return s, nil
}
