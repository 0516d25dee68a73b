// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package node

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/ava-labs/counterflood/api/control"
	"github.com/ava-labs/counterflood/api/deliveries"
	"github.com/ava-labs/counterflood/api/health"
	"github.com/ava-labs/counterflood/api/server"
	"github.com/ava-labs/counterflood/flood"
	"github.com/ava-labs/counterflood/network"
	"github.com/ava-labs/counterflood/utils/logging"
	"github.com/ava-labs/counterflood/utils/sampler"
	"github.com/ava-labs/counterflood/utils/timer"
	"github.com/ava-labs/counterflood/utils/wrappers"
)

var (
	_ flood.Outputs = (*outputs)(nil)

	errReceiveLoopExited = errors.New("receive loop exited")
	errNotDispatching    = errors.New("node isn't dispatching")
)

// Node runs a flood controller on a link.
type Node struct {
	Log    logging.Logger
	Config Config

	// lock serializes every call into the controller, including the timer
	// callbacks fired by the dispatcher.
	lock       sync.Mutex
	controller *flood.Controller
	dispatcher *timer.Dispatcher

	registry *prometheus.Registry
	health   health.Health

	link     network.Link
	hostLink network.Link
	hostSink *network.HostSink
	limiter  *rate.Limiter
	hub      *deliveries.Hub

	apiServer *server.Server

	dispatching   atomic.Bool
	linkReceiving atomic.Bool
	throttled     atomic.Uint64

	shutdownOnce sync.Once
}

// New opens the configured UDP sockets and returns a node ready to
// Dispatch.
func New(config Config, log logging.Logger) (*Node, error) {
	if err := config.Verify(); err != nil {
		return nil, err
	}

	link, err := network.NewUDPLink(log, config.Link.ListenAddress, config.Link.Neighbors)
	if err != nil {
		return nil, fmt.Errorf("problem initializing link: %w", err)
	}
	log.Info("link initialized",
		zap.Stringer("address", link.LocalAddr()),
		zap.Strings("neighbors", config.Link.Neighbors),
	)

	var hostLink network.Link
	if config.Host.Enabled() {
		listen := config.Host.ListenAddress
		if listen == "" {
			// Only deliveries were requested, any local port will do.
			listen = "127.0.0.1:0"
		}
		var neighbors []string
		if config.Host.DeliverAddress != "" {
			neighbors = []string{config.Host.DeliverAddress}
		}
		udpHostLink, err := network.NewUDPLink(log, listen, neighbors)
		if err != nil {
			_ = link.Close()
			return nil, fmt.Errorf("problem initializing host link: %w", err)
		}
		log.Info("host link initialized",
			zap.Stringer("address", udpHostLink.LocalAddr()),
			zap.String("deliverAddress", config.Host.DeliverAddress),
		)
		hostLink = udpHostLink
	}

	n, err := newNode(config, log, link, hostLink)
	if err != nil {
		_ = link.Close()
		if hostLink != nil {
			_ = hostLink.Close()
		}
		return nil, err
	}
	return n, nil
}

// newNode wires a node around already opened links. [hostLink] may be nil.
func newNode(config Config, log logging.Logger, link, hostLink network.Link) (*Node, error) {
	n := &Node{
		Log:      log,
		Config:   config,
		registry: prometheus.NewRegistry(),
		link:     link,
		hostLink: hostLink,
	}
	n.dispatcher = timer.NewDispatcher(&n.lock)

	if err := n.initMetrics(); err != nil {
		return nil, fmt.Errorf("problem initializing metrics: %w", err)
	}
	n.initHost()
	if err := n.initController(); err != nil {
		return nil, fmt.Errorf("problem initializing flood controller: %w", err)
	}
	if err := n.initHealth(); err != nil {
		return nil, fmt.Errorf("problem initializing health checks: %w", err)
	}
	if err := n.initAPIServer(); err != nil {
		return nil, fmt.Errorf("problem initializing API server: %w", err)
	}
	return n, nil
}

func (n *Node) initMetrics() error {
	errs := wrappers.Errs{}
	errs.Add(
		n.registry.Register(collectors.NewGoCollector()),
		n.registry.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})),
	)
	if errs.Errored() {
		return errs.Err
	}

	var err error
	n.link, err = network.NewMeteredLink(n.link, "counterflood_link", n.registry)
	if err != nil {
		return err
	}
	if n.hostLink != nil {
		n.hostLink, err = network.NewMeteredLink(n.hostLink, "counterflood_host_link", n.registry)
	}
	return err
}

// initHost sets up output B: the host link, if any, and the websocket hub.
func (n *Node) initHost() {
	n.hub = deliveries.NewHub(n.Log)
	n.hostSink = network.NewHostSink(n.Log, n.hostLink)
	n.hostSink.Subscribe(n.hub)

	limit := rate.Inf
	if n.Config.Host.Rate > 0 {
		limit = rate.Limit(n.Config.Host.Rate)
	}
	n.limiter = rate.NewLimiter(limit, n.Config.Host.Burst)
}

func (n *Node) initController() error {
	source := sampler.NewTimeSource()
	if n.Config.RandomSeed != 0 {
		source = sampler.NewSource(n.Config.RandomSeed)
	}

	controller, err := flood.New(
		n.Config.Flood,
		n.Log,
		n.dispatcher,
		source,
		&outputs{
			log:  n.Log,
			link: n.link,
			host: n.hostSink,
		},
		n.registry,
	)
	if err != nil {
		return err
	}
	n.controller = controller
	n.Log.Info("flood controller initialized",
		zap.Stringer("ip", n.Config.Flood.IP),
		zap.Stringer("broadcastIP", n.Config.Flood.BroadcastIP),
		zap.Stringer("eth", n.Config.Flood.MAC),
		zap.Uint32("count", n.Config.Flood.Count),
		zap.Duration("maxDelay", n.Config.Flood.MaxDelay),
		zap.Int("history", n.Config.Flood.History),
	)
	return nil
}

func (n *Node) initHealth() error {
	h, err := health.New(n.Log, n.registry)
	if err != nil {
		return err
	}
	n.health = h

	errs := wrappers.Errs{}
	errs.Add(
		h.RegisterReadinessCheck("dispatching", health.CheckerFunc(func() (interface{}, error) {
			if !n.dispatching.Load() {
				return nil, errNotDispatching
			}
			return nil, nil
		})),
		h.RegisterHealthCheck("flood", health.CheckerFunc(func() (interface{}, error) {
			n.lock.Lock()
			defer n.lock.Unlock()

			return map[string]interface{}{
				"stats":     n.controller.Stats(),
				"count":     n.controller.Threshold(),
				"delivered": n.hostSink.Delivered(),
				"throttled": n.throttled.Load(),
				"pending":   n.dispatcher.Len(),
				"history":   n.controller.HistoryLen(),
			}, nil
		})),
		h.RegisterLivenessCheck("link", health.CheckerFunc(func() (interface{}, error) {
			if n.dispatching.Load() && !n.linkReceiving.Load() {
				return nil, errReceiveLoopExited
			}
			return nil, nil
		})),
	)
	return errs.Err
}

// initAPIServer registers the HTTP endpoints. The server only accepts
// connections once Dispatch is called.
func (n *Node) initAPIServer() error {
	if !n.Config.HTTP.Enabled {
		n.Log.Info("skipping API server initialization because it has been disabled")
		return nil
	}

	n.Log.Info("initializing API server")
	apiServer, err := server.New(n.Log, n.Config.HTTP.Config)
	if err != nil {
		return err
	}
	n.apiServer = apiServer

	controlHandler, err := control.NewService(n.Log, &n.lock, n.controller)
	if err != nil {
		return err
	}
	healthHandler, err := health.NewService(n.Log, n.health)
	if err != nil {
		return err
	}
	metricsHandler := promhttp.HandlerFor(n.registry, promhttp.HandlerOpts{})

	errs := wrappers.Errs{}
	errs.Add(
		apiServer.AddRoute(controlHandler, control.ServiceName, ""),
		apiServer.AddRoute(healthHandler, "health", ""),
		apiServer.AddRoute(metricsHandler, "metrics", ""),
		apiServer.AddRoute(n.hub, "deliveries", ""),
	)
	return errs.Err
}

// Dispatch runs the node until [ctx] is cancelled or a component fails.
// The node is shut down before Dispatch returns.
func (n *Node) Dispatch(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	n.health.Start(n.Config.HealthCheckFreq)
	n.linkReceiving.Store(true)
	n.dispatching.Store(true)

	g.Go(func() error {
		n.dispatcher.Dispatch()
		return nil
	})
	g.Go(func() error {
		defer n.linkReceiving.Store(false)
		return n.receiveFrames(ctx)
	})
	if n.hostLink != nil {
		g.Go(func() error {
			return n.receivePayloads(ctx)
		})
	}
	if n.apiServer != nil {
		n.Log.Info("API server listening",
			zap.Stringer("address", n.apiServer.Addr()),
		)
		g.Go(n.apiServer.Dispatch)
	}
	g.Go(func() error {
		<-ctx.Done()
		n.Shutdown()
		return nil
	})

	err := g.Wait()
	n.dispatching.Store(false)
	return err
}

// receiveFrames pushes every frame heard on the link into the controller.
func (n *Node) receiveFrames(ctx context.Context) error {
	for {
		frame, err := n.link.Receive(ctx)
		switch {
		case errors.Is(err, network.ErrClosed), ctx.Err() != nil:
			return nil
		case err != nil:
			n.Log.Debug("failed to read frame",
				zap.Error(err),
			)
			continue
		}

		n.lock.Lock()
		n.controller.Push(flood.NetworkPort, frame)
		n.lock.Unlock()
	}
}

// receivePayloads originates a broadcast for every payload the upper layer
// sends, dropping those that exceed the host rate.
func (n *Node) receivePayloads(ctx context.Context) error {
	for {
		payload, err := n.hostLink.Receive(ctx)
		switch {
		case errors.Is(err, network.ErrClosed), ctx.Err() != nil:
			return nil
		case err != nil:
			n.Log.Debug("failed to read payload",
				zap.Error(err),
			)
			continue
		}

		if !n.limiter.Allow() {
			n.throttled.Add(1)
			n.Log.Verbo("dropping throttled payload",
				zap.Int("length", len(payload)),
			)
			continue
		}

		n.lock.Lock()
		n.controller.Push(flood.HostPort, payload)
		n.lock.Unlock()
	}
}

// Originate floods [payload] as if it was sent by the upper layer. The host
// rate limit isn't applied.
func (n *Node) Originate(payload []byte) {
	n.lock.Lock()
	defer n.lock.Unlock()

	n.controller.Push(flood.HostPort, payload)
}

// Stats returns the controller's counters.
func (n *Node) Stats() flood.Stats {
	n.lock.Lock()
	defer n.lock.Unlock()

	return n.controller.Stats()
}

// Shutdown cancels every pending retransmission and releases the node's
// sockets. It is safe to call multiple times.
func (n *Node) Shutdown() {
	n.shutdownOnce.Do(func() {
		n.Log.Info("shutting down the node")

		n.lock.Lock()
		n.controller.Close()
		n.lock.Unlock()

		n.dispatcher.Stop()
		n.health.Stop()
		n.hub.Close()

		if n.apiServer != nil {
			if err := n.apiServer.Shutdown(); err != nil {
				n.Log.Debug("error during API shutdown",
					zap.Error(err),
				)
			}
		}
		if err := n.link.Close(); err != nil {
			n.Log.Debug("error closing link",
				zap.Error(err),
			)
		}
		if n.hostLink != nil {
			if err := n.hostLink.Close(); err != nil {
				n.Log.Debug("error closing host link",
					zap.Error(err),
				)
			}
		}
		n.Log.Info("finished node shutdown")
	})
}

// outputs connects the controller to the links. It is called with the
// node's lock held.
type outputs struct {
	log  logging.Logger
	link network.Link
	host *network.HostSink
}

func (o *outputs) SendToNetwork(frame []byte) {
	if err := o.link.Send(frame); err != nil {
		o.log.Warn("failed to send frame",
			zap.Int("length", len(frame)),
			zap.Error(err),
		)
	}
}

func (o *outputs) DeliverToHost(payload []byte) {
	o.host.Deliver(payload)
}
