// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package relay answers flight status requests on behalf of a set of oracle
// identities. It follows the event log from the start and, for every request,
// submits a status for each oracle assigned the request's index.
package relay

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/luxfi/ids"
	"github.com/luxfi/log"

	"github.com/luxfi/suretyvm/config"
	"github.com/luxfi/suretyvm/oracle"
	"github.com/luxfi/suretyvm/state"
	"github.com/luxfi/suretyvm/status"
)

var errNoOracles = errors.New("no oracles configured")

// Client is the subset of the API client the relay uses.
type Client interface {
	RegisterOracle(ctx context.Context, caller ids.ShortID, fee uint64) ([config.IndexesPerOracle]uint8, error)
	GetMyIndexes(ctx context.Context, caller ids.ShortID) ([config.IndexesPerOracle]uint8, error)
	GetEvents(ctx context.Context, from uint64, limit int) ([]*state.Event, uint64, error)
	SubmitOracleResponse(
		ctx context.Context,
		caller ids.ShortID,
		index uint8,
		airline ids.ShortID,
		code string,
		timestamp uint64,
		s status.Status,
	) (bool, error)
}

type Config struct {
	Oracles []ids.ShortID
	// Fee is paid by every oracle that is not registered yet.
	Fee          uint64
	PollInterval time.Duration
	PageSize     int
}

type Relay struct {
	config   Config
	client   Client
	reporter Reporter
	log      log.Logger

	indexes map[ids.ShortID][config.IndexesPerOracle]uint8
	// next is the sequence number of the first unread event.
	next uint64
}

func New(c Config, client Client, reporter Reporter, logger log.Logger) *Relay {
	return &Relay{
		config:   c,
		client:   client,
		reporter: reporter,
		log:      logger,
		indexes:  make(map[ids.ShortID][config.IndexesPerOracle]uint8, len(c.Oracles)),
	}
}

// Run registers the oracles and then answers requests until [ctx] is done.
func (r *Relay) Run(ctx context.Context) error {
	if err := r.Register(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(r.config.PollInterval)
	defer ticker.Stop()

	for {
		if err := r.Poll(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			r.log.Warn("failed to poll events",
				log.Uint64("next", r.next),
				log.Err(err),
			)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Register registers every configured oracle. Oracles that are already
// registered keep their indexes.
func (r *Relay) Register(ctx context.Context) error {
	if len(r.config.Oracles) == 0 {
		return errNoOracles
	}
	for _, id := range r.config.Oracles {
		indexes, err := r.client.RegisterOracle(ctx, id, r.config.Fee)
		if isAlreadyRegistered(err) {
			indexes, err = r.client.GetMyIndexes(ctx, id)
		}
		if err != nil {
			return fmt.Errorf("failed to register oracle %s: %w", id, err)
		}
		r.indexes[id] = indexes
		r.log.Info("oracle ready",
			log.Stringer("oracle", id),
			log.Reflect("indexes", indexes),
		)
	}
	return nil
}

// Poll handles every event appended since the last call.
func (r *Relay) Poll(ctx context.Context) error {
	for {
		events, next, err := r.client.GetEvents(ctx, r.next, r.config.PageSize)
		if err != nil {
			return err
		}
		for _, event := range events {
			if event.Kind == state.EventOracleRequest {
				r.respond(ctx, event)
			}
		}
		r.next = next
		if len(events) == 0 {
			return nil
		}
	}
}

func (r *Relay) respond(ctx context.Context, request *state.Event) {
	for _, id := range r.config.Oracles {
		indexes := r.indexes[id]
		if !slices.Contains(indexes[:], request.Index) {
			continue
		}
		s := r.reporter.Report(id, request)
		finalized, err := r.client.SubmitOracleResponse(
			ctx,
			id,
			request.Index,
			request.Airline,
			request.Code,
			request.Timestamp,
			s,
		)
		if err != nil {
			// Requests resolve while the relay is still answering them.
			r.log.Debug("response rejected",
				log.Stringer("oracle", id),
				log.Uint64("seq", request.Seq),
				log.Err(err),
			)
			continue
		}
		r.log.Info("submitted response",
			log.Stringer("oracle", id),
			log.Int("index", int(request.Index)),
			log.String("code", request.Code),
			log.Stringer("status", s),
			log.Bool("finalized", finalized),
		)
	}
}

// isAlreadyRegistered matches the registration error both in process and
// after it has been flattened to a message by the API.
func isAlreadyRegistered(err error) bool {
	return err != nil && (errors.Is(err, oracle.ErrOracleAlreadyRegistered) ||
		strings.Contains(err.Error(), oracle.ErrOracleAlreadyRegistered.Error()))
}
