package dockdb

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dockdb/dockdb/dbcontainer"
)

// StartContainerFunc starts a container and returns it ready for use.
type StartContainerFunc func(ctx context.Context) (*dbcontainer.Container, error)

type shareCommand uint8

const (
	shareEnter shareCommand = iota
	shareExit
)

type shareRequest struct {
	cmd shareCommand
	ctx context.Context
}

type shareResponse struct {
	cnt *dbcontainer.Container
	err error
}

// Share hands one started container to any number of concurrent users.
// The first Enter starts it, later Enters reuse it, and after the last
// Exit it keeps lingering for a grace period so back-to-back test
// packages do not pay the startup cost again. Once the linger elapses
// with no users, the container is stopped with its configured stop mode.
type Share struct {
	users  int
	cnt    *dbcontainer.Container
	linger time.Duration

	mainCtx context.Context
	termCtx context.Context

	reqCh  chan shareRequest
	respCh chan shareResponse

	start StartContainerFunc
	log   *slog.Logger
}

// RunShare starts the share loop. Cancelling ctx stops the shared
// container regardless of remaining users.
func RunShare(ctx context.Context, linger time.Duration, start StartContainerFunc) *Share {
	termCtx, cancel := context.WithCancel(context.Background())

	share := &Share{
		linger:  linger,
		mainCtx: ctx,
		termCtx: termCtx,
		reqCh:   make(chan shareRequest),
		respCh:  make(chan shareResponse),
		start:   start,
		log:     slog.Default(),
	}

	go func() {
		defer cancel()

		share.run(ctx)
	}()

	return share
}

// Enter joins the share, starting the container if nobody holds it yet.
func (s *Share) Enter(ctx context.Context) (*dbcontainer.Container, error) {
	select {
	case <-s.mainCtx.Done():
		return nil, fmt.Errorf("share is closed, %w", context.Cause(s.mainCtx))
	case s.reqCh <- shareRequest{cmd: shareEnter, ctx: ctx}:
		resp := <-s.respCh

		return resp.cnt, resp.err
	}
}

// Exit leaves the share. The container stops after the linger duration
// when no user re-enters in the meantime.
func (s *Share) Exit() {
	select {
	case <-s.mainCtx.Done():
		<-s.termCtx.Done()
	case s.reqCh <- shareRequest{cmd: shareExit, ctx: context.Background()}:
		<-s.respCh
	}
}

func (s *Share) run(ctx context.Context) {
	var lingerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			s.stopContainer()

			return
		case req := <-s.reqCh:
			switch req.cmd {
			case shareEnter:
				lingerC = nil

				s.handleEnter(req.ctx)
			case shareExit:
				s.users--

				if s.users < 0 {
					panic("share Exit called more often than Enter")
				}

				if s.users == 0 {
					lingerC = time.After(s.linger)
				}

				s.respCh <- shareResponse{}
			}
		case <-lingerC:
			lingerC = nil

			if s.users == 0 {
				s.stopContainer()
			}
		}
	}
}

func (s *Share) handleEnter(ctx context.Context) {
	if s.cnt == nil {
		cnt, err := s.start(ctx)
		if err != nil {
			s.respCh <- shareResponse{
				err: fmt.Errorf("start shared container, %w", err),
			}

			return
		}

		s.cnt = cnt
	}

	s.users++
	s.respCh <- shareResponse{cnt: s.cnt}
}

func (s *Share) stopContainer() {
	if s.cnt == nil {
		return
	}

	err := s.cnt.StopConfigured(context.Background())
	if err != nil {
		s.log.Error("stop shared container", "error", err)
	}

	s.cnt = nil
}
