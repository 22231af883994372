// Package client is the protocol client: it submits commands to the engine
// and runs the perpetual receive loop that reconciles pushed events into
// the shared chat state.
package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dmaia/echochat/internal/bus"
	"github.com/dmaia/echochat/internal/call"
	"github.com/dmaia/echochat/internal/chat"
	"github.com/dmaia/echochat/internal/config"
	"github.com/dmaia/echochat/internal/engine"
	"github.com/dmaia/echochat/internal/notify"
	"github.com/dmaia/echochat/internal/prefs"
)

// Controller owns the engine channel. Command submission is serialized so
// command/reply pairs can never interleave on the wire; event processing
// runs on a single receive goroutine, which makes the dispatcher the sole
// writer of chat state.
type Controller struct {
	engine engine.Engine
	model  *chat.Model
	calls  *call.Machine
	ntf    *notify.Manager
	prefs  *prefs.Store
	cfg    *config.Config
	bus    *bus.Bus
	log    *zap.Logger

	sendMu sync.Mutex

	startMu sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
}

func New(
	eng engine.Engine,
	model *chat.Model,
	calls *call.Machine,
	ntf *notify.Manager,
	store *prefs.Store,
	cfg *config.Config,
	b *bus.Bus,
	log *zap.Logger,
) *Controller {
	return &Controller{
		engine: eng,
		model:  model,
		calls:  calls,
		ntf:    ntf,
		prefs:  store,
		cfg:    cfg,
		bus:    b,
		log:    log,
	}
}

// SendCmd submits one command and returns its correlated reply. Protocol
// failures come back as error-kind responses, not Go errors; the returned
// error means the channel itself failed.
func (c *Controller) SendCmd(ctx context.Context, cmd chat.Command) (chat.Response, error) {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	corrID := uuid.New().String()
	c.log.Debug("sending command",
		zap.String("corrId", corrID),
		zap.String("type", cmd.CmdType()),
		zap.String("cmd", chat.Obfuscated(cmd).CmdString()))

	data, err := c.engine.SendCmd(ctx, corrID, cmd.CmdString())
	if err != nil {
		return chat.Response{}, fmt.Errorf("submitting %s: %w", cmd.CmdType(), err)
	}

	resp, respCorr := chat.DecodeResponse(data)
	if respCorr != "" && respCorr != corrID {
		c.log.Warn("correlation mismatch on reply",
			zap.String("sent", corrID), zap.String("got", respCorr))
	}
	if resp.IsError() {
		c.log.Info("command failed",
			zap.String("type", cmd.CmdType()), zap.String("resp", resp.String()))
	} else {
		c.log.Debug("command reply", zap.String("resp", resp.String()))
	}
	return resp, nil
}

// StartReceiver arms the receive loop. Calling it while the loop runs is a
// no-op, so a restart after engine failure launches exactly one loop.
func (c *Controller) StartReceiver() {
	c.startMu.Lock()
	defer c.startMu.Unlock()
	if c.started {
		return
	}
	c.started = true

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.done = make(chan struct{})
	go c.receiveLoop(ctx, c.done)
	c.log.Info("receiver started")
}

// Stop cancels the receive loop and waits for it to drain.
func (c *Controller) Stop() {
	c.startMu.Lock()
	cancel, done := c.cancel, c.done
	c.startMu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (c *Controller) receiveLoop(ctx context.Context, done chan struct{}) {
	defer func() {
		c.startMu.Lock()
		c.started = false
		c.startMu.Unlock()
		close(done)
		c.bus.Publish(bus.Event{Kind: bus.KindEngineStopped, Timestamp: time.Now()})
	}()

	wait := time.Duration(c.cfg.PollWaitMs) * time.Millisecond
	for {
		data, err := c.engine.RecvMsgWait(ctx, wait)
		switch {
		case errors.Is(err, engine.ErrClosed):
			c.log.Info("engine gone, receiver stopping")
			return
		case errors.Is(err, context.Canceled):
			c.log.Info("receiver stopping")
			return
		case err != nil:
			c.log.Error("event poll failed", zap.Error(err))
			return
		case data == nil:
			// poll timeout, retry
			continue
		}

		resp, _ := chat.DecodeResponse(data)
		c.processReceivedMsg(resp)
	}
}
