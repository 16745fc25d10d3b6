package mazeapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/beka-birhanu/vinom-mazegen/maze"
	"github.com/beka-birhanu/vinom-mazegen/service/i"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	channerics "github.com/niceyeti/channerics/channels"
	"golang.org/x/sync/errgroup"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = time.Second
	// Time the peer has to answer our close frame.
	closeGracePeriod = 5 * time.Second
)

var (
	errClientGone     = errors.New("stream client disconnected")
	errStreamComplete = errors.New("generation complete")
)

var upgrader = websocket.Upgrader{}

// stream drives a generation over a websocket, one step per interval, until it completes.
func (mc *MazeController) stream(ctx *gin.Context) {
	id, ok := sessionID(ctx)
	if !ok {
		return
	}

	// Fail with a plain HTTP status before upgrading when the session is unknown.
	if _, err := mc.sessions.Snapshot(id); err != nil {
		ctx.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	ws, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		mc.logger.Warning(fmt.Sprintf("upgrading stream of generation %s: %s", id, err))
		return
	}
	defer ws.Close()

	s := &stepStream{
		ws:       ws,
		sessions: mc.sessions,
		id:       id,
		interval: mc.stepInterval,
	}

	mc.logger.Info(fmt.Sprintf("streaming generation %s every %s", id, mc.stepInterval))
	if err := s.run(ctx.Request.Context()); err != nil {
		mc.logger.Error(fmt.Sprintf("stream of generation %s failed: %s", id, err))
		_ = ws.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "generation failed"),
			time.Now().Add(writeWait))
		return
	}
	mc.logger.Info(fmt.Sprintf("stream of generation %s finished", id))
}

// stepStream publishes a session's steps to a single websocket client.
// It writes from one goroutine and reads from another, as the websocket requires.
type stepStream struct {
	ws       *websocket.Conn
	sessions i.GenerationSessionManager
	id       uuid.UUID
	interval time.Duration
	finished atomic.Bool
}

// run returns nil when the generation completes or the client leaves.
func (s *stepStream) run(ctx context.Context) error {
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(s.readMessages)
	group.Go(func() error {
		return s.publish(groupCtx)
	})

	err := group.Wait()
	if errors.Is(err, errClientGone) || errors.Is(err, errStreamComplete) {
		return nil
	}
	return err
}

// readMessages discards client messages; it exists to process control frames and
// to notice the client leaving.
func (s *stepStream) readMessages() error {
	for {
		if _, _, err := s.ws.ReadMessage(); err != nil {
			if isClosure(err) || s.finished.Load() {
				return errClientGone
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				return errClientGone
			}
			return err
		}
	}
}

func (s *stepStream) publish(ctx context.Context) error {
	// Unblock the reader once nothing more will be published.
	defer func() {
		_ = s.ws.SetReadDeadline(time.Now().Add(closeGracePeriod))
	}()

	snap, err := s.sessions.Snapshot(s.id)
	if err != nil {
		return err
	}
	if err := s.write(&StreamMessage{Type: MessageSnapshot, Maze: &snap}); err != nil {
		return err
	}
	if snap.State == maze.Done {
		return s.finish()
	}

	ticker := channerics.NewTicker(ctx.Done(), s.interval)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker:
			res, err := s.sessions.Step(s.id)
			if err != nil {
				return err
			}
			if err := s.write(&StreamMessage{Type: MessageStep, Step: &res}); err != nil {
				return err
			}
			if !res.Done {
				continue
			}

			snap, err := s.sessions.Snapshot(s.id)
			if err != nil {
				return err
			}
			if err := s.write(&StreamMessage{Type: MessageSnapshot, Maze: &snap}); err != nil {
				return err
			}
			return s.finish()
		}
	}
}

func (s *stepStream) write(msg *StreamMessage) error {
	if err := s.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return fmt.Errorf("failed to set deadline: %w", err)
	}
	if err := s.ws.WriteJSON(msg); err != nil {
		if isClosure(err) {
			return errClientGone
		}
		return fmt.Errorf("publish failed: %w", err)
	}
	return nil
}

// finish sends a normal close frame; the client's reply ends readMessages.
func (s *stepStream) finish() error {
	s.finished.Store(true)
	_ = s.ws.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "generation complete"),
		time.Now().Add(writeWait))
	return errStreamComplete
}

func isClosure(err error) bool {
	return err != nil && websocket.IsCloseError(
		err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway)
}
