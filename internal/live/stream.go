package live

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"etech-backend/internal/auth"
	"etech-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// HeartbeatInterval is how often an idle stream sends a comment line.
var HeartbeatInterval = 25 * time.Second

// View turns a snapshot plus the stream's query filters into the payload sent
// to the client.
type View[T any] func(snapshot []T, query map[string]string) any

type frameStream struct {
	initial []byte
	frames  <-chan []byte
	close   func()
}

// Source describes one streamable collection.
type Source struct {
	AdminOnly bool
	open      func(ctx context.Context, feed Feed, query map[string]string, log *zap.Logger) (*frameStream, error)
}

func NewSource[T any](coll Collection, load Loader[T], view View[T], adminOnly bool) Source {
	return Source{
		AdminOnly: adminOnly,
		open: func(ctx context.Context, feed Feed, query map[string]string, log *zap.Logger) (*frameStream, error) {
			ctx, cancel := context.WithCancel(ctx)
			p, err := Open(ctx, feed, coll, load, log)
			if err != nil {
				cancel()
				return nil, err
			}

			encode := func(snap []T) []byte {
				b, err := json.Marshal(view(snap, query))
				if err != nil {
					log.Error("live encode failed", zap.String("collection", string(coll)), zap.Error(err))
					return nil
				}
				return b
			}

			frames := make(chan []byte, 1)
			go func() {
				defer close(frames)
				for snap := range p.Updates() {
					b := encode(snap)
					if b == nil {
						continue
					}
					select {
					case frames <- b:
					case <-ctx.Done():
						return
					}
				}
			}()

			return &frameStream{
				initial: encode(p.Snapshot()),
				frames:  frames,
				close: func() {
					cancel()
					p.Close()
				},
			}, nil
		},
	}
}

// GET /api/live/:collection
// Server-Sent Events: a "snapshot" event on open and after every change.
// Streams end when ctx, the server's lifetime, is done.
func StreamHandler(ctx context.Context, feed Feed, sources map[Collection]Source, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		coll := Collection(c.Params("collection"))
		src, ok := sources[coll]
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "unknown collection")
		}
		if src.AdminOnly {
			if err := auth.SessionFrom(c).Guard(models.RoleAdmin); err != nil {
				return err
			}
		}

		// fiber reuses its buffers once the handler returns
		query := make(map[string]string)
		for k, v := range c.Queries() {
			if k != "access_token" {
				query[strings.Clone(k)] = strings.Clone(v)
			}
		}

		fs, err := src.open(ctx, feed, query, log)
		if err != nil {
			log.Error("live open failed", zap.String("collection", string(coll)), zap.Error(err))
			return fiber.NewError(fiber.StatusInternalServerError, "could not load collection")
		}

		c.Set(fiber.HeaderContentType, "text/event-stream")
		c.Set(fiber.HeaderCacheControl, "no-cache")
		c.Set(fiber.HeaderConnection, "keep-alive")
		c.Set("X-Accel-Buffering", "no")

		c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
			defer fs.close()

			if err := writeEvent(w, "snapshot", fs.initial); err != nil {
				return
			}
			ticker := time.NewTicker(HeartbeatInterval)
			defer ticker.Stop()
			for {
				select {
				case frame, ok := <-fs.frames:
					if !ok {
						return
					}
					if err := writeEvent(w, "snapshot", frame); err != nil {
						return
					}
				case <-ticker.C:
					if _, err := w.WriteString(": ping\n\n"); err != nil {
						return
					}
					if err := w.Flush(); err != nil {
						return
					}
				}
			}
		}))
		return nil
	}
}

// writeEvent writes one SSE event and flushes. A flush error means the client is gone.
func writeEvent(w *bufio.Writer, event string, data []byte) error {
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	return w.Flush()
}
