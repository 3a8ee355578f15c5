package live

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"etech-backend/internal/auth"
	"etech-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func TestHub_CoalescesSignals(t *testing.T) {
	h := NewHub()
	sub := h.Subscribe(Sales)
	defer sub.Close()

	for i := 0; i < 5; i++ {
		h.Notify(context.Background(), Sales)
	}
	h.Notify(context.Background(), Inventory)

	select {
	case <-sub.C:
	default:
		t.Fatal("expected one pending signal")
	}
	select {
	case <-sub.C:
		t.Fatal("signals were not coalesced")
	default:
	}
}

func TestHub_CloseUnsubscribes(t *testing.T) {
	h := NewHub()
	a := h.Subscribe(Users)
	b := h.Subscribe(Users)
	if got := h.Subscribers(Users); got != 2 {
		t.Fatalf("Subscribers = %d, want 2", got)
	}
	a.Close()
	a.Close()
	if got := h.Subscribers(Users); got != 1 {
		t.Errorf("Subscribers after close = %d, want 1", got)
	}
	b.Close()
	if got := h.Subscribers(Users); got != 0 {
		t.Errorf("Subscribers = %d, want 0", got)
	}
}

func waitSnapshot[T any](t *testing.T, ch <-chan []T) []T {
	t.Helper()
	select {
	case s, ok := <-ch:
		if !ok {
			t.Fatal("updates closed")
		}
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
	}
	return nil
}

func TestProjection_ReloadsOnChange(t *testing.T) {
	h := NewHub()
	var version atomic.Int32
	load := func(ctx context.Context) ([]int, error) {
		n := int(version.Load())
		out := make([]int, n)
		for i := range out {
			out[i] = i
		}
		return out, nil
	}

	version.Store(1)
	p, err := Open[int](context.Background(), h, Inventory, load, zap.NewNop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer p.Close()

	if got := len(p.Snapshot()); got != 1 {
		t.Fatalf("initial snapshot len = %d, want 1", got)
	}

	version.Store(3)
	h.Notify(context.Background(), Inventory)
	if got := len(waitSnapshot(t, p.Updates())); got != 3 {
		t.Errorf("snapshot len = %d, want 3", got)
	}
	if got := len(p.Snapshot()); got != 3 {
		t.Errorf("Snapshot() len = %d, want 3", got)
	}
}

func TestProjection_CloseReleasesSubscription(t *testing.T) {
	h := NewHub()
	p, err := Open[string](context.Background(), h, PendingBills, func(context.Context) ([]string, error) {
		return []string{"a"}, nil
	}, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if got := h.Subscribers(PendingBills); got != 1 {
		t.Fatalf("Subscribers = %d, want 1", got)
	}
	p.Close()
	p.Close()
	if got := h.Subscribers(PendingBills); got != 0 {
		t.Errorf("Subscribers after Close = %d, want 0", got)
	}
	select {
	case _, ok := <-p.Updates():
		if ok {
			t.Error("unexpected snapshot after Close")
		}
	case <-time.After(2 * time.Second):
		t.Error("updates not closed after Close")
	}
}

func TestProjection_OpenFailsWithoutLeak(t *testing.T) {
	h := NewHub()
	_, err := Open[int](context.Background(), h, Sales, func(context.Context) ([]int, error) {
		return nil, errors.New("db down")
	}, zap.NewNop())
	if err == nil {
		t.Fatal("want error")
	}
	if got := h.Subscribers(Sales); got != 0 {
		t.Errorf("Subscribers = %d, want 0", got)
	}
}

func TestProjection_ContextCancelCloses(t *testing.T) {
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	p, err := Open[int](ctx, h, Services, func(context.Context) ([]int, error) { return nil, nil }, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	cancel()
	select {
	case <-p.Updates():
	case <-time.After(2 * time.Second):
		t.Fatal("projection did not stop on cancel")
	}
	if got := h.Subscribers(Services); got != 0 {
		t.Errorf("Subscribers = %d, want 0", got)
	}
}

func TestWriteEvent(t *testing.T) {
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	if err := writeEvent(w, "snapshot", []byte(`[{"id":"1"}]`)); err != nil {
		t.Fatal(err)
	}
	want := "event: snapshot\ndata: [{\"id\":\"1\"}]\n\n"
	if buf.String() != want {
		t.Errorf("writeEvent = %q, want %q", buf.String(), want)
	}
}

func TestStreamHandler_Rejections(t *testing.T) {
	h := NewHub()
	load := func(context.Context) ([]string, error) { return nil, nil }
	view := func(s []string, _ map[string]string) any { return s }
	sources := map[Collection]Source{
		Users: NewSource[string](Users, load, view, true),
	}

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(auth.CtxSessionKey, auth.Session{State: auth.StateAuthenticated, Role: models.RoleStaff})
		return c.Next()
	})
	app.Get("/live/:collection", StreamHandler(context.Background(), h, sources, zap.NewNop()))

	resp, err := app.Test(httptest.NewRequest("GET", "/live/nope", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("unknown collection = %d, want 404", resp.StatusCode)
	}

	resp, err = app.Test(httptest.NewRequest("GET", "/live/users", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusForbidden {
		t.Errorf("staff on users = %d, want 403", resp.StatusCode)
	}
	if got := h.Subscribers(Users); got != 0 {
		t.Errorf("Subscribers = %d, want 0", got)
	}
}

// readEvent reads one SSE event and returns its data line.
func readEvent(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	type result struct {
		data string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		var event, data string
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				ch <- result{err: err}
				return
			}
			line = strings.TrimRight(line, "\n")
			switch {
			case strings.HasPrefix(line, "event: "):
				event = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				data = strings.TrimPrefix(line, "data: ")
			case line == "" && event != "":
				if event != "snapshot" {
					ch <- result{err: errors.New("unexpected event " + event)}
					return
				}
				ch <- result{data: data}
				return
			}
		}
	}()
	select {
	case res := <-ch:
		if res.err != nil {
			t.Fatalf("read event: %v", res.err)
		}
		return res.data
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return ""
}

func TestStreamHandler_SendsSnapshots(t *testing.T) {
	h := NewHub()
	var items atomic.Value
	items.Store([]string{"toner"})
	load := func(context.Context) ([]string, error) { return items.Load().([]string), nil }
	view := func(s []string, q map[string]string) any {
		out := []string{}
		for _, v := range s {
			if strings.Contains(v, q["q"]) {
				out = append(out, v)
			}
		}
		return out
	}
	sources := map[Collection]Source{Inventory: NewSource[string](Inventory, load, view, false)}

	serverCtx, stop := context.WithCancel(context.Background())
	defer stop()

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(auth.CtxSessionKey, auth.Session{State: auth.StateAuthenticated, Role: models.RoleStaff})
		return c.Next()
	})
	app.Get("/live/:collection", StreamHandler(serverCtx, h, sources, zap.NewNop()))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	go app.Listener(ln)
	defer app.Shutdown()

	resp, err := http.Get("http://" + ln.Addr().String() + "/live/inventory?q=o")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content type = %q", ct)
	}
	r := bufio.NewReader(resp.Body)

	if got := readEvent(t, r); got != `["toner"]` {
		t.Errorf("first snapshot = %s, want [\"toner\"]", got)
	}

	items.Store([]string{"toner", "mouse", "cable"})
	h.Notify(context.Background(), Inventory)
	if got := readEvent(t, r); got != `["toner","mouse"]` {
		t.Errorf("second snapshot = %s, want [\"toner\",\"mouse\"]", got)
	}

	// ending the server lifetime closes the stream and its subscription
	stop()
	done := make(chan error, 1)
	go func() {
		_, err := io.Copy(io.Discard, r)
		done <- err
	}()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("stream still open after server context ended")
	}
	deadline := time.Now().Add(2 * time.Second)
	for h.Subscribers(Inventory) != 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if got := h.Subscribers(Inventory); got != 0 {
		t.Errorf("Subscribers = %d, want 0", got)
	}
}
