// Command buddydiag runs a standalone heap and streams its stats
// snapshot to any connected websocket client, compressing each frame
// with brotli. It exists to exercise the allocator under a synthetic
// workload while giving a live view into free-list occupancy — the
// diagnostic print sink generalized from stdout to a monitoring
// socket.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/gorilla/websocket"
	"golang.org/x/net/trace"

	"github.com/nmxmxh/buddyheap/buddy"
	"github.com/nmxmxh/buddyheap/internal/diag"
)

var (
	addr      = flag.String("addr", ":8089", "listen address")
	heapBytes = flag.Uint("heap-bytes", 1<<20, "backing buffer size")
	leafBytes = flag.Uint("leaf-bytes", 64, "smallest allocatable block")
	interval  = flag.Duration("interval", 500*time.Millisecond, "snapshot interval")
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func main() {
	flag.Parse()

	mem := make([]byte, *heapBytes)
	h := buddy.MustNewHeap(mem, buddy.Config{
		LeafSize:  uint32(*leafBytes),
		Strict:    true,
		RateLimit: true,
	})

	churnDone := make(chan struct{})
	go func() {
		churn(h)
		close(churnDone)
	}()

	http.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		serveSnapshots(w, r, h)
	})

	server := &http.Server{Addr: *addr}
	serverErr := make(chan error, 1)
	go func() {
		log.Printf("buddydiag listening on %s", *addr)
		serverErr <- server.ListenAndServe()
	}()

	shutdown := diag.NewShutdown(5*time.Second, nil)
	shutdown.Register(func() error { return server.Shutdown(context.Background()) })
	shutdown.Register(func() error {
		close(stopChurn)
		<-churnDone
		return nil
	})

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)

	select {
	case err := <-serverErr:
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("buddydiag: serve: %v", err)
		}
	case <-sig:
		if err := shutdown.Run(context.Background()); err != nil {
			log.Fatalf("buddydiag: shutdown: %v", err)
		}
	}
}

var stopChurn = make(chan struct{})

// churn exercises the heap with random alloc/free traffic so the
// snapshot stream has something to show.
func churn(h *buddy.Heap) {
	live := make([]uint32, 0, 256)
	for {
		select {
		case <-stopChurn:
			return
		case <-time.After(10 * time.Millisecond):
		}
		if len(live) == 0 || rand.Intn(2) == 0 {
			size := uint32(1 << uint(rand.Intn(8)))
			if p, err := h.Allocate(size); err == nil {
				live = append(live, p)
			}
			continue
		}
		i := rand.Intn(len(live))
		h.Free(live[i])
		live[i] = live[len(live)-1]
		live = live[:len(live)-1]
	}
}

func serveSnapshots(w http.ResponseWriter, r *http.Request, h *buddy.Heap) {
	sessionID := diag.GenerateID()
	tr := trace.New("buddydiag.snapshot", sessionID)
	defer tr.Finish()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		tr.LazyPrintf("upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	for range ticker.C {
		stats, err := h.Stats()
		if err != nil {
			tr.LazyPrintf("stats failed: %v", err)
			return
		}

		payload, err := json.Marshal(stats)
		if err != nil {
			tr.LazyPrintf("marshal failed: %v", err)
			return
		}

		frame, err := compress(payload)
		if err != nil {
			tr.LazyPrintf("compress failed: %v", err)
			return
		}

		if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
			tr.LazyPrintf("write failed: %v", err)
			return
		}
		tr.LazyPrintf("snapshot sent, %d bytes", len(frame))
	}
}

func compress(payload []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := brotli.NewWriter(&buf)
	if _, err := w.Write(payload); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
