package client_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/ValentinKolb/tstore/lib/core"
	"github.com/ValentinKolb/tstore/lib/registry"
	"github.com/ValentinKolb/tstore/rpc/client"
	"github.com/ValentinKolb/tstore/rpc/codec"
	"github.com/ValentinKolb/tstore/rpc/server"
	"github.com/ValentinKolb/tstore/rpc/transport"
	"github.com/ValentinKolb/tstore/rpc/transport/unix"
)

// startLoopback spins up a unix-socket server for one registered store and
// returns a connected client plus a cleanup func.
func startLoopback(t *testing.T, c codec.Codec) (*client.Client, func()) {
	t.Helper()

	store, err := core.NewTransientStore(core.WithNumProps(2))
	if err != nil {
		t.Fatalf("unexpected error creating store: %v", err)
	}

	reg := registry.New()
	if !reg.Add("default", store) {
		t.Fatalf("expected Add to succeed")
	}

	socketPath := filepath.Join(t.TempDir(), "tstore.sock")
	srv := server.New(reg, c, unix.NewDefaultServerTransport(), server.Config{DefaultStore: "default"})

	serveErrCh := make(chan error, 1)
	go func() {
		serveErrCh <- srv.Serve(transport.ServerConfig{
			Transport: transport.TransportConfig{Endpoint: socketPath},
		})
	}()

	// give the listener a moment to bind before the client dials.
	var cl *client.Client
	var dialErr error
	for i := 0; i < 50; i++ {
		cl, dialErr = client.New("default", transport.ClientConfig{
			Transport: transport.TransportConfig{
				Endpoints:              []string{socketPath},
				ConnectionsPerEndpoint: 1,
				RetryCount:             1,
				TimeoutSecond:          2,
			},
		}, unix.NewClientTransport(), c)
		if dialErr == nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if dialErr != nil {
		t.Fatalf("failed to connect client: %v", dialErr)
	}

	cleanup := func() {
		cl.Close()
		srv.Close()
		select {
		case <-serveErrCh:
		case <-time.After(time.Second):
			t.Fatalf("server did not shut down in time")
		}
	}
	return cl, cleanup
}

func TestClientCreateExistsGetPut(t *testing.T) {
	for name, newCodec := range map[string]func() codec.Codec{
		"json":   codec.NewJSON,
		"gob":    codec.NewGOB,
		"binary": codec.NewBinary,
	} {
		t.Run(name, func(t *testing.T) {
			cl, cleanup := startLoopback(t, newCodec())
			defer cleanup()

			key := []byte("order-1")

			ok, err := cl.Create(key)
			if err != nil || !ok {
				t.Fatalf("expected Create to succeed, got ok=%v err=%v", ok, err)
			}

			ok, err = cl.Create(key)
			if err != nil {
				t.Fatalf("unexpected transport error on duplicate Create: %v", err)
			}
			if ok {
				t.Fatalf("expected duplicate Create to report false")
			}

			existsRes, err := cl.Exists(key)
			if err != nil || !existsRes.Exists {
				t.Fatalf("expected key to exist, got %+v err=%v", existsRes, err)
			}

			// acquire Update locks before writing, mirroring the protocol's
			// lock-then-write convention.
			lockRes, err := cl.Get(key, []core.PropRequest{
				{Index: 0, Mode: core.LockUpdate},
				{Index: 1, Mode: core.LockUpdate},
			}, 0, false)
			if err != nil || lockRes.Status != core.ErrNone {
				t.Fatalf("expected lock Get to succeed, got status=%v err=%v", lockRes.Status, err)
			}

			status, err := cl.Put(key, []core.PropEntry{
				{Index: 0, LockID: lockRes.Values[0].LockID, Value: []byte("hello")},
				{Index: 1, LockID: lockRes.Values[1].LockID, Value: []byte("world")},
			})
			if err != nil || status != core.ErrNone {
				t.Fatalf("expected Put to succeed, got status=%v err=%v", status, err)
			}

			readRes, err := cl.Get(key, []core.PropRequest{
				{Index: 0, Mode: core.LockRead},
				{Index: 1, Mode: core.LockRead},
			}, 0, false)
			if err != nil || readRes.Status != core.ErrNone {
				t.Fatalf("expected read Get to succeed, got status=%v err=%v", readRes.Status, err)
			}
			if len(readRes.Values) != 2 || string(readRes.Values[0].Value) != "hello" || string(readRes.Values[1].Value) != "world" {
				t.Fatalf("unexpected Get values: %+v", readRes.Values)
			}
		})
	}
}

func TestClientDeleteRemoveClear(t *testing.T) {
	cl, cleanup := startLoopback(t, codec.NewBinary())
	defer cleanup()

	key := []byte("session-7")

	if ok, err := cl.Create(key); err != nil || !ok {
		t.Fatalf("expected Create to succeed, got ok=%v err=%v", ok, err)
	}

	lockRes, err := cl.Get(key, []core.PropRequest{{Index: 0, Mode: core.LockUpdate}}, 0, false)
	if err != nil || lockRes.Status != core.ErrNone {
		t.Fatalf("expected lock Get to succeed, got status=%v err=%v", lockRes.Status, err)
	}

	if status, err := cl.Put(key, []core.PropEntry{{Index: 0, LockID: lockRes.Values[0].LockID, Value: []byte("v")}}); err != nil || status != core.ErrNone {
		t.Fatalf("expected Put to succeed, got status=%v err=%v", status, err)
	}

	removeRes, err := cl.Remove(key, 0, false)
	if err != nil || removeRes.Status != core.ErrNone {
		t.Fatalf("expected Remove to succeed, got status=%v err=%v", removeRes.Status, err)
	}
	if len(removeRes.Values) != 1 || string(removeRes.Values[0].Value) != "v" {
		t.Fatalf("unexpected Remove values: %+v", removeRes.Values)
	}

	existsRes, err := cl.Exists(key)
	if err != nil || existsRes.Exists {
		t.Fatalf("expected key to be gone after Remove, got %+v err=%v", existsRes, err)
	}

	if ok, err := cl.Create(key); err != nil || !ok {
		t.Fatalf("expected re-Create to succeed, got ok=%v err=%v", ok, err)
	}

	deleteRes, err := cl.Delete(key, 0, false)
	if err != nil || deleteRes.Status != core.ErrNone || !deleteRes.Deleted {
		t.Fatalf("expected Delete to succeed, got %+v err=%v", deleteRes, err)
	}

	if err := cl.Clear(); err != nil {
		t.Fatalf("expected Clear to succeed, got err=%v", err)
	}
}

func TestClientPutWithoutLockIsInBandError(t *testing.T) {
	cl, cleanup := startLoopback(t, codec.NewBinary())
	defer cleanup()

	key := []byte("unlocked-put")
	if ok, err := cl.Create(key); err != nil || !ok {
		t.Fatalf("expected Create to succeed, got ok=%v err=%v", ok, err)
	}

	status, err := cl.Put(key, []core.PropEntry{{Index: 0, Value: []byte("no lock held")}})
	if err != nil {
		t.Fatalf("unexpected transport error: %v", err)
	}
	if status == core.ErrNone {
		t.Fatalf("expected an in-band error status for a write against an unlocked prop")
	}
}

func TestClientDeleteMissingKey(t *testing.T) {
	cl, cleanup := startLoopback(t, codec.NewBinary())
	defer cleanup()

	res, err := cl.Delete([]byte("never-created"), 0, false)
	if err != nil {
		t.Fatalf("unexpected transport error: %v", err)
	}
	if res.Status == core.ErrNone {
		t.Fatalf("expected an in-band error status for deleting a missing key")
	}
}
