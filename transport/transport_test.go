package transport_test

import (
	"bytes"
	"sync"
	"testing"

	"github.com/dtile-project/dtile/transport"
)

func TestSendRecvRoundtrip(t *testing.T) {
	world := transport.NewWorld(2)
	r0 := world.Rank(0)
	r1 := world.Rank(1)

	var wg sync.WaitGroup
	wg.Add(1)
	var got []byte
	var recvErr error
	go func() {
		defer wg.Done()
		got, recvErr = r1.Recv(0)
	}()
	if err := r0.Send([]byte("hello"), 1); err != nil {
		t.Fatalf("Send: %v", err)
	}
	wg.Wait()
	if recvErr != nil {
		t.Fatalf("Recv: %v", recvErr)
	}
	if !bytes.Equal(got, []byte("hello")) {
		t.Fatalf("got %q, want %q", got, "hello")
	}
}

func TestGroupBcastReachesEveryNonRoot(t *testing.T) {
	world := transport.NewWorld(3)
	ranks := []*transport.Loopback{world.Rank(0), world.Rank(1), world.Rank(2)}

	var wg sync.WaitGroup
	results := make([][]byte, 3)
	errs := make([]error, 3)
	for idx := range ranks {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			g, err := ranks[idx].NewGroup([]int{0, 1, 2})
			if err != nil {
				errs[idx] = err
				return
			}
			defer g.Close()
			var payload []byte
			if idx == 0 {
				payload = []byte("bcast-payload")
			}
			results[idx], errs[idx] = g.Bcast(payload, 0)
		}(idx)
	}
	wg.Wait()

	for idx, err := range errs {
		if err != nil {
			t.Fatalf("rank %d: %v", idx, err)
		}
		if !bytes.Equal(results[idx], []byte("bcast-payload")) {
			t.Fatalf("rank %d got %q, want %q", idx, results[idx], "bcast-payload")
		}
	}
}

func TestNewGroupRejectsNonMember(t *testing.T) {
	world := transport.NewWorld(2)
	r0 := world.Rank(0)
	if _, err := r0.NewGroup([]int{1}); err == nil {
		t.Fatalf("expected error building a group that excludes the caller")
	}
}
