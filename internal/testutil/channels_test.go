package testutil

import (
	"sync"
	"testing"
)

func TestWaitForChannelClosed(t *testing.T) {
	ch := make(chan struct{})
	close(ch)
	WaitForChannel(t, ch, ShortTestTimeout, "closed channel should not block")
}

func TestWaitGroupDone(t *testing.T) {
	var wg sync.WaitGroup
	wg.Add(1)
	go wg.Done()
	WaitGroupDone(t, &wg, ShortTestTimeout)
}
