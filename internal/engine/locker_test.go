package engine_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"cardclash/backend/internal/engine"
)

func TestLockerMutualExclusion(t *testing.T) {
	locks := engine.NewLocker()

	const goroutines = 32
	const iterations = 100

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				release := locks.Lock("lobby/1")
				counter++
				release()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, goroutines*iterations, counter)
}

func TestLockerIndependentKeys(t *testing.T) {
	locks := engine.NewLocker()

	release := locks.Lock("lobby/1")
	defer release()

	done := make(chan struct{})
	go func() {
		other := locks.Lock("lobby/2")
		other()
		close(done)
	}()
	<-done
}
