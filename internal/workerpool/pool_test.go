package workerpool

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tomb "gopkg.in/tomb.v2"
)

func TestPool_ProcessesAllTasks(t *testing.T) {
	var processed int64
	var seen sync.Map

	p := New(4, 16, func(task any) error {
		n := task.(int)
		seen.Store(n, true)
		atomic.AddInt64(&processed, 1)
		return nil
	})

	tb := &tomb.Tomb{}
	p.Run(tb)
	defer func() {
		tb.Kill(nil)
		_ = tb.Wait()
	}()

	for i := 0; i < 20; i++ {
		p.AddTask(i)
	}

	require.Eventually(t, func() bool {
		return atomic.LoadInt64(&processed) == 20
	}, time.Second, 5*time.Millisecond)

	for i := 0; i < 20; i++ {
		_, ok := seen.Load(i)
		assert.True(t, ok, "task %d was not processed", i)
	}
}

func TestPool_WorkerErrorsDoNotStopOtherTasks(t *testing.T) {
	var processed int64
	p := New(2, 8, func(task any) error {
		atomic.AddInt64(&processed, 1)
		if task.(int) == 1 {
			return assert.AnError
		}
		return nil
	})

	tb := &tomb.Tomb{}
	p.Run(tb)
	defer func() {
		tb.Kill(nil)
		_ = tb.Wait()
	}()

	p.AddTask(1)
	p.AddTask(2)

	require.Eventually(t, func() bool {
		return atomic.LoadInt64(&processed) == 2
	}, time.Second, 5*time.Millisecond)
}
