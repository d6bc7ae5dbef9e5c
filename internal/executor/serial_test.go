package executor

import (
	"sync"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestSerialRunsTasksInOrder(t *testing.T) {
	q := NewSerial("test")
	defer q.Close()

	var got []int
	for i := 0; i < 100; i++ {
		i := i
		if !q.Submit(func() { got = append(got, i) }) {
			t.Fatalf("submit %d rejected", i)
		}
	}
	q.Sync(func() {})

	if len(got) != 100 {
		t.Fatalf("expected 100 tasks run, got %d", len(got))
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("task %d ran out of order (got %d)", i, v)
		}
	}
}

func TestSerialSingleConsumer(t *testing.T) {
	q := NewSerial("test")
	defer q.Close()

	// Tasks submitted from many goroutines still run one at a time; the
	// counter needs no synchronization beyond the queue itself.
	running := 0
	peak := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.Submit(func() {
				running++
				if running > peak {
					peak = running
				}
				running--
			})
		}()
	}
	wg.Wait()
	q.Sync(func() {})

	if peak != 1 {
		t.Errorf("expected at most 1 task running concurrently, saw %d", peak)
	}
}

func TestSerialCloseDrainsQueuedTasks(t *testing.T) {
	q := NewSerial("test")

	ran := 0
	for i := 0; i < 20; i++ {
		q.Submit(func() { ran++ })
	}
	q.Close()

	if ran != 20 {
		t.Errorf("expected all queued tasks to run before Close returns, got %d", ran)
	}
}

func TestSerialSubmitAfterCloseIsRejected(t *testing.T) {
	q := NewSerial("test")
	q.Close()

	if q.Submit(func() { t.Error("task ran on closed queue") }) {
		t.Error("Submit should return false after Close")
	}
	if q.Sync(func() {}) {
		t.Error("Sync should return false after Close")
	}
}

func TestSerialCloseIsIdempotent(t *testing.T) {
	q := NewSerial("test")
	q.Close()
	q.Close()
}

func TestProperty_SerialPreservesSubmissionOrder(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("execution order equals submission order for any task count", prop.ForAll(
		func(count int) bool {
			q := NewSerial("prop")
			defer q.Close()

			var got []int
			for i := 0; i < count; i++ {
				i := i
				q.Submit(func() { got = append(got, i) })
			}
			q.Sync(func() {})

			if len(got) != count {
				return false
			}
			for i, v := range got {
				if v != i {
					return false
				}
			}
			return true
		},
		gen.IntRange(0, 500),
	))

	properties.TestingRun(t)
}
