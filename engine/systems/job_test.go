package systems

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/citadel/engine/renderer/metadata"
)

func TestNewJobSystemValidates(t *testing.T) {
	_, err := NewJobSystem(0, 1)
	assert.ErrorIs(t, err, ErrNoWorkers)
	_, err = NewJobSystem(1, -1)
	assert.ErrorIs(t, err, ErrNegativeChannelSize)
}

func TestJobSystemRunsCallbacks(t *testing.T) {
	js, err := NewJobSystem(4, 8)
	require.NoError(t, err)
	defer js.Shutdown()

	var mu sync.Mutex
	results := map[int]int{}
	var failures atomic.Int32

	for i := 0; i < 20; i++ {
		require.NoError(t, js.Submit(metadata.JobTask{
			JobType: metadata.JOB_TYPE_GENERAL,
			OnStart: func(params interface{}) (interface{}, error) {
				n := params.(int)
				if n%5 == 0 {
					return nil, errors.Newf("job %d failed", n)
				}
				return n * n, nil
			},
			OnComplete: func(result interface{}) {
				mu.Lock()
				defer mu.Unlock()
				results[result.(int)]++
			},
			OnFailure:   func(err error) { failures.Add(1) },
			InputParams: i,
		}))
	}
	js.Wait()

	assert.Equal(t, int32(4), failures.Load())
	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, results, 16)
	assert.Equal(t, 1, results[49])
}

func TestJobSystemSubmitAfterShutdown(t *testing.T) {
	js, err := NewJobSystem(1, 0)
	require.NoError(t, err)

	ran := make(chan struct{}, 1)
	require.NoError(t, js.Submit(metadata.JobTask{
		OnStart: func(interface{}) (interface{}, error) {
			ran <- struct{}{}
			return nil, nil
		},
	}))
	require.NoError(t, js.Shutdown())
	require.NoError(t, js.Shutdown())

	assert.Len(t, ran, 1)
	err = js.Submit(metadata.JobTask{OnStart: func(interface{}) (interface{}, error) { return nil, nil }})
	assert.ErrorIs(t, err, ErrJobSystemShutdown)
}

func TestJobSystemRequiresEntryPoint(t *testing.T) {
	js, err := NewJobSystem(1, 1)
	require.NoError(t, err)
	defer js.Shutdown()
	assert.Error(t, js.Submit(metadata.JobTask{}))
}
