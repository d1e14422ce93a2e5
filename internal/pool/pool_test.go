package pool

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDoReturnsValue(t *testing.T) {
	p := New(2)
	defer p.Close()

	v, err := p.Do(func() (any, error) {
		return 42, nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestDoPropagatesError(t *testing.T) {
	p := New(2)
	defer p.Close()

	boom := errors.New("boom")
	_, err := p.Do(func() (any, error) {
		return nil, boom
	})

	assert.ErrorIs(t, err, boom)
}

func TestPanicBecomesErrorAndPoolSurvives(t *testing.T) {
	p := New(1)
	defer p.Close()

	_, err := p.Do(func() (any, error) {
		panic("kaboom")
	})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")

	// The single worker must still be alive.
	v, err := p.Do(func() (any, error) {
		return "still here", nil
	})
	assert.NoError(t, err)
	assert.Equal(t, "still here", v)
}

func TestConcurrentSubmissionsAllComplete(t *testing.T) {
	p := New(3)
	defer p.Close()

	const n = 20
	var wg sync.WaitGroup
	results := make([]int, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := p.Do(func() (any, error) {
				return i * 2, nil
			})
			assert.NoError(t, err)
			results[i] = v.(int)
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		assert.Equal(t, i*2, results[i])
	}
}

func TestSubmitDeliversExactlyOneResult(t *testing.T) {
	p := New(1)
	defer p.Close()

	ch := p.Submit(func() (any, error) {
		return "once", nil
	})

	r := <-ch
	assert.NoError(t, r.Err)
	assert.Equal(t, "once", r.Value)

	_, open := <-ch
	assert.False(t, open, "result channel should deliver exactly one value")
}
