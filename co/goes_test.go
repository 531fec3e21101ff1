// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package co

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGoes(t *testing.T) {
	var (
		g Goes
		n atomic.Int32
	)
	for range 10 {
		g.Go(func() { n.Add(1) })
	}
	g.Wait()
	assert.Equal(t, int32(10), n.Load())

	select {
	case <-g.Done():
	case <-time.After(time.Second):
		t.Fatal("done not closed")
	}
}

func TestGoesWaitContext(t *testing.T) {
	var g Goes
	release := make(chan struct{})
	g.Go(func() { <-release })

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, g.WaitContext(ctx), context.DeadlineExceeded)

	close(release)
	assert.NoError(t, g.WaitContext(context.Background()))
}
